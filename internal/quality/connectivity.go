package quality

import "github.com/MalithGihan/blueprint-service/pkg/types"

// CountConnectedComponents treats edges as undirected. Edges with an endpoint
// outside the node set are ignored.
func CountConnectedComponents(nodes []types.Node, edges []types.Edge) int {
	if len(nodes) == 0 {
		return 0
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}

	visited := make(map[string]bool, len(nodes))
	components := 0
	for _, n := range nodes {
		if visited[n.ID] {
			continue
		}
		components++
		visited[n.ID] = true
		stack := []string{n.ID}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}
	}
	return components
}

// CountIsolatedNodes counts nodes that never appear as an edge endpoint. The
// opposite endpoint does not have to resolve.
func CountIsolatedNodes(nodes []types.Node, edges []types.Edge) int {
	if len(nodes) == 0 {
		return 0
	}

	touched := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}

	isolated := 0
	for _, n := range nodes {
		if !touched[n.ID] {
			isolated++
		}
	}
	return isolated
}
