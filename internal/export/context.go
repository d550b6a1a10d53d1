package export

import (
	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Component struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Group string `json:"group,omitempty"`
}

type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Context is the document served to coding assistants that query a blueprint live.
type Context struct {
	Project     Project        `json:"project"`
	Components  []Component    `json:"components"`
	Connections []Connection   `json:"connections"`
	Quality     quality.Report `json:"quality"`
}

func BuildContext(p Project, nodes []types.Node, edges []types.Edge, report quality.Report) Context {
	aliases := AssignAliases(nodes)

	components := make([]Component, 0, len(nodes))
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		nodeType, group := Classify(n)
		components = append(components, Component{
			ID:    n.ID,
			Alias: aliases[n.ID],
			Label: nodeLabel(n, aliases[n.ID]),
			Type:  nodeType,
			Group: group,
		})
	}

	connections := make([]Connection, 0, len(edges))
	for _, e := range edges {
		if !seen[e.Source] || !seen[e.Target] {
			continue
		}
		connections = append(connections, Connection{
			Source: e.Source,
			Target: e.Target,
			Label:  EdgeLabel(e),
		})
	}

	return Context{Project: p, Components: components, Connections: connections, Quality: report}
}

// byGroup returns group names in first-seen order with ungrouped components
// collected under "Other Components".
func (c Context) byGroup() ([]string, map[string][]Component) {
	var order []string
	groups := map[string][]Component{}
	for _, comp := range c.Components {
		g := comp.Group
		if g == "" {
			g = "Other Components"
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], comp)
	}
	return order, groups
}

func (c Context) labelOf(id string) string {
	for _, comp := range c.Components {
		if comp.ID == id {
			return comp.Label
		}
	}
	return id
}
