package validate

import (
	"fmt"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

const sharedDatabaseWriters = 3

// Rules is the built-in architecture validator. Issues come out in rule order,
// and within a rule in input order, so the same graph always yields the same list.
type Rules struct{}

func (Rules) Validate(nodes []types.Node, edges []types.Edge, mode types.Mode) []types.Issue {
	g := index(nodes, edges)
	var out []types.Issue

	out = append(out, g.duplicateIDs()...)
	out = append(out, g.danglingEdges()...)
	out = append(out, g.selfLoops()...)
	out = append(out, g.frontendToDatabase()...)
	out = append(out, g.unreachable()...)
	out = append(out, g.missingAuth(mode)...)
	out = append(out, g.missingMonitoring(mode)...)
	out = append(out, g.missingGateway(mode)...)
	out = append(out, g.queueWithoutConsumer()...)
	out = append(out, g.unlabeled()...)
	if mode == types.ModeEnterprise {
		out = append(out, g.sharedDatabase()...)
	}
	return out
}

type indexed struct {
	nodes    []types.Node
	edges    []types.Edge
	kind     map[string]string
	touched  map[string]bool
	outgoing map[string]int
}

func index(nodes []types.Node, edges []types.Edge) *indexed {
	g := &indexed{
		nodes:    nodes,
		edges:    edges,
		kind:     make(map[string]string, len(nodes)),
		touched:  make(map[string]bool, len(edges)*2),
		outgoing: make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, seen := g.kind[n.ID]; !seen {
			g.kind[n.ID] = n.NormalizedType()
		}
	}
	for _, e := range edges {
		g.touched[e.Source] = true
		g.touched[e.Target] = true
		g.outgoing[e.Source]++
	}
	return g
}

func (g *indexed) has(pred func(string) bool) bool {
	for _, k := range g.kind {
		if pred(k) {
			return true
		}
	}
	return false
}

func issue(t types.IssueType, code, msg string, ids ...string) types.Issue {
	return types.Issue{Type: t, Code: code, Message: msg, NodeIDs: ids}
}

func (g *indexed) duplicateIDs() []types.Issue {
	counts := make(map[string]int, len(g.nodes))
	for _, n := range g.nodes {
		counts[n.ID]++
	}
	var out []types.Issue
	reported := map[string]bool{}
	for _, n := range g.nodes {
		if counts[n.ID] > 1 && !reported[n.ID] {
			reported[n.ID] = true
			out = append(out, issue(types.IssueError, "duplicate-node-id",
				fmt.Sprintf("Node id %q is declared %d times", n.ID, counts[n.ID]), n.ID))
		}
	}
	return out
}

func (g *indexed) danglingEdges() []types.Issue {
	var out []types.Issue
	for _, e := range g.edges {
		_, okS := g.kind[e.Source]
		_, okT := g.kind[e.Target]
		if okS && okT {
			continue
		}
		out = append(out, issue(types.IssueWarning, "dangling-edge",
			fmt.Sprintf("Connection %s -> %s references a missing component", e.Source, e.Target)))
	}
	return out
}

func (g *indexed) selfLoops() []types.Issue {
	var out []types.Issue
	for _, e := range g.edges {
		if e.Source == e.Target {
			out = append(out, issue(types.IssueWarning, "self-loop",
				fmt.Sprintf("Component %s connects to itself", e.Source), e.Source))
		}
	}
	return out
}

func (g *indexed) frontendToDatabase() []types.Issue {
	var out []types.Issue
	for _, e := range g.edges {
		s, t := g.kind[e.Source], g.kind[e.Target]
		if (types.IsFrontendType(s) && types.IsStorageType(t)) || (types.IsStorageType(s) && types.IsFrontendType(t)) {
			out = append(out, issue(types.IssueError, "frontend-to-database",
				fmt.Sprintf("Frontend and data store are connected directly (%s -> %s); route through a backend service", e.Source, e.Target),
				e.Source, e.Target))
		}
	}
	return out
}

func (g *indexed) unreachable() []types.Issue {
	if len(g.nodes) < 2 {
		return nil
	}
	var out []types.Issue
	for _, n := range g.nodes {
		if !g.touched[n.ID] {
			out = append(out, issue(types.IssueWarning, "unreachable-node",
				fmt.Sprintf("%s is not connected to any other component", n.DisplayLabel()), n.ID))
		}
	}
	return out
}

func (g *indexed) missingAuth(mode types.Mode) []types.Issue {
	exposed := g.has(types.IsFrontendType) || g.has(types.IsGatewayType)
	if !exposed || g.has(types.IsSecurityType) {
		return nil
	}
	severity := types.IssueWarning
	if mode == types.ModeStartup {
		severity = types.IssueSuggestion
	}
	return []types.Issue{issue(severity, "missing-auth",
		"Public entry points exist but no authentication or security component is defined")}
}

func (g *indexed) missingMonitoring(mode types.Mode) []types.Issue {
	if len(g.nodes) < 4 || g.has(func(k string) bool { return k == "monitoring" }) {
		return nil
	}
	severity := types.IssueSuggestion
	if mode == types.ModeEnterprise {
		severity = types.IssueWarning
	}
	return []types.Issue{issue(severity, "missing-monitoring",
		"No monitoring component is defined for this architecture")}
}

func (g *indexed) missingGateway(mode types.Mode) []types.Issue {
	if mode == types.ModeStartup || g.has(types.IsGatewayType) {
		return nil
	}
	var out []types.Issue
	for _, n := range g.nodes {
		if !types.IsFrontendType(g.kind[n.ID]) {
			continue
		}
		targets := map[string]bool{}
		for _, e := range g.edges {
			if e.Source != n.ID {
				continue
			}
			if k, ok := g.kind[e.Target]; ok && isService(k) {
				targets[e.Target] = true
			}
		}
		if len(targets) >= 2 {
			out = append(out, issue(types.IssueSuggestion, "missing-gateway",
				fmt.Sprintf("%s calls %d services directly; consider an API gateway", n.DisplayLabel(), len(targets)), n.ID))
		}
	}
	return out
}

func (g *indexed) queueWithoutConsumer() []types.Issue {
	var out []types.Issue
	for _, n := range g.nodes {
		if types.IsQueueType(g.kind[n.ID]) && g.outgoing[n.ID] == 0 {
			out = append(out, issue(types.IssueWarning, "queue-without-consumer",
				fmt.Sprintf("%s has no consumers", n.DisplayLabel()), n.ID))
		}
	}
	return out
}

func (g *indexed) unlabeled() []types.Issue {
	var out []types.Issue
	for _, n := range g.nodes {
		if strings.TrimSpace(n.Data.Label) == "" {
			out = append(out, issue(types.IssueSuggestion, "unlabeled-node",
				fmt.Sprintf("Component %s has no display label", n.ID), n.ID))
		}
	}
	return out
}

func (g *indexed) sharedDatabase() []types.Issue {
	writers := map[string]map[string]bool{}
	for _, e := range g.edges {
		if !types.IsStorageType(g.kind[e.Target]) {
			continue
		}
		if k, ok := g.kind[e.Source]; !ok || !isService(k) {
			continue
		}
		if writers[e.Target] == nil {
			writers[e.Target] = map[string]bool{}
		}
		writers[e.Target][e.Source] = true
	}
	var out []types.Issue
	for _, n := range g.nodes {
		if w := writers[n.ID]; len(w) >= sharedDatabaseWriters {
			out = append(out, issue(types.IssueWarning, "shared-database",
				fmt.Sprintf("%s is shared by %d services; prefer one owner per data store", n.DisplayLabel(), len(w)), n.ID))
			delete(writers, n.ID)
		}
	}
	return out
}

func isService(k string) bool {
	switch k {
	case "service", "backend", "function", "api", "ai", "ai-model", "payment", "automation":
		return true
	}
	return false
}
