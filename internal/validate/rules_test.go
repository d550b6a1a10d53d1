package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

func node(id, typ string) types.Node {
	return types.Node{ID: id, Type: typ, Data: types.NodeData{Label: id}}
}

func link(source, target string) types.Edge {
	return types.Edge{Source: source, Target: target}
}

func byCode(issues []types.Issue, code string) []types.Issue {
	var out []types.Issue
	for _, is := range issues {
		if is.Code == code {
			out = append(out, is)
		}
	}
	return out
}

// wellFormed has an entry point behind a gateway, auth, monitoring and one
// owner per data store.
func wellFormed() ([]types.Node, []types.Edge) {
	nodes := []types.Node{
		node("web", "frontend"),
		node("gw", "gateway"),
		node("auth", "auth"),
		node("api", "service"),
		node("db", "database"),
		node("mon", "monitoring"),
	}
	edges := []types.Edge{
		link("web", "gw"),
		link("gw", "auth"),
		link("gw", "api"),
		link("api", "db"),
		link("mon", "api"),
	}
	return nodes, edges
}

func TestRulesWellFormedGraph(t *testing.T) {
	nodes, edges := wellFormed()
	for _, mode := range []types.Mode{types.ModeDefault, types.ModeStartup, types.ModeEnterprise} {
		t.Run(string(mode), func(t *testing.T) {
			assert.Empty(t, Rules{}.Validate(nodes, edges, mode))
		})
	}
}

func TestRules(t *testing.T) {
	t.Run("duplicate ids are reported once", func(t *testing.T) {
		nodes := []types.Node{node("a", "service"), node("a", "service"), node("a", "service")}

		got := byCode(Rules{}.Validate(nodes, nil, types.ModeDefault), "duplicate-node-id")

		require.Len(t, got, 1)
		assert.Equal(t, types.IssueError, got[0].Type)
		assert.Equal(t, []string{"a"}, got[0].NodeIDs)
		assert.Contains(t, got[0].Message, "3 times")
	})

	t.Run("dangling edge and self loop", func(t *testing.T) {
		nodes := []types.Node{node("a", "service"), node("b", "service")}
		edges := []types.Edge{link("a", "ghost"), link("b", "b")}

		issues := Rules{}.Validate(nodes, edges, types.ModeDefault)

		require.Len(t, byCode(issues, "dangling-edge"), 1)
		assert.Equal(t, types.IssueWarning, byCode(issues, "dangling-edge")[0].Type)
		require.Len(t, byCode(issues, "self-loop"), 1)
		assert.Equal(t, []string{"b"}, byCode(issues, "self-loop")[0].NodeIDs)
	})

	t.Run("frontend talking to a database is an error", func(t *testing.T) {
		nodes := []types.Node{node("web", "frontend"), {ID: "store", Data: types.NodeData{Label: "Store", ServiceType: "Vector-DB"}}}

		got := byCode(Rules{}.Validate(nodes, []types.Edge{link("web", "store")}, types.ModeDefault), "frontend-to-database")

		require.Len(t, got, 1)
		assert.Equal(t, types.IssueError, got[0].Type)
		assert.Equal(t, []string{"web", "store"}, got[0].NodeIDs)
	})

	t.Run("unreachable nodes need at least two nodes", func(t *testing.T) {
		assert.Empty(t, byCode(Rules{}.Validate([]types.Node{node("a", "service")}, nil, types.ModeDefault), "unreachable-node"))

		nodes := []types.Node{node("a", "service"), node("b", "service"), node("c", "service")}
		got := byCode(Rules{}.Validate(nodes, []types.Edge{link("a", "b")}, types.ModeDefault), "unreachable-node")
		require.Len(t, got, 1)
		assert.Equal(t, []string{"c"}, got[0].NodeIDs)
	})

	t.Run("missing auth severity depends on mode", func(t *testing.T) {
		nodes := []types.Node{node("web", "frontend"), node("api", "service")}
		edges := []types.Edge{link("web", "api")}

		def := byCode(Rules{}.Validate(nodes, edges, types.ModeDefault), "missing-auth")
		startup := byCode(Rules{}.Validate(nodes, edges, types.ModeStartup), "missing-auth")

		require.Len(t, def, 1)
		assert.Equal(t, types.IssueWarning, def[0].Type)
		require.Len(t, startup, 1)
		assert.Equal(t, types.IssueSuggestion, startup[0].Type)
	})

	t.Run("missing monitoring escalates in enterprise", func(t *testing.T) {
		nodes := []types.Node{node("a", "service"), node("b", "service"), node("c", "service"), node("d", "service")}
		edges := []types.Edge{link("a", "b"), link("b", "c"), link("c", "d")}

		def := byCode(Rules{}.Validate(nodes, edges, types.ModeDefault), "missing-monitoring")
		ent := byCode(Rules{}.Validate(nodes, edges, types.ModeEnterprise), "missing-monitoring")
		small := byCode(Rules{}.Validate(nodes[:3], edges[:2], types.ModeEnterprise), "missing-monitoring")

		require.Len(t, def, 1)
		assert.Equal(t, types.IssueSuggestion, def[0].Type)
		require.Len(t, ent, 1)
		assert.Equal(t, types.IssueWarning, ent[0].Type)
		assert.Empty(t, small)
	})

	t.Run("frontend fanning out to services suggests a gateway", func(t *testing.T) {
		nodes := []types.Node{node("web", "frontend"), node("orders", "service"), node("users", "backend"), node("auth", "auth")}
		edges := []types.Edge{link("web", "orders"), link("web", "users"), link("web", "auth")}

		def := byCode(Rules{}.Validate(nodes, edges, types.ModeDefault), "missing-gateway")
		startup := byCode(Rules{}.Validate(nodes, edges, types.ModeStartup), "missing-gateway")

		require.Len(t, def, 1)
		assert.Equal(t, types.IssueSuggestion, def[0].Type)
		assert.Contains(t, def[0].Message, "2 services")
		assert.Empty(t, startup)
	})

	t.Run("queue without consumer", func(t *testing.T) {
		nodes := []types.Node{node("api", "service"), node("events", "queue"), node("jobs", "messaging"), node("worker", "service")}
		edges := []types.Edge{link("api", "events"), link("api", "jobs"), link("jobs", "worker")}

		got := byCode(Rules{}.Validate(nodes, edges, types.ModeDefault), "queue-without-consumer")

		require.Len(t, got, 1)
		assert.Equal(t, []string{"events"}, got[0].NodeIDs)
	})

	t.Run("blank labels are suggestions", func(t *testing.T) {
		nodes := []types.Node{{ID: "a", Data: types.NodeData{Label: "   "}}, node("b", "service")}

		got := byCode(Rules{}.Validate(nodes, []types.Edge{link("a", "b")}, types.ModeDefault), "unlabeled-node")

		require.Len(t, got, 1)
		assert.Equal(t, types.IssueSuggestion, got[0].Type)
		assert.Equal(t, []string{"a"}, got[0].NodeIDs)
	})

	t.Run("shared database only in enterprise", func(t *testing.T) {
		nodes := []types.Node{node("a", "service"), node("b", "service"), node("c", "function"), node("db", "database")}
		edges := []types.Edge{link("a", "db"), link("b", "db"), link("c", "db"), link("a", "db")}

		assert.Empty(t, byCode(Rules{}.Validate(nodes, edges, types.ModeDefault), "shared-database"))
		got := byCode(Rules{}.Validate(nodes, edges, types.ModeEnterprise), "shared-database")
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "3 services")
	})

	t.Run("issues come out in rule order", func(t *testing.T) {
		nodes := []types.Node{node("a", "service"), node("a", "service"), {ID: "lonely"}}
		edges := []types.Edge{link("a", "missing")}

		var codes []string
		for _, is := range (Rules{}).Validate(nodes, edges, types.ModeDefault) {
			codes = append(codes, is.Code)
		}

		assert.Equal(t, []string{"duplicate-node-id", "dangling-edge", "unreachable-node", "unlabeled-node"}, codes)
	})
}
