package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/blueprint-service/internal/layout"
	"github.com/MalithGihan/blueprint-service/internal/quality"
)

const healthyGraph = `{
  "nodes": [
    {"id": "api", "type": "service", "data": {"label": "API"}, "position": {"x": 0, "y": 0}},
    {"id": "db", "type": "database", "data": {"label": "DB"}, "position": {"x": 300, "y": 0}}
  ],
  "edges": [{"source": "api", "target": "db", "data": {"protocol": "sql"}}]
}`

const leakyGraph = `{
  "nodes": [
    {"id": "web", "type": "frontend", "data": {"label": "Web"}},
    {"id": "db", "type": "database", "data": {"label": "DB"}}
  ],
  "edges": [{"source": "web", "target": "db"}]
}`

func writeGraph(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCmd(t *testing.T) {
	t.Run("prints the report", func(t *testing.T) {
		out, err := run(t, "", "analyze", writeGraph(t, healthyGraph))

		require.NoError(t, err)
		var r quality.Report
		require.NoError(t, json.Unmarshal([]byte(out), &r))
		assert.Equal(t, 100, r.Score)
	})

	t.Run("reads stdin", func(t *testing.T) {
		out, err := run(t, leakyGraph, "analyze", "--mode", "startup", "-")

		require.NoError(t, err)
		var r quality.Report
		require.NoError(t, json.Unmarshal([]byte(out), &r))
		assert.Equal(t, "startup", string(r.Mode))
		assert.True(t, r.IsExportBlocked)
	})

	t.Run("fails on blocked when asked", func(t *testing.T) {
		_, err := run(t, "", "analyze", "--fail-on-blocked", writeGraph(t, leakyGraph))

		assert.ErrorContains(t, err, "export blocked")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := run(t, "", "analyze", writeGraph(t, "{"))

		assert.Error(t, err)
	})
}

func TestMermaidCmd(t *testing.T) {
	path := writeGraph(t, healthyGraph)

	t.Run("stdout", func(t *testing.T) {
		out, err := run(t, "", "mermaid", "--direction", "LR", "--no-subgraphs", path)

		require.NoError(t, err)
		assert.Equal(t, "flowchart LR\n  api[\"API\"]\n  db[(\"DB\")]\n  api -->|\"sql\"| db\n", out)
	})

	t.Run("output file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "arch.mmd")

		out, err := run(t, "", "mermaid", "-o", dest, path)

		require.NoError(t, err)
		assert.Empty(t, out)
		b, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Contains(t, string(b), "subgraph group_data_layer")
	})
}

func TestBoundsCmd(t *testing.T) {
	path := writeGraph(t, healthyGraph)

	out, err := run(t, "", "bounds", "--padding", "10", path)

	require.NoError(t, err)
	var b layout.Bounds
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, 520.0, b.Width)
	assert.Equal(t, 120.0, b.Height)

	_, err = run(t, "", "bounds", "--padding", "-1", path)
	assert.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	t.Run("writes the bundle", func(t *testing.T) {
		dir := t.TempDir()

		_, err := run(t, "", "export", "--name", "Shop", "--out", dir, writeGraph(t, healthyGraph))

		require.NoError(t, err)
		for _, name := range []string{"architecture.mmd", "architecture.mdc", "context.json", "quality.json", "blueprint.json", "skill/SKILL.md"} {
			assert.FileExists(t, filepath.Join(dir, name))
		}
	})

	t.Run("blocked graphs write nothing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")

		_, err := run(t, "", "export", "--out", dir, writeGraph(t, leakyGraph))

		assert.Error(t, err)
		assert.NoDirExists(t, dir)
	})
}
