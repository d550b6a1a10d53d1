package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

func shopGraph() ([]types.Node, []types.Edge) {
	nodes := []types.Node{
		labeled("api", "service", "Orders API"),
		labeled("db", "database", "Orders DB"),
		labeled("tool", "widget", "Admin Tool"),
	}
	edges := []types.Edge{
		{Source: "api", Target: "db", Data: types.EdgeData{Protocol: "sql"}},
		{Source: "tool", Target: "api"},
		{Source: "api", Target: "ghost"},
	}
	return nodes, edges
}

func healthyReport() quality.Report {
	return quality.Report{Mode: types.ModeDefault, Score: 92, Grade: "A", Status: quality.StatusHealthy, Blockers: []string{}}
}

func TestBuildContext(t *testing.T) {
	nodes, edges := shopGraph()
	nodes = append(nodes, labeled("api", "service", "Duplicate"))

	c := BuildContext(Project{Name: "Shop"}, nodes, edges, healthyReport())

	require.Len(t, c.Components, 3)
	assert.Equal(t, Component{ID: "api", Alias: "api", Label: "Orders API", Type: "service", Group: "Application Services"}, c.Components[0])
	assert.Equal(t, "", c.Components[2].Group)
	require.Len(t, c.Connections, 2)
	assert.Equal(t, Connection{Source: "api", Target: "db", Label: "sql"}, c.Connections[0])
	assert.Equal(t, "Orders API", c.labelOf("api"))
	assert.Equal(t, "ghost", c.labelOf("ghost"))

	order, groups := c.byGroup()
	assert.Equal(t, []string{"Application Services", "Data Layer", "Other Components"}, order)
	assert.Len(t, groups["Other Components"], 1)
}

func TestGenerateCursorRules(t *testing.T) {
	nodes, edges := shopGraph()
	c := BuildContext(Project{Name: "Shop", Description: "Online store."}, nodes, edges, healthyReport())

	got, err := GenerateCursorRules(c, GenerateMermaidCode(nodes, edges))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "---\ndescription: Architecture blueprint for Shop\n"), got)
	assert.Contains(t, got, "alwaysApply: true\n---\n")
	assert.Contains(t, got, "# Shop architecture\n\nOnline store.\n")
	assert.Contains(t, got, "### Data Layer\n\n- **Orders DB** (`db`, database)\n")
	assert.Contains(t, got, "- Orders API -> Orders DB (sql)\n")
	assert.Contains(t, got, "- Admin Tool -> Orders API\n")
	assert.Contains(t, got, "- Score: 92 (A), status healthy\n")
	assert.Contains(t, got, "```mermaid\nflowchart TD\n")
	assert.True(t, strings.HasSuffix(got, "```\n"))
}

func TestSkillName(t *testing.T) {
	assert.Equal(t, "my-shop-api", SkillName("My Shop API!"))
	assert.Equal(t, "v2-billing", SkillName("  v2 -- Billing "))
	assert.Equal(t, "architecture-blueprint", SkillName("???"))
}

func TestGenerateSkillPackage(t *testing.T) {
	nodes, edges := shopGraph()
	c := BuildContext(Project{Name: "Shop Platform"}, nodes, edges, healthyReport())
	mermaid := GenerateMermaidCode(nodes, edges)

	files, err := GenerateSkillPackage(c, mermaid)

	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "SKILL.md", files[0].Name)
	assert.True(t, strings.HasPrefix(string(files[0].Body), "---\nname: shop-platform\n"))
	assert.Equal(t, "reference/architecture.mmd", files[1].Name)
	assert.Equal(t, mermaid, string(files[1].Body))

	var components []Component
	require.NoError(t, json.Unmarshal(files[2].Body, &components))
	assert.Len(t, components, 3)
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	files := []Artifact{
		{Name: "SKILL.md", Body: []byte("# skill\n")},
		{Name: "reference/architecture.mmd", Body: []byte("flowchart TD\n")},
	}

	require.NoError(t, WriteZip(&buf, "shop", files))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "shop/SKILL.md", zr.File[0].Name)
	assert.Equal(t, "shop/reference/architecture.mmd", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "flowchart TD\n", string(body))
}

func TestBuildBundle(t *testing.T) {
	nodes, edges := shopGraph()

	t.Run("blocked report", func(t *testing.T) {
		report := healthyReport()
		report.IsExportBlocked = true
		report.Blockers = []string{"1 blocking validation error(s)"}

		bundle, err := BuildBundle(Project{Name: "Shop"}, nodes, edges, report)

		assert.ErrorIs(t, err, ErrExportBlocked)
		assert.Nil(t, bundle)
	})

	t.Run("all artifacts", func(t *testing.T) {
		bundle, err := BuildBundle(Project{Name: "Shop"}, nodes, edges, healthyReport())
		require.NoError(t, err)

		var names []string
		for _, a := range bundle {
			names = append(names, a.Name)
			assert.NotEmpty(t, a.Body, a.Name)
			assert.Equal(t, ContentType(a.Name), a.ContentType, a.Name)
		}
		assert.Equal(t, []string{
			FileMermaid,
			FileCursor,
			FileContext,
			FileQuality,
			FileBlueprint,
			"skill/SKILL.md",
			"skill/reference/architecture.mmd",
			"skill/reference/components.json",
		}, names)

		var ctx Context
		require.NoError(t, json.Unmarshal(bundle[2].Body, &ctx))
		assert.Equal(t, "Shop", ctx.Project.Name)
		assert.Equal(t, 92, ctx.Quality.Score)

		var bp Blueprint
		require.NoError(t, json.Unmarshal(bundle[4].Body, &bp))
		assert.Equal(t, "Shop", bp.Metadata.Project)
		assert.Len(t, bp.Services, 2)

		skill := SkillFiles(bundle)
		require.Len(t, skill, 3)
		assert.Equal(t, "SKILL.md", skill[0].Name)
	})
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType("context.json"))
	assert.Equal(t, "text/vnd.mermaid; charset=utf-8", ContentType("skill/reference/architecture.mmd"))
	assert.Equal(t, "text/markdown; charset=utf-8", ContentType("architecture.mdc"))
	assert.Equal(t, "application/octet-stream", ContentType("blob.bin"))
}
