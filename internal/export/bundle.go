package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/MalithGihan/blueprint-service/internal/quality"
	"github.com/MalithGihan/blueprint-service/pkg/types"
)

const (
	contentMarkdown = "text/markdown; charset=utf-8"
	contentMermaid  = "text/vnd.mermaid; charset=utf-8"
	contentJSON     = "application/json"
)

const (
	FileMermaid = "architecture.mmd"
	FileCursor  = "architecture.mdc"
	FileContext = "context.json"
	FileQuality = "quality.json"
)

var ErrExportBlocked = errors.New("export blocked by quality gate")

type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"-"`
}

// BuildBundle renders every export artifact for a graph. It refuses to run
// when the report blocks export.
func BuildBundle(p Project, nodes []types.Node, edges []types.Edge, report quality.Report) ([]Artifact, error) {
	if report.IsExportBlocked {
		return nil, ErrExportBlocked
	}

	mermaid := GenerateMermaidCode(nodes, edges)
	ctx := BuildContext(p, nodes, edges, report)

	cursor, err := GenerateCursorRules(ctx, mermaid)
	if err != nil {
		return nil, err
	}
	skill, err := GenerateSkillPackage(ctx, mermaid)
	if err != nil {
		return nil, err
	}
	ctxJSON, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	qJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal quality: %w", err)
	}
	bpJSON, err := json.MarshalIndent(BuildBlueprint(p, nodes, edges, report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal blueprint: %w", err)
	}

	out := []Artifact{
		{Name: FileMermaid, ContentType: contentMermaid, Body: []byte(mermaid)},
		{Name: FileCursor, ContentType: contentMarkdown, Body: []byte(cursor)},
		{Name: FileContext, ContentType: contentJSON, Body: ctxJSON},
		{Name: FileQuality, ContentType: contentJSON, Body: qJSON},
		{Name: FileBlueprint, ContentType: contentJSON, Body: bpJSON},
	}
	for _, f := range skill {
		f.Name = SkillDir + f.Name
		out = append(out, f)
	}
	return out, nil
}

// SkillFiles picks the skill package out of a bundle, with paths relative to
// the package root.
func SkillFiles(bundle []Artifact) []Artifact {
	var out []Artifact
	for _, f := range bundle {
		if rel, ok := strings.CutPrefix(f.Name, SkillDir); ok && rel != "" {
			f.Name = rel
			out = append(out, f)
		}
	}
	return out
}

// ContentType guesses the media type of a stored artifact from its name.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return contentJSON
	case ".mmd":
		return contentMermaid
	case ".md", ".mdc":
		return contentMarkdown
	default:
		return "application/octet-stream"
	}
}
