package ingest

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

func DetectType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".drawio", ".xml":
		return "drawio"
	case ".puml", ".plantuml":
		return "puml"
	case ".svg":
		return "svg"
	case ".pdf":
		return "pdf"
	case ".png", ".jpg", ".jpeg":
		return "raster"
	default:
		return "unknown"
	}
}

type ParsedFile struct {
	Name  string
	Nodes []types.Node
	Edges []types.Edge
	Notes []string
}

// Parse dispatches on the file extension. Formats without a parser produce a
// note so the caller can tell the user what was skipped.
func Parse(name string, data []byte) ParsedFile {
	switch DetectType(name) {
	case "drawio":
		return ParseDrawIO(name, data)
	case "puml":
		return ParsePUML(name, data)
	case "svg":
		return ParseSVG(name, data)
	case "pdf", "raster":
		return ParsedFile{Name: name, Notes: []string{name + ": text extraction for this format is not supported, redraw it in draw.io or PlantUML"}}
	default:
		return ParsedFile{Name: name, Notes: []string{name + ": unknown file type"}}
	}
}

// BuildGraph merges parsed files into one graph. Node ids are prefixed with the
// file index when more than one file contributes nodes, so ids from separate
// diagrams cannot clash.
func BuildGraph(files []ParsedFile) types.Graph {
	g := types.Graph{Nodes: []types.Node{}, Edges: []types.Edge{}}

	contributing := 0
	for _, f := range files {
		if len(f.Nodes) > 0 {
			contributing++
		}
	}

	for i, f := range files {
		prefix := ""
		if contributing > 1 {
			prefix = "f" + strconv.Itoa(i+1) + "_"
		}
		for _, n := range f.Nodes {
			n.ID = prefix + n.ID
			g.Nodes = append(g.Nodes, n)
		}
		for _, e := range f.Edges {
			e.Source = prefix + e.Source
			e.Target = prefix + e.Target
			g.Edges = append(g.Edges, e)
		}
		g.Notes = append(g.Notes, f.Notes...)
	}
	return g
}
