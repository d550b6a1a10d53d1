package ingest

import (
	"regexp"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

var (
	reComp = regexp.MustCompile(`(?i)^(component|rectangle|node|database|queue|actor|cloud)\s+"?([^"]+?)"?\s*(as\s+([A-Za-z0-9_]+))?\s*$`)
	reLink = regexp.MustCompile(`(?i)^([A-Za-z0-9_"]+)\s*[-\.]*>{1,2}\s*([A-Za-z0-9_"]+)\s*(?::\s*(.+))?$`)
)

func ParsePUML(name string, data []byte) ParsedFile {
	lines := strings.Split(string(data), "\n")

	idByLabel := map[string]string{}
	var nodes []types.Node
	var edges []types.Edge

	for _, ln := range lines {
		l := strings.TrimSpace(ln)
		if l == "" || strings.HasPrefix(l, "'") || strings.HasPrefix(l, "@") {
			continue
		}

		if m := reComp.FindStringSubmatch(l); m != nil {
			label := strings.TrimSpace(m[2])
			id := m[4]
			if id == "" {
				id = sanitizeID(label)
			}
			idByLabel[label] = id
			nodes = append(nodes, types.Node{
				ID:     id,
				Type:   pumlType(strings.ToLower(m[1]), label),
				Data:   types.NodeData{Label: label},
				Source: "puml",
			})
			continue
		}
		if m := reLink.FindStringSubmatch(l); m != nil {
			from := cleanRef(m[1], idByLabel)
			to := cleanRef(m[2], idByLabel)
			note := strings.TrimSpace(m[3])
			edges = append(edges, types.Edge{
				Source: from,
				Target: to,
				Data:   types.EdgeData{Label: note, Protocol: guessProtocolFromValue(note)},
			})
		}
	}
	return ParsedFile{Name: name, Nodes: nodes, Edges: edges}
}

func pumlType(keyword, label string) string {
	switch keyword {
	case "database":
		return "database"
	case "queue":
		return "queue"
	case "actor":
		return "frontend"
	}
	return guessTypeFromLabel(label)
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

func cleanRef(s string, ids map[string]string) string {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if id, ok := ids[s]; ok {
		return id
	}
	return sanitizeID(s)
}
