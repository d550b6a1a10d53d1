package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

var groupByType = map[string]string{
	"database":     "Data Layer",
	"db":           "Data Layer",
	"vector-db":    "Data Layer",
	"bucket":       "Data Layer",
	"storage":      "Data Layer",
	"cache":        "Data Layer",
	"queue":        "Messaging Layer",
	"messaging":    "Messaging Layer",
	"frontend":     "Frontend Layer",
	"gateway":      "Ingress Layer",
	"loadbalancer": "Ingress Layer",
	"backend":      "Application Services",
	"service":      "Application Services",
	"function":     "Application Services",
	"ai":           "AI Services",
	"ai-model":     "AI Services",
	"auth":         "Security & Identity",
	"security":     "Security & Identity",
	"payment":      "Business Integrations",
	"automation":   "Automation",
	"monitoring":   "Observability",
	"cicd":         "Delivery Pipeline",
}

type shape struct {
	open, close string
	prefix      string
}

var (
	shapeRect       = shape{open: "[", close: "]"}
	shapeCylinder   = shape{open: "[(", close: ")]"}
	shapeHexagon    = shape{open: "{{", close: "}}"}
	shapeRhombus    = shape{open: "{", close: "}"}
	shapeAI         = shape{open: "[", close: "]", prefix: "AI: "}
	shapeSubroutine = shape{open: "[[", close: "]]"}
)

var shapeByType = map[string]shape{
	"database":     shapeCylinder,
	"db":           shapeCylinder,
	"vector-db":    shapeCylinder,
	"bucket":       shapeCylinder,
	"storage":      shapeCylinder,
	"cache":        shapeCylinder,
	"queue":        shapeHexagon,
	"messaging":    shapeHexagon,
	"gateway":      shapeRhombus,
	"loadbalancer": shapeRhombus,
	"security":     shapeRhombus,
	"ai":           shapeAI,
	"ai-model":     shapeAI,
	"function":     shapeSubroutine,
	"cicd":         shapeSubroutine,
	"automation":   shapeSubroutine,
}

var directions = map[string]bool{"TD": true, "TB": true, "BT": true, "LR": true, "RL": true}

type MermaidOptions struct {
	Direction        string
	IncludeSubgraphs bool
}

func DefaultMermaidOptions() MermaidOptions {
	return MermaidOptions{Direction: "TD", IncludeSubgraphs: true}
}

// Classify returns the normalized type of a node and its group name, which is
// empty for types outside the group table.
func Classify(n types.Node) (nodeType, group string) {
	nodeType = n.NormalizedType()
	return nodeType, groupByType[nodeType]
}

var (
	nonIdent     = regexp.MustCompile(`[^a-z0-9_]`)
	underscores  = regexp.MustCompile(`_+`)
	spaceRun     = regexp.MustCompile(`\s+`)
	quoteOrBreak = strings.NewReplacer(`"`, "", "'", "", "`", "", "\r\n", " ", "\n", " ", "\r", " ")
)

// SanitizeID turns raw into a Mermaid identifier. index is the positional
// index used when nothing usable is left.
func SanitizeID(raw string, index int) string {
	id := strings.ToLower(raw)
	id = nonIdent.ReplaceAllString(id, "_")
	id = underscores.ReplaceAllString(id, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		return fmt.Sprintf("node_%d", index+1)
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "node_" + id
	}
	return id
}

type aliasSet map[string]bool

func (used aliasSet) claim(base string) string {
	alias := base
	for i := 1; used[alias]; i++ {
		alias = fmt.Sprintf("%s_%d", base, i)
	}
	used[alias] = true
	return alias
}

// AssignAliases maps every raw node id to a unique Mermaid identifier. A
// repeated raw id keeps the alias of its first occurrence.
func AssignAliases(nodes []types.Node) map[string]string {
	aliases, _ := assignAliases(nodes)
	return aliases
}

func assignAliases(nodes []types.Node) (map[string]string, aliasSet) {
	aliases := make(map[string]string, len(nodes))
	used := make(aliasSet, len(nodes))
	for i, n := range nodes {
		if _, ok := aliases[n.ID]; ok {
			continue
		}
		aliases[n.ID] = used.claim(SanitizeID(n.ID, i))
	}
	return aliases, used
}

// SanitizeLabel drops quotes and line breaks and collapses whitespace.
func SanitizeLabel(s string) string {
	s = quoteOrBreak.Replace(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func nodeLabel(n types.Node, alias string) string {
	if l := SanitizeLabel(n.Data.Label); l != "" {
		return l
	}
	if l := SanitizeLabel(n.ID); l != "" {
		return l
	}
	return alias
}

// EdgeLabel is the sanitized edge label, or the sanitized protocol when the
// label has nothing left after sanitizing.
func EdgeLabel(e types.Edge) string {
	if l := SanitizeLabel(e.Data.Label); l != "" {
		return l
	}
	return SanitizeLabel(e.Data.Protocol)
}

func renderNode(alias, label, nodeType string) string {
	sh, ok := shapeByType[nodeType]
	if !ok {
		sh = shapeRect
	}
	return alias + sh.open + jsonString(sh.prefix+label) + sh.close
}

// GenerateMermaidFlowchart renders the graph as Mermaid flowchart source. Edges
// whose endpoints do not resolve to a node are dropped.
func GenerateMermaidFlowchart(nodes []types.Node, edges []types.Edge, opts MermaidOptions) string {
	dir := strings.ToUpper(strings.TrimSpace(opts.Direction))
	if !directions[dir] {
		dir = "TD"
	}

	aliases, used := assignAliases(nodes)

	var topLevel []string
	var groupOrder []string
	grouped := map[string][]string{}
	declared := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		if declared[n.ID] {
			continue
		}
		declared[n.ID] = true

		alias := aliases[n.ID]
		nodeType, group := Classify(n)
		line := renderNode(alias, nodeLabel(n, alias), nodeType)

		if !opts.IncludeSubgraphs || group == "" {
			topLevel = append(topLevel, "  "+line)
			continue
		}
		if _, ok := grouped[group]; !ok {
			groupOrder = append(groupOrder, group)
		}
		grouped[group] = append(grouped[group], "    "+line)
	}

	var b strings.Builder
	b.WriteString("flowchart " + dir + "\n")

	for _, group := range groupOrder {
		id := used.claim("group_" + SanitizeID(group, 0))
		b.WriteString(fmt.Sprintf("  subgraph %s[%s]\n", id, jsonString(group)))
		for _, line := range grouped[group] {
			b.WriteString(line + "\n")
		}
		b.WriteString("  end\n")
	}
	for _, line := range topLevel {
		b.WriteString(line + "\n")
	}

	for _, e := range edges {
		from, okFrom := aliases[e.Source]
		to, okTo := aliases[e.Target]
		if !okFrom || !okTo {
			continue
		}
		if label := EdgeLabel(e); label != "" {
			b.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", from, jsonString(label), to))
			continue
		}
		b.WriteString(fmt.Sprintf("  %s --> %s\n", from, to))
	}

	return b.String()
}

func GenerateMermaidCode(nodes []types.Node, edges []types.Edge) string {
	return GenerateMermaidFlowchart(nodes, edges, DefaultMermaidOptions())
}
