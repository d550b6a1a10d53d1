package export

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type cursorFrontmatter struct {
	Description string   `yaml:"description"`
	Globs       []string `yaml:"globs"`
	AlwaysApply bool     `yaml:"alwaysApply"`
}

func frontmatter(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(b) + "---\n", nil
}

// GenerateCursorRules renders a Cursor .mdc rule file describing the architecture.
func GenerateCursorRules(c Context, mermaid string) (string, error) {
	fm, err := frontmatter(cursorFrontmatter{
		Description: fmt.Sprintf("Architecture blueprint for %s", c.Project.Name),
		Globs:       []string{"**/*"},
		AlwaysApply: true,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fm)
	b.WriteString(fmt.Sprintf("\n# %s architecture\n\n", c.Project.Name))
	if c.Project.Description != "" {
		b.WriteString(c.Project.Description + "\n\n")
	}
	b.WriteString("Follow this blueprint when adding or changing code. Keep components and their connections consistent with it.\n\n")

	writeComponents(&b, c)
	writeConnections(&b, c)

	q := c.Quality
	b.WriteString("## Quality\n\n")
	b.WriteString(fmt.Sprintf("- Score: %d (%s), status %s\n", q.Score, q.Grade, q.Status))
	for _, is := range q.TopIssues {
		b.WriteString(fmt.Sprintf("- [%s] %s\n", is.Type, is.Message))
	}
	b.WriteString("\n## Diagram\n\n```mermaid\n")
	b.WriteString(mermaid)
	b.WriteString("```\n")
	return b.String(), nil
}

func writeComponents(b *strings.Builder, c Context) {
	b.WriteString("## Components\n\n")
	order, groups := c.byGroup()
	for _, g := range order {
		b.WriteString(fmt.Sprintf("### %s\n\n", g))
		for _, comp := range groups[g] {
			b.WriteString(fmt.Sprintf("- **%s** (`%s`, %s)\n", comp.Label, comp.ID, comp.Type))
		}
		b.WriteString("\n")
	}
}

func writeConnections(b *strings.Builder, c Context) {
	b.WriteString("## Connections\n\n")
	if len(c.Connections) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, conn := range c.Connections {
		line := fmt.Sprintf("- %s -> %s", c.labelOf(conn.Source), c.labelOf(conn.Target))
		if conn.Label != "" {
			line += fmt.Sprintf(" (%s)", conn.Label)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}
