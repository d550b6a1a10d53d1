package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const SkillDir = "skill/"

type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// SkillName kebab-cases a project name.
func SkillName(project string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(project), "-"), "-")
	if s == "" {
		return "architecture-blueprint"
	}
	return s
}

// GenerateSkillPackage returns the files of a skill package keyed by path
// relative to the package root.
func GenerateSkillPackage(c Context, mermaid string) ([]Artifact, error) {
	name := SkillName(c.Project.Name)
	desc := fmt.Sprintf("Architecture knowledge for %s: components, connections and constraints to respect when writing code.", c.Project.Name)
	fm, err := frontmatter(skillFrontmatter{Name: name, Description: desc})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(fm)
	b.WriteString(fmt.Sprintf("\n# %s\n\n", c.Project.Name))
	if c.Project.Description != "" {
		b.WriteString(c.Project.Description + "\n\n")
	}
	b.WriteString("## When to use\n\n")
	b.WriteString("Use this skill when implementing, reviewing or extending services of this system.\n\n")
	b.WriteString("## Instructions\n\n")
	b.WriteString("1. Read `reference/components.json` to find the component you are working on.\n")
	b.WriteString("2. Only introduce connections that appear in `reference/architecture.mmd`, or update the blueprint first.\n")
	b.WriteString("3. Keep data stores behind their owning services.\n\n")
	writeComponents(&b, c)
	writeConnections(&b, c)

	components, err := json.MarshalIndent(c.Components, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal components: %w", err)
	}

	return []Artifact{
		{Name: "SKILL.md", ContentType: contentMarkdown, Body: []byte(b.String())},
		{Name: "reference/architecture.mmd", ContentType: contentMermaid, Body: []byte(mermaid)},
		{Name: "reference/components.json", ContentType: contentJSON, Body: components},
	}, nil
}

// WriteZip writes files into a zip archive rooted at dir.
func WriteZip(w io.Writer, dir string, files []Artifact) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.Create(dir + "/" + f.Name)
		if err != nil {
			return fmt.Errorf("zip %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Body); err != nil {
			return fmt.Errorf("zip %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
