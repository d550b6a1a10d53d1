package ingest

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

type svgDoc struct {
	Texts  []svgText  `xml:"text"`
	Groups []svgGroup `xml:"g"`
}

type svgGroup struct {
	Texts  []svgText  `xml:"text"`
	Groups []svgGroup `xml:"g"`
}

type svgText struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
	T string `xml:",chardata"`
}

// ParseSVG extracts text labels as nodes, positioned at their text anchor.
// Connectors are not recovered from SVG.
func ParseSVG(name string, data []byte) ParsedFile {
	var doc svgDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ParsedFile{Name: name, Notes: []string{name + ": svg xml unmarshal failed"}}
	}

	texts := append([]svgText{}, doc.Texts...)
	var walk func([]svgGroup)
	walk = func(gs []svgGroup) {
		for _, g := range gs {
			texts = append(texts, g.Texts...)
			walk(g.Groups)
		}
	}
	walk(doc.Groups)

	var nodes []types.Node
	for i, t := range texts {
		label := strings.Join(strings.Fields(t.T), " ")
		if label == "" {
			continue
		}
		nodes = append(nodes, types.Node{
			ID:       fmt.Sprintf("svg_%d", i+1),
			Type:     guessTypeFromLabel(label),
			Data:     types.NodeData{Label: label},
			Position: types.Position{X: parseCoord(t.X), Y: parseCoord(t.Y)},
			Source:   "svg",
		})
	}
	notes := []string{name + ": svg best-effort text extraction; edges not parsed"}
	return ParsedFile{Name: name, Nodes: nodes, Notes: notes}
}

func parseCoord(s string) float64 {
	f := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(f) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(f[0], "px"), 64)
	if err != nil {
		return 0
	}
	return v
}
