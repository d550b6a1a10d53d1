package ingest

import (
	"encoding/xml"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

type mxfile struct {
	Diagram []diagram `xml:"diagram"`
}
type diagram struct {
	MxGraphModel mxGraphModel `xml:"mxGraphModel"`
}
type mxGraphModel struct {
	Root root `xml:"root"`
}
type root struct {
	Cells []mxCell `xml:"mxCell"`
}

type mxCell struct {
	ID       string      `xml:"id,attr"`
	Value    string      `xml:"value,attr"`
	Style    string      `xml:"style,attr"`
	Vertex   string      `xml:"vertex,attr"` // "1" if node
	Edge     string      `xml:"edge,attr"`   // "1" if edge
	Source   string      `xml:"source,attr"`
	Target   string      `xml:"target,attr"`
	Parent   string      `xml:"parent,attr"`
	Geometry *mxGeometry `xml:"mxGeometry"`
}

type mxGeometry struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

// ParseDrawIO reads an uncompressed draw.io document. Malformed XML is not an
// error: the file contributes a note instead.
func ParseDrawIO(name string, data []byte) ParsedFile {
	var doc mxfile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ParsedFile{Name: name, Notes: []string{name + ": drawio xml unmarshal failed"}}
	}

	var nodes []types.Node
	var edges []types.Edge

	for _, d := range doc.Diagram {
		for _, c := range d.MxGraphModel.Root.Cells {
			if c.Vertex == "1" {
				label := htmlUnescape(stripHTML(c.Value))
				if label == "" {
					label = "node-" + c.ID
				}
				n := types.Node{
					ID:     c.ID,
					Type:   guessTypeFromStyle(c.Style, label),
					Data:   types.NodeData{Label: label},
					Source: "drawio",
				}
				if g := c.Geometry; g != nil {
					n.Position = types.Position{X: g.X, Y: g.Y}
					if g.Width > 0 && g.Height > 0 {
						n.Measured = &types.Size{Width: g.Width, Height: g.Height}
					}
				}
				nodes = append(nodes, n)
			} else if c.Edge == "1" {
				edges = append(edges, types.Edge{
					ID:     c.ID,
					Source: c.Source,
					Target: c.Target,
					Data: types.EdgeData{
						Label:    htmlUnescape(stripHTML(c.Value)),
						Protocol: guessProtocolFromValue(c.Value),
					},
				})
			}
		}
	}
	return ParsedFile{Name: name, Nodes: nodes, Edges: edges}
}

func stripHTML(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	// draw.io often wraps labels like <div>Service</div>
	for _, tag := range []string{"<div>", "</div>", "<br>", "<br/>", "<b>", "</b>"} {
		s = strings.ReplaceAll(s, tag, " ")
	}
	return s
}

func htmlUnescape(s string) string {
	repl := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#xa;", " ", "&nbsp;", " ")
	return strings.Join(strings.Fields(repl.Replace(s)), " ")
}

func guessTypeFromStyle(style, label string) string {
	s := strings.ToLower(style)
	switch {
	case strings.Contains(s, "shape=cylinder") || strings.Contains(s, "shape=datastore"):
		return "database"
	case strings.Contains(s, "shape=rhombus"):
		return "gateway"
	case strings.Contains(s, "shape=hexagon"):
		return "queue"
	}
	return guessTypeFromLabel(label)
}

func guessTypeFromLabel(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "db:"), strings.Contains(l, "database"), strings.Contains(l, "postgres"), strings.Contains(l, "mysql"), strings.Contains(l, "mongo"):
		return "database"
	case strings.Contains(l, "redis"), strings.Contains(l, "cache"):
		return "cache"
	case strings.HasPrefix(l, "q:"), strings.Contains(l, "queue"), strings.Contains(l, "kafka"), strings.Contains(l, "rabbit"):
		return "queue"
	case strings.Contains(l, "gateway") || strings.HasPrefix(l, "gw:"):
		return "gateway"
	case strings.Contains(l, "load balancer"), strings.HasPrefix(l, "lb:"):
		return "loadbalancer"
	case strings.Contains(l, "auth"), strings.Contains(l, "identity"):
		return "auth"
	case strings.Contains(l, "frontend"), strings.Contains(l, "web app"), strings.HasPrefix(l, "ui:"):
		return "frontend"
	case strings.Contains(l, "bucket"), strings.Contains(l, "s3"):
		return "bucket"
	case strings.Contains(l, "monitor"), strings.Contains(l, "prometheus"), strings.Contains(l, "grafana"):
		return "monitoring"
	default:
		return "service"
	}
}

func guessProtocolFromValue(v string) string {
	l := strings.ToLower(v)
	switch {
	case strings.Contains(l, "grpc"):
		return "gRPC"
	case strings.Contains(l, "rest"), strings.Contains(l, "http"):
		return "REST"
	case strings.Contains(l, "sql"):
		return "SQL"
	case strings.Contains(l, "pub"):
		return "PUB"
	case strings.Contains(l, "sub"):
		return "SUB"
	default:
		return ""
	}
}
