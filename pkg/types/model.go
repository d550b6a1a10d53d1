package types

import (
	"encoding/json"
	"strings"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Dimension holds a style size that may arrive as a JSON number (320) or a
// CSS-like string ("320px").
type Dimension string

func (d *Dimension) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*d = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = Dimension(s)
		return nil
	}
	*d = Dimension(raw)
	return nil
}

type NodeStyle struct {
	Width  Dimension `json:"width,omitempty"`
	Height Dimension `json:"height,omitempty"`
}

type NodeData struct {
	Label       string `json:"label,omitempty"`
	ServiceType string `json:"serviceType,omitempty"`
	Description string `json:"description,omitempty"`
}

type Node struct {
	ID       string     `json:"id"`
	Type     string     `json:"type,omitempty"` // service|database|queue|gateway|frontend|...
	Data     NodeData   `json:"data"`
	Position Position   `json:"position"`
	Measured *Size      `json:"measured,omitempty"`
	Width    *float64   `json:"width,omitempty"`
	Height   *float64   `json:"height,omitempty"`
	Style    *NodeStyle `json:"style,omitempty"`
	Source   string     `json:"source,omitempty"` // drawio|puml|svg when ingested
}

type EdgeData struct {
	Label    string `json:"label,omitempty"`
	Protocol string `json:"protocol,omitempty"` // REST|gRPC|PUB|SUB|sql|...
}

type Edge struct {
	ID     string   `json:"id,omitempty"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Data   EdgeData `json:"data"`
}

type Graph struct {
	Nodes []Node   `json:"nodes"`
	Edges []Edge   `json:"edges"`
	Notes []string `json:"notes,omitempty"`
}

type IssueType string

const (
	IssueError      IssueType = "error"
	IssueWarning    IssueType = "warning"
	IssueSuggestion IssueType = "suggestion"
)

// Issue is one finding of the architecture validator.
type Issue struct {
	Type    IssueType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	NodeIDs []string  `json:"nodeIds,omitempty"`
}

type Mode string

const (
	ModeDefault    Mode = "default"
	ModeStartup    Mode = "startup"
	ModeEnterprise Mode = "enterprise"
)
