package layout

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

const (
	DefaultPadding    = 50.0
	DefaultNodeWidth  = 200.0
	DefaultNodeHeight = 100.0
)

type Bounds struct {
	MinX       float64 `json:"minX"`
	MinY       float64 `json:"minY"`
	MaxX       float64 `json:"maxX"`
	MaxY       float64 `json:"maxY"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseStyleDimension reads the leading number of a CSS-like size ("320px" -> 320).
// Unparseable input yields 0.
func ParseStyleDimension(d types.Dimension) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(string(d)))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func firstUsable(fallback float64, candidates ...float64) float64 {
	for _, c := range candidates {
		if usable(c) {
			return c
		}
	}
	return fallback
}

// ResolveNodeSize picks measured size, then the direct width/height, then the
// style dimension, then 200x100. Each axis is resolved on its own.
func ResolveNodeSize(n types.Node) (width, height float64) {
	var mw, mh, dw, dh, sw, sh float64
	if n.Measured != nil {
		mw, mh = n.Measured.Width, n.Measured.Height
	}
	if n.Width != nil {
		dw = *n.Width
	}
	if n.Height != nil {
		dh = *n.Height
	}
	if n.Style != nil {
		sw, sh = ParseStyleDimension(n.Style.Width), ParseStyleDimension(n.Style.Height)
	}
	return firstUsable(DefaultNodeWidth, mw, dw, sw), firstUsable(DefaultNodeHeight, mh, dh, sh)
}

// CalculateGraphExportBounds returns the canvas box that holds every node plus
// padding, and the translation that moves the top-left node to (padding, padding).
func CalculateGraphExportBounds(nodes []types.Node, padding float64) Bounds {
	if len(nodes) == 0 {
		return Bounds{
			Width:      2 * padding,
			Height:     2 * padding,
			TranslateX: padding,
			TranslateY: padding,
		}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		w, h := ResolveNodeSize(n)
		x, y := n.Position.X, n.Position.Y
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x+w)
		maxY = math.Max(maxY, y+h)
	}

	return Bounds{
		MinX:       minX,
		MinY:       minY,
		MaxX:       maxX,
		MaxY:       maxY,
		Width:      math.Max(1, maxX-minX+2*padding),
		Height:     math.Max(1, maxY-minY+2*padding),
		TranslateX: -minX + padding,
		TranslateY: -minY + padding,
	}
}
