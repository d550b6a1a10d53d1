package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/blueprint-service/pkg/types"
)

func ptr(v float64) *float64 { return &v }

func at(id string, x, y float64) types.Node {
	return types.Node{ID: id, Position: types.Position{X: x, Y: y}}
}

func TestParseStyleDimension(t *testing.T) {
	tests := map[types.Dimension]float64{
		"320px":   320,
		" 12.5em": 12.5,
		"80":      80,
		".5rem":   0.5,
		"-40px":   -40,
		"1e2px":   100,
		"auto":    0,
		"":        0,
		"px320":   0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseStyleDimension(in), "input %q", in)
	}
}

func TestResolveNodeSize(t *testing.T) {
	tests := []struct {
		name  string
		node  types.Node
		wantW float64
		wantH float64
	}{
		{
			name:  "defaults",
			node:  at("a", 0, 0),
			wantW: DefaultNodeWidth,
			wantH: DefaultNodeHeight,
		},
		{
			name: "measured wins",
			node: types.Node{
				Measured: &types.Size{Width: 150, Height: 60},
				Width:    ptr(400),
				Height:   ptr(300),
				Style:    &types.NodeStyle{Width: "500px", Height: "500px"},
			},
			wantW: 150,
			wantH: 60,
		},
		{
			name:  "direct size before style",
			node:  types.Node{Width: ptr(400), Height: ptr(300), Style: &types.NodeStyle{Width: "500px"}},
			wantW: 400,
			wantH: 300,
		},
		{
			name:  "style string",
			node:  types.Node{Style: &types.NodeStyle{Width: "320px", Height: "90px"}},
			wantW: 320,
			wantH: 90,
		},
		{
			name:  "axes resolve independently",
			node:  types.Node{Measured: &types.Size{Width: 120}, Style: &types.NodeStyle{Height: "70"}},
			wantW: 120,
			wantH: 70,
		},
		{
			name:  "non-positive values fall through",
			node:  types.Node{Measured: &types.Size{Width: -1, Height: 0}, Width: ptr(0), Style: &types.NodeStyle{Width: "-5px", Height: "auto"}},
			wantW: DefaultNodeWidth,
			wantH: DefaultNodeHeight,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := ResolveNodeSize(tt.node)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestCalculateGraphExportBounds(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		b := CalculateGraphExportBounds(nil, 50)

		assert.Equal(t, Bounds{Width: 100, Height: 100, TranslateX: 50, TranslateY: 50}, b)
	})

	t.Run("measured nodes", func(t *testing.T) {
		a := at("a", -20, 10)
		a.Measured = &types.Size{Width: 100, Height: 40}
		c := at("c", 300, 250)
		c.Measured = &types.Size{Width: 80, Height: 80}

		b := CalculateGraphExportBounds([]types.Node{a, c}, 25)

		assert.Equal(t, -20.0, b.MinX)
		assert.Equal(t, 10.0, b.MinY)
		assert.Equal(t, 380.0, b.MaxX)
		assert.Equal(t, 330.0, b.MaxY)
		assert.Equal(t, 380.0-(-20.0), b.MaxX-b.MinX)
		assert.Equal(t, 450.0, b.Width)
		assert.Equal(t, 370.0, b.Height)
		assert.Equal(t, 25.0, b.TranslateX+b.MinX)
		assert.Equal(t, 25.0, b.TranslateY+b.MinY)
	})

	t.Run("default sizes", func(t *testing.T) {
		b := CalculateGraphExportBounds([]types.Node{at("a", 0, 0), at("b", 100, 100)}, 0)

		assert.Equal(t, 300.0, b.Width)
		assert.Equal(t, 200.0, b.Height)
		assert.Equal(t, 0.0, b.TranslateX)
	})

	t.Run("style dimensions from json", func(t *testing.T) {
		var nodes []types.Node
		raw := `[{"id":"a","position":{"x":0,"y":0},"style":{"width":"320px","height":80}}]`
		require.NoError(t, json.Unmarshal([]byte(raw), &nodes))

		b := CalculateGraphExportBounds(nodes, 10)

		assert.Equal(t, 340.0, b.Width)
		assert.Equal(t, 100.0, b.Height)
	})
}
