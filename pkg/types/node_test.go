package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedType(t *testing.T) {
	assert.Equal(t, "database", Node{Type: "Database"}.NormalizedType())
	assert.Equal(t, "vector-db", Node{Type: "service", Data: NodeData{ServiceType: " Vector-DB "}}.NormalizedType())
	assert.Equal(t, DefaultNodeType, Node{}.NormalizedType())
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Orders", Node{ID: "o", Data: NodeData{Label: " Orders "}}.DisplayLabel())
	assert.Equal(t, "o", Node{ID: "o", Data: NodeData{Label: "  "}}.DisplayLabel())
}

func TestDimensionUnmarshal(t *testing.T) {
	var s NodeStyle
	require.NoError(t, json.Unmarshal([]byte(`{"width":"320px","height":80.5}`), &s))
	assert.Equal(t, Dimension("320px"), s.Width)
	assert.Equal(t, Dimension("80.5"), s.Height)

	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","style":{"width":null}}`), &n))
	require.NotNil(t, n.Style)
	assert.Equal(t, Dimension(""), n.Style.Width)
}
