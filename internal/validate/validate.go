package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

// payloadSchema compiles one embedded schema on first use.
type payloadSchema struct {
	file    string
	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
}

var (
	graphSchema  = &payloadSchema{file: "schema/graph.schema.json"}
	boundsSchema = &payloadSchema{file: "schema/bounds.schema.json"}
)

func (p *payloadSchema) load() {
	raw, err := schemaFS.ReadFile(p.file)
	if err != nil {
		p.loadErr = err
		return
	}
	url := "file://" + p.file
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		p.loadErr = err
		return
	}
	p.schema, p.loadErr = c.Compile(url)
}

func (p *payloadSchema) validate(body []byte) error {
	p.once.Do(p.load)
	if p.loadErr != nil {
		return fmt.Errorf("load %s: %w", p.file, p.loadErr)
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return p.schema.Validate(v)
}

// ValidateGraphPayload checks a raw request body against the graph schema.
func ValidateGraphPayload(body []byte) error { return graphSchema.validate(body) }

// ValidateBoundsPayload checks a bounds request. Nodes only need geometry
// there, so ids are optional.
func ValidateBoundsPayload(body []byte) error { return boundsSchema.validate(body) }
