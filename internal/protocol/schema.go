package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://runegrid.ai/schemas/"

// Schema names accepted by Validate.
const (
	SchemaStart     = "start.schema.json"
	SchemaState     = "state.schema.json"
	SchemaTurn      = "turn.schema.json"
	SchemaCatalogue = "catalogue.schema.json"
	SchemaError     = "error.schema.json"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemasErr = err
			return
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		for _, e := range entries {
			b, err := schemaFS.ReadFile("schemas/" + e.Name())
			if err != nil {
				schemasErr = err
				return
			}
			if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", e.Name(), err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(entries))
		for _, e := range entries {
			s, err := c.Compile(schemaBase + e.Name())
			if err != nil {
				schemasErr = fmt.Errorf("compile %s: %w", e.Name(), err)
				return
			}
			out[e.Name()] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// Validate checks a decoded JSON value (as produced by json.Unmarshal into
// an any) against the named embedded schema.
func Validate(name string, v any) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	s, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	return s.Validate(v)
}

// ValidateStart checks a raw START payload against its schema and decodes
// it. Semantic checks (duplicate cells, bounds against the grid) are left
// to the world.
func ValidateStart(b []byte) (StartRequest, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return StartRequest{}, fmt.Errorf("bad json: %w", err)
	}
	if err := Validate(SchemaStart, raw); err != nil {
		return StartRequest{}, err
	}
	var req StartRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return StartRequest{}, fmt.Errorf("bad json: %w", err)
	}
	if !CompatibleVersion(req.ProtocolVersion) {
		return StartRequest{}, fmt.Errorf("unsupported protocol_version %q (server speaks %s)", req.ProtocolVersion, Version)
	}
	return req, nil
}
