package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const genConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "seed": {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "map_size_lg": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "x": {"type": "integer", "minimum": 4, "maximum": 12},
        "y": {"type": "integer", "minimum": 4, "maximum": 12}
      }
    },
    "world": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "sea_level":      {"type": "number", "exclusiveMinimum": 0},
        "snow_temp":      {"type": "number", "minimum": -1, "maximum": 1},
        "temperate_temp": {"type": "number", "minimum": -1, "maximum": 1},
        "tropical_temp":  {"type": "number", "minimum": -1, "maximum": 1},
        "desert_temp":    {"type": "number", "minimum": -1, "maximum": 1},
        "desert_hum":     {"type": "number", "minimum": 0, "maximum": 1},
        "forest_hum":     {"type": "number", "minimum": 0, "maximum": 1},
        "jungle_hum":     {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "atlas_path":    {"type": "string"},
        "snapshot_path": {"type": "string"},
        "listen_addr":   {"type": "string"}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("genconfig.schema.json", genConfigSchema)
	})
	return schema, schemaErr
}

// CheckSchema validates raw YAML against the generation config schema.
// YAML is round-tripped through JSON so the validator sees plain JSON values.
func CheckSchema(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(buf, &v); err != nil {
		return fmt.Errorf("yaml to json: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
