package diagfile

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// documentSchemaJSON is the JSON Schema for design documents. Embedded as a
// constant to avoid filesystem dependencies.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://themodeller.dev/schemas/design.json",
  "type": "object",
  "required": ["nodes", "edges"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      },
      "additionalProperties": false
    },
    "node": {
      "type": "object",
      "required": ["id", "title", "pos", "rect"],
      "properties": {
        "id": { "type": "integer" },
        "title": { "type": "string" },
        "pos": { "$ref": "#/$defs/point" },
        "rect": {
          "type": "object",
          "required": ["width", "height"],
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" },
            "width": { "type": "number", "exclusiveMinimum": 0 },
            "height": { "type": "number", "exclusiveMinimum": 0 }
          },
          "additionalProperties": false
        },
        "node_type": {
          "oneOf": [
            { "type": "string", "enum": ["StateMachine", "State"] },
            { "type": "null" }
          ]
        },
        "is_container": { "type": "boolean" },
        "is_initial": { "type": "boolean" },
        "parent_id": {
          "oneOf": [
            { "type": "integer" },
            { "type": "null" }
          ]
        }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["start_node_id", "end_node_id"],
      "properties": {
        "start_node_id": { "type": "integer" },
        "end_node_id": { "type": "integer" },
        "title": { "type": "string" },
        "waypoint_ratio": { "type": "number", "minimum": 0, "maximum": 1 },
        "start_offset": {
          "oneOf": [
            { "$ref": "#/$defs/point" },
            { "type": "null" }
          ]
        },
        "end_offset": {
          "oneOf": [
            { "$ref": "#/$defs/point" },
            { "type": "null" }
          ]
        }
      },
      "additionalProperties": false
    }
  }
}`

var (
	schemaOnce sync.Once
	schemaErr  error
	docSchema  *jsonschema.Schema
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal design schema: %w", err)
			return
		}
		if err := c.AddResource("https://themodeller.dev/schemas/design.json", doc); err != nil {
			schemaErr = fmt.Errorf("add design schema resource: %w", err)
			return
		}
		docSchema, schemaErr = c.Compile("https://themodeller.dev/schemas/design.json")
	})
	return docSchema, schemaErr
}

// validateDocument checks raw document bytes against the design schema,
// returning a *LoadError with flattened violations on failure.
func validateDocument(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &LoadError{Err: err}
	}

	if err := sch.Validate(inst); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &LoadError{Err: err}
		}
		return &LoadError{Violations: collectViolations(verr), Err: err}
	}
	return nil
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
