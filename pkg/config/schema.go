package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaJSON is the JSON Schema for ddd configuration files. It is applied
// to the raw decoded document before unmarshaling so typos and wrong types
// surface with a path instead of silently taking defaults.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "root": {"type": "string"},
    "include": {"type": "array", "items": {"type": "string"}},
    "exclude": {"type": "array", "items": {"type": "string"}},
    "entry": {
      "type": "object",
      "properties": {
        "files": {"type": "array", "items": {"type": "string"}},
        "patterns": {"type": "array", "items": {"type": "string"}},
        "auto_detect": {"type": "boolean"},
        "exports": {"type": "array", "items": {"type": "string"}}
      },
      "additionalProperties": false
    },
    "output": {
      "type": "object",
      "properties": {
        "format": {"enum": ["table", "json", "markdown", "compact", "toon"]},
        "min_confidence": {"enum": ["low", "medium", "high"]},
        "show_chains": {"type": "boolean"},
        "max_chain_length": {"type": "integer", "minimum": 1},
        "group_by_file": {"type": "boolean"},
        "color": {"type": "boolean"},
        "verbose": {"type": "boolean"}
      },
      "additionalProperties": false
    },
    "analysis": {
      "type": "object",
      "properties": {
        "include_types": {"type": "boolean"},
        "analyze_tests": {"type": "boolean"},
        "report_test_only": {"type": "boolean"},
        "follow_reexports": {"type": "boolean"},
        "max_transitive_depth": {"type": "integer", "minimum": 1},
        "ignore_symbols": {"type": "array", "items": {"type": "string"}},
        "ignore_patterns": {"type": "array", "items": {"type": "string"}}
      },
      "additionalProperties": false
    },
    "plugins": {
      "type": "object",
      "properties": {
        "enabled": {"type": "array", "items": {"type": "string"}},
        "disabled": {"type": "array", "items": {"type": "string"}},
        "auto_detect": {"type": "boolean"},
        "nextjs": {
          "type": "object",
          "properties": {
            "page_dirs": {"type": "array", "items": {"type": "string"}},
            "app_dirs": {"type": "array", "items": {"type": "string"}}
          },
          "additionalProperties": false
        },
        "jest": {
          "type": "object",
          "properties": {
            "test_patterns": {"type": "array", "items": {"type": "string"}},
            "setup_files": {"type": "array", "items": {"type": "string"}}
          },
          "additionalProperties": false
        },
        "express": {
          "type": "object",
          "properties": {
            "middleware_patterns": {"type": "array", "items": {"type": "string"}}
          },
          "additionalProperties": false
        }
      },
      "additionalProperties": false
    },
    "cache": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "dir": {"type": "string"}
      },
      "additionalProperties": false
    }
  },
  "additionalProperties": false
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("ddd.schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("ddd.schema.json")
	})
	return schema, schemaErr
}

// validateRaw checks a decoded config document against the schema.
func validateRaw(raw any) error {
	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("schema compile: %w", err)
	}
	return sch.Validate(raw)
}
