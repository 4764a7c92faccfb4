package exchange

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema constrains the shape of an export document before any
// templates are decoded, so structural problems surface as one clear
// validation error instead of scattered unmarshal failures.
const documentSchema = `{
	"type": "object",
	"required": ["version", "exportedAt", "templates"],
	"properties": {
		"version": {"type": "string", "pattern": "^[0-9]+\\.[0-9x]+$"},
		"exportedAt": {"type": "string"},
		"integrity": {"type": "string", "pattern": "^[0-9a-f]{64}$"},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "fields", "supported_formats"],
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string", "minLength": 1},
					"category": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}},
					"supported_formats": {
						"type": "array",
						"minItems": 1,
						"items": {"type": "string"}
					},
					"fields": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["name", "type", "method"],
							"properties": {
								"name": {"type": "string", "pattern": "^[A-Za-z][A-Za-z0-9_]*$"},
								"type": {"type": "string"},
								"method": {"type": "string"},
								"confidence_threshold": {"type": "number", "minimum": 0, "maximum": 1}
							}
						}
					}
				}
			}
		}
	}
}`

var compiledSchema = jsonschema.MustCompileString("export-document.json", documentSchema)

// validateDocument checks a decoded export document against the schema.
func validateDocument(doc interface{}) error {
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("export document failed schema validation: %w", err)
	}
	return nil
}

// suffixName appends a numeric suffix to a template name, used when
// imports collide with existing active names.
func suffixName(name string, n int) string {
	return fmt.Sprintf("%s-%d", strings.TrimSpace(name), n)
}
