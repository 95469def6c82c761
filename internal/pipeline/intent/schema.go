// internal/pipeline/intent/schema.go
package intent

import (
	"github.com/xeipuuv/gojsonschema"
)

// intentSchema is deliberately permissive: nothing is required because
// absent fields flow into the merge step, but a field that is present
// with the wrong type is a parse failure.
const intentSchema = `{
	"type": "object",
	"properties": {
		"intent": {"type": "string"},
		"dateRange": {
			"type": ["object", "null"],
			"properties": {
				"type": {"type": "string"},
				"from": {"type": ["string", "null"]},
				"to": {"type": ["string", "null"]},
				"value": {"type": ["string", "null"]},
				"count": {"type": ["integer", "null"]}
			}
		},
		"schedule": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"start_time": {"type": "string"},
					"end_time": {"type": "string"},
					"project": {"type": ["string", "null"]},
					"notes": {"type": ["string", "null"]}
				}
			}
		},
		"breaks": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"start_time": {"type": "string"},
					"end_time": {"type": "string"}
				}
			}
		},
		"project": {"type": ["string", "null"]},
		"task": {"type": ["string", "null"]},
		"description": {"type": ["string", "null"]},
		"notes": {"type": ["string", "null"]},
		"missingFields": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

var intentSchemaLoader = gojsonschema.NewStringLoader(intentSchema)

// validateIntentShape checks the raw AI JSON against the intent schema.
func validateIntentShape(raw string) (bool, error) {
	result, err := gojsonschema.Validate(intentSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return false, err
	}
	return result.Valid(), nil
}
