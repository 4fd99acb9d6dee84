package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/scanwell/consult-intake/constants"
)

// BuildRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the serialized consultation record. The base shape
// is structural; field-format constraints apply only to records whose status
// is VALID, since warned and invalid records legitimately carry the malformed
// scanned values that put them in the review queue.
func BuildRecordJSONSchema() map[string]any {
	props := map[string]any{
		"id":                  map[string]any{"type": "string", "minLength": 1},
		"document_id":         map[string]any{"type": "string", "minLength": 1},
		"form_index":          map[string]any{"type": "integer", "minimum": 0},
		"pages":               map[string]any{"type": "array", "items": map[string]any{"type": "integer", "minimum": 0}},
		"business_name":       map[string]any{"type": "string"},
		"contact_name":        map[string]any{"type": "string"},
		"session_date":        map[string]any{"type": "string"},
		"advisor":             map[string]any{"type": "string"},
		"address":             map[string]any{"type": "string"},
		"city":                map[string]any{"type": "string"},
		"zip":                 map[string]any{"type": "string"},
		"phone":               map[string]any{"type": "string"},
		"email":               map[string]any{"type": "string"},
		"program":             map[string]any{"type": "string"},
		"consultation_type":   map[string]any{"type": "string"},
		"business_structure":  map[string]any{"type": "string"},
		"business_stage":      map[string]any{"type": "string"},
		"business_presence":   map[string]any{"type": "string"},
		"language":            map[string]any{"type": "string"},
		"race":                map[string]any{"type": "string"},
		"ethnicity":           map[string]any{"type": "string"},
		"veteran":             map[string]any{"type": "string"},
		"disabled":            map[string]any{"type": "string"},
		"years_in_business":   map[string]any{"type": "string"},
		"full_time_employees": map[string]any{"type": "string"},
		"contact_time":        map[string]any{"type": "string"},
		"notes":               map[string]any{"type": "string"},
		"status":              map[string]any{"type": "string", "enum": recordStatusStrings()},
	}
	strict := map[string]any{
		"session_date":      map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}`},
		"zip":               map[string]any{"type": "string", "pattern": `^\d{5}$`},
		"consultation_type": map[string]any{"type": "string", "enum": constants.ConsultationTypeStrings()},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
		"required":             []string{"id", "document_id", "status"},
		"allOf": []any{
			map[string]any{
				"if": map[string]any{
					"properties": map[string]any{
						"status": map[string]any{"const": string(constants.RecordValid)},
					},
					"required": []string{"status"},
				},
				"then": map[string]any{"properties": strict},
			},
		},
	}
}

func recordStatusStrings() []string {
	return []string{
		string(constants.RecordValid),
		string(constants.RecordValidWithWarnings),
		string(constants.RecordInvalid),
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
