package parse

import (
	"fmt"

	"github.com/scanwell/consult-intake/internal/entity"
)

// RuleSet maps each canonical field key to its ordered extraction rules
// (most specific first). The required-field list travels with the set since
// both are supplied by the same external configuration.
type RuleSet struct {
	Fields   map[string][]*Rule
	Required []string
}

// Validate checks that every rule is attached to a known field key.
func (rs *RuleSet) Validate() error {
	known := make(map[string]struct{}, len(entity.FieldKeys))
	for _, k := range entity.FieldKeys {
		known[k] = struct{}{}
	}
	for field := range rs.Fields {
		if _, ok := known[field]; !ok {
			return fmt.Errorf("rule set references unknown field %q", field)
		}
	}
	for _, field := range rs.Required {
		if _, ok := known[field]; !ok {
			return fmt.Errorf("required list references unknown field %q", field)
		}
	}
	return nil
}
