package entity

import "github.com/scanwell/consult-intake/constants"

// FieldExtraction is the intermediate result for one field: the value the
// winning rule produced (nil when nothing matched), where it came from, and
// how much the match should be trusted.
type FieldExtraction struct {
	Field      string               `json:"field"`
	Value      *string              `json:"value"` // nil = no rule matched
	Page       int                  `json:"page"`  // -1 when Value is nil
	Line       int                  `json:"line"`  // -1 when Value is nil
	Rule       string               `json:"rule"`  // name of the rule that produced the value
	Confidence constants.Confidence `json:"confidence"`
}

// Matched reports whether a rule produced a non-empty value.
func (e FieldExtraction) Matched() bool {
	return e.Value != nil && *e.Value != ""
}
