package entity

import "github.com/scanwell/consult-intake/constants"

// Warning codes attached to validation results. Page-level failures are
// contained at the page boundary and converted into these as well.
const (
	WarnMissingRequired = "MISSING_REQUIRED_FIELD"
	WarnFormat          = "FORMAT_ERROR"
	WarnFieldConflict   = "FIELD_CONFLICT"
	WarnLowConfidence   = "LOW_CONFIDENCE"
	WarnFutureDate      = "FUTURE_DATE"
	WarnPageSkipped     = "PAGE_SKIPPED"
)

// Severity grades a validation warning.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR" // drives RecordInvalid
)

// Warning describes one validation finding for a record.
type Warning struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult is the validator's verdict for one record. The status is
// the sole signal downstream uses to decide whether manual review is
// mandatory.
type ValidationResult struct {
	Status   constants.RecordStatus `json:"status"`
	Warnings []Warning              `json:"warnings"`
}

// HasWarning reports whether a warning with the given code exists for field.
// An empty field matches any field.
func (v ValidationResult) HasWarning(code, field string) bool {
	for _, w := range v.Warnings {
		if w.Code == code && (field == "" || w.Field == field) {
			return true
		}
	}
	return false
}
