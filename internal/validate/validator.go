// Package validate checks assembled consultation records: required-field
// presence, type/format conformance, and cross-field consistency. The
// resulting status is the only signal downstream uses to route a record to
// manual review.
package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/entity"
	"github.com/scanwell/consult-intake/internal/parse"
)

var (
	reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reZip     = regexp.MustCompile(`^\d{5}$`)
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// Validator is stateless; Now is injectable for deterministic tests.
type Validator struct {
	Now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{Now: time.Now, logger: logger}
}

// Validate evaluates one parsed form against the required-field list. extra
// carries warnings the orchestrator collected before validation (page skips);
// they participate in the status derivation like any other warning.
func (v *Validator) Validate(res parse.Result, required []string, extra []entity.Warning) entity.ValidationResult {
	var warnings []entity.Warning
	warnings = append(warnings, extra...)

	requiredSet := make(map[string]struct{}, len(required))
	for _, f := range required {
		requiredSet[f] = struct{}{}
	}

	// (1) presence of every required field
	for _, field := range required {
		ext := findExtraction(res.Extractions, field)
		if ext == nil || !ext.Matched() {
			warnings = append(warnings, entity.Warning{
				Field:    field,
				Code:     entity.WarnMissingRequired,
				Message:  fmt.Sprintf("required field %q was not found in the scanned text", field),
				Severity: entity.SeverityError,
			})
		}
	}

	// (2) type/format conformance; hard failure only for required fields
	for _, ext := range res.Extractions {
		if !ext.Matched() {
			continue
		}
		msg := formatProblem(&res.Record, ext)
		if msg == "" {
			continue
		}
		sev := entity.SeverityWarning
		if _, req := requiredSet[ext.Field]; req {
			sev = entity.SeverityError
		}
		warnings = append(warnings, entity.Warning{
			Field:    ext.Field,
			Code:     entity.WarnFormat,
			Message:  msg,
			Severity: sev,
		})
	}

	// (3) cross-field consistency
	if res.Record.SessionDate != nil {
		today := v.Now().UTC().Truncate(24 * time.Hour)
		if res.Record.SessionDate.After(today) {
			warnings = append(warnings, entity.Warning{
				Field:    entity.FieldSessionDate,
				Code:     entity.WarnFutureDate,
				Message:  fmt.Sprintf("session date %s is in the future", res.Record.SessionDate.Format("2006-01-02")),
				Severity: entity.SeverityError,
			})
		}
	}

	// low-confidence extractions always surface unless the field is empty
	for _, ext := range res.Extractions {
		if ext.Matched() && ext.Confidence == constants.ConfidenceLow {
			warnings = append(warnings, entity.Warning{
				Field:    ext.Field,
				Code:     entity.WarnLowConfidence,
				Message:  fmt.Sprintf("value %q matched only low-confidence rule %s", *ext.Value, ext.Rule),
				Severity: entity.SeverityWarning,
			})
		}
	}

	// cross-page conflicts
	for _, c := range res.Conflicts {
		warnings = append(warnings, entity.Warning{
			Field:    c.Field,
			Code:     entity.WarnFieldConflict,
			Message:  fmt.Sprintf("pages %v disagree: %v; kept earliest-page value", c.Pages, c.Values),
			Severity: entity.SeverityWarning,
		})
	}

	return entity.ValidationResult{
		Status:   deriveStatus(warnings),
		Warnings: warnings,
	}
}

// deriveStatus: Valid only with zero warnings; any error-severity warning
// makes the record Invalid; anything else is ValidWithWarnings.
func deriveStatus(warnings []entity.Warning) constants.RecordStatus {
	if len(warnings) == 0 {
		return constants.RecordValid
	}
	for _, w := range warnings {
		if w.Severity == entity.SeverityError {
			return constants.RecordInvalid
		}
	}
	return constants.RecordValidWithWarnings
}

func findExtraction(exts []entity.FieldExtraction, field string) *entity.FieldExtraction {
	for i := range exts {
		if exts[i].Field == field {
			return &exts[i]
		}
	}
	return nil
}

// formatProblem reports a format/type violation for a matched extraction, or
// "" when the value conforms.
func formatProblem(rec *entity.ConsultationRecord, ext entity.FieldExtraction) string {
	switch ext.Field {
	case entity.FieldSessionDate:
		if rec.SessionDate == nil || !reISODate.MatchString(*ext.Value) {
			return fmt.Sprintf("%q does not parse as a calendar date", *ext.Value)
		}
	case entity.FieldZip:
		if !reZip.MatchString(*ext.Value) {
			return fmt.Sprintf("%q is not a 5-digit zip code", *ext.Value)
		}
	case entity.FieldEmail:
		if !reEmail.MatchString(*ext.Value) {
			return fmt.Sprintf("%q is not a plausible email address", *ext.Value)
		}
	case entity.FieldConsultationType:
		if _, ok := constants.CanonicalizeConsultationType(*ext.Value); !ok {
			return fmt.Sprintf("%q is not an allowed consultation type", *ext.Value)
		}
	case entity.FieldLanguage:
		if !oneOf(rec.Language, constants.Languages) {
			return fmt.Sprintf("%q is not an allowed language", *ext.Value)
		}
	case entity.FieldBusinessStage:
		if !oneOf(rec.BusinessStage, constants.BusinessStages) {
			return fmt.Sprintf("%q is not an allowed business stage", *ext.Value)
		}
	case entity.FieldVeteran, entity.FieldDisabled:
		if !oneOf(rec.FieldValue(ext.Field), constants.YesNo) {
			return fmt.Sprintf("%q is not yes or no", *ext.Value)
		}
	}
	return ""
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
