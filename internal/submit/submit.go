// Package submit shapes validated records into the flat field map the
// downstream reporting form expects, and defines the collaborator contract
// for pushing them there. Mapping is pure; the actual transport (a browser
// bot, an HTTP client) lives behind the Submitter interface.
package submit

import (
	"context"
	"strings"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// Payload is the downstream form's field map: stable snake_case keys, every
// value already rendered to the exact string the form accepts.
type Payload map[string]string

// Outcome reports a single submission attempt.
type Outcome struct {
	RecordID     string
	Submitted    bool
	FieldsFilled int
	FieldsTotal  int
	Err          string
}

// Submitter pushes one payload downstream. Implementations decide retry and
// review-pause behavior; callers only see the outcome.
type Submitter interface {
	Submit(ctx context.Context, recordID string, p Payload) (Outcome, error)
}

// Syncer mirrors accepted submissions into the CRM. Implementations live
// outside this module; a nil Syncer means no CRM is configured.
type Syncer interface {
	Sync(ctx context.Context, recordID string, p Payload) error
}

// MapRecord renders a validated record into the downstream payload. Records
// that failed validation are rejected here so an invalid row can never reach
// the reporting form without manual correction first.
func MapRecord(rec entity.ConsultationRecord, sub common.SubmissionContext) (Payload, error) {
	if rec.Status == string(constants.RecordInvalid) {
		return nil, common.NewAppError("INVALID_RECORD", "record failed validation and needs manual review", common.ErrInvalidInput)
	}

	first, last := splitName(rec.ContactName)

	p := Payload{
		// static reporting context
		"delegate_agency": sub.DelegateAgency,
		"vendor_id":       sub.VendorID,
		"program":         firstNonEmpty(rec.Program, sub.Program),
		"submitted_by":    sub.SubmittedBy,
		"reporting_month": sub.ReportingMonth,

		// business information
		"business_name":             rec.BusinessName,
		"business_owner_first_name": first,
		"business_owner_last_name":  last,
		"business_owner_email":      rec.Email,
		"business_street_address":   rec.Address,
		"city":                      firstNonEmpty(rec.City, sub.DefaultCity),
		"state":                     sub.DefaultState,
		"zip_code":                  rec.Zip,

		// consultation details
		"consultation_date":     dateString(rec),
		"consultation_length":   firstNonEmpty(rec.ContactTime, "1"),
		"consultation_language": firstNonEmpty(rec.Language, "English"),

		// business characteristics
		"business_stage":     constants.MapStageLabel(rec.BusinessStage),
		"business_structure": rec.BusinessStructure,
		"business_presence":  rec.BusinessPresence,
		"years_in_business":  rec.YearsInBusiness,
		"employee_count":     employeeCount(rec.FullTimeEmployees),

		// demographics
		"race":        firstNonEmpty(rec.Race, "Prefer not to answer"),
		"ethnicity":   firstNonEmpty(rec.Ethnicity, "Prefer not to answer"),
		"is_veteran":  firstNonEmpty(rec.Veteran, "No"),
		"is_disabled": firstNonEmpty(rec.Disabled, "No"),

		// service area and summary
		"service_area":     rec.ConsultationType,
		"business_summary": rec.Notes,
	}
	return p, nil
}

// splitName separates a full contact name into first and last. Everything
// after the first token is the last name; single-token names leave last empty.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	first = parts[0]
	if len(parts) > 1 {
		last = strings.Join(parts[1:], " ")
	}
	return first, last
}

func dateString(rec entity.ConsultationRecord) string {
	if rec.SessionDate == nil {
		return ""
	}
	return rec.SessionDate.Format("2006-01-02")
}

func employeeCount(n string) string {
	if n == "" {
		return ""
	}
	return n + " employees"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
