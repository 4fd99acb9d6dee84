package entity

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationRecord is the structured target entity assembled from one
// logical form. The shape is fixed: fields with no extraction stay nil rather
// than being dropped or defaulted, so downstream sees absence explicitly.
// Records are never mutated after emission; corrections produce a new record.
type ConsultationRecord struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	FormIndex  int       `json:"form_index"` // zero-based position within the document
	Pages      []int     `json:"pages"`      // page indexes the form spanned

	// Identity fields
	BusinessName string     `json:"business_name,omitempty"`
	ContactName  string     `json:"contact_name,omitempty"`
	SessionDate  *time.Time `json:"session_date,omitempty"`
	Advisor      string     `json:"advisor,omitempty"`

	// Contact / address fields
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`

	// Categorical fields
	Program           string `json:"program,omitempty"`
	ConsultationType  string `json:"consultation_type,omitempty"`
	BusinessStructure string `json:"business_structure,omitempty"`
	BusinessStage     string `json:"business_stage,omitempty"`
	BusinessPresence  string `json:"business_presence,omitempty"`
	Language          string `json:"language,omitempty"`
	Race              string `json:"race,omitempty"`
	Ethnicity         string `json:"ethnicity,omitempty"`
	Veteran           string `json:"veteran,omitempty"`
	Disabled          string `json:"disabled,omitempty"`

	// Numeric-ish fields kept as scanned text until downstream mapping
	YearsInBusiness   string `json:"years_in_business,omitempty"`
	FullTimeEmployees string `json:"full_time_employees,omitempty"`
	ContactTime       string `json:"contact_time,omitempty"` // hours

	// Free text
	Notes string `json:"notes,omitempty"`

	// Status carries the validation verdict at emission time.
	Status string `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Canonical field keys. These are the names extraction rules and the
// required-field list refer to, and the stable keys in serialized output.
const (
	FieldBusinessName      = "business_name"
	FieldContactName       = "contact_name"
	FieldSessionDate       = "session_date"
	FieldAdvisor           = "advisor"
	FieldAddress           = "address"
	FieldCity              = "city"
	FieldZip               = "zip"
	FieldPhone             = "phone"
	FieldEmail             = "email"
	FieldProgram           = "program"
	FieldConsultationType  = "consultation_type"
	FieldBusinessStructure = "business_structure"
	FieldBusinessStage     = "business_stage"
	FieldBusinessPresence  = "business_presence"
	FieldLanguage          = "language"
	FieldRace              = "race"
	FieldEthnicity         = "ethnicity"
	FieldVeteran           = "veteran"
	FieldDisabled          = "disabled"
	FieldYearsInBusiness   = "years_in_business"
	FieldFullTimeEmployees = "full_time_employees"
	FieldContactTime       = "contact_time"
	FieldNotes             = "notes"
)

// FieldKeys lists every field in the fixed schema, in output order.
var FieldKeys = []string{
	FieldBusinessName,
	FieldContactName,
	FieldSessionDate,
	FieldAdvisor,
	FieldAddress,
	FieldCity,
	FieldZip,
	FieldPhone,
	FieldEmail,
	FieldProgram,
	FieldConsultationType,
	FieldBusinessStructure,
	FieldBusinessStage,
	FieldBusinessPresence,
	FieldLanguage,
	FieldRace,
	FieldEthnicity,
	FieldVeteran,
	FieldDisabled,
	FieldYearsInBusiness,
	FieldFullTimeEmployees,
	FieldContactTime,
	FieldNotes,
}

// FieldValue returns the record's value for a canonical field key as a
// string ("" when absent). Dates use the ISO 2006-01-02 form.
func (r *ConsultationRecord) FieldValue(key string) string {
	switch key {
	case FieldBusinessName:
		return r.BusinessName
	case FieldContactName:
		return r.ContactName
	case FieldSessionDate:
		if r.SessionDate == nil {
			return ""
		}
		return r.SessionDate.Format("2006-01-02")
	case FieldAdvisor:
		return r.Advisor
	case FieldAddress:
		return r.Address
	case FieldCity:
		return r.City
	case FieldZip:
		return r.Zip
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	case FieldProgram:
		return r.Program
	case FieldConsultationType:
		return r.ConsultationType
	case FieldBusinessStructure:
		return r.BusinessStructure
	case FieldBusinessStage:
		return r.BusinessStage
	case FieldBusinessPresence:
		return r.BusinessPresence
	case FieldLanguage:
		return r.Language
	case FieldRace:
		return r.Race
	case FieldEthnicity:
		return r.Ethnicity
	case FieldVeteran:
		return r.Veteran
	case FieldDisabled:
		return r.Disabled
	case FieldYearsInBusiness:
		return r.YearsInBusiness
	case FieldFullTimeEmployees:
		return r.FullTimeEmployees
	case FieldContactTime:
		return r.ContactTime
	case FieldNotes:
		return r.Notes
	default:
		return ""
	}
}
