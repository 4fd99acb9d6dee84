package parse

import (
	"strings"
	"time"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/entity"
)

// assemble builds the fixed-shape record from per-field extractions. Values
// that fail a typed conversion (e.g. an unparseable date) stay unset on the
// record; the raw value remains on the extraction so the validator can flag
// it instead of the parser defaulting it away.
func assemble(extractions []entity.FieldExtraction) entity.ConsultationRecord {
	var rec entity.ConsultationRecord
	for _, ext := range extractions {
		if !ext.Matched() {
			continue
		}
		setField(&rec, ext.Field, *ext.Value)
	}
	return rec
}

func setField(rec *entity.ConsultationRecord, field, value string) {
	switch field {
	case entity.FieldBusinessName:
		rec.BusinessName = value
	case entity.FieldContactName:
		rec.ContactName = value
	case entity.FieldSessionDate:
		if t, err := time.Parse("2006-01-02", value); err == nil {
			rec.SessionDate = &t
		}
	case entity.FieldAdvisor:
		rec.Advisor = value
	case entity.FieldAddress:
		rec.Address = value
	case entity.FieldCity:
		rec.City = value
	case entity.FieldZip:
		rec.Zip = value
	case entity.FieldPhone:
		rec.Phone = value
	case entity.FieldEmail:
		rec.Email = value
	case entity.FieldProgram:
		rec.Program = value
	case entity.FieldConsultationType:
		if t, ok := constants.CanonicalizeConsultationType(value); ok {
			rec.ConsultationType = string(t)
		} else {
			rec.ConsultationType = value
		}
	case entity.FieldBusinessStructure:
		rec.BusinessStructure = value
	case entity.FieldBusinessStage:
		rec.BusinessStage = value
	case entity.FieldBusinessPresence:
		rec.BusinessPresence = value
	case entity.FieldLanguage:
		rec.Language = titleYesNoish(value)
	case entity.FieldRace:
		rec.Race = value
	case entity.FieldEthnicity:
		rec.Ethnicity = value
	case entity.FieldVeteran:
		rec.Veteran = titleYesNoish(value)
	case entity.FieldDisabled:
		rec.Disabled = titleYesNoish(value)
	case entity.FieldYearsInBusiness:
		rec.YearsInBusiness = value
	case entity.FieldFullTimeEmployees:
		rec.FullTimeEmployees = value
	case entity.FieldContactTime:
		rec.ContactTime = value
	case entity.FieldNotes:
		rec.Notes = value
	}
}

// titleYesNoish uppercases the first letter so scanned "yes"/"spanish"
// compare equal to the canonical option labels.
func titleYesNoish(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
