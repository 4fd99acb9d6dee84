package parse

import (
	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/entity"
)

// DefaultRuleSet returns the built-in rules for the consultation form
// template. Deployments with a different template override these via a YAML
// rule set (LoadRuleSet).
func DefaultRuleSet() *RuleSet {
	f := map[string][]*Rule{
		entity.FieldBusinessName: {
			NewAnchored("business_name_label", `(?i)business\s+name[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewAnchored("business_name_loose", `(?i)business\s*name[:\s]*(\S.*)`, constants.ConfidenceMedium, "text"),
		},
		entity.FieldContactName: {
			NewAnchored("contact_name_label", `(?i)contact\s+name[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewAnchored("name_label", `(?i)^\s*name[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewProximity("contact_name_near", `(?i)contact`, `(?i)name[:\s]+(.+)`, 2, constants.ConfidenceLow, "text"),
		},
		entity.FieldSessionDate: {
			NewAnchored("session_date_label", `(?i)session\s+date[:\s]+(.+)`, constants.ConfidenceHigh, "date"),
			NewAnchored("date_label", `(?i)^\s*date[:\s]+(.+)`, constants.ConfidenceHigh, "date"),
			NewAnchored("date_iso_bare", `(\d{4}-\d{2}-\d{2})`, constants.ConfidenceLow, "date"),
			NewAnchored("date_us_bare", `(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`, constants.ConfidenceLow, "date"),
		},
		entity.FieldAdvisor: {
			NewAnchored("advisor_label", `(?i)advisor[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
		},
		entity.FieldAddress: {
			NewAnchored("address_label", `(?i)address[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
		},
		entity.FieldCity: {
			NewAnchored("city_label", `(?i)city[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
		},
		entity.FieldZip: {
			NewAnchored("zip_code_label", `(?i)zip\s*code[:\s]*(\d{5})`, constants.ConfidenceHigh, "zip"),
			NewAnchored("zip_label", `(?i)zip[:\s]+(\d{5})`, constants.ConfidenceHigh, "zip"),
			NewProximity("zip_near", `(?i)\bzip\b`, `(\d{5})`, 2, constants.ConfidenceMedium, "zip"),
		},
		entity.FieldPhone: {
			NewAnchored("phone_label", `(?i)phone[:\s]+(.+)`, constants.ConfidenceHigh, "phone"),
			NewAnchored("phone_bare", `(\(?\d{3}\)?[\s\-.]\d{3}[\s\-.]\d{4})`, constants.ConfidenceLow, "phone"),
		},
		entity.FieldEmail: {
			NewAnchored("email_label", `(?i)e[\-\s]*mail[:\s]+(.+)`, constants.ConfidenceHigh, "email"),
			NewAnchored("email_bare", `([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`, constants.ConfidenceLow, "email"),
		},
		entity.FieldProgram: {
			NewAnchored("program_label", `(?i)program[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
		},
		entity.FieldConsultationType: {
			NewAnchored("consultation_type_label", `(?i)type\s+of\s+consultation[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewAnchored("consultation_type_alt", `(?i)consultation\s+type[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewAnchored("consultation_type_bare", `(?i)\b(operations|marketing|financing|legal|accounting)\b`, constants.ConfidenceLow, "text"),
		},
		entity.FieldBusinessStructure: {
			NewAnchored("business_structure_label", `(?i)business\s+structure[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewAnchored("business_structure_bare", `(?i)\b(LLC|S[\s\-]?Corp(?:oration)?|Corporation|Partnership|Sole\s+Proprietorship)\b`, constants.ConfidenceLow, "text"),
		},
		entity.FieldBusinessStage: {
			NewChoice("business_stage_marked", constants.BusinessStages, true, constants.ConfidenceHigh),
			NewChoice("business_stage_bare", constants.BusinessStages, false, constants.ConfidenceLow),
		},
		entity.FieldBusinessPresence: {
			NewChoice("business_presence_marked", constants.BusinessPresence, true, constants.ConfidenceHigh),
			NewChoice("business_presence_bare", constants.BusinessPresence, false, constants.ConfidenceLow),
		},
		entity.FieldLanguage: {
			NewChoice("language_marked", constants.Languages, true, constants.ConfidenceHigh),
			NewProximity("language_near", `(?i)language\s+of\s+consultation`, `(?i)\b(English|Spanish)\b`, 2, constants.ConfidenceMedium, "text"),
		},
		entity.FieldRace: {
			NewChoice("race_marked", constants.Races, true, constants.ConfidenceHigh),
		},
		entity.FieldEthnicity: {
			NewChoice("ethnicity_marked", constants.Ethnicities, true, constants.ConfidenceHigh),
		},
		entity.FieldVeteran: {
			NewProximity("veteran_marked", `(?i)\bveteran\b`,
				`(?i)[\[\(]?`+markClass+`[\]\)]?\s*\b(Yes|No)\b|\b(Yes|No)\b\s*`+markClass, 2, constants.ConfidenceHigh, "text"),
			NewProximity("veteran_near", `(?i)\bveteran\b`, `(?i)\b(Yes|No)\b`, 2, constants.ConfidenceMedium, "text"),
		},
		entity.FieldDisabled: {
			NewProximity("disabled_marked", `(?i)\bdisabled\b`,
				`(?i)[\[\(]?`+markClass+`[\]\)]?\s*\b(Yes|No)\b|\b(Yes|No)\b\s*`+markClass, 2, constants.ConfidenceHigh, "text"),
			NewProximity("disabled_near", `(?i)\bdisabled\b`, `(?i)\b(Yes|No)\b`, 2, constants.ConfidenceMedium, "text"),
		},
		entity.FieldYearsInBusiness: {
			NewAnchored("years_in_business_label", `(?i)years\s+in\s+business[:\s]+(.+)`, constants.ConfidenceHigh, "text"),
			NewProximity("years_in_business_near", `(?i)years\s+in\s+business`, `(\d+\s*(?:[-–]|to)\s*\d+|\d+)`, 2, constants.ConfidenceLow, "text"),
		},
		entity.FieldFullTimeEmployees: {
			NewAnchored("full_time_employees_label", `(?i)full[\s\-]*time\s+employees[:\s]+(.+)`, constants.ConfidenceHigh, "hours"),
		},
		entity.FieldContactTime: {
			NewAnchored("contact_time_label", `(?i)contact\s+time[:\s]+(.+)`, constants.ConfidenceHigh, "hours"),
		},
		entity.FieldNotes: {
			NewSection("notes_section", `(?i)consultation\s+notes[:\s]*`, 20, constants.ConfidenceHigh),
			NewSection("notes_generic", `(?i)^\s*notes[:\s]*`, 20, constants.ConfidenceMedium),
			NewPositional("notes_narrative", `(?i)\b((?:met|discussed|client)\b.+)`, 0.5, 1.0, constants.ConfidenceLow, "text"),
		},
	}

	return &RuleSet{
		Fields:   f,
		Required: []string{entity.FieldBusinessName, entity.FieldContactName, entity.FieldSessionDate},
	}
}
