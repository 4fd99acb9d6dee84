package constants

import "strings"

// Option sets for the choice fields on the consultation form. The strings are
// the exact labels the downstream form automation expects; scanned labels are
// mapped onto them via Canonicalize.

type ConsultationType string

const (
	Operations ConsultationType = "Operations"
	Marketing  ConsultationType = "Marketing"
	Financing  ConsultationType = "Financing"
	Legal      ConsultationType = "Legal"
	Accounting ConsultationType = "Accounting"
)

var allConsultationTypes = []ConsultationType{
	Operations,
	Marketing,
	Financing,
	Legal,
	Accounting,
}

// ConsultationTypeStrings returns the allowed consultation types as strings.
func ConsultationTypeStrings() []string {
	out := make([]string, len(allConsultationTypes))
	for i, t := range allConsultationTypes {
		out[i] = string(t)
	}
	return out
}

// BusinessStages are the stage labels as printed on the form.
var BusinessStages = []string{
	"Seed/Idea Phase",
	"Start up Phase",
	"Growth Phase",
	"Expansion Phase",
	"Maturity/Exit Phase",
}

// stageLabelMap maps the printed stage label to the label the automation
// bot's form uses. The two disagree on punctuation for some options.
var stageLabelMap = map[string]string{
	"Seed/Idea Phase":     "Seed/Idea Phase",
	"Start up Phase":      "Start-up Phase",
	"Growth Phase":        "Growth Phase",
	"Expansion Phase":     "Expansion Phase",
	"Maturity/Exit Phase": "Maturity / Exit Phase",
}

// MapStageLabel translates a printed business-stage label to the downstream
// label. Unknown labels pass through unchanged.
func MapStageLabel(printed string) string {
	if mapped, ok := stageLabelMap[printed]; ok {
		return mapped
	}
	return printed
}

// BusinessPresence options as printed on the form.
var BusinessPresence = []string{
	"Home based",
	"Brick and Mortar",
	"E-commerce",
}

// Languages the consultation may be held in.
var Languages = []string{"English", "Spanish"}

// YesNo options for veteran/disabled checkboxes.
var YesNo = []string{"Yes", "No"}

// Races as printed on the form.
var Races = []string{
	"American Indian / Alaska Native",
	"Black / African American",
	"Native Hawaiian / Pacific Islander",
	"Asian",
	"White",
}

// Ethnicities as printed on the form.
var Ethnicities = []string{
	"Hispanic / Latino",
	"Other",
}

// CanonicalizeConsultationType maps free text from the scan onto one of the
// allowed consultation types. Returns (Operations, false) when no match.
func CanonicalizeConsultationType(input string) (ConsultationType, bool) {
	if input == "" {
		return Operations, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]ConsultationType{
		"ops":            Operations,
		"operational":    Operations,
		"advertising":    Marketing,
		"social media":   Marketing,
		"finance":        Financing,
		"funding":        Financing,
		"loans":          Financing,
		"bookkeeping":    Accounting,
		"taxes":          Accounting,
		"contracts":      Legal,
		"incorporation":  Legal,
		"licensing":      Legal,
		"permits":        Legal,
		"merchandising":  Marketing,
		"cash flow":      Financing,
		"record keeping": Accounting,
	}

	if t, ok := synonyms[normalized]; ok {
		return t, true
	}

	for _, t := range allConsultationTypes {
		if normalized == strings.ToLower(string(t)) {
			return t, true
		}
	}

	return Operations, false
}
