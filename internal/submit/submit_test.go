package submit

import (
	"errors"
	"testing"
	"time"

	"github.com/scanwell/consult-intake/constants"
	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

func testContext() common.SubmissionContext {
	return common.SubmissionContext{
		DelegateAgency: "Example Agency",
		VendorID:       "1000001",
		Program:        "Business Specialist",
		SubmittedBy:    "advisor@example.org",
		ReportingMonth: "March",
		DefaultCity:    "Chicago",
		DefaultState:   "IL",
	}
}

func validRecord() entity.ConsultationRecord {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	return entity.ConsultationRecord{
		BusinessName:      "Acme Bakery",
		ContactName:       "Jane Q Doe",
		SessionDate:       &date,
		Email:             "jane@acme.example",
		Address:           "123 Division St",
		Zip:               "60622",
		ContactTime:       "2",
		Language:          "Spanish",
		BusinessStage:     "Start-up Phase",
		FullTimeEmployees: "3",
		Notes:             "Reviewed lease terms.",
		Status:            string(constants.RecordValid),
	}
}

func TestMapRecord(t *testing.T) {
	p, err := MapRecord(validRecord(), testContext())
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"delegate_agency":           "Example Agency",
		"business_owner_first_name": "Jane",
		"business_owner_last_name":  "Q Doe",
		"business_name":             "Acme Bakery",
		"consultation_date":         "2025-03-14",
		"consultation_length":       "2",
		"consultation_language":     "Spanish",
		"business_stage":            "Start-up Phase",
		"employee_count":            "3 employees",
		"city":                      "Chicago",
		"state":                     "IL",
		"is_veteran":                "No",
		"race":                      "Prefer not to answer",
		"business_summary":          "Reviewed lease terms.",
	}
	for k, v := range want {
		if p[k] != v {
			t.Errorf("%s = %q, want %q", k, p[k], v)
		}
	}
}

func TestMapRecordScannedStageLabel(t *testing.T) {
	rec := validRecord()
	rec.BusinessStage = "Start up Phase" // as printed on the paper form
	p, err := MapRecord(rec, testContext())
	if err != nil {
		t.Fatal(err)
	}
	if p["business_stage"] != "Start-up Phase" {
		t.Errorf("stage = %q, want Start-up Phase", p["business_stage"])
	}
}

func TestMapRecordRejectsInvalid(t *testing.T) {
	rec := validRecord()
	rec.Status = string(constants.RecordInvalid)
	if _, err := MapRecord(rec, testContext()); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"Jane Doe", "Jane", "Doe"},
		{"Jane Q Doe", "Jane", "Q Doe"},
		{"Cher", "Cher", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = %q/%q, want %q/%q", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestMapRecordFillsDefaultsOnlyWhenEmpty(t *testing.T) {
	rec := validRecord()
	rec.City = "Evanston"
	rec.Program = "Storefront Initiative"
	p, err := MapRecord(rec, testContext())
	if err != nil {
		t.Fatal(err)
	}
	if p["city"] != "Evanston" {
		t.Errorf("city = %q, form value must win", p["city"])
	}
	if p["program"] != "Storefront Initiative" {
		t.Errorf("program = %q, form value must win", p["program"])
	}
}
