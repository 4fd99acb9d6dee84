package constants

// JobStatus is the canonical status for rows in process_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // queued for processing
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOCROK   JobStatus = "OCR_OK"  // stage 1 completed (pages recognized)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (records assembled)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// RecordStatus classifies a validated consultation record.
type RecordStatus string

const (
	// RecordValid means every required field is present and no warnings were raised.
	RecordValid RecordStatus = "VALID"
	// RecordValidWithWarnings means all required fields are present but at least
	// one optional/format warning exists.
	RecordValidWithWarnings RecordStatus = "VALID_WITH_WARNINGS"
	// RecordInvalid means a required field is missing or a hard consistency
	// rule failed. Manual review is mandatory before submission.
	RecordInvalid RecordStatus = "INVALID"
)

// Confidence is the coarse trust tier of an extracted field value,
// derived from which rule matched.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
	ConfidenceNone   Confidence = "NONE" // no rule matched; value is null
)

// Rank orders confidence tiers for comparisons; higher is more trustworthy.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}
