package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an ingested source PDF for data transfer between layers.
type Document struct {
	ID          uuid.UUID `json:"id"`
	SourcePath  string    `json:"source_path"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	ContentHash []byte    `json:"content_hash"`
	FileSize    int64     `json:"file_size"`
	PageCount   int       `json:"page_count"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// ProcessJob tracks one pipeline run over a document.
type ProcessJob struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	FormsTotal   int        `json:"forms_total"`
	FormsValid   int        `json:"forms_valid"`
	PagesSkipped int        `json:"pages_skipped"`
	NeedsReview  bool       `json:"needs_review"`
}

// FormResult pairs an emitted record with its validation verdict and the raw
// per-field extractions kept for the audit trail.
type FormResult struct {
	Record      ConsultationRecord `json:"record"`
	Validation  ValidationResult   `json:"validation"`
	Extractions []FieldExtraction  `json:"extractions"`
}
