// Package ocr wraps an external OCR engine behind a narrow capability
// interface so the pipeline can run against deterministic fakes in tests.
// Engine output is untrusted, noisy input to every downstream stage: no
// assumption of correct spelling, casing, or clean line breaks.
package ocr

import (
	"context"

	"github.com/scanwell/consult-intake/internal/entity"
)

// Engine is the OCR provider contract: one normalized page image in, one
// immutable PageText out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, page entity.RawPage) (entity.PageText, error)
}
