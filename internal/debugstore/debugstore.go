// Package debugstore persists normalized page images for operator
// troubleshooting. Write-only: nothing in the pipeline reads these back.
package debugstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Store writes debug artifacts keyed by (document id, page index). Keys are
// unique per page, so parallel page processing never collides on a path.
type Store struct {
	dir    string
	logger *slog.Logger
	wg     sync.WaitGroup
}

// New returns a Store rooted at dir, or nil when dir is empty (disabled).
// A nil *Store is safe to use; writes become no-ops.
func New(dir string, logger *slog.Logger) *Store {
	if dir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// WriteAsync persists a page image without blocking the caller. Failures are
// logged and otherwise ignored; debug artifacts never affect the pipeline.
func (s *Store) WriteAsync(docID uuid.UUID, pageIndex int, suffix string, png []byte) {
	if s == nil {
		return
	}
	data := make([]byte, len(png))
	copy(data, png)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.write(docID, pageIndex, suffix, data); err != nil {
			s.logger.Warn("debug image write failed",
				"doc_id", docID, "page", pageIndex, "error", err)
		}
	}()
}

// Flush waits for outstanding writes. Call once at the end of a run.
func (s *Store) Flush() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *Store) write(docID uuid.UUID, pageIndex int, suffix string, data []byte) error {
	dir := filepath.Join(s.dir, docID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("page_%03d_%s.png", pageIndex, suffix)
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}
