package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/common"
)

// stubRunner pretends to be pdftoppm: it writes fake page files next to the
// output prefix (the last argument) instead of running anything.
type stubRunner struct {
	pages int
	err   error
	args  []string
}

func (s *stubRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	s.args = args
	if s.err != nil {
		return nil, []byte("Syntax Error: file is damaged"), s.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= s.pages; i++ {
		name := fmt.Sprintf("%s-%d.png", prefix, i)
		if err := os.WriteFile(name, []byte(fmt.Sprintf("png-bytes-%d", i)), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestRasterize(t *testing.T) {
	docID := uuid.New()
	runner := &stubRunner{pages: 3}
	r := NewRasterizer(Config{DPI: 150}, nil).WithRunner(runner)

	pages, err := r.Rasterize(context.Background(), docID, "/scans/form.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for i, p := range pages {
		if p.Index != i {
			t.Errorf("page %d has index %d", i, p.Index)
		}
		if p.DocumentID != docID {
			t.Errorf("page %d has wrong document id", i)
		}
		if p.DPI != 150 {
			t.Errorf("page %d dpi = %d", i, p.DPI)
		}
		if string(p.PNG) != fmt.Sprintf("png-bytes-%d", i+1) {
			t.Errorf("page %d bytes = %q", i, p.PNG)
		}
	}
	if got := runner.args[1]; got != "150" {
		t.Errorf("dpi arg = %q", got)
	}
}

func TestRasterizeMaxPages(t *testing.T) {
	r := NewRasterizer(Config{MaxPages: 2}, nil).WithRunner(&stubRunner{pages: 5})

	pages, err := r.Rasterize(context.Background(), uuid.New(), "/scans/form.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Errorf("got %d pages, want 2", len(pages))
	}
}

func TestRasterizeCommandFailure(t *testing.T) {
	r := NewRasterizer(Config{}, nil).WithRunner(&stubRunner{err: errors.New("exit status 1")})

	pages, err := r.Rasterize(context.Background(), uuid.New(), "/scans/broken.pdf")
	if pages != nil {
		t.Error("expected no pages on failure")
	}
	if !errors.Is(err, common.ErrInvalidDocument) {
		t.Errorf("error = %v, want ErrInvalidDocument", err)
	}
}

func TestRasterizeNoOutput(t *testing.T) {
	r := NewRasterizer(Config{}, nil).WithRunner(&stubRunner{pages: 0})

	_, err := r.Rasterize(context.Background(), uuid.New(), "/scans/empty.pdf")
	if !errors.Is(err, common.ErrInvalidDocument) {
		t.Errorf("error = %v, want ErrInvalidDocument", err)
	}
}

func TestRasterizeDefaults(t *testing.T) {
	r := NewRasterizer(Config{}, nil)
	if r.cfg.Pdftoppm != "pdftoppm" || r.cfg.DPI != 300 {
		t.Errorf("defaults not applied: %+v", r.cfg)
	}
}
