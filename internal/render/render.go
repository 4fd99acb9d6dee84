// Package render rasterizes PDF documents into per-page images by shelling
// out to pdftoppm, so the rest of the pipeline only ever sees page images.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// Config mirrors common.RenderConfig with defaults applied.
type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 300
	MaxPages int    // 0 = no limit
}

// Rasterizer turns a PDF file into ordered RawPage values.
type Rasterizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewRasterizer(cfg Config, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Rasterizer{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner; tests use this to stub pdftoppm.
func (r *Rasterizer) WithRunner(runner Runner) *Rasterizer {
	r.runner = runner
	return r
}

// Rasterize renders every page of the PDF at path to a PNG. A failure here is
// document-fatal: the caller gets an error and no partial pages.
func (r *Rasterizer) Rasterize(ctx context.Context, docID uuid.UUID, path string) ([]entity.RawPage, error) {
	tmpDir, err := os.MkdirTemp("", "ci-render-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			r.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", r.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, common.NewAppError("RENDER_FAILED",
			fmt.Sprintf("pdftoppm failed for %s: %s", path, truncate(string(errb), 512)),
			common.ErrInvalidDocument)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, common.NewAppError("RENDER_EMPTY", "pdftoppm produced no images", common.ErrInvalidDocument)
	}

	pages := make([]entity.RawPage, 0, len(matches))
	for i, img := range matches {
		data, err := os.ReadFile(img)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", i, err)
		}
		pages = append(pages, entity.RawPage{
			DocumentID: docID,
			Index:      i,
			PNG:        data,
			DPI:        r.cfg.DPI,
		})
	}
	r.logger.Debug("rasterized document", "doc_id", docID, "pages", len(pages), "dpi", r.cfg.DPI)
	return pages, nil
}
