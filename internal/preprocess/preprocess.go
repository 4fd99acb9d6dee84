// Package preprocess normalizes rendered page images for OCR: grayscale,
// DPI normalization, deskew, and adaptive binarization.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// Config holds normalization parameters.
type Config struct {
	TargetDPI      int     // default 300
	Binarize       bool    // apply adaptive thresholding after grayscale
	ThresholdBlock int     // adaptive threshold window size (odd), default 31
	ThresholdBias  float64 // subtracted from the local mean, default 8
	DeskewMaxAngle float64 // degrees; 0 disables deskew
}

func (c *Config) defaults() {
	if c.TargetDPI <= 0 {
		c.TargetDPI = 300
	}
	if c.ThresholdBlock <= 0 {
		c.ThresholdBlock = 31
	}
	if c.ThresholdBlock%2 == 0 {
		c.ThresholdBlock++
	}
	if c.ThresholdBias == 0 {
		c.ThresholdBias = 8
	}
}

// Preprocessor normalizes page images. Stateless and safe for concurrent use.
type Preprocessor struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()
	return &Preprocessor{cfg: cfg, logger: logger}
}

// Preprocess returns a normalized copy of the page: grayscale, scaled to the
// target DPI, deskewed within the configured tolerance, and binarized.
// An undecodable image fails with common.ErrImageDecode; the caller skips the
// page and flags it rather than aborting the document.
func (p *Preprocessor) Preprocess(page entity.RawPage) (entity.RawPage, error) {
	img, _, err := image.Decode(bytes.NewReader(page.PNG))
	if err != nil {
		return entity.RawPage{}, common.NewAppError("IMAGE_DECODE",
			fmt.Sprintf("page %d of document %s", page.Index, page.DocumentID),
			common.ErrImageDecode)
	}

	gray := imaging.Grayscale(img)

	// DPI normalization before any geometry work, so the deskew estimate and
	// threshold window operate at a predictable scale.
	if page.DPI > 0 && page.DPI != p.cfg.TargetDPI {
		factor := float64(p.cfg.TargetDPI) / float64(page.DPI)
		w := int(float64(gray.Bounds().Dx())*factor + 0.5)
		if w < 1 {
			w = 1
		}
		gray = imaging.Resize(gray, w, 0, imaging.Lanczos)
	}

	if p.cfg.DeskewMaxAngle > 0 {
		angle := estimateSkew(gray, p.cfg.DeskewMaxAngle)
		if angle != 0 {
			p.logger.Debug("deskewing page", "doc_id", page.DocumentID, "page", page.Index, "angle", angle)
			gray = imaging.Rotate(gray, angle, image.White)
		}
	}

	var out image.Image = gray
	if p.cfg.Binarize {
		out = adaptiveThreshold(toGray(gray), p.cfg.ThresholdBlock, p.cfg.ThresholdBias)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return entity.RawPage{}, fmt.Errorf("encode normalized page: %w", err)
	}

	return entity.RawPage{
		DocumentID: page.DocumentID,
		Index:      page.Index,
		PNG:        buf.Bytes(),
		DPI:        p.cfg.TargetDPI,
	}, nil
}

// toGray converts an NRGBA (imaging's working format) to image.Gray.
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			// channels are equal after Grayscale; take R
			dst.SetGray(x, y, color.Gray{Y: src.Pix[i]})
		}
	}
	return dst
}
