package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/scanwell/consult-intake/internal/entity"
)

// Config holds Tesseract engine settings.
type Config struct {
	Languages   []string // default ["eng"]
	PSM         int      // page segmentation mode; 6 suits uniform form blocks
	TessdataDir string
}

// TesseractEngine recognizes page images with the gosseract client. A fresh
// client is created per call, so the engine is safe for concurrent pages.
type TesseractEngine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

func NewTesseractEngine(cfg Config) *TesseractEngine {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &TesseractEngine{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on one page image.
func (e *TesseractEngine) Recognize(ctx context.Context, page entity.RawPage) (entity.PageText, error) {
	select {
	case <-ctx.Done():
		return entity.PageText{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(page.PNG); err != nil {
		return entity.PageText{}, fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Languages...); err != nil {
		return entity.PageText{}, fmt.Errorf("set languages: %w", err)
	}
	if e.cfg.PSM > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
			return entity.PageText{}, fmt.Errorf("set psm: %w", err)
		}
	}
	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return entity.PageText{}, fmt.Errorf("set tessdata dir: %w", err)
		}
	}
	if page.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(page.DPI)); err != nil {
			return entity.PageText{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return entity.PageText{}, fmt.Errorf("recognize text: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	words := extractWords(c)
	return entity.NewPageText(page.Index, lines, words), nil
}

// extractWords pulls per-word confidence from the client and assigns each
// word to a line by clustering bounding boxes on their vertical centers.
// Returns nil when the engine exposes no box data; confidence then falls back
// to the text heuristic.
func extractWords(c *gosseract.Client) []entity.Word {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Box.Min.Y < boxes[j].Box.Min.Y
	})

	words := make([]entity.Word, 0, len(boxes))
	line := 0
	lastCenter := -1 << 30
	for _, b := range boxes {
		center := (b.Box.Min.Y + b.Box.Max.Y) / 2
		if lastCenter != -1<<30 && center-lastCenter > b.Box.Dy()/2 {
			line++
		}
		lastCenter = center
		words = append(words, entity.Word{
			Text:       b.Word,
			Line:       line,
			Confidence: b.Confidence / 100.0,
		})
	}
	return words
}
