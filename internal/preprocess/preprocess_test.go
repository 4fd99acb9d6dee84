package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

// syntheticPage draws a white page with black horizontal rules and encodes it
// as PNG, approximating a clean scanned form.
func syntheticPage(t *testing.T, w, h, dpi int) entity.RawPage {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := 20; y < h-1; y += 20 {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
			img.SetGray(x, y+1, color.Gray{Y: 0})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return entity.RawPage{DocumentID: uuid.New(), Index: 0, PNG: buf.Bytes(), DPI: dpi}
}

func TestPreprocessRejectsUndecodable(t *testing.T) {
	p := New(Config{}, nil)
	_, err := p.Preprocess(entity.RawPage{DocumentID: uuid.New(), PNG: []byte("not an image")})
	if !errors.Is(err, common.ErrImageDecode) {
		t.Errorf("error = %v, want ErrImageDecode", err)
	}
}

func TestPreprocessBinarizes(t *testing.T) {
	page := syntheticPage(t, 120, 120, 300)
	p := New(Config{TargetDPI: 300, Binarize: true}, nil)

	out, err := p.Preprocess(page)
	if err != nil {
		t.Fatal(err)
	}
	if out.DocumentID != page.DocumentID || out.Index != page.Index {
		t.Error("page identity not preserved")
	}
	if out.DPI != 300 {
		t.Errorf("dpi = %d", out.DPI)
	}

	img, _, err := image.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 120 || b.Dy() != 120 {
		t.Errorf("bounds = %v", b)
	}
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if g != 0 && g != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want binary", x, y, g)
			}
		}
	}
}

func TestPreprocessWithoutBinarizeKeepsGray(t *testing.T) {
	page := syntheticPage(t, 100, 100, 150)
	p := New(Config{TargetDPI: 300}, nil)

	out, err := p.Preprocess(page)
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := image.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatal(err)
	}
	// resampling the rule edges produces intermediate tones when no
	// thresholding runs
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			if g != 0 && g != 255 {
				return
			}
		}
	}
	t.Error("output is fully binary even though binarization is off")
}

func TestPreprocessRescalesToTargetDPI(t *testing.T) {
	page := syntheticPage(t, 100, 100, 150)
	p := New(Config{TargetDPI: 300}, nil)

	out, err := p.Preprocess(page)
	if err != nil {
		t.Fatal(err)
	}
	img, _, err := image.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 200 {
		t.Errorf("width = %d, want 200", got)
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	img.SetGray(8, 8, color.Gray{Y: 0})

	out := adaptiveThreshold(img, 5, 8)
	if got := out.GrayAt(8, 8).Y; got != 0 {
		t.Errorf("ink pixel = %d, want 0", got)
	}
	if got := out.GrayAt(2, 2).Y; got != 255 {
		t.Errorf("background pixel = %d, want 255", got)
	}
}

func TestEstimateSkewCleanPage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for y := 20; y < 199; y += 20 {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
			img.SetGray(x, y+1, color.Gray{Y: 0})
		}
	}
	if got := estimateSkew(img, 5); got != 0 {
		t.Errorf("skew = %v, want 0 for level text", got)
	}
}

func TestEstimateSkewTooLittleInk(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	if got := estimateSkew(img, 5); got != 0 {
		t.Errorf("skew = %v, want 0 for a blank page", got)
	}
}
