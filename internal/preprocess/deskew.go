package preprocess

import (
	"image"
	"math"
)

const (
	deskewStep     = 0.25 // degrees between candidate angles
	deskewSample   = 4    // pixel stride when sampling dark pixels
	deskewDarkMax  = 128  // luminance at or below this counts as ink
	deskewMinGain  = 1.05 // required variance gain over 0° before rotating
	deskewMaxInk   = 200000
)

// estimateSkew returns the rotation (degrees, counter-clockwise) that best
// aligns text rows with the horizontal, searching ±maxAngle with the
// projection-profile method: the angle whose row-projection histogram has the
// highest variance is the one where text lines stack into sharp peaks.
// Returns 0 when no candidate clearly beats the unrotated profile.
func estimateSkew(src image.Image, maxAngle float64) float64 {
	b := src.Bounds()
	gray, ok := src.(*image.Gray)
	if !ok {
		g := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				g.Set(x, y, src.At(x, y))
			}
		}
		gray = g
	}

	type pt struct{ x, y float64 }
	var ink []pt
	for y := b.Min.Y; y < b.Max.Y; y += deskewSample {
		for x := b.Min.X; x < b.Max.X; x += deskewSample {
			if gray.GrayAt(x, y).Y <= deskewDarkMax {
				ink = append(ink, pt{float64(x), float64(y)})
				if len(ink) >= deskewMaxInk {
					y = b.Max.Y
					break
				}
			}
		}
	}
	if len(ink) < 64 {
		return 0
	}

	height := b.Dy()
	bins := make([]int, height*2+2)
	variance := func(angleDeg float64) float64 {
		for i := range bins {
			bins[i] = 0
		}
		tan := math.Tan(angleDeg * math.Pi / 180)
		for _, p := range ink {
			// projected row index if the image were rotated by -angle
			row := int(p.y-p.x*tan) + height/2
			if row >= 0 && row < len(bins) {
				bins[row]++
			}
		}
		mean := float64(len(ink)) / float64(len(bins))
		var v float64
		for _, c := range bins {
			d := float64(c) - mean
			v += d * d
		}
		return v
	}

	base := variance(0)
	best, bestVar := 0.0, base
	for a := -maxAngle; a <= maxAngle+1e-9; a += deskewStep {
		if math.Abs(a) < deskewStep/2 {
			continue
		}
		if v := variance(a); v > bestVar {
			best, bestVar = a, v
		}
	}
	if bestVar < base*deskewMinGain {
		return 0
	}
	return best
}
