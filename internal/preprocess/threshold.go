package preprocess

import (
	"image"
	"image/color"
)

// adaptiveThreshold binarizes a grayscale image using a mean threshold over a
// block-sized window, computed with an integral image so the pass stays O(n).
// A pixel becomes black when it is darker than the local mean minus bias.
func adaptiveThreshold(src *image.Gray, block int, bias float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	// integral[y][x] = sum of pixels in the rectangle (0,0)..(x-1,y-1)
	integral := make([]uint64, (w+1)*(h+1))
	stride := w + 1
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*stride+(x+1)] = integral[y*stride+(x+1)] + rowSum
		}
	}

	half := block / 2
	dst := image.NewGray(b)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			count := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*stride+(x1+1)] -
				integral[y0*stride+(x1+1)] -
				integral[(y1+1)*stride+x0] +
				integral[y0*stride+x0]
			mean := float64(sum) / float64(count)

			v := float64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			if v < mean-bias {
				dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 0})
			} else {
				dst.SetGray(b.Min.X+x, b.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}
