package image

import (
	"image"
	"image/draw"
)

type DiffResult struct {
	// Image is opaque and has the size of the inputs. A pixel is (m, 0, 0)
	// where the right side got darker by m in its dominant channel and
	// (0, m, 0) otherwise.
	Image           *image.RGBA
	DifferentPixels uint64
	DistanceSum     uint64
}

type Differ interface {
	Calculate(left image.Image, right image.Image) *DiffResult
}

// toNRGBA returns img as a zero-origin 8-bit non-premultiplied buffer,
// converting only when necessary.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
