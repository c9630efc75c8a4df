package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// Luma returns the BT.601 brightness of an 8-bit RGB triple using integer
// weights. The result is truncated, not rounded:
//
//	luma = (299*R + 587*G + 114*B) / 1000
func Luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b)) / 1000)
}

// GrayPreview converts src to grayscale and returns a new image.
//
// Transparency is treated asymmetrically:
//   - a pixel with alpha 0 becomes (0,0,0,0)
//   - any other pixel becomes (luma,luma,luma,255), so partial alpha is
//     normalized to fully opaque
//
// src is not modified.
func GrayPreview(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	width := src.Rect.Dx()

	parallel.Line(src.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			si := y * src.Stride
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				p := src.Pix[si+x*4 : si+x*4+4 : si+x*4+4]
				q := dst.Pix[di+x*4 : di+x*4+4 : di+x*4+4]
				if p[3] == 0 {
					// NewNRGBA is zeroed already
					continue
				}
				l := Luma(p[0], p[1], p[2])
				q[0], q[1], q[2], q[3] = l, l, l, 255
			}
		}
	})

	return dst
}
