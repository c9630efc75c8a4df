package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/parallel"
)

// neighborCount is one distinct RGB seen around a pixel.
type neighborCount struct {
	c     RGBColor
	count int
}

// brightness is the plain channel average used to break frequency ties.
func (c RGBColor) brightness() int {
	return (int(c.R) + int(c.G) + int(c.B)) / 3
}

// CleanupScattered replaces isolated pixels with the dominant color of their
// neighborhood and returns a new image.
//
// For every pixel with non-zero alpha the up to 8 surrounding pixels are
// examined (no wraparound at the edges). Only neighbors with non-zero alpha
// are counted. When at least one such neighbor exists and none of them has
// the exact RGB of the center pixel, the center RGB is replaced by the most
// frequent neighbor RGB. Ties go to the darker color by (R+G+B)/3, then to
// the color met first in row-major neighbor order. Alpha is never changed.
//
// Neighbors are always read from src, so one call is a single pass and the
// result does not depend on scan order.
func CleanupScattered(src *image.NRGBA) *image.NRGBA {
	width := src.Rect.Dx()
	height := src.Rect.Dy()

	dst := image.NewNRGBA(src.Rect)
	for y := 0; y < height; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+width*4], src.Pix[y*src.Stride:])
	}

	parallel.Line(height, func(start, end int) {
		// at most 8 distinct colors per neighborhood
		counts := make([]neighborCount, 0, 8)

		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				i := y*src.Stride + x*4
				if src.Pix[i+3] == 0 {
					continue
				}
				center := RGBColor{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]}

				counts = counts[:0]
				matched := false
				for dy := -1; dy <= 1 && !matched; dy++ {
					ny := y + dy
					if ny < 0 || ny >= height {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						nx := x + dx
						if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
							continue
						}
						j := ny*src.Stride + nx*4
						if src.Pix[j+3] == 0 {
							continue
						}
						c := RGBColor{R: src.Pix[j], G: src.Pix[j+1], B: src.Pix[j+2]}
						if c == center {
							matched = true
							break
						}
						counts = addNeighbor(counts, c)
					}
				}

				if matched || len(counts) == 0 {
					continue
				}

				best := dominantNeighbor(counts)
				o := y*dst.Stride + x*4
				dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2] = best.R, best.G, best.B
			}
		}
	})

	return dst
}

func addNeighbor(counts []neighborCount, c RGBColor) []neighborCount {
	for k := range counts {
		if counts[k].c == c {
			counts[k].count++
			return counts
		}
	}
	return append(counts, neighborCount{c: c, count: 1})
}

// dominantNeighbor picks the most frequent color, preferring the darker one
// on a tie and the earliest seen after that. counts must not be empty.
func dominantNeighbor(counts []neighborCount) RGBColor {
	best := counts[0]
	for _, nc := range counts[1:] {
		switch {
		case nc.count > best.count:
			best = nc
		case nc.count == best.count && nc.c.brightness() < best.c.brightness():
			best = nc
		}
	}
	return best.c
}
