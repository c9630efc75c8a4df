package imaging

import (
	"fmt"
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// RGBAColor represents a non-premultiplied RGBA color with 8-bit components.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains one pixel in several representations.
//
// Luma is the same BT.601 integer value the threshold mapping compares
// against its stops, so it can be used directly to pick stop positions.
type ColorResult struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Hex  string    `json:"hex"`  // Hex format "#RRGGBB" (no alpha)
	RGBA RGBAColor `json:"rgba"` // RGBA components with alpha
	HSL  HSLColor  `json:"hsl"`  // HSL representation
	Luma uint8     `json:"luma"` // BT.601 integer luma
}

// SampleColor returns the pixel at (x, y), where (0,0) is the top-left
// corner of img.
//
// Returns an error if the coordinates fall outside the image.
func SampleColor(img *image.NRGBA, x, y int) (*ColorResult, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if x < 0 || x >= w || y < 0 || y >= h {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, w, h)
	}

	c := img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)

	return &ColorResult{
		X:    x,
		Y:    y,
		Hex:  fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
		RGBA: RGBAColor{R: c.R, G: c.G, B: c.B, A: c.A},
		HSL:  rgbToHSL(c.R, c.G, c.B),
		Luma: Luma(c.R, c.G, c.B),
	}, nil
}

// rgbToHSL converts 8-bit RGB values to HSL with hue in degrees and
// saturation and lightness in percent.
func rgbToHSL(r, g, b uint8) HSLColor {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	h, s, l := c.Hsl()

	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
