package imaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/anthonynsimon/bild/parallel"
)

var (
	// ErrNoStops is returned when a threshold payload carries no stops.
	ErrNoStops = errors.New("no threshold stops provided")

	// ErrDuplicateStop is returned when the same stop value appears twice.
	ErrDuplicateStop = errors.New("duplicate threshold stop")
)

// ThresholdSpec describes a multi-stop quantization of the gray range.
//
// Stops partition 0..255 into len(Stops)+1 segments. A gray value g falls
// into segment i, the smallest index with g <= Stops[i], or into the
// trailing segment len(Stops) when g is above every stop.
type ThresholdSpec struct {
	// Stops are strictly ascending boundary values.
	Stops []uint8

	// AverageMode maps each segment to the midpoint of its bounds instead of
	// spreading segments evenly between black and white.
	AverageMode bool
}

// ParseThresholdSpec decodes a payload of the form
//
//	{"stops": [64, 128, 192], "averageMode": false}
//
// Stops may arrive in any order and are sorted ascending. An empty stop list
// returns ErrNoStops, a repeated value returns ErrDuplicateStop, and a value
// outside 0..255 is rejected.
func ParseThresholdSpec(payload []byte) (ThresholdSpec, error) {
	var raw struct {
		Stops       []int `json:"stops"`
		AverageMode bool  `json:"averageMode"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return ThresholdSpec{}, fmt.Errorf("failed to parse threshold mapping: %w", err)
	}

	spec := ThresholdSpec{
		Stops:       make([]uint8, 0, len(raw.Stops)),
		AverageMode: raw.AverageMode,
	}
	for _, v := range raw.Stops {
		if v < 0 || v > 255 {
			return ThresholdSpec{}, fmt.Errorf("threshold stop %d outside 0-255", v)
		}
		spec.Stops = append(spec.Stops, uint8(v))
	}
	if err := spec.normalize(); err != nil {
		return ThresholdSpec{}, err
	}
	return spec, nil
}

// normalize sorts the stops and rejects empty or repeated lists.
func (s *ThresholdSpec) normalize() error {
	if len(s.Stops) == 0 {
		return ErrNoStops
	}
	sort.Slice(s.Stops, func(i, j int) bool { return s.Stops[i] < s.Stops[j] })
	for i := 1; i < len(s.Stops); i++ {
		if s.Stops[i] == s.Stops[i-1] {
			return fmt.Errorf("%w: %d", ErrDuplicateStop, s.Stops[i])
		}
	}
	return nil
}

// Segment returns the index of the segment gray falls into, in 0..len(Stops).
func (s ThresholdSpec) Segment(gray uint8) int {
	for i, stop := range s.Stops {
		if gray <= stop {
			return i
		}
	}
	return len(s.Stops)
}

// Map returns the output gray level for an input gray level.
//
// In average mode segment i maps to (lower+upper)/2, where lower is the
// previous stop (0 for the first segment) and upper is Stops[i] (255 for the
// trailing segment).
//
// In segmented mode the first segment maps to 0, the trailing segment to
// 255, and an interior segment i to 255*i/len(Stops).
func (s ThresholdSpec) Map(gray uint8) uint8 {
	n := len(s.Stops)
	i := s.Segment(gray)

	if s.AverageMode {
		var lower, upper int
		if i > 0 {
			lower = int(s.Stops[i-1])
		}
		if i < n {
			upper = int(s.Stops[i])
		} else {
			upper = 255
		}
		return uint8((lower + upper) / 2)
	}

	segments := n + 1
	switch {
	case segments == 1:
		// unreachable once normalize has run, kept for hand-built specs
		return 128
	case i == 0:
		return 0
	case i == segments-1:
		return 255
	default:
		return uint8(255 * i / (segments - 1))
	}
}

// ApplyThreshold quantizes src through spec and returns a new image.
//
// Each pixel is first reduced to its BT.601 luma, then mapped through
// spec.Map. Pixels with alpha 0 become (0,0,0,0); every other pixel becomes
// (v,v,v,255). src is not modified.
func ApplyThreshold(src *image.NRGBA, spec ThresholdSpec) *image.NRGBA {
	// precompute the mapping once per gray level
	var table [256]uint8
	for g := 0; g < 256; g++ {
		table[g] = spec.Map(uint8(g))
	}

	dst := image.NewNRGBA(src.Rect)
	width := src.Rect.Dx()

	parallel.Line(src.Rect.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			si := y * src.Stride
			di := y * dst.Stride
			for x := 0; x < width; x++ {
				p := src.Pix[si+x*4 : si+x*4+4 : si+x*4+4]
				if p[3] == 0 {
					continue
				}
				v := table[Luma(p[0], p[1], p[2])]
				q := dst.Pix[di+x*4 : di+x*4+4 : di+x*4+4]
				q[0], q[1], q[2], q[3] = v, v, v, 255
			}
		}
	})

	return dst
}
