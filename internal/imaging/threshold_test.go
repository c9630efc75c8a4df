package imaging

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestParseThresholdSpec(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantStops   []uint8
		wantAverage bool
	}{
		{"single stop", `{"stops":[128],"averageMode":false}`, []uint8{128}, false},
		{"average mode", `{"stops":[100,200],"averageMode":true}`, []uint8{100, 200}, true},
		{"unsorted input is sorted", `{"stops":[200,50,100],"averageMode":false}`, []uint8{50, 100, 200}, false},
		{"mode defaults to segmented", `{"stops":[0,255]}`, []uint8{0, 255}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseThresholdSpec([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ParseThresholdSpec failed: %v", err)
			}
			if spec.AverageMode != tt.wantAverage {
				t.Errorf("AverageMode: got %v, want %v", spec.AverageMode, tt.wantAverage)
			}
			if len(spec.Stops) != len(tt.wantStops) {
				t.Fatalf("Stops: got %v, want %v", spec.Stops, tt.wantStops)
			}
			for i := range tt.wantStops {
				if spec.Stops[i] != tt.wantStops[i] {
					t.Errorf("Stops: got %v, want %v", spec.Stops, tt.wantStops)
					break
				}
			}
		})
	}
}

func TestParseThresholdSpec_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantIs  error
	}{
		{"malformed json", `{"stops":[1,2`, nil},
		{"empty stops", `{"stops":[],"averageMode":true}`, ErrNoStops},
		{"missing stops", `{"averageMode":true}`, ErrNoStops},
		{"duplicate stop", `{"stops":[50,100,50]}`, ErrDuplicateStop},
		{"stop above 255", `{"stops":[256]}`, nil},
		{"negative stop", `{"stops":[-1]}`, nil},
		{"fractional stop", `{"stops":[1.5]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseThresholdSpec([]byte(tt.payload))
			if err == nil {
				t.Fatal("ParseThresholdSpec should fail")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error: got %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestThresholdSpec_Segment(t *testing.T) {
	spec := ThresholdSpec{Stops: []uint8{64, 128, 192}}

	tests := []struct {
		gray uint8
		want int
	}{
		{0, 0},
		{64, 0}, // stops are inclusive upper bounds
		{65, 1},
		{128, 1},
		{192, 2},
		{193, 3},
		{255, 3},
	}

	for _, tt := range tests {
		if got := spec.Segment(tt.gray); got != tt.want {
			t.Errorf("Segment(%d) = %d, want %d", tt.gray, got, tt.want)
		}
	}
}

func TestThresholdSpec_Map_Segmented(t *testing.T) {
	tests := []struct {
		name  string
		stops []uint8
		gray  uint8
		want  uint8
	}{
		{"single stop below", []uint8{128}, 0, 0},
		{"single stop at boundary", []uint8{128}, 128, 0},
		{"single stop above", []uint8{128}, 129, 255},
		{"single stop white", []uint8{128}, 255, 255},
		{"three stops first", []uint8{64, 128, 192}, 10, 0},
		{"three stops second", []uint8{64, 128, 192}, 100, 85},  // 255*1/3
		{"three stops third", []uint8{64, 128, 192}, 150, 170},  // 255*2/3
		{"three stops last", []uint8{64, 128, 192}, 200, 255},
		{"two stops interior", []uint8{100, 200}, 150, 127},     // 255*1/2 truncated
		{"stop at 255 leaves empty tail", []uint8{255}, 255, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := ThresholdSpec{Stops: tt.stops}
			if got := spec.Map(tt.gray); got != tt.want {
				t.Errorf("Map(%d) = %d, want %d", tt.gray, got, tt.want)
			}
		})
	}
}

func TestThresholdSpec_Map_Average(t *testing.T) {
	spec := ThresholdSpec{Stops: []uint8{100, 200}, AverageMode: true}

	tests := []struct {
		gray uint8
		want uint8
	}{
		{50, 50},   // (0+100)/2
		{100, 50},  // boundary belongs to the lower segment
		{150, 150}, // (100+200)/2
		{230, 227}, // (200+255)/2
		{255, 227},
	}

	for _, tt := range tests {
		if got := spec.Map(tt.gray); got != tt.want {
			t.Errorf("Map(%d) = %d, want %d", tt.gray, got, tt.want)
		}
	}
}

func TestThresholdSpec_Map_NoStops(t *testing.T) {
	spec := ThresholdSpec{}
	if got := spec.Map(42); got != 128 {
		t.Errorf("Map with no stops = %d, want 128", got)
	}
}

func TestApplyThreshold_MonochromeOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(y * 16), uint8(x * y), uint8((x + y) % 4 * 85)})
		}
	}

	specs := []ThresholdSpec{
		{Stops: []uint8{128}},
		{Stops: []uint8{30, 90, 160, 220}},
		{Stops: []uint8{100, 200}, AverageMode: true},
		{Stops: []uint8{5}, AverageMode: true},
	}

	for _, spec := range specs {
		got := ApplyThreshold(src, spec)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				s := src.NRGBAAt(x, y)
				c := got.NRGBAAt(x, y)
				if s.A == 0 {
					if c != (color.NRGBA{}) {
						t.Fatalf("spec %+v pixel (%d,%d): got %v, want transparent black", spec, x, y, c)
					}
					continue
				}
				want := spec.Map(Luma(s.R, s.G, s.B))
				if c != (color.NRGBA{want, want, want, 255}) {
					t.Fatalf("spec %+v pixel (%d,%d): got %v, want gray %d opaque", spec, x, y, c, want)
				}
			}
		}
	}
}

func TestApplyThreshold_SingleStopBinarizes(t *testing.T) {
	src := newNRGBA([][]color.NRGBA{
		{{128, 128, 128, 255}, {129, 129, 129, 255}, {0, 0, 0, 0}},
	})

	got := ApplyThreshold(src, ThresholdSpec{Stops: []uint8{128}})

	want := []color.NRGBA{{0, 0, 0, 255}, {255, 255, 255, 255}, {0, 0, 0, 0}}
	for x, w := range want {
		if c := got.NRGBAAt(x, 0); c != w {
			t.Errorf("pixel %d: got %v, want %v", x, c, w)
		}
	}
}
