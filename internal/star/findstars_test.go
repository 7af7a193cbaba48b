// Copyright (C) 2024 Sundai Club
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package star

import (
	"testing"

	"github.com/sundai-club/james-webb-live/internal/stats"
)

// Paint a 3x3 plateau of the given value centered on (xc, yc). Wide enough to
// survive gaussian smoothing at sigma around 1
func paintBlob(data []float32, width, xc, yc int32, value float32) {
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			data[(yc+dy)*width+xc+dx] = value
		}
	}
}

func TestFindStarsSeparation(t *testing.T) {
	width, height := int32(100), int32(100)
	data := make([]float32, int(width)*int(height))
	blobs := []struct {
		X, Y  int32
		Value float32
	}{
		{20, 20, 255},
		{70, 20, 220},
		{20, 70, 200},
		{80, 80, 240},
	}
	for _, b := range blobs {
		paintBlob(data, width, b.X, b.Y, b.Value)
	}

	minDistance := int32(10)
	stars := FindStars(data, width, minDistance, 0.2, 1.1)
	if len(stars) != len(blobs) {
		t.Fatalf("len(stars)=%d; want %d", len(stars), len(blobs))
	}

	// every reported star sits on one of the blobs, with the raw blob value
	for _, s := range stars {
		found := false
		for _, b := range blobs {
			dx, dy := s.X-b.X, s.Y-b.Y
			if dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1 {
				found = true
				if s.Value != b.Value {
					t.Errorf("star at (%d, %d) value=%f; want raw value %f", s.X, s.Y, s.Value, b.Value)
				}
			}
		}
		if !found {
			t.Errorf("star at (%d, %d) matches no blob", s.X, s.Y)
		}
	}

	// pairwise distances respect the minimum separation
	for i := 0; i < len(stars); i++ {
		for j := i + 1; j < len(stars); j++ {
			dx := int64(stars[i].X - stars[j].X)
			dy := int64(stars[i].Y - stars[j].Y)
			if dx*dx+dy*dy <= int64(minDistance)*int64(minDistance) {
				t.Errorf("stars (%d, %d) and (%d, %d) closer than %d",
					stars[i].X, stars[i].Y, stars[j].X, stars[j].Y, minDistance)
			}
		}
	}
}

func TestFindStarsSuppression(t *testing.T) {
	// two peaks five pixels apart conflict at minDistance 10, the brighter wins
	width, height := int32(50), int32(50)
	data := make([]float32, int(width)*int(height))
	paintBlob(data, width, 20, 20, 180)
	paintBlob(data, width, 25, 20, 250)

	stars := FindStars(data, width, 10, 0.2, 1.1)
	if len(stars) != 1 {
		t.Fatalf("len(stars)=%d; want 1", len(stars))
	}
	if stars[0].Value != 250 {
		t.Errorf("surviving star value=%f; want 250", stars[0].Value)
	}
}

func TestFindStarsThresholdInvariant(t *testing.T) {
	// every reported star exceeds thresholdRel times the maximum of the
	// normalized, smoothed grid at its reported coordinates; a blob below
	// that relative threshold is not reported
	width, height := int32(100), int32(100)
	data := make([]float32, int(width)*int(height))
	for _, b := range []struct {
		X, Y  int32
		Value float32
	}{
		{20, 20, 255},
		{70, 25, 180},
		{30, 75, 120},
		{80, 80, 40}, // too dim relative to the brightest blob
	} {
		paintBlob(data, width, b.X, b.Y, b.Value)
	}

	thresholdRel, sigma := float32(0.2), float32(1.1)
	stars := FindStars(data, width, 10, thresholdRel, sigma)
	if len(stars) != 3 {
		t.Fatalf("len(stars)=%d; want 3", len(stars))
	}

	// recompute the normalized and smoothed grid the detector thresholds on
	st := stats.CalcBasic(data)
	smoothed := make([]float32, len(data))
	normScale := 1.0 / (st.Max - st.Min)
	for i, v := range data {
		smoothed[i] = (v - st.Min) * normScale
	}
	tmp := make([]float32, len(data))
	GaussFilter2D(smoothed, tmp, smoothed, int(width), sigma)
	smoothedMax := stats.CalcBasic(smoothed).Max

	for _, s := range stars {
		if v := smoothed[s.Y*width+s.X]; v <= thresholdRel*smoothedMax {
			t.Errorf("star at (%d, %d) smoothed value %f below relative threshold %f",
				s.X, s.Y, v, thresholdRel*smoothedMax)
		}
	}
}

func TestFindStarsGradientSlope(t *testing.T) {
	// a single broad mound much wider than minDistance yields exactly one peak
	// at its apex; its above-threshold slope pixels are not local maxima and
	// must not be reported as separate stars
	width, height := int32(80), int32(80)
	data := make([]float32, int(width)*int(height))
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			dx, dy := x-40, y-40
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			d := dx
			if dy > d {
				d = dy
			}
			if d <= 30 {
				data[y*width+x] = 255 - 8*float32(d)
			}
		}
	}

	stars := FindStars(data, width, 10, 0.2, 1.1)
	if len(stars) != 1 {
		t.Fatalf("len(stars)=%d; want 1", len(stars))
	}
	if stars[0].X != 40 || stars[0].Y != 40 || stars[0].Value != 255 {
		t.Errorf("star=(%d, %d) value=%f; want apex (40, 40) value 255",
			stars[0].X, stars[0].Y, stars[0].Value)
	}
}

func TestFindStarsBorderPeak(t *testing.T) {
	// a blob touching the image corner is still eligible
	width, height := int32(60), int32(60)
	data := make([]float32, int(width)*int(height))
	paintBlob(data, width, 1, 1, 255)

	stars := FindStars(data, width, 10, 0.2, 1.1)
	if len(stars) != 1 {
		t.Fatalf("len(stars)=%d; want 1", len(stars))
	}
	if stars[0].X > 2 || stars[0].Y > 2 {
		t.Errorf("star at (%d, %d); want near the corner", stars[0].X, stars[0].Y)
	}
}

func TestFindStarsFlat(t *testing.T) {
	// a flat grid has no dynamic range and no stars
	data := make([]float32, 100*100)
	for i := range data {
		data[i] = 128
	}
	if stars := FindStars(data, 100, 10, 0.2, 1.1); len(stars) != 0 {
		t.Errorf("len(stars)=%d; want 0", len(stars))
	}
}

func TestFindStarsEmpty(t *testing.T) {
	if stars := FindStars(nil, 100, 10, 0.2, 1.1); stars != nil {
		t.Errorf("stars=%v; want nil", stars)
	}
}
