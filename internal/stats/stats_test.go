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

package stats

import (
	"math"
	"testing"
)

type calcBasicTestCase struct {
	Data   []float32
	Min    float32
	Max    float32
	Mean   float32
	StdDev float32
}

func TestCalcBasic(t *testing.T) {
	epsilon := 1e-5
	tcs := []calcBasicTestCase{
		{[]float32{1, 2, 3, 4}, 1, 4, 2.5, 1.118034},
		{[]float32{5}, 5, 5, 5, 0},
		{[]float32{-2, 2}, -2, 2, 0, 2},
		{[]float32{7, 7, 7, 7, 7}, 7, 7, 7, 0},
	}

	for _, tc := range tcs {
		s := CalcBasic(tc.Data)
		if math.Abs(float64(s.Min-tc.Min)) > epsilon {
			t.Errorf("data=%v min=%f; want %f", tc.Data, s.Min, tc.Min)
		}
		if math.Abs(float64(s.Max-tc.Max)) > epsilon {
			t.Errorf("data=%v max=%f; want %f", tc.Data, s.Max, tc.Max)
		}
		if math.Abs(float64(s.Mean-tc.Mean)) > epsilon {
			t.Errorf("data=%v mean=%f; want %f", tc.Data, s.Mean, tc.Mean)
		}
		if math.Abs(float64(s.StdDev-tc.StdDev)) > epsilon {
			t.Errorf("data=%v stdDev=%f; want %f", tc.Data, s.StdDev, tc.StdDev)
		}
	}
}

func TestHistogram(t *testing.T) {
	data := []float32{0, 0, 1, 2, 2, 2, 3}
	bins := make([]int32, 4)
	Histogram(data, 0, 3, bins)

	want := []int32{2, 1, 3, 1}
	for i, b := range bins {
		if b != want[i] {
			t.Errorf("bins[%d]=%d; want %d", i, b, want[i])
		}
	}
}

func TestHistogramFlatData(t *testing.T) {
	data := []float32{4, 4, 4}
	bins := make([]int32, 8)
	Histogram(data, 4, 4, bins)

	if bins[0] != 3 {
		t.Errorf("bins[0]=%d; want 3", bins[0])
	}
	for i, b := range bins[1:] {
		if b != 0 {
			t.Errorf("bins[%d]=%d; want 0", i+1, b)
		}
	}
}

func TestHistogramCountsAllValues(t *testing.T) {
	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(i%256) * 0.7
	}
	s := CalcBasic(data)

	bins := make([]int32, 64)
	Histogram(data, s.Min, s.Max, bins)

	sum := int32(0)
	for _, b := range bins {
		sum += b
	}
	if sum != int32(len(data)) {
		t.Errorf("sum of bins=%d; want %d", sum, len(data))
	}
}

func TestQuantilesFromHistogram(t *testing.T) {
	epsilon := 1e-5

	// two populated bins at the ends, centers at 0.5 and 3.5
	bins := []int32{2, 0, 0, 2}
	qs := QuantilesFromHistogram(bins, 0, 3, []float64{0.25, 0.5, 0.75, 1.0})

	want := []float32{0.5, 0.5, 3.5, 3.5}
	for i, q := range qs {
		if math.Abs(float64(q-want[i])) > epsilon {
			t.Errorf("q[%d]=%f; want %f", i, q, want[i])
		}
	}
}

func TestQuantilesFromHistogramUniform(t *testing.T) {
	bins := make([]int32, 256)
	for i := range bins {
		bins[i] = 1
	}
	qs := QuantilesFromHistogram(bins, 0, 255, []float64{0.5})

	// the median of a uniform histogram sits at the middle bin center
	if math.Abs(float64(qs[0]-127.5)) > 0.5 {
		t.Errorf("median=%f; want 127.5", qs[0])
	}
}
