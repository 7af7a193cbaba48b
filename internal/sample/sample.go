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

package sample

import (
	"errors"
	"fmt"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"
)

// A sampled cloud pixel
type Point struct {
	X     int32   // Pixel x position
	Y     int32   // Pixel y position
	Value float32 // Data value at the pixel
}

// Sampler draws random pixels with replacement, with probability proportional to
// pixel brightness within a band. Pixels outside [minBright, maxBright], pixels
// excluded by the mask and pixels with non-positive values carry zero weight and
// are never drawn
type Sampler struct {
	data     []float32
	width    int32
	cdf      []float64
	total    float64
	eligible int
	rng      fastrand.RNG
}

// NewSampler builds the cumulative weight distribution over all pixels of the given
// 2D data array. The weight of an eligible pixel is its own data value, the band
// bounds are inclusive. mask may be nil to exclude nothing. A seed of 0 leaves the
// generator randomized, any other seed makes draws reproducible.
// Returns an error when no pixel carries positive weight
func NewSampler(data []float32, width int32, mask *Mask, minBright, maxBright float32, seed uint32) (*Sampler, error) {
	if len(data) == 0 || width <= 0 {
		return nil, errors.New("no data to sample from")
	}

	weights := make([]float64, len(data))
	eligible := 0
	for i, v := range data {
		if v < minBright || v > maxBright {
			continue
		}
		if mask != nil && mask.Bits[i] {
			continue
		}
		if v > 0 {
			weights[i] = float64(v)
			eligible++
		}
	}

	floats.CumSum(weights, weights)
	total := weights[len(weights)-1]
	if total <= 0 {
		return nil, errors.New(fmt.Sprintf("no pixels with positive weight in brightness band [%g, %g]", minBright, maxBright))
	}

	s := &Sampler{data: data, width: width, cdf: weights, total: total, eligible: eligible}
	if seed != 0 {
		s.rng.Seed(seed)
	}
	return s, nil
}

// Eligible returns the number of pixels with positive weight
func (s *Sampler) Eligible() int {
	return s.eligible
}

// Draw samples n pixels with replacement and returns them as points. Each draw picks
// a uniform variate in (0, totalWeight] and selects the owning pixel by binary search
// over the cumulative distribution, so a pixel is drawn with probability proportional
// to its weight. Zero weight pixels are never selected
func (s *Sampler) Draw(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		u := (float64(s.rng.Uint32()) + 1) * s.total / (1 << 32)
		idx := int32(sort.SearchFloat64s(s.cdf, u))
		points[i] = Point{X: idx % s.width, Y: idx / s.width, Value: s.data[idx]}
	}
	return points
}
