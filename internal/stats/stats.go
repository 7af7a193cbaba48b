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
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Basic statistics on data arrays
type Basic struct {
	Min    float32 // Minimum
	Max    float32 // Maximum
	Mean   float32 // Mean (average)
	StdDev float32 // Standard deviation (norm 2, sigma)
}

// Pretty print basic stats to string
func (s *Basic) String() string {
	return fmt.Sprintf("Min %.6g Max %.6g Mean %.6g StdDev %.6g", s.Min, s.Max, s.Mean, s.StdDev)
}

// Calculate basic statistics for a data array. Panics on empty input
func CalcBasic(data []float32) (s *Basic) {
	s = &Basic{}
	s.Min, s.Mean, s.Max = calcMinMeanMax(data)

	variance := calcVariance(data, s.Mean)
	s.StdDev = float32(math.Sqrt(float64(variance)))

	return s
}

// Calculate minimum, mean and maximum of given data
func calcMinMeanMax(data []float32) (min, mean, max float32) {
	mmin, msum, mmax := data[0], float64(0), data[0]
	for _, v := range data {
		if v < mmin {
			mmin = v
		}
		if v > mmax {
			mmax = v
		}
		msum += float64(v)
	}
	return mmin, float32(msum / float64(len(data))), mmax
}

// Calculate variance of given data around the given mean
func calcVariance(data []float32, mean float32) float32 {
	sum := float64(0)
	for _, v := range data {
		diff := float64(v - mean)
		sum += diff * diff
	}
	return float32(sum / float64(len(data)))
}

// Calculate histogram of data between min and max into given bins.
// Callers must pass the true data range, values outside it are not clamped
func Histogram(data []float32, min, max float32, bins []int32) {
	for i := range bins {
		bins[i] = 0
	}
	if max <= min {
		bins[0] = int32(len(data))
		return
	}
	scale := float32(len(bins)-1) / (max - min)
	for _, d := range data {
		index := (d - min) * scale
		bins[int(index)]++
	}
}

// Estimate quantiles of the underlying data from its histogram.
// Returns one estimate per probability in ps, at bin center granularity
func QuantilesFromHistogram(bins []int32, min, max float32, ps []float64) []float32 {
	xs := make([]float64, len(bins))
	ws := make([]float64, len(bins))
	binWidth := float64(max-min) / float64(len(bins)-1)
	for i, b := range bins {
		xs[i] = float64(min) + (float64(i)+0.5)*binWidth
		ws[i] = float64(b)
	}

	res := make([]float32, len(ps))
	for i, p := range ps {
		res[i] = float32(stat.Quantile(p, stat.Empirical, xs, ws))
	}
	return res
}
