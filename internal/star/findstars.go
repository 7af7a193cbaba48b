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
	"github.com/sundai-club/james-webb-live/internal/stats"
)

// A star, as found on an image by local peak detection
type Star struct {
	Index int32   // Index of the peak pixel in the data array. int32(x)+width*int32(y)
	Value float32 // Value of the star in the data array. data[index]
	X     int32   // Star x position, in pixels
	Y     int32   // Star y position, in pixels
}

// Find stars in the given 2D data array as local brightness maxima.
// Scales a copy of the data into [0,1] and smooths it with a gaussian of the given
// sigma to suppress noise peaks. Candidate peaks are 3x3 local maxima of the smoothed
// grid strictly exceeding thresholdRel times the smoothed maximum, so slope pixels of
// a wide bright gradient never qualify. Candidates within minDistance pixels of a
// brighter accepted peak are suppressed, with ties broken by data array order.
// Reported star values are read back from the original unsmoothed data
func FindStars(data []float32, width, minDistance int32, thresholdRel, sigma float32) []Star {
	if len(data) == 0 || width <= 0 {
		return nil
	}
	height := int32(len(data)) / width

	// smooth a normalized copy of the data
	st := stats.CalcBasic(data)
	if st.Max <= st.Min {
		return nil
	}
	normScale := 1.0 / (st.Max - st.Min)
	smoothed := make([]float32, len(data))
	for i, v := range data {
		smoothed[i] = (v - st.Min) * normScale
	}
	tmp := make([]float32, len(data))
	GaussFilter2D(smoothed, tmp, smoothed, int(width), sigma)
	tmp = nil

	// begin star identification based on local maxima above a fraction of the smoothed peak value
	smoothedMax := stats.CalcBasic(smoothed).Max
	stars := findBrightPixels(smoothed, width, height, thresholdRel*smoothedMax)

	// filter out faint stars overlapped by brighter ones
	QSortStarsDesc(stars)
	stars = filterOutOverlaps(stars, width, height, minDistance)

	// report star values from the original data, not the smoothed copy
	for i := range stars {
		stars[i].Value = data[stars[i].Index]
	}

	// Return a clone of the final shortlist of stars, so the longer original object can be reclaimed
	res := make([]Star, len(stars))
	copy(res, stars)
	stars = nil

	return res
}

// Find 3x3 local maxima above the threshold and return them as star candidates,
// carrying the smoothed value they were detected on. Plateau pixels of equal value
// all qualify, subsequent overlap filtering keeps one of them. Border pixels are
// eligible, out of bounds neighbors are skipped
func findBrightPixels(data []float32, width, height int32, threshold float32) []Star {
	stars := make([]Star, len(data)/100)[:0]

	for i, v := range data {
		if v <= threshold {
			continue
		}
		x, y := int32(i)%width, int32(i)/width
		if !isLocalMax(data, width, height, x, y, v) {
			continue
		}
		stars = append(stars, Star{Index: int32(i), Value: v, X: x, Y: y})
	}
	return stars
}

// Reports whether no 8-neighbor of (x, y) exceeds the value v
func isLocalMax(data []float32, width, height, x, y int32, v float32) bool {
	for dy := int32(-1); dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= height {
			continue
		}
		for dx := int32(-1); dx <= 1; dx++ {
			nx := x + dx
			if nx < 0 || nx >= width || (dx == 0 && dy == 0) {
				continue
			}
			if data[ny*width+nx] > v {
				return false
			}
		}
	}
	return true
}

// A singly linked list of stars. Used for filtering out overlaps
type starListItem struct {
	Star *Star
	Next *starListItem
}

// Filters out overlaps from the stars, retaining earlier entries over later ones.
// Callers must sort stars by descending value first, so the brighter peak wins each
// conflict. The suppression distance is inclusive, peaks exactly minDistance apart conflict
func filterOutOverlaps(stars []Star, width, height, minDistance int32) []Star {
	// To avoid quadratic search effort, we bin the stars into a 2D grid.
	// Each bin is a linked list of stars, sorted by descending value.
	// Cells must be larger than the suppression radius for the +/-1 cell scan to cover it
	binSize := int32(256)
	if minDistance >= binSize {
		binSize = minDistance + 1
	}
	xBins := (width + binSize - 1) / binSize
	yBins := (height + binSize - 1) / binSize
	bins := make([]*starListItem, int(xBins*yBins))
	slis := make([]starListItem, ((len(stars)+1023)/1024)*1024) // use tiered sizing to help the allocator
	radiusSquared := int64(minDistance) * int64(minDistance)

	// For all stars, filter list in place
	numRemainingStars := 0
forAllStars:
	for _, s := range stars {
		// Find grid cell of this star
		xCell, yCell := s.X/binSize, s.Y/binSize

		// For this grid cell and all adjacent cells
		for dy := int32(-1); dy <= 1; dy++ {
			if yCell+dy < 0 || yCell+dy >= yBins {
				continue
			}
			for dx := int32(-1); dx <= 1; dx++ {
				if xCell+dx < 0 || xCell+dx >= xBins {
					continue
				}
				cellIndex := (xCell + dx) + (yCell+dy)*xBins

				// For all prior stars in that cell
				for ptr := bins[cellIndex]; ptr != nil; ptr = ptr.Next {
					s2 := ptr.Star
					xDist := int64(s.X - s2.X)
					yDist := int64(s.Y - s2.Y)
					sqDist := xDist*xDist + yDist*yDist

					// Skip current star if it's close to a prior star
					if sqDist <= radiusSquared {
						continue forAllStars
					}
				}
			}
		}

		// Retain star for output
		stars[numRemainingStars] = s

		// Insert star into grid cell
		slis[numRemainingStars] = starListItem{&(stars[numRemainingStars]), nil}
		cellIndex := xCell + yCell*xBins
		ptr := bins[cellIndex]
		if ptr == nil {
			bins[cellIndex] = &(slis[numRemainingStars])
		} else {
			for ptr.Next != nil {
				ptr = ptr.Next
			}
			ptr.Next = &(slis[numRemainingStars])
		}

		numRemainingStars++
	}

	bins = nil
	slis = nil
	// Return shortened list of stars as result
	return stars[:numRemainingStars]
}
