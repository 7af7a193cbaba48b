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

package blob

// A connected component of bright pixels, as produced by thresholding and labeling
type Component struct {
	Label int32   // Component label, starting from 1. Label 0 is the background
	Area  int32   // Number of pixels in the component
	X     float32 // Centroid x position, the mean of all member pixel x coordinates
	Y     float32 // Centroid y position, the mean of all member pixel y coordinates
	Peak  float32 // Highest data value within the component
}

// Find all 8-connected components of pixels with values at or above the threshold.
// Returns one record per component with pixel area, centroid and peak intensity, in
// seed order. The background below the threshold carries label 0 and is never reported
func FindComponents(data []float32, width int32, threshold float32) []Component {
	if len(data) == 0 || width <= 0 {
		return nil
	}
	height := int32(len(data)) / width

	labels := make([]int32, len(data))
	comps := []Component{}
	stack := []int32{}

	for start := int32(0); start < int32(len(data)); start++ {
		if labels[start] != 0 || data[start] < threshold {
			continue
		}

		// flood fill the component from this seed
		label := int32(len(comps) + 1)
		area, sumX, sumY := int32(0), float64(0), float64(0)
		peak := data[start]

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if v := data[idx]; v > peak {
				peak = v
			}
			x, y := idx%width, idx/width
			area++
			sumX += float64(x)
			sumY += float64(y)

			// visit all eight neighbors
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
					nidx := ny*width + nx
					if labels[nidx] == 0 && data[nidx] >= threshold {
						labels[nidx] = label
						stack = append(stack, nidx)
					}
				}
			}
		}

		comps = append(comps, Component{
			Label: label,
			Area:  area,
			X:     float32(sumX / float64(area)),
			Y:     float32(sumY / float64(area)),
			Peak:  peak,
		})
	}
	return comps
}

// Find the dominant bright region of the data, thresholding at or above the given value.
// Selects the connected component with the largest pixel area; the earliest component
// in seed order wins ties. When no pixel reaches the threshold, found is false and the
// returned component is the geometric image center with intensity 0
func FindCentral(data []float32, width int32, threshold float32) (comp Component, found bool) {
	if width <= 0 {
		return Component{}, false
	}

	comps := FindComponents(data, width, threshold)
	if len(comps) == 0 {
		height := int32(len(data)) / width
		return Component{X: float32(width) / 2, Y: float32(height) / 2}, false
	}

	best := comps[0]
	for _, c := range comps[1:] {
		if c.Area > best.Area {
			best = c
		}
	}
	return best, true
}
