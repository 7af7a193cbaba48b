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
	"github.com/sundai-club/james-webb-live/internal/star"
)

// A bitmap of pixels excluded from cloud sampling
type Mask struct {
	Width  int32
	Height int32
	Bits   []bool
}

// Create an exclusion mask of the given dimensions with a filled disk of the given
// radius stamped around every star. Disk membership is inclusive, pixels exactly
// radius away from a star are excluded. Disks are clipped at the image borders.
// A radius of 0 or less excludes nothing
func NewMask(width, height int32, stars []star.Star, radius float32) *Mask {
	m := &Mask{Width: width, Height: height, Bits: make([]bool, int(width)*int(height))}
	if radius <= 0 {
		return m
	}
	for _, s := range stars {
		m.stampDisk(s.X, s.Y, radius)
	}
	return m
}

// Excluded reports whether the pixel at (x, y) is excluded from sampling
func (m *Mask) Excluded(x, y int32) bool {
	return m.Bits[y*m.Width+x]
}

// ExcludedCount returns the number of excluded pixels
func (m *Mask) ExcludedCount() (count int) {
	for _, b := range m.Bits {
		if b {
			count++
		}
	}
	return count
}

// Stamp a filled disk of the given radius around (xc, yc), clipped to the mask bounds
func (m *Mask) stampDisk(xc, yc int32, radius float32) {
	rad := int32(radius)
	radSq := radius*radius + 1e-6
	for dy := -rad; dy <= rad; dy++ {
		y := yc + dy
		if y < 0 || y >= m.Height {
			continue
		}
		for dx := -rad; dx <= rad; dx++ {
			x := xc + dx
			if x < 0 || x >= m.Width {
				continue
			}
			if float32(dx*dx+dy*dy) <= radSq {
				m.Bits[y*m.Width+x] = true
			}
		}
	}
}
