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

package pixel

import (
	"fmt"

	"github.com/sundai-club/james-webb-live/internal/blob"
	"github.com/sundai-club/james-webb-live/internal/sample"
	"github.com/sundai-club/james-webb-live/internal/scene"
	"github.com/sundai-club/james-webb-live/internal/star"
	"github.com/sundai-club/james-webb-live/internal/stats"
)

// A grayscale pixel grid in row-major order, with the extraction results attached
// as they are produced by the processing steps
type Grid struct {
	ID       int    // Unique integer ID of this grid, for logging and file name patterns
	FileName string // Original file name, if the grid was loaded from a file

	Width  int32     // Grid width in pixels
	Height int32     // Grid height in pixels
	Data   []float32 // Pixel values in row-major order, indexed y*Width+x

	Stats *stats.Basic // Basic pixel statistics. Recalculated on normalization

	Center *blob.Component // Central bright region, nil before detection
	Stars  []star.Star     // Detected stars, nil before detection
	Clouds []sample.Point  // Sampled cloud pixels, nil before sampling
	Scene  *scene.Scene    // Assembled particle scene, nil before assembly
}

// NewGrid creates a grid of the given dimensions with the given ID. When data is nil
// a zero filled array is allocated, otherwise data must hold width*height values in
// row-major order
func NewGrid(id int, width, height int32, data []float32) *Grid {
	if data == nil {
		data = make([]float32, int(width)*int(height))
	}
	g := &Grid{ID: id, Width: width, Height: height, Data: data}
	if len(data) > 0 {
		g.Stats = stats.CalcBasic(data)
	}
	return g
}

// Pixels returns the number of pixels in the grid
func (g *Grid) Pixels() int32 {
	return g.Width * g.Height
}

// DimensionsToString returns a readable formatting of the grid dimensions
func (g *Grid) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// Normalize rescales all pixel values linearly so the darkest pixel becomes 0 and the
// brightest becomes max, then recalculates the grid statistics. A flat grid without
// dynamic range is left unchanged and reported with ok false
func (g *Grid) Normalize(max float32) (ok bool) {
	if g.Stats == nil {
		g.Stats = stats.CalcBasic(g.Data)
	}
	if g.Stats.Max <= g.Stats.Min {
		return false
	}

	scale := max / (g.Stats.Max - g.Stats.Min)
	min := g.Stats.Min
	for i, v := range g.Data {
		g.Data[i] = (v - min) * scale
	}
	g.Stats = stats.CalcBasic(g.Data)
	return true
}
