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

package render

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"

	"github.com/sundai-club/james-webb-live/internal/pixel"
	"github.com/sundai-club/james-webb-live/internal/scene"
	"github.com/sundai-club/james-webb-live/internal/stats"
)

// Display stretch settings for the background image. The black and white points are
// estimated from the pixel histogram, clipping the darkest quarter and the very
// brightest pixels for a starfield that reads well on screen
const (
	stretchLowPercentile  = 0.25
	stretchHighPercentile = 0.9995
	histogramBins         = 4096
)

// The center marker is enlarged relative to its scene size to stand out
const centerMarkerBoost = 4.0

// Overlay renders the grid and its assembled scene into an RGBA image with 16 bits
// per channel. The grid becomes the background, stretched between the display
// percentiles and bent with the given gamma, and every particle is drawn on top as a
// filled disk in its scene color. Clouds are drawn first, then stars, then the center
func Overlay(g *pixel.Grid, gamma float32) (*image.RGBA64, error) {
	if g.Scene == nil {
		return nil, errors.New("no scene assembled, cannot render overlay")
	}

	img := renderBackground(g, gamma)

	colors := map[string]color.RGBA64{}
	for _, kind := range []scene.Kind{scene.KindCloud, scene.KindStar, scene.KindCenter} {
		for i := range g.Scene.Particles {
			p := &g.Scene.Particles[i]
			if p.Kind != kind {
				continue
			}

			c, ok := colors[p.Color]
			if !ok {
				col, err := colorful.Hex(p.Color)
				if err != nil {
					return nil, errors.New(fmt.Sprintf("particle %d color %q: %s", i, p.Color, err.Error()))
				}
				r, gr, b := col.RGB255()
				c = color.RGBA64{R: uint16(r) * 257, G: uint16(gr) * 257, B: uint16(b) * 257, A: 65535}
				colors[p.Color] = c
			}

			radius := p.Size
			if p.Kind == scene.KindCenter {
				radius *= centerMarkerBoost
			}
			drawDisk(img, p.ImageCoords[0], p.ImageCoords[1], radius, c)
		}
	}
	return img, nil
}

// Render the stretched grayscale background of the overlay
func renderBackground(g *pixel.Grid, gamma float32) *image.RGBA64 {
	st := g.Stats
	if st == nil {
		st = stats.CalcBasic(g.Data)
	}

	// estimate display black and white points from the pixel histogram
	bins := make([]int32, histogramBins)
	stats.Histogram(g.Data, st.Min, st.Max, bins)
	lowHigh := stats.QuantilesFromHistogram(bins, st.Min, st.Max,
		[]float64{stretchLowPercentile, stretchHighPercentile})
	low, high := lowHigh[0], lowHigh[1]
	if high <= low {
		low, high = st.Min, st.Max
	}
	if high <= low {
		high = low + 1
	}

	img := image.NewRGBA64(image.Rect(0, 0, int(g.Width), int(g.Height)))
	scale := 1.0 / (high - low)
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < int(g.Height); y++ {
		for x := 0; x < int(g.Width); x++ {
			value := (g.Data[y*int(g.Width)+x] - low) * scale
			if value < 0 {
				value = 0
			}
			if value > 1 {
				value = 1
			}
			if math.IsNaN(float64(value)) {
				value = 0
			}
			if gamma != 1.0 {
				value = float32(math.Pow(float64(value), gammaInv))
			}
			v := uint16(value*65535 + 0.5)
			img.SetRGBA64(x, y, color.RGBA64{R: v, G: v, B: v, A: 65535})
		}
	}
	return img
}

// Draw a filled disk of the given radius around (xc, yc), clipped to the image bounds
func drawDisk(img *image.RGBA64, xc, yc, r float64, c color.RGBA64) {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	for y := -r; y <= r; y += 0.5 {
		for x := -r; x <= r; x += 0.5 {
			distSq := y*y + x*x
			if distSq <= r*r+1e-6 {
				xi, yi := int(xc+x+0.5), int(yc+y+0.5)
				if xi >= 0 && xi < width && yi >= 0 && yi < height {
					img.SetRGBA64(xi, yi, c)
				}
			}
		}
	}
}

// WriteFile encodes the image into the named file, choosing the format by the file
// name extension. JPEGs are written with the given quality, TIFFs uncompressed with
// 16 bits per channel, PNGs with the default encoder settings
func WriteFile(fileName string, img image.Image, quality int) error {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return writeFile(fileName, func(w io.Writer) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		})
	case strings.HasSuffix(lower, ".png"):
		return writeFile(fileName, func(w io.Writer) error {
			return png.Encode(w, img)
		})
	case strings.HasSuffix(lower, ".tif"), strings.HasSuffix(lower, ".tiff"):
		return writeFile(fileName, func(w io.Writer) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
		})
	}
	return errors.New(fmt.Sprintf("%s: unknown overlay file extension", fileName))
}

// Create the named file and encode into it through a buffered writer
func writeFile(fileName string, encode func(io.Writer) error) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	defer writer.Flush()
	return encode(writer)
}
