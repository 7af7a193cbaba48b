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
	"image"
	"image/color"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	epsilon := 1e-4
	g := NewGrid(0, 4, 1, []float32{10, 20, 30, 50})

	if ok := g.Normalize(255); !ok {
		t.Fatalf("normalize=false; want true")
	}
	want := []float32{0, 63.75, 127.5, 255}
	for i, w := range want {
		if math.Abs(float64(g.Data[i]-w)) > epsilon {
			t.Errorf("data[%d]=%f; want %f", i, g.Data[i], w)
		}
	}
	if g.Stats.Min != 0 || g.Stats.Max != 255 {
		t.Errorf("stats min=%f max=%f; want 0 255", g.Stats.Min, g.Stats.Max)
	}
}

func TestNormalizeFlat(t *testing.T) {
	g := NewGrid(0, 3, 1, []float32{42, 42, 42})
	if ok := g.Normalize(255); ok {
		t.Errorf("normalize=true; want false for flat data")
	}
	for i, v := range g.Data {
		if v != 42 {
			t.Errorf("data[%d]=%f; want unchanged 42", i, v)
		}
	}
}

func TestNewGridFromImageGray(t *testing.T) {
	im := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range im.Pix {
		im.Pix[i] = uint8(i * 40)
	}

	g := NewGridFromImage(im, 7)
	if g.ID != 7 || g.Width != 3 || g.Height != 2 {
		t.Fatalf("id=%d dims=%dx%d; want 7 3x2", g.ID, g.Width, g.Height)
	}
	for i := range im.Pix {
		if g.Data[i] != float32(i*40) {
			t.Errorf("data[%d]=%f; want %d", i, g.Data[i], i*40)
		}
	}
}

func TestNewGridFromImageGray16(t *testing.T) {
	epsilon := 1e-4
	im := image.NewGray16(image.Rect(0, 0, 2, 1))
	im.SetGray16(0, 0, color.Gray16{Y: 0})
	im.SetGray16(1, 0, color.Gray16{Y: 65535})

	g := NewGridFromImage(im, 0)
	if math.Abs(float64(g.Data[0])) > epsilon {
		t.Errorf("data[0]=%f; want 0", g.Data[0])
	}
	if math.Abs(float64(g.Data[1]-255)) > epsilon {
		t.Errorf("data[1]=%f; want 255", g.Data[1])
	}
}

func TestNewGridFromImageColorLuma(t *testing.T) {
	epsilon := 0.5
	im := image.NewRGBA(image.Rect(0, 0, 3, 1))
	im.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	im.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	im.SetRGBA(2, 0, color.RGBA{B: 255, A: 255})

	g := NewGridFromImage(im, 0)
	want := []float32{0.299 * 255, 0.587 * 255, 0.114 * 255}
	for i, w := range want {
		if math.Abs(float64(g.Data[i]-w)) > epsilon {
			t.Errorf("data[%d]=%f; want %f", i, g.Data[i], w)
		}
	}
}

func TestNewGridFromFileUnknownSuffix(t *testing.T) {
	if _, err := NewGridFromFile("image.bmp", 0); err == nil {
		t.Errorf("err=nil; want error for unknown extension")
	}
}
