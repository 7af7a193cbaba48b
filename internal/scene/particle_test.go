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

package scene

import (
	"math"
	"testing"
)

type starAttributeTestCase struct {
	Intensity float64
	Size      float64
	Color     string
}

func TestStarAttributes(t *testing.T) {
	epsilon := 1e-9
	tcs := []starAttributeTestCase{
		{0, 1, "#FF9966"},
		{100, 1 + 100.0/255*4, "#FF9966"}, // breakpoints are strict
		{101, 1 + 101.0/255*4, "#FFE87C"},
		{150, 1 + 150.0/255*4, "#FFE87C"},
		{151, 1 + 151.0/255*4, "#A0D8EF"},
		{200, 1 + 200.0/255*4, "#A0D8EF"},
		{201, 1 + 201.0/255*4, "#FFFFFF"},
		{255, 5, "#FFFFFF"},
	}
	for _, tc := range tcs {
		if got := StarSize(tc.Intensity); math.Abs(got-tc.Size) > epsilon {
			t.Errorf("starSize(%f)=%f; want %f", tc.Intensity, got, tc.Size)
		}
		if got := StarColor(tc.Intensity); got != tc.Color {
			t.Errorf("starColor(%f)=%s; want %s", tc.Intensity, got, tc.Color)
		}
	}
}

type cloudAttributeTestCase struct {
	Intensity float64
	Size      float64
	Color     string
}

func TestCloudAttributes(t *testing.T) {
	epsilon := 1e-9
	tcs := []cloudAttributeTestCase{
		{0, 0.5, "#7E57C2"},
		{70, 0.5 + 70.0/255*1.5, "#7E57C2"},
		{71, 0.5 + 71.0/255*1.5, "#9575CD"},
		{100, 0.5 + 100.0/255*1.5, "#9575CD"},
		{101, 0.5 + 101.0/255*1.5, "#B39DDB"},
		{255, 2, "#B39DDB"},
	}
	for _, tc := range tcs {
		if got := CloudSize(tc.Intensity); math.Abs(got-tc.Size) > epsilon {
			t.Errorf("cloudSize(%f)=%f; want %f", tc.Intensity, got, tc.Size)
		}
		if got := CloudColor(tc.Intensity); got != tc.Color {
			t.Errorf("cloudColor(%f)=%s; want %s", tc.Intensity, got, tc.Color)
		}
	}
}

func TestMassFromSize(t *testing.T) {
	epsilon := 1e-9
	tcs := []struct{ Size, Mass float64 }{
		{1, 1}, {2, 8}, {5, 125}, {0.5, 0.125},
	}
	for _, tc := range tcs {
		if got := MassFromSize(tc.Size); math.Abs(got-tc.Mass) > epsilon {
			t.Errorf("massFromSize(%f)=%f; want %f", tc.Size, got, tc.Mass)
		}
	}
}

func TestCenterParticleFixedAttributes(t *testing.T) {
	// the center's size, mass and color are fixed regardless of detected intensity
	for _, intensity := range []float64{0, 128, 255} {
		p := NewCenterParticle(10, 20, intensity)
		if p.Size != CenterSize || p.Mass != CenterMass || p.Color != CenterColor {
			t.Errorf("center(%f) size=%f mass=%f color=%s; want %f %f %s",
				intensity, p.Size, p.Mass, p.Color, float64(CenterSize), float64(CenterMass), CenterColor)
		}
		if p.Kind != KindCenter {
			t.Errorf("center kind=%v; want %v", p.Kind, KindCenter)
		}
		if p.Intensity != intensity {
			t.Errorf("center intensity=%f; want %f", p.Intensity, intensity)
		}
	}
}

func TestParticleMassConsistency(t *testing.T) {
	epsilon := 1e-9
	for _, intensity := range []float64{0, 42, 128, 255} {
		s := NewStarParticle(1, 2, intensity)
		if math.Abs(s.Mass-MassFromSize(s.Size)) > epsilon {
			t.Errorf("star mass=%f; want size^3=%f", s.Mass, MassFromSize(s.Size))
		}
		c := NewCloudParticle(1, 2, intensity)
		if math.Abs(c.Mass-MassFromSize(c.Size)) > epsilon {
			t.Errorf("cloud mass=%f; want size^3=%f", c.Mass, MassFromSize(c.Size))
		}
	}
}
