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

// The kind of a particle
type Kind int

const (
	KindStar   Kind = iota // a detected star peak
	KindCloud              // a sampled cloud pixel
	KindCenter             // the central region, exactly one per scene
)

// Pretty print the particle kind
func (k Kind) String() string {
	switch k {
	case KindStar:
		return "star"
	case KindCloud:
		return "cloud"
	case KindCenter:
		return "center"
	}
	return "unknown"
}

// Fixed attributes of the center particle, independent of its detected intensity.
// The mass stays consistent with the size to mass rule, CenterSize^3 == CenterMass
const (
	CenterSize  = 2.0
	CenterMass  = 8.0
	CenterColor = "#FF0000"
)

// StarSize maps a star intensity in [0, 255] to a rendered size in [1, 5]
func StarSize(intensity float64) float64 {
	return 1 + (intensity/255)*4
}

// StarColor maps a star intensity in [0, 255] to its color class
func StarColor(intensity float64) string {
	switch {
	case intensity > 200:
		return "#FFFFFF"
	case intensity > 150:
		return "#A0D8EF"
	case intensity > 100:
		return "#FFE87C"
	}
	return "#FF9966"
}

// CloudSize maps a cloud pixel intensity in [0, 255] to a rendered size in [0.5, 2]
func CloudSize(intensity float64) float64 {
	return 0.5 + (intensity/255)*1.5
}

// CloudColor maps a cloud pixel intensity in [0, 255] to its color class
func CloudColor(intensity float64) string {
	switch {
	case intensity > 100:
		return "#B39DDB"
	case intensity > 70:
		return "#9575CD"
	}
	return "#7E57C2"
}

// MassFromSize derives a particle mass from its rendered size with a power law
func MassFromSize(size float64) float64 {
	return size * size * size
}

// A particle of the exported scene
type Particle struct {
	Position    [3]float64 // Normalized scene position. Z is always 0
	ImageCoords [2]float64 // Pixel coordinates (x, y) on the source image
	Intensity   float64    // Raw pixel intensity in [0, 255]
	Size        float64    // Rendered size, derived from the intensity
	Mass        float64    // Mass, the cube of the size. Fixed for the center
	Color       string     // Render color class, derived from the intensity
	Kind        Kind       // Particle kind
}

// NewStarParticle creates a star particle at pixel position (x, y) with the given intensity
func NewStarParticle(x, y, intensity float64) Particle {
	size := StarSize(intensity)
	return Particle{
		ImageCoords: [2]float64{x, y},
		Intensity:   intensity,
		Size:        size,
		Mass:        MassFromSize(size),
		Color:       StarColor(intensity),
		Kind:        KindStar,
	}
}

// NewCloudParticle creates a cloud particle at pixel position (x, y) with the given intensity
func NewCloudParticle(x, y, intensity float64) Particle {
	size := CloudSize(intensity)
	return Particle{
		ImageCoords: [2]float64{x, y},
		Intensity:   intensity,
		Size:        size,
		Mass:        MassFromSize(size),
		Color:       CloudColor(intensity),
		Kind:        KindCloud,
	}
}

// NewCenterParticle creates the center particle at pixel position (x, y). The intensity
// records the peak value of the central region, all other attributes are fixed
func NewCenterParticle(x, y, intensity float64) Particle {
	return Particle{
		ImageCoords: [2]float64{x, y},
		Intensity:   intensity,
		Size:        CenterSize,
		Mass:        CenterMass,
		Color:       CenterColor,
		Kind:        KindCenter,
	}
}
