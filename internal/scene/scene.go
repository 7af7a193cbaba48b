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
	"errors"
	"math"

	"github.com/sundai-club/james-webb-live/internal/blob"
	"github.com/sundai-club/james-webb-live/internal/sample"
	"github.com/sundai-club/james-webb-live/internal/star"
)

// A particle scene assembled from the detections on one image. Particles are ordered
// stars first, then clouds, then exactly one center particle last. All non-center
// positions lie in [-Scale, Scale] per axis, the center is pinned to the origin
type Scene struct {
	Scale     float64    // Coordinate scale of the normalized positions
	Particles []Particle // All particles of the scene, the center last
}

// New assembles a scene from the given central region, stars and sampled cloud
// pixels, and normalizes all positions around the center. Returns an error when the
// scene holds no non-center particles, or when all of them coincide with the center
func New(center blob.Component, stars []star.Star, clouds []sample.Point, scale float64) (*Scene, error) {
	particles := make([]Particle, 0, len(stars)+len(clouds)+1)
	for _, s := range stars {
		particles = append(particles, NewStarParticle(float64(s.X), float64(s.Y), float64(s.Value)))
	}
	for _, p := range clouds {
		particles = append(particles, NewCloudParticle(float64(p.X), float64(p.Y), float64(p.Value)))
	}
	particles = append(particles, NewCenterParticle(float64(center.X), float64(center.Y), float64(center.Peak)))

	err := NormalizeParticles(particles, float64(center.X), float64(center.Y), scale)
	if err != nil {
		return nil, err
	}
	return &Scene{Scale: scale, Particles: particles}, nil
}

// NormalizeParticles rescales the positions of all non-center particles around the
// center point (cx, cy). The largest absolute coordinate offset from the center over
// both axes and all non-center particles maps to scale, so every position component
// lands in [-scale, scale]. Center particles are pinned to the origin.
// Returns an error when no non-center particle exists or all offsets are zero
func NormalizeParticles(particles []Particle, cx, cy, scale float64) error {
	maxDist, others := 0.0, 0
	for i := range particles {
		p := &particles[i]
		if p.Kind == KindCenter {
			continue
		}
		others++
		if d := math.Abs(p.ImageCoords[0] - cx); d > maxDist {
			maxDist = d
		}
		if d := math.Abs(p.ImageCoords[1] - cy); d > maxDist {
			maxDist = d
		}
	}
	if others == 0 {
		return errors.New("no particles besides the center, nothing to normalize")
	}
	if maxDist <= 0 {
		return errors.New("all particles coincide with the center, coordinate scale is undefined")
	}

	factor := scale / maxDist
	for i := range particles {
		p := &particles[i]
		if p.Kind == KindCenter {
			p.Position = [3]float64{0, 0, 0}
			continue
		}
		p.Position = [3]float64{
			(p.ImageCoords[0] - cx) * factor,
			(p.ImageCoords[1] - cy) * factor,
			0,
		}
	}
	return nil
}

// Counts returns the number of star, cloud and center particles in the scene
func (sc *Scene) Counts() (stars, clouds, centers int) {
	for i := range sc.Particles {
		switch sc.Particles[i].Kind {
		case KindStar:
			stars++
		case KindCloud:
			clouds++
		case KindCenter:
			centers++
		}
	}
	return stars, clouds, centers
}
