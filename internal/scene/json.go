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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Wire form of one particle in hierarchical output
type jsonParticle struct {
	Position    [3]float64 `json:"position"`
	ImageCoords [2]float64 `json:"imageCoords"`
	Intensity   float64    `json:"intensity"`
	Mass        float64    `json:"mass"`
	Color       string     `json:"color"`
	Type        string     `json:"type"`
}

// Wire form of a scene in hierarchical output
type jsonScene struct {
	Particles []jsonParticle `json:"particles"`
}

// JSON type token for the given kind. Clouds are written as "particle"
func kindToJSON(k Kind) string {
	switch k {
	case KindStar:
		return "star"
	case KindCloud:
		return "particle"
	}
	return "center"
}

// Kind for the given JSON type token
func kindFromJSON(s string) (Kind, error) {
	switch s {
	case "star":
		return KindStar, nil
	case "particle":
		return KindCloud, nil
	case "center":
		return KindCenter, nil
	}
	return 0, errors.New(fmt.Sprintf("unknown particle type %q", s))
}

// WriteJSON writes the scene as an indented hierarchical document holding one
// "particles" array, preserving particle order
func (sc *Scene) WriteJSON(w io.Writer) error {
	js := jsonScene{Particles: make([]jsonParticle, len(sc.Particles))}
	for i := range sc.Particles {
		p := &sc.Particles[i]
		js.Particles[i] = jsonParticle{
			Position:    p.Position,
			ImageCoords: p.ImageCoords,
			Intensity:   p.Intensity,
			Mass:        p.Mass,
			Color:       p.Color,
			Type:        kindToJSON(p.Kind),
		}
	}

	data, err := json.MarshalIndent(&js, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteJSONFile writes the scene to the named file in hierarchical form
func (sc *Scene) WriteJSONFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	defer writer.Flush()
	return sc.WriteJSON(writer)
}

// ReadJSON reads a scene from its hierarchical form. Rendered sizes are rebuilt from
// the intensities, and the scene scale is recovered as the largest absolute position
// coordinate over the non-center particles
func ReadJSON(r io.Reader) (*Scene, error) {
	var js jsonScene
	if err := json.NewDecoder(r).Decode(&js); err != nil {
		return nil, err
	}

	sc := &Scene{Particles: make([]Particle, len(js.Particles))}
	for i := range js.Particles {
		jp := &js.Particles[i]
		kind, err := kindFromJSON(jp.Type)
		if err != nil {
			return nil, err
		}

		size := float64(CenterSize)
		switch kind {
		case KindStar:
			size = StarSize(jp.Intensity)
		case KindCloud:
			size = CloudSize(jp.Intensity)
		}

		sc.Particles[i] = Particle{
			Position:    jp.Position,
			ImageCoords: jp.ImageCoords,
			Intensity:   jp.Intensity,
			Size:        size,
			Mass:        jp.Mass,
			Color:       jp.Color,
			Kind:        kind,
		}

		if kind != KindCenter {
			for _, c := range jp.Position[:2] {
				if a := math.Abs(c); a > sc.Scale {
					sc.Scale = a
				}
			}
		}
	}
	return sc, nil
}

// ReadJSONFile reads a scene in hierarchical form from the named file
func ReadJSONFile(fileName string) (*Scene, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadJSON(bufio.NewReader(file))
}
