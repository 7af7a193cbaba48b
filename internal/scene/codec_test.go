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
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/sundai-club/james-webb-live/internal/blob"
	"github.com/sundai-club/james-webb-live/internal/sample"
	"github.com/sundai-club/james-webb-live/internal/star"
)

func makeTestScene(t *testing.T) *Scene {
	sc, err := New(
		blob.Component{X: 50.5, Y: 49.5, Peak: 255},
		[]star.Star{{X: 10, Y: 20, Value: 230}, {X: 80, Y: 90, Value: 120}},
		[]sample.Point{{X: 30, Y: 40, Value: 75}, {X: 55, Y: 60, Value: 140}},
		10)
	if err != nil {
		t.Fatalf("New: %s", err.Error())
	}
	return sc
}

func TestJSONRoundTrip(t *testing.T) {
	epsilon := 1e-9
	sc := makeTestScene(t)

	buf := bytes.Buffer{}
	if err := sc.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %s", err.Error())
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %s", err.Error())
	}

	if len(got.Particles) != len(sc.Particles) {
		t.Fatalf("len(particles)=%d; want %d", len(got.Particles), len(sc.Particles))
	}
	for i := range sc.Particles {
		want, p := &sc.Particles[i], &got.Particles[i]
		if p.Kind != want.Kind {
			t.Errorf("particle %d kind=%v; want %v", i, p.Kind, want.Kind)
		}
		for j := 0; j < 3; j++ {
			if math.Abs(p.Position[j]-want.Position[j]) > epsilon {
				t.Errorf("particle %d position[%d]=%f; want %f", i, j, p.Position[j], want.Position[j])
			}
		}
		for j := 0; j < 2; j++ {
			if math.Abs(p.ImageCoords[j]-want.ImageCoords[j]) > epsilon {
				t.Errorf("particle %d imageCoords[%d]=%f; want %f", i, j, p.ImageCoords[j], want.ImageCoords[j])
			}
		}
		if math.Abs(p.Mass-want.Mass) > epsilon {
			t.Errorf("particle %d mass=%f; want %f", i, p.Mass, want.Mass)
		}
		if p.Color != want.Color {
			t.Errorf("particle %d color=%s; want %s", i, p.Color, want.Color)
		}
	}
	if math.Abs(got.Scale-10) > epsilon {
		t.Errorf("recovered scale=%f; want 10", got.Scale)
	}
}

func TestJSONTypeTokens(t *testing.T) {
	// clouds serialize as "particle", the center as "center"
	sc := makeTestScene(t)
	buf := bytes.Buffer{}
	if err := sc.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %s", err.Error())
	}
	s := buf.String()
	if !strings.Contains(s, `"type": "star"`) || !strings.Contains(s, `"type": "particle"`) ||
		!strings.Contains(s, `"type": "center"`) {
		t.Errorf("missing type tokens in JSON output:\n%s", s)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	epsilon := 1e-9
	sc := makeTestScene(t)

	buf := bytes.Buffer{}
	if err := sc.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %s", err.Error())
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %s", err.Error())
	}

	if len(got.Particles) != len(sc.Particles) {
		t.Fatalf("len(particles)=%d; want %d", len(got.Particles), len(sc.Particles))
	}
	for i := range sc.Particles {
		want, p := &sc.Particles[i], &got.Particles[i]
		if p.Kind != want.Kind {
			t.Errorf("particle %d kind=%v; want %v", i, p.Kind, want.Kind)
		}
		for j := 0; j < 2; j++ {
			if math.Abs(p.ImageCoords[j]-want.ImageCoords[j]) > epsilon {
				t.Errorf("particle %d imageCoords[%d]=%f; want %f", i, j, p.ImageCoords[j], want.ImageCoords[j])
			}
		}
		if math.Abs(p.Intensity-want.Intensity) > epsilon {
			t.Errorf("particle %d intensity=%f; want %f", i, p.Intensity, want.Intensity)
		}
		if math.Abs(p.Size-want.Size) > epsilon {
			t.Errorf("particle %d size=%f; want %f", i, p.Size, want.Size)
		}
		if p.Color != want.Color {
			t.Errorf("particle %d color=%s; want %s", i, p.Color, want.Color)
		}
	}
}

func TestCSVHeaderValidation(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b,c\n1,2,3\n")); err == nil {
		t.Errorf("err=nil; want error for unexpected header")
	}
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Errorf("err=nil; want error for empty input")
	}
}

func TestCSVUnknownType(t *testing.T) {
	in := "y,x,intensity,size,color,type\n1,2,3,4,#FFFFFF,comet\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Errorf("err=nil; want error for unknown particle type")
	}
}
