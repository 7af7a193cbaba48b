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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

const csvHeader = "y,x,intensity,size,color,type"

// CSV type token for the given kind. The center is written as "black_hole"
func kindToCSV(k Kind) string {
	switch k {
	case KindStar:
		return "star"
	case KindCloud:
		return "cloud"
	}
	return "black_hole"
}

// Kind for the given CSV type token
func kindFromCSV(s string) (Kind, error) {
	switch s {
	case "star":
		return KindStar, nil
	case "cloud":
		return KindCloud, nil
	case "black_hole":
		return KindCenter, nil
	}
	return 0, errors.New(fmt.Sprintf("unknown particle type %q", s))
}

// WriteCSV writes the scene in tabular form with one row per particle, preserving
// particle order. Rows carry the image coordinates with y first, then x
func (sc *Scene) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}
	for i := range sc.Particles {
		p := &sc.Particles[i]
		_, err := fmt.Fprintf(w, "%g,%g,%g,%g,%s,%s\n",
			p.ImageCoords[1], p.ImageCoords[0], p.Intensity, p.Size, p.Color, kindToCSV(p.Kind))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteCSVFile writes the scene to the named file in tabular form
func (sc *Scene) WriteCSVFile(fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	writer := bufio.NewWriter(file)
	defer writer.Flush()
	return sc.WriteCSV(writer)
}

// ReadCSV reads a scene from its tabular form. Masses are rebuilt from the sizes.
// Tabular output does not carry normalized scene positions, so all positions and the
// scene scale are zero after reading
func ReadCSV(r io.Reader) (*Scene, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header row")
	}
	if got := records[0]; len(got) != 6 || got[0] != "y" || got[1] != "x" ||
		got[2] != "intensity" || got[3] != "size" || got[4] != "color" || got[5] != "type" {
		return nil, errors.New(fmt.Sprintf("unexpected header %v, want %s", got, csvHeader))
	}

	sc := &Scene{Particles: make([]Particle, len(records)-1)}
	for i, rec := range records[1:] {
		y, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("row %d: bad y value %q", i+1, rec[0]))
		}
		x, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("row %d: bad x value %q", i+1, rec[1]))
		}
		intensity, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("row %d: bad intensity value %q", i+1, rec[2]))
		}
		size, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, errors.New(fmt.Sprintf("row %d: bad size value %q", i+1, rec[3]))
		}
		kind, err := kindFromCSV(rec[5])
		if err != nil {
			return nil, errors.New(fmt.Sprintf("row %d: %s", i+1, err.Error()))
		}

		sc.Particles[i] = Particle{
			ImageCoords: [2]float64{x, y},
			Intensity:   intensity,
			Size:        size,
			Mass:        MassFromSize(size),
			Color:       rec[4],
			Kind:        kind,
		}
	}
	return sc, nil
}

// ReadCSVFile reads a scene in tabular form from the named file
func ReadCSVFile(fileName string) (*Scene, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(bufio.NewReader(file))
}
