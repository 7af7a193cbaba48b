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

package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sundai-club/james-webb-live/internal/blob"
	"github.com/sundai-club/james-webb-live/internal/ops"
	"github.com/sundai-club/james-webb-live/internal/pixel"
	"github.com/sundai-club/james-webb-live/internal/render"
	"github.com/sundai-club/james-webb-live/internal/sample"
	"github.com/sundai-club/james-webb-live/internal/scene"
	"github.com/sundai-club/james-webb-live/internal/star"
)

// NewOpExtract chains the full particle extraction pipeline from a loaded grid
// to saved outputs
func NewOpExtract(opDetectCenter *OpDetectCenter, opDetectStars *OpDetectStars, opSampleClouds *OpSampleClouds,
	opAssemble *OpAssemble, opSaveScene *OpSaveScene, opSaveOverlay *OpSaveOverlay) *ops.OpSequence {
	return ops.NewOpSequence(
		opDetectCenter, opDetectStars, opSampleClouds,
		opAssemble, opSaveScene, opSaveOverlay,
	)
}

// Detect the central region of saturated pixels via connected components.
// Takes one input, produces one output
type OpDetectCenter struct {
	ops.OpUnaryBase
	Threshold float32 `json:"threshold"`
}

var _ ops.Operator = (*OpDetectCenter)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpDetectCenterDefault() }) } // register the operator for JSON decoding

func NewOpDetectCenterDefault() *OpDetectCenter { return NewOpDetectCenter(240) }

func NewOpDetectCenter(threshold float32) *OpDetectCenter {
	op := OpDetectCenter{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "detectCenter", Active: true}},
		Threshold:   threshold,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpDetectCenter) UnmarshalJSON(data []byte) error {
	type defaults OpDetectCenter
	def := defaults(*NewOpDetectCenterDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpDetectCenter(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpDetectCenter) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active {
		return g, nil
	}
	comp, found := blob.FindCentral(g.Data, g.Width, op.Threshold)
	g.Center = &comp

	if found {
		fmt.Fprintf(c.Log, "%d: Central region of area %d at (%.1f, %.1f) with peak intensity %.4g\n",
			g.ID, comp.Area, comp.X, comp.Y, comp.Peak)
	} else {
		fmt.Fprintf(c.Log, "%d: No pixels at or above intensity %.4g, falling back to geometric center (%.1f, %.1f)\n",
			g.ID, op.Threshold, comp.X, comp.Y)
	}
	return g, nil
}

// Detect star peaks with non-maximum suppression on a smoothed copy of the grid.
// Takes one input, produces one output
type OpDetectStars struct {
	ops.OpUnaryBase
	MinDistance int32   `json:"minDistance"`
	Threshold   float32 `json:"threshold"`
	Sigma       float32 `json:"sigma"`
}

var _ ops.Operator = (*OpDetectStars)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpDetectStarsDefault() }) } // register the operator for JSON decoding

func NewOpDetectStarsDefault() *OpDetectStars { return NewOpDetectStars(10, 0.2, 1.1) }

func NewOpDetectStars(minDistance int32, threshold, sigma float32) *OpDetectStars {
	op := OpDetectStars{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "detectStars", Active: true}},
		MinDistance: minDistance,
		Threshold:   threshold,
		Sigma:       sigma,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpDetectStars) UnmarshalJSON(data []byte) error {
	type defaults OpDetectStars
	def := defaults(*NewOpDetectStarsDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpDetectStars(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpDetectStars) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active {
		return g, nil
	}
	g.Stars = star.FindStars(g.Data, g.Width, op.MinDistance, op.Threshold, op.Sigma)

	fmt.Fprintf(c.Log, "%d: Detected %d stars with relative threshold %.2f, min distance %d and sigma %.2f\n",
		g.ID, len(g.Stars), op.Threshold, op.MinDistance, op.Sigma)
	return g, nil
}

// Sample cloud points with replacement, weighted by pixel brightness within a band.
// Pixels within the given radius of a detected star are excluded.
// Takes one input, produces one output
type OpSampleClouds struct {
	ops.OpUnaryBase
	Count     int     `json:"count"`
	MinBright float32 `json:"minBright"`
	MaxBright float32 `json:"maxBright"`
	Radius    float32 `json:"radius"`
}

var _ ops.Operator = (*OpSampleClouds)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpSampleCloudsDefault() }) } // register the operator for JSON decoding

func NewOpSampleCloudsDefault() *OpSampleClouds { return NewOpSampleClouds(100000, 30, 150, 10) }

func NewOpSampleClouds(count int, minBright, maxBright, radius float32) *OpSampleClouds {
	op := OpSampleClouds{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "sampleClouds", Active: count > 0}},
		Count:       count,
		MinBright:   minBright,
		MaxBright:   maxBright,
		Radius:      radius,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSampleClouds) UnmarshalJSON(data []byte) error {
	type defaults OpSampleClouds
	def := defaults(*NewOpSampleCloudsDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpSampleClouds(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSampleClouds) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active || op.Count <= 0 {
		return g, nil
	}

	requiredMB := len(g.Data) * 8 / 1024 / 1024 // cumulative weight table, one float64 per pixel
	if c.SampleMemoryMB > 0 && requiredMB > c.SampleMemoryMB {
		return nil, errors.New(fmt.Sprintf("%d: Sampling weight table needs %d MB, above the %d MB budget",
			g.ID, requiredMB, c.SampleMemoryMB))
	}

	var mask *sample.Mask
	if op.Radius > 0 && len(g.Stars) > 0 {
		mask = sample.NewMask(g.Width, g.Height, g.Stars, op.Radius)
		fmt.Fprintf(c.Log, "%d: Excluding %d pixels within radius %.4g of %d stars\n",
			g.ID, mask.ExcludedCount(), op.Radius, len(g.Stars))
	}

	sampler, err := sample.NewSampler(g.Data, g.Width, mask, op.MinBright, op.MaxBright, c.RandSeed)
	if err != nil {
		return nil, err
	}
	g.Clouds = sampler.Draw(op.Count)

	fmt.Fprintf(c.Log, "%d: Sampled %d cloud points from %d eligible pixels in band [%.4g, %.4g]\n",
		g.ID, len(g.Clouds), sampler.Eligible(), op.MinBright, op.MaxBright)
	return g, nil
}

// Assemble detection and sampling results into a normalized particle scene.
// Takes one input, produces one output
type OpAssemble struct {
	ops.OpUnaryBase
	Scale float64 `json:"scale"`
}

var _ ops.Operator = (*OpAssemble)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpAssembleDefault() }) } // register the operator for JSON decoding

func NewOpAssembleDefault() *OpAssemble { return NewOpAssemble(10.0) }

func NewOpAssemble(scale float64) *OpAssemble {
	op := OpAssemble{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "assemble", Active: true}},
		Scale:       scale,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpAssemble) UnmarshalJSON(data []byte) error {
	type defaults OpAssemble
	def := defaults(*NewOpAssembleDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpAssemble(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpAssemble) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active {
		return g, nil
	}
	if g.Center == nil {
		return nil, errors.New(fmt.Sprintf("%d: No central region detected, cannot assemble scene", g.ID))
	}

	sc, err := scene.New(*g.Center, g.Stars, g.Clouds, op.Scale)
	if err != nil {
		return nil, err
	}
	g.Scene = sc

	stars, clouds, _ := sc.Counts()
	fmt.Fprintf(c.Log, "%d: Assembled scene with %d stars, %d cloud particles and the center, scaled to [-%.4g, %.4g]\n",
		g.ID, stars, clouds, op.Scale, op.Scale)
	return g, nil
}

// Save the assembled scene to a JSON or CSV particle file.
// Takes one input, produces one output
type OpSaveScene struct {
	ops.OpUnaryBase
	FilePattern string `json:"filePattern"`
}

var _ ops.Operator = (*OpSaveScene)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpSaveSceneDefault() }) } // register the operator for JSON decoding

func NewOpSaveSceneDefault() *OpSaveScene { return NewOpSaveScene("") }

func NewOpSaveScene(filenamePattern string) *OpSaveScene {
	op := OpSaveScene{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "saveScene", Active: filenamePattern != ""}},
		FilePattern: filenamePattern,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSaveScene) UnmarshalJSON(data []byte) error {
	type defaults OpSaveScene
	def := defaults(*NewOpSaveSceneDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpSaveScene(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

// Apply saves the scene of the given grid under the filename pattern of the
// operator, with "%d" replaced by the grid id. The format is chosen based on
// the filename suffix
func (op *OpSaveScene) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active || op.FilePattern == "" {
		return g, nil
	}
	if !ops.IsPathAllowed(op.FilePattern) {
		return nil, errors.New("Filename outside current directory tree, aborting")
	}
	if g.Scene == nil {
		return nil, errors.New(fmt.Sprintf("%d: No scene assembled, cannot save particles", g.ID))
	}

	fileName := op.FilePattern
	if strings.Contains(fileName, "%d") {
		fileName = fmt.Sprintf(fileName, g.ID)
	}
	fmt.Fprintf(c.Log, "%d: Writing scene with %d particles to %s\n", g.ID, len(g.Scene.Particles), fileName)

	fileNameLower := strings.ToLower(fileName)
	if strings.HasSuffix(fileNameLower, ".json") {
		err = g.Scene.WriteJSONFile(fileName)
	} else if strings.HasSuffix(fileNameLower, ".csv") {
		err = g.Scene.WriteCSVFile(fileName)
	} else {
		err = errors.New(fmt.Sprintf("unknown scene file suffix in %s, expecting .json or .csv", fileName))
	}
	if err != nil {
		return nil, errors.New(fmt.Sprintf("%d: Error writing to file %s: %s\n", g.ID, fileName, err.Error()))
	}
	return g, nil
}

// Save a rendered overlay image of the grid and its scene for visual verification.
// Takes one input, produces one output
type OpSaveOverlay struct {
	ops.OpUnaryBase
	FilePattern string  `json:"filePattern"`
	Gamma       float32 `json:"gamma"`
	Quality     int     `json:"quality"`
}

var _ ops.Operator = (*OpSaveOverlay)(nil) // this type is an Operator

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpSaveOverlayDefault() }) } // register the operator for JSON decoding

func NewOpSaveOverlayDefault() *OpSaveOverlay { return NewOpSaveOverlay("", 1.0, 95) }

func NewOpSaveOverlay(filenamePattern string, gamma float32, quality int) *OpSaveOverlay {
	op := OpSaveOverlay{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "saveOverlay", Active: filenamePattern != ""}},
		FilePattern: filenamePattern,
		Gamma:       gamma,
		Quality:     quality,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return &op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSaveOverlay) UnmarshalJSON(data []byte) error {
	type defaults OpSaveOverlay
	def := defaults(*NewOpSaveOverlayDefault())
	err := json.Unmarshal(data, &def)
	if err != nil {
		return err
	}
	*op = OpSaveOverlay(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSaveOverlay) Apply(g *pixel.Grid, c *ops.Context) (result *pixel.Grid, err error) {
	if !op.Active || op.FilePattern == "" {
		return g, nil
	}
	if !ops.IsPathAllowed(op.FilePattern) {
		return nil, errors.New("Filename outside current directory tree, aborting")
	}

	img, err := render.Overlay(g, op.Gamma)
	if err != nil {
		return nil, err
	}

	fileName := op.FilePattern
	if strings.Contains(fileName, "%d") {
		fileName = fmt.Sprintf(fileName, g.ID)
	}
	fmt.Fprintf(c.Log, "%d: Writing %s overlay image to %s\n", g.ID, g.DimensionsToString(), fileName)

	err = render.WriteFile(fileName, img, op.Quality)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("%d: Error writing to file %s: %s\n", g.ID, fileName, err.Error()))
	}
	return g, nil
}
