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

package ops

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pbnjay/memory"

	"github.com/sundai-club/james-webb-live/internal/pixel"
)

// An execution context for operators
type Context struct {
	Log            io.Writer `json:"-"`
	MemoryMB       int       `json:"memoryMB"`       // memory.TotalMemory()/1024/1024
	SampleMemoryMB int       `json:"sampleMemoryMB"` // MemoryMB*7/10, budget for sampling weight tables
	RandSeed       uint32    `json:"randSeed"`       // seed for cloud sampling, 0 draws a fresh sequence every run
}

func NewContext(log io.Writer, randSeed uint32) *Context {
	memoryMB := int(memory.TotalMemory() / 1024 / 1024)
	return &Context{
		Log:            log,
		MemoryMB:       memoryMB,
		SampleMemoryMB: memoryMB * 7 / 10,
		RandSeed:       randSeed,
	}
}

// A promise for a pixel grid. Returns a materialized grid, or an error
type Promise func() (g *pixel.Grid, err error)

// Materializes all promises in order, releasing each grid before the next promise
// runs. Returns the first error encountered
func MaterializeAll(ins []Promise) (err error) {
	for _, in := range ins {
		if _, err = in(); err != nil {
			return err
		}
	}
	return nil
}

// A general grid processing operator: takes n promises as inputs,
// and produces m promises as output or an error
type Operator interface {
	GetType() string
	IsActive() bool
	MakePromises(ins []Promise, c *Context) (outs []Promise, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for subclasses of unary operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from unary operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// A unary grid processing operator: given n promises as inputs,
// applies itself to each of them individually and returns n output promises or an error
type OperatorUnary interface {
	Operator
	Apply(g *pixel.Grid, c *Context) (gOut *pixel.Grid, err error)
}

// Abstract base type for unary operators. Uses golang workaround for abstract classes
// from https://golangbyexample.com/go-abstract-class/
type OpUnaryBase struct {
	OpBase
	Apply func(g *pixel.Grid, c *Context) (gOut *pixel.Grid, err error) `json:"-"`
}

func (op *OpUnaryBase) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) == 0 {
		return nil, errors.New(fmt.Sprintf("unary operator with %d inputs", len(ins)))
	}
	outs = make([]Promise, len(ins))
	for i, in := range ins {
		outs[i] = op.MakePromise(in, c)
	}
	return outs, nil
}

func (op *OpUnaryBase) MakePromise(in Promise, c *Context) (out Promise) {
	return func() (g *pixel.Grid, err error) {
		if g, err = in(); err != nil {
			return nil, err // materialize input promise
		}
		if g, err = op.Apply(g, c); err != nil {
			return nil, err // apply unary operator
		}
		return g, nil // wrap output in promise
	}
}

// Load a single image from a single filename and normalize its intensity range.
// Takes zero inputs, produces one output
type OpLoad struct {
	OpBase
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad(0, "") }

func NewOpLoad(id int, fileName string) *OpLoad {
	return &OpLoad{
		OpBase:   OpBase{Type: "load", Active: true},
		ID:       id,
		FileName: fileName,
	}
}

// Load image from a file. Ignores any inputs provided
func (op *OpLoad) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) > 0 {
		return nil, errors.New(fmt.Sprintf("%s operator with non-zero input", op.Type))
	}
	if !IsPathAllowed(op.FileName) {
		return nil, errors.New("Filename outside current directory tree, aborting")
	}

	out := func() (g *pixel.Grid, err error) {
		// no inputs to materialize
		return op.Apply(nil, c)
	}
	return []Promise{out}, nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory.
// Applies to load and save targets alike
func IsPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

func (op *OpLoad) Apply(g *pixel.Grid, c *Context) (result *pixel.Grid, err error) {
	g, err = pixel.NewGridFromFile(op.FileName, op.ID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(c.Log, "%d: Loaded %s image with %v from %s\n",
		g.ID, g.DimensionsToString(), g.Stats, g.FileName)

	if g.Normalize(255) {
		fmt.Fprintf(c.Log, "%d: Normalized intensities to [0, 255] with %v\n", g.ID, g.Stats)
	} else {
		fmt.Fprintf(c.Log, "%d: WARNING low dynamic range, skipping normalization\n", g.ID)
	}
	return g, nil
}

// Applies a sequence of operators to a promise. Number of inputs, outputs as per the chained steps
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps) > 0},
		Steps:  steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type alias OpSequence
	err := json.Unmarshal(b, (*alias)(op))
	if err != nil {
		return err
	}

	for _, raw := range op.StepsRaw {
		var step OpBase
		err = json.Unmarshal(raw, &step)
		if err != nil {
			return err
		}

		var i Operator
		if factory := GetOperatorFactory(step.Type); factory != nil {
			i = factory()
		} else {
			return errors.New(fmt.Sprintf("Unknown operator type '%s' in raw JSON message '%s'", step.Type, string(raw)))
		}
		err = json.Unmarshal(raw, i)
		if err != nil {
			return err
		}
		op.Steps = append(op.Steps, i)
	}
	return nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	for _, step := range steps {
		op.Steps = append(op.Steps, step)
	}
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf := bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err := json.Marshal(op.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"steps\":", op.Active)
	inner, err = json.Marshal(op.Steps)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (op *OpSequence) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return op.applyRecursive(op.Steps, ins, c)
}

func (op *OpSequence) applyRecursive(steps []Operator, ins []Promise, c *Context) (outs []Promise, err error) {
	if len(steps) == 0 {
		return ins, nil
	}
	ins, err = steps[0].MakePromises(ins, c)
	if err != nil {
		return nil, err
	}
	return op.applyRecursive(steps[1:], ins, c)
}
