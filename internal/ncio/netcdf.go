// Package ncio reads driver timeseries from netCDF files and writes run
// statistics, full ensembles and the plain-text list file.
package ncio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/cdf"
)

// Dimension and coordinate names shared by input and output files.
const (
	dimTime   = "time"
	dimModel  = "model"
	dimMember = "realization"
	varYear   = "year"
)

// fillThreshold marks values at or above the classic netCDF fill range as missing.
const fillThreshold = 1e30

type attr struct {
	name  string
	value any
}

type variable struct {
	name  string
	dims  []string
	attrs []attr
	// data is []int32 or []float64 in row-major order.
	data any
}

// create writes a classic netCDF file holding vars.
func create(path string, dims []string, lengths []int, globals []attr, vars []variable) (err error) {
	h := cdf.NewHeader(dims, lengths)
	for _, a := range globals {
		h.AddAttribute("", a.name, a.value)
	}
	for _, v := range vars {
		switch v.data.(type) {
		case []int32:
			h.AddVariable(v.name, v.dims, []int32{0})
		case []float64:
			h.AddVariable(v.name, v.dims, []float64{0})
		default:
			return fmt.Errorf("variable %s: unsupported type %T", v.name, v.data)
		}
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a.name, a.value)
		}
	}
	h.Define()
	if errs := h.Check(); len(errs) > 0 {
		return fmt.Errorf("invalid netCDF header for %s: %v", path, errs[0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	nc, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	for _, v := range vars {
		end := nc.Header.Lengths(v.name)
		w := nc.Writer(v.name, make([]int, len(end)), end)
		if _, err := w.Write(v.data); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("write %s in %s: %w", v.name, path, err)
		}
	}
	return nil
}

// ncFile is an open netCDF file.
type ncFile struct {
	path string
	f    *os.File
	nc   *cdf.File
}

func open(path string) (*ncFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return &ncFile{path: path, f: f, nc: nc}, nil
}

func (n *ncFile) Close() error { return n.f.Close() }

// lengths returns the dimension lengths of v, or nil if v is absent.
func (n *ncFile) lengths(v string) []int { return n.nc.Header.Lengths(v) }

// global returns a string-valued global attribute.
func (n *ncFile) global(name string) (string, bool) {
	s, ok := n.nc.Header.GetAttribute("", name).(string)
	return s, ok
}

// floats reads all of v as float64. Values in the fill range, or equal to
// the variable's _FillValue, become NaN.
func (n *ncFile) floats(v string) ([]float64, error) {
	if len(n.lengths(v)) == 0 {
		return nil, fmt.Errorf("%s: variable %s not in file", n.path, v)
	}
	r := n.nc.Reader(v, nil, nil)
	buf := r.Zero(-1)
	// A complete read of a fixed-size variable ends with io.EOF.
	if _, err := r.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: read %s: %v", n.path, v, err)
	}

	var out []float64
	switch vals := buf.(type) {
	case []float64:
		out = vals
	case []float32:
		out = make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
	case []int32:
		out = make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
	case []int16:
		out = make([]float64, len(vals))
		for i, x := range vals {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("%s: variable %s has unsupported type %T", n.path, v, buf)
	}

	fill, hasFill := n.fillValue(v)
	for i, x := range out {
		if math.Abs(x) >= fillThreshold || (hasFill && x == fill) {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

func (n *ncFile) fillValue(v string) (float64, bool) {
	switch a := n.nc.Header.GetAttribute(v, "_FillValue").(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

// years reads the year coordinate as integers.
func (n *ncFile) years() ([]int, error) {
	vals, err := n.floats(varYear)
	if err != nil {
		return nil, err
	}
	years := make([]int, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || v != math.Trunc(v) {
			return nil, fmt.Errorf("%s: year %d is not a whole number", n.path, i)
		}
		years[i] = int(v)
	}
	return years, nil
}

func int32s(years []int) []int32 {
	out := make([]int32, len(years))
	for i, y := range years {
		out[i] = int32(y)
	}
	return out
}
