package ncio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gmslr/internal/ensemble"
	"gmslr/internal/logging"
	"gmslr/internal/report"
	"gmslr/internal/result"
)

// ListFile is the name of the plain-text summary in the output directory.
const ListFile = "list"

// Statistic file suffixes.
const (
	StatMid   = "mid"
	StatLower = "lower"
	StatUpper = "upper"
)

var standardNames = map[ensemble.Quantity]string{
	ensemble.GMSLR:       "global_average_sea_level_change",
	ensemble.Expansion:   "global_average_thermosteric_sea_level_change",
	ensemble.Temperature: "surface_temperature",
}

// Writer writes run outputs into one directory.
type Writer struct {
	Dir string
}

// NewWriter creates dir if needed and removes any list file left by an
// earlier invocation.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.Remove(filepath.Join(dir, ListFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to remove old list file: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// AppendList appends the scenario header and one line per quantity to the
// list file.
func (w *Writer) AppendList(scenario string, t *result.Table) error {
	f, err := os.OpenFile(filepath.Join(w.Dir, ListFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open list file: %w", err)
	}
	_, werr := f.WriteString(strings.Join(report.ListLines(scenario, t), "\n") + "\n")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("failed to write list file: %w", werr)
	}
	return nil
}

// StatsPath returns the file holding one statistic of a quantity.
func (w *Writer) StatsPath(scenario string, q ensemble.Quantity, stat string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s_%s.nc", scenario, q, stat))
}

// EnsemblePath returns the file holding the full ensemble of a quantity.
func (w *Writer) EnsemblePath(scenario string, q ensemble.Quantity) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s.nc", scenario, q))
}

// WriteStats writes the mid, lower and upper timeseries of every quantity
// in t. Uniform quantities are written as mean and actual range.
func (w *Writer) WriteStats(scenario string, t *result.Table) error {
	timer := logging.StartTimer(logging.CategoryOutput, "WriteStats "+scenario)
	defer timer.Stop()

	years := int32s(t.Years())
	for _, q := range t.Quantities() {
		s, _ := t.Get(q)
		mid, lower, upper := s.Median, s.Low, s.High
		if s.Uniform {
			mid, lower, upper = s.Mean, s.Min, s.Max
		}
		for _, out := range []struct {
			stat string
			vals []float64
		}{{StatMid, mid}, {StatLower, lower}, {StatUpper, upper}} {
			path := w.StatsPath(scenario, q, out.stat)
			err := create(path, []string{dimTime}, []int{len(years)},
				globals(scenario, t.Meta),
				[]variable{
					yearVariable(years),
					{name: string(q), dims: []string{dimTime}, attrs: quantityAttrs(s.Quantity, s.Unit), data: out.vals},
				})
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
	}
	logging.Get(logging.CategoryOutput).Debug("wrote statistics for %d quantities of %s", len(t.Quantities()), scenario)
	return nil
}

// WriteEnsemble writes every member of e.
func (w *Writer) WriteEnsemble(scenario string, meta result.Meta, e *ensemble.Ensemble) error {
	path := w.EnsemblePath(scenario, e.Quantity)
	err := create(path, []string{dimMember, dimTime}, []int{e.Members(), e.Years()},
		globals(scenario, meta),
		[]variable{
			yearVariable(int32s(e.Axis.Years())),
			{name: string(e.Quantity), dims: []string{dimMember, dimTime},
				attrs: quantityAttrs(e.Quantity, e.Quantity.Unit()), data: e.Values()},
		})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteEnsembles writes every ensemble in report order.
func (w *Writer) WriteEnsembles(scenario string, meta result.Meta, ens map[ensemble.Quantity]*ensemble.Ensemble) error {
	timer := logging.StartTimer(logging.CategoryOutput, "WriteEnsembles "+scenario)
	defer timer.Stop()

	for _, q := range ensemble.ReportOrder {
		e, ok := ens[q]
		if !ok {
			continue
		}
		if err := w.WriteEnsemble(scenario, meta, e); err != nil {
			return err
		}
	}
	return nil
}

func yearVariable(years []int32) variable {
	return variable{name: varYear, dims: []string{dimTime}, attrs: []attr{{"units", "year"}}, data: years}
}

func quantityAttrs(q ensemble.Quantity, unit string) []attr {
	attrs := []attr{{"units", unit}, {"long_name", q.LongName()}}
	if sn, ok := standardNames[q]; ok {
		attrs = append(attrs, attr{"standard_name", sn})
	}
	return attrs
}

func globals(scenario string, m result.Meta) []attr {
	g := []attr{
		{"scenario", scenario},
		{"members", []int32{int32(m.Members)}},
		{"seed", fmt.Sprint(m.Seed)},
	}
	for _, a := range []attr{
		{"glacier", m.Glacier},
		{"antdyn", m.AntDyn},
		{"levermann_fit", m.LevermannFit},
		{"driver_form", m.Form},
	} {
		if a.value != "" {
			g = append(g, a)
		}
	}
	return g
}

// WriteDriver writes d into dir in the layout Loader reads: a mean and sd
// pair for moment form, one models file for ensemble form.
func WriteDriver(dir, scenario string, q ensemble.Quantity, d ensemble.DriverInput) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create driver directory: %w", err)
	}
	years := int32s(d.Years)
	path := func(stat string) string {
		return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.nc", scenario, q, stat))
	}
	attrs := quantityAttrs(q, q.Unit())

	switch d.Form() {
	case ensemble.FormMoment:
		for _, out := range []struct {
			stat string
			vals []float64
		}{{statMean, d.Mean}, {statSD, d.SD}} {
			err := create(path(out.stat), []string{dimTime}, []int{len(years)}, nil, []variable{
				yearVariable(years),
				{name: string(q), dims: []string{dimTime}, attrs: attrs, data: out.vals},
			})
			if err != nil {
				return err
			}
		}
		return nil
	case ensemble.FormEnsemble:
		flat := make([]float64, 0, len(d.Values)*len(years))
		for _, row := range d.Values {
			if len(row) != len(years) {
				return fmt.Errorf("%s: trajectory has %d years, want %d", q, len(row), len(years))
			}
			flat = append(flat, row...)
		}
		return create(path(statModels), []string{dimModel, dimTime}, []int{len(d.Values), len(years)},
			[]attr{{modelsAttr, strings.Join(d.Sources, ",")}},
			[]variable{
				yearVariable(years),
				{name: string(q), dims: []string{dimModel, dimTime}, attrs: attrs, data: flat},
			})
	default:
		return fmt.Errorf("%s: driver carries no data", q)
	}
}
