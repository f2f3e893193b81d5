package ensemble

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gmslr/internal/projerr"
)

// Driver names as used by the climate-model archives.
const (
	DriverTAS     = "tas"
	DriverZOSTOGA = "zostoga"
)

// Form is the representation of a driver timeseries.
type Form int

const (
	FormUnset Form = iota
	FormMoment
	FormEnsemble
)

func (f Form) String() string {
	switch f {
	case FormMoment:
		return "moment"
	case FormEnsemble:
		return "ensemble"
	default:
		return "unset"
	}
}

// DriverInput is one driver as supplied by the input loader, in exactly one
// of two forms: per-year Gaussian moments (Mean, SD) or named source
// trajectories (Sources, Values[source][year]).
type DriverInput struct {
	Name  string
	Years []int

	Mean []float64
	SD   []float64

	Sources []string
	Values  [][]float64
}

// MomentInput builds a moment-form driver.
func MomentInput(name string, years []int, mean, sd []float64) DriverInput {
	return DriverInput{Name: name, Years: years, Mean: mean, SD: sd}
}

// EnsembleInput builds an ensemble-form driver.
func EnsembleInput(name string, years []int, sources []string, values [][]float64) DriverInput {
	return DriverInput{Name: name, Years: years, Sources: sources, Values: values}
}

// Form reports which representation d carries.
func (d DriverInput) Form() Form {
	moment := d.Mean != nil || d.SD != nil
	members := d.Sources != nil || d.Values != nil
	switch {
	case moment && !members:
		return FormMoment
	case members && !moment:
		return FormEnsemble
	default:
		return FormUnset
	}
}

func (d DriverInput) validate(axis YearAxis) error {
	if err := axis.Match(d.Years); err != nil {
		return attribute(err, d.Name)
	}
	n := axis.Len()
	switch d.Form() {
	case FormMoment:
		if len(d.Mean) != n || len(d.SD) != n {
			return projerr.Domain("mean has %d values and sd %d, want %d", len(d.Mean), len(d.SD), n).
				ForQuantity(d.Name)
		}
		for i := range n {
			if !finite(d.Mean[i]) || !finite(d.SD[i]) {
				return projerr.Domain("missing or non-finite value").ForQuantity(d.Name).AtYear(axis.Year(i))
			}
			if d.SD[i] < 0 {
				return projerr.Domain("standard deviation %g is negative", d.SD[i]).
					ForQuantity(d.Name).ForParam("sd").AtYear(axis.Year(i))
			}
		}
	case FormEnsemble:
		if len(d.Sources) == 0 {
			return projerr.Domain("ensemble form has no sources").ForQuantity(d.Name)
		}
		if len(d.Values) != len(d.Sources) {
			return projerr.Domain("%d sources named but %d trajectories given", len(d.Sources), len(d.Values)).
				ForQuantity(d.Name)
		}
		for s, row := range d.Values {
			if len(row) != n {
				return projerr.Domain("source %s has %d years, want %d", d.Sources[s], len(row), n).
					ForQuantity(d.Name)
			}
			for i, v := range row {
				if !finite(v) {
					return projerr.Domain("missing or non-finite value in source %s", d.Sources[s]).
						ForQuantity(d.Name).AtYear(axis.Year(i))
				}
			}
		}
	default:
		return projerr.Configuration("driver must carry exactly one of moment or ensemble form").
			ForQuantity(d.Name)
	}
	return nil
}

// Drivers are the sampled driver ensembles for one run.
type Drivers struct {
	Form        Form
	Temperature *Ensemble
	Expansion   *Ensemble
	// TemperatureIntegral is each member's time-integral of temperature in
	// K yr at the end of each year.
	TemperatureIntegral *Ensemble
	// CentralIntegral is the integral of the central temperature estimate:
	// the mean in moment form, the source mean in ensemble form.
	CentralIntegral []float64
	Sources         []string
}

// Builder turns driver timeseries into sampled ensembles.
type Builder struct {
	Axis    YearAxis
	Members int
	Sampler *Sampler
	// SDScale multiplies input standard deviations in moment form. Zero
	// collapses every member onto the mean.
	SDScale float64
	Workers int
}

// driverDraw is the per-member draw shared by both drivers.
type driverDraw struct {
	z      float64
	source int
}

func (b *Builder) draw(m int, form Form, nsrc int) driverDraw {
	r := b.Sampler.Rand(m, StreamDriver)
	if form == FormEnsemble {
		return driverDraw{source: r.IntN(nsrc)}
	}
	return driverDraw{z: r.NormFloat64() * b.SDScale}
}

// Build samples tas and zostoga into member × year ensembles. Both drivers
// reuse the same per-member draw so that paired trajectories stay paired.
func (b *Builder) Build(ctx context.Context, tas, zostoga DriverInput) (*Drivers, error) {
	if b.Members <= 0 {
		return nil, projerr.Configuration("ensemble size must be positive, got %d", b.Members).ForParam("members")
	}
	if b.SDScale < 0 || !finite(b.SDScale) {
		return nil, projerr.Domain("sd scale %g is invalid", b.SDScale).ForParam("sd_scale")
	}
	if b.Sampler == nil {
		return nil, projerr.Configuration("no sampler configured")
	}
	if tas.Form() != zostoga.Form() {
		return nil, projerr.Configuration("%s is in %s form but %s is in %s form",
			tas.Name, tas.Form(), zostoga.Name, zostoga.Form())
	}
	if err := tas.validate(b.Axis); err != nil {
		return nil, err
	}
	if err := zostoga.validate(b.Axis); err != nil {
		return nil, err
	}

	form := tas.Form()
	d := &Drivers{
		Form:                form,
		Temperature:         New(Temperature, b.Axis, b.Members),
		Expansion:           New(Expansion, b.Axis, b.Members),
		TemperatureIntegral: New(temperatureIntegral, b.Axis, b.Members),
		CentralIntegral:     make([]float64, b.Axis.Len()),
	}

	var nsrc int
	switch form {
	case FormMoment:
		cumsum(tas.Mean, d.CentralIntegral)
	case FormEnsemble:
		if len(tas.Sources) != len(zostoga.Sources) {
			return nil, projerr.Domain("%s has %d sources but %s has %d",
				tas.Name, len(tas.Sources), zostoga.Name, len(zostoga.Sources)).ForParam("sources")
		}
		if !slices.Equal(tas.Sources, zostoga.Sources) {
			return nil, projerr.Domain("source identifiers of %s and %s disagree", tas.Name, zostoga.Name).
				ForParam("sources")
		}
		nsrc = len(tas.Sources)
		d.Sources = slices.Clone(tas.Sources)
		integ := make([]float64, b.Axis.Len())
		for _, row := range tas.Values {
			cumsum(row, integ)
			for i, v := range integ {
				d.CentralIntegral[i] += v
			}
		}
		for i := range d.CentralIntegral {
			d.CentralIntegral[i] /= float64(nsrc)
		}
	}

	err := ForMembers(ctx, b.Members, b.Workers, func(m int) error {
		dr := b.draw(m, form, nsrc)
		trow, xrow, irow := d.Temperature.Row(m), d.Expansion.Row(m), d.TemperatureIntegral.Row(m)
		if form == FormEnsemble {
			copy(trow, tas.Values[dr.source])
			copy(xrow, zostoga.Values[dr.source])
		} else {
			for i := range trow {
				trow[i] = tas.Mean[i] + dr.z*tas.SD[i]
				xrow[i] = zostoga.Mean[i] + dr.z*zostoga.SD[i]
			}
		}
		cumsum(trow, irow)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sample drivers: %w", err)
	}
	return d, nil
}

func cumsum(src, dst []float64) {
	var acc float64
	for i, v := range src {
		acc += v
		dst[i] = acc
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func attribute(err error, name string) error {
	if pe, ok := err.(*projerr.Error); ok {
		return pe.ForQuantity(name)
	}
	return err
}
