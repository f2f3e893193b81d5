// Package contrib evaluates the per-component sea-level contribution models
// over a driver ensemble.
//
// Each contribution is a Model: a quantity tag plus the formula variant that
// produces it. Evaluate dispatches on the pair and fills a fresh member × year
// ensemble. Models draw their random parameters from their own sampler
// streams, except that antsmb and antdyn share the Antarctic fraction.
package contrib

import (
	"context"
	"fmt"
	"strings"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

// Variant selects the formula used for a contribution.
type Variant string

const (
	VariantIdentity    Variant = "identity"
	VariantAR5         Variant = "ar5"
	VariantGlacierMIP  Variant = "glaciermip"
	VariantGlacierMIP2 Variant = "glaciermip2"
	VariantLevermann   Variant = "levermann"
)

// ParseGlacier validates a glacier calibration name.
func ParseGlacier(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := glacierTables[v]; !ok {
		return "", projerr.Configuration("unknown glacier calibration %q (want ar5, glaciermip or glaciermip2)", s).
			ForQuantity(string(ensemble.Glacier)).ForParam("glacier")
	}
	return v, nil
}

// ParseAntDyn validates an Antarctic dynamics scheme name.
func ParseAntDyn(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VariantAR5, VariantLevermann:
		return v, nil
	}
	return "", projerr.Configuration("unknown Antarctic dynamics scheme %q (want ar5 or levermann)", s).
		ForQuantity(string(ensemble.AntDyn)).ForParam("antdyn")
}

// Model is one contribution and the formula that produces it.
type Model struct {
	Quantity ensemble.Quantity
	Variant  Variant
}

func (m Model) String() string { return fmt.Sprintf("%s/%s", m.Quantity, m.Variant) }

// Uniform reports whether the model samples a uniform final range, in which
// case the actual ensemble range is worth reporting next to the percentiles.
func (m Model) Uniform() bool {
	switch m.Quantity {
	case ensemble.GreenDyn, ensemble.LandWater:
		return true
	case ensemble.AntDyn:
		return m.Variant == VariantAR5
	}
	return false
}

// Config selects variants and calibration for one scenario.
type Config struct {
	Scenario string
	Glacier  Variant
	AntDyn   Variant
	// LevermannFit names the fit used when AntDyn is levermann; see ResolveLevermann.
	LevermannFit string
	// ExtendedHorizon allows axes past CalibrationYear.
	ExtendedHorizon bool
	Params          Parameters
	Workers         int
}

// Validate checks cfg against the year axis it will be evaluated on.
func (c Config) Validate(axis ensemble.YearAxis) error {
	if _, ok := glacierTables[c.Glacier]; !ok {
		return projerr.Configuration("unknown glacier calibration %q", c.Glacier).ForParam("glacier")
	}
	switch c.AntDyn {
	case VariantAR5:
	case VariantLevermann:
		if _, ok := levermannFits[c.LevermannFit]; !ok {
			return projerr.Configuration("no Levermann fit %q", c.LevermannFit).
				ForQuantity(string(ensemble.AntDyn)).ForParam("levermann")
		}
	default:
		return projerr.Configuration("unknown Antarctic dynamics scheme %q", c.AntDyn).ForParam("antdyn")
	}
	if axis.Last() > CalibrationYear && !c.ExtendedHorizon {
		return projerr.Configuration("year axis ends in %d, after %d, and the extended horizon is not enabled",
			axis.Last(), CalibrationYear).ForParam("extended_horizon")
	}
	if axis.Last() > CalibrationYear && axis.First() >= CalibrationYear {
		return projerr.Configuration("extending past %d needs the axis to cover %d and %d",
			CalibrationYear, CalibrationYear-1, CalibrationYear).ForParam("extended_horizon")
	}
	if CalibrationYear-axis.StartYear() < landWaterFinal {
		return projerr.Configuration("year axis starts in %d, too late to calibrate against %d",
			axis.First(), CalibrationYear).ForParam("start_year")
	}
	return c.Params.Validate()
}

// Plan returns the models of a run in evaluation order.
func Plan(c Config) []Model {
	return []Model{
		{Quantity: ensemble.Temperature, Variant: VariantIdentity},
		{Quantity: ensemble.Expansion, Variant: VariantIdentity},
		{Quantity: ensemble.Glacier, Variant: c.Glacier},
		{Quantity: ensemble.GreenSMB, Variant: VariantAR5},
		{Quantity: ensemble.AntSMB, Variant: VariantAR5},
		{Quantity: ensemble.GreenDyn, Variant: VariantAR5},
		{Quantity: ensemble.AntDyn, Variant: c.AntDyn},
		{Quantity: ensemble.LandWater, Variant: VariantAR5},
	}
}

// Inputs are what every model is evaluated against.
type Inputs struct {
	Drivers *ensemble.Drivers
	Sampler *ensemble.Sampler
	Config  Config
}

// Evaluate produces the ensemble for one model.
func Evaluate(ctx context.Context, m Model, in Inputs) (*ensemble.Ensemble, error) {
	if in.Drivers == nil || in.Sampler == nil {
		return nil, projerr.Configuration("model %s evaluated without drivers or sampler", m)
	}
	var (
		out *ensemble.Ensemble
		err error
	)
	switch {
	case m.Variant == VariantIdentity && m.Quantity == ensemble.Temperature:
		return in.Drivers.Temperature, nil
	case m.Variant == VariantIdentity && m.Quantity == ensemble.Expansion:
		return in.Drivers.Expansion, nil
	case m.Quantity == ensemble.Glacier:
		out, err = glacier(ctx, m.Variant, in)
	case m.Quantity == ensemble.GreenSMB && m.Variant == VariantAR5:
		out, err = greenSMB(ctx, in)
	case m.Quantity == ensemble.AntSMB && m.Variant == VariantAR5:
		out, err = antSMB(ctx, in)
	case m.Quantity == ensemble.GreenDyn && m.Variant == VariantAR5:
		out, err = greenDyn(ctx, in)
	case m.Quantity == ensemble.AntDyn && m.Variant == VariantAR5:
		out, err = antDynAR5(ctx, in)
	case m.Quantity == ensemble.AntDyn && m.Variant == VariantLevermann:
		out, err = antDynLevermann(ctx, in)
	case m.Quantity == ensemble.LandWater && m.Variant == VariantAR5:
		out, err = landWater(ctx, in)
	default:
		return nil, projerr.Configuration("no formula for %s", m).ForQuantity(string(m.Quantity))
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", m, err)
	}
	return out, nil
}

// antFraction is the member's share of the Antarctic interaction, shared by
// antsmb and antdyn.
func antFraction(s *ensemble.Sampler, m int) float64 {
	return ensemble.OpenUnit(s.Rand(m, ensemble.StreamAntFraction))
}
