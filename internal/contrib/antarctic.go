package contrib

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

func antSMB(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	d := in.Drivers
	out := ensemble.New(ensemble.AntSMB, d.Temperature.Axis, d.Temperature.Members())
	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		r := in.Sampler.Rand(m, ensemble.StreamAntSMB)
		pcoKg := distuv.Normal{Mu: pcoK[0], Sigma: pcoK[1], Src: r}.Rand() *
			distuv.Normal{Mu: koKg[0], Sigma: koKg[1], Src: r}.Rand()
		// m/yr SLE per K of global warming
		moaoKg := -pcoKg * 1e-2 * antMeanSMB * MSLEoGt
		factor := moaoKg * (1 - antFraction(in.Sampler, m)*antSMax)

		zit := d.TemperatureIntegral.Row(m)
		for i := range row {
			row[i] = factor * zit[i]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Antarctic SMB+dyn rate during 2005-2010 is 0.41 ± 0.24 mm/yr (table 4.6);
// the likely range at 2100 is [-20, 185] mm for all scenarios.
var (
	antDynProjection = timeProjection{rateMean: 0.41, ratePM: 0.20, nfinal: 1}
	antDynRange      = [2]float64{-0.020, 0.185}
)

func antDynAR5(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	d := in.Drivers
	out := ensemble.New(ensemble.AntDyn, d.Temperature.Axis, d.Temperature.Members())
	lo, hi := antDynProjection.envelope(out.Axis, antDynRange)
	end, extend := extensionIndex(out.Axis, in.Config.ExtendedHorizon)

	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		within(row, lo, hi, antFraction(in.Sampler, m), dAnt)
		if extend {
			extendLinearly(row, end)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// levermannFits are the log-quadratic fits of the Levermann et al. (2014)
// Antarctic dynamics distributions: final = exp(c2 a² + c1 a + c0) where a is
// the standard normal quantile.
var levermannFits = map[string][3]float64{
	"rcp26": {-2.881, 0.923, 0.000},
	"rcp45": {-2.676, 0.850, 0.000},
	"rcp60": {-2.660, 0.870, 0.000},
	"rcp85": {-2.399, 0.860, 0.000},
}

// LevermannWildcard maps every scenario without its own entry.
const LevermannWildcard = "*"

// LevermannFits lists the scenarios that have a fit.
func LevermannFits() []string {
	names := make([]string, 0, len(levermannFits))
	for k := range levermannFits {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ResolveLevermann picks the fit for scenario: an explicit mapping entry,
// else the wildcard entry, else the scenario's own name.
func ResolveLevermann(scenario string, mapping map[string]string) (string, error) {
	fit, ok := mapping[scenario]
	if !ok {
		fit, ok = mapping[LevermannWildcard]
	}
	if !ok {
		fit = scenario
	}
	if _, known := levermannFits[fit]; !known {
		return "", projerr.Configuration("scenario %s has no Levermann fit (tried %q, available %v)",
			scenario, fit, LevermannFits()).ForQuantity(string(ensemble.AntDyn)).ForParam("levermann")
	}
	return fit, nil
}

// normQuantile is the inverse of the standard normal CDF.
func normQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// levermannFinal is the 2100 contribution in m at fraction f of the distribution.
func levermannFinal(c [3]float64, f float64) float64 {
	a := normQuantile(1 - f)
	return math.Exp(c[2]*a*a + c[1]*a + c[0])
}

func antDynLevermann(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	c, ok := levermannFits[in.Config.LevermannFit]
	if !ok {
		return nil, projerr.Configuration("no Levermann fit %q", in.Config.LevermannFit).
			ForQuantity(string(ensemble.AntDyn)).ForParam("levermann")
	}
	d := in.Drivers
	out := ensemble.New(ensemble.AntDyn, d.Temperature.Axis, d.Temperature.Members())
	cal := newCalibration(out.Axis, antDynProjection.nfinal)
	end, extend := extensionIndex(out.Axis, in.Config.ExtendedHorizon)

	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		f := antFraction(in.Sampler, m)
		q := antDynProjection.member(cal, levermannFinal(c, f), f)
		for i := range row {
			row[i] = q.at(float64(i+1)) + dAnt
		}
		if extend {
			extendLinearly(row, end)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
