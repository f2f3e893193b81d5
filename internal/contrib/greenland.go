package contrib

import (
	"context"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gmslr/internal/ensemble"
)

// fettweis is the Greenland SMB rate in m/yr SLE for a Greenland-reference
// temperature anomaly, from eq. 2 of Fettweis et al. (2013).
func fettweis(t float64) float64 {
	return (71.5*t + 20.4*t*t + 2.8*t*t*t) * MSLEoGt
}

// greenSMBFactor draws a member's Fettweis scale: a lognormal
// methodological factor times the elevation feedback.
func greenSMBFactor(r *rand.Rand, p Parameters) float64 {
	fn := distuv.LogNormal{Mu: 0, Sigma: p.GreenSMBLogSD, Src: r}.Rand()
	fe := distuv.Uniform{Min: p.GreenFeedback[0], Max: p.GreenFeedback[1], Src: r}.Rand()
	return fn * fe
}

func greenSMB(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	d := in.Drivers
	p := in.Config.Params
	out := ensemble.New(ensemble.GreenSMB, d.Temperature.Axis, d.Temperature.Members())
	base := (1 - fGreenDyn) * dGreen
	end, extend := extensionIndex(out.Axis, in.Config.ExtendedHorizon)

	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		factor := greenSMBFactor(in.Sampler.Rand(m, ensemble.StreamGreenSMB), p)

		t := d.Temperature.Row(m)
		var acc float64
		for i := range row {
			acc += factor * fettweis(t[i]-dtGreen)
			row[i] = acc + base
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

// Final ranges of Greenland rapid dynamics at 2100 in m, chapter 13.
var (
	greenDynHigh    = [2]float64{0.020, 0.085}
	greenDynDefault = [2]float64{0.014, 0.063}
)

// greenDynRange returns the final range for a scenario; only the highest
// forcing pathways get the larger range.
func greenDynRange(scenario string) [2]float64 {
	switch scenario {
	case "rcp85", "ssp585":
		return greenDynHigh
	}
	return greenDynDefault
}

// Greenland SMB+dyn rate during 2005-2010 is 0.63 ± 0.17 mm/yr (table 4.6);
// half of it is attributed to dynamics.
var greenDynProjection = timeProjection{
	rateMean: 0.63 * fGreenDyn,
	ratePM:   0.17 * fGreenDyn,
	nfinal:   1,
}

func greenDyn(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	d := in.Drivers
	out := ensemble.New(ensemble.GreenDyn, d.Temperature.Axis, d.Temperature.Members())
	lo, hi := greenDynProjection.envelope(out.Axis, greenDynRange(in.Config.Scenario))
	base := fGreenDyn * dGreen
	end, extend := extensionIndex(out.Axis, in.Config.ExtendedHorizon)

	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		f := ensemble.OpenUnit(in.Sampler.Rand(m, ensemble.StreamGreenDyn))
		within(row, lo, hi, f, base)
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
