package contrib

import (
	"context"
	"math"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

// glacierLoss is one method's glacier loss in m for a temperature integral in K yr.
func glacierLoss(m GlacierMethod, integral float64) float64 {
	return 1e-3 * m.Factor * math.Pow(math.Max(integral, 0), m.Exponent)
}

// glacier evaluates the glacier contribution. Members are assigned to
// methods in rotation so each method gets an equal share; a single normal
// draw per member scales the method's error, which is proportional to the
// method's loss under the central temperature integral.
func glacier(ctx context.Context, v Variant, in Inputs) (*ensemble.Ensemble, error) {
	methods := in.Config.Params.GlacierMethods
	if len(methods) == 0 {
		var ok bool
		if methods, ok = GlacierTable(v); !ok {
			return nil, projerr.Configuration("unknown glacier calibration %q", v).ForParam("glacier")
		}
	}
	d := in.Drivers
	axis, members := d.Temperature.Axis, d.Temperature.Members()
	if members%len(methods) != 0 {
		return nil, projerr.Configuration("ensemble size %d is not a multiple of the %d glacier methods",
			members, len(methods)).ForQuantity(string(ensemble.Glacier)).ForParam("members")
	}

	// Central loss per method, scaled by its error coefficient.
	central := make([][]float64, len(methods))
	for k, gm := range methods {
		central[k] = make([]float64, axis.Len())
		for i, it := range d.CentralIntegral {
			central[k][i] = glacierLoss(gm, it) * gm.CV
		}
	}

	offset := glacierRefRate * float64(axis.StartYear()-glacierRefYear) * 1e-3
	volume := in.Config.Params.GlacierVolume

	out := ensemble.New(ensemble.Glacier, axis, members)
	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		k := m % len(methods)
		gm := methods[k]
		r := in.Sampler.Rand(m, ensemble.StreamGlacier).NormFloat64()
		zit := d.TemperatureIntegral.Row(m)
		for i := range row {
			v := glacierLoss(gm, zit[i]) + central[k][i]*r + offset
			row[i] = math.Min(v, volume)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
