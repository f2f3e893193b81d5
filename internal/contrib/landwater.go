package contrib

import (
	"context"

	"gmslr/internal/ensemble"
)

// The land water final amount is the mean for 2081-2100.
const landWaterFinal = 2100 - 2081 + 1

// Start rate is the 1993-2010 budget value, 0.38 mm/yr with upper bound 0.49.
var (
	landWaterProjection = timeProjection{rateMean: 0.38, ratePM: 0.49 - 0.38, nfinal: landWaterFinal}
	landWaterRange      = [2]float64{-0.01, 0.09}
)

func landWater(ctx context.Context, in Inputs) (*ensemble.Ensemble, error) {
	d := in.Drivers
	out := ensemble.New(ensemble.LandWater, d.Temperature.Axis, d.Temperature.Members())
	lo, hi := landWaterProjection.envelope(out.Axis, landWaterRange)
	sd := in.Config.Params.LandWaterNoiseSD * mmToM

	err := ensemble.FillRows(ctx, out, in.Config.Workers, func(m int, row []float64) error {
		f := ensemble.OpenUnit(in.Sampler.Rand(m, ensemble.StreamLandWater))
		within(row, lo, hi, f, 0)
		if sd > 0 {
			r := in.Sampler.Rand(m, ensemble.StreamLandWaterNoise)
			var walk float64
			for i := range row {
				walk += r.NormFloat64() * sd
				row[i] += walk
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
