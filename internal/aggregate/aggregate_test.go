package aggregate

import (
	"context"
	"testing"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = []ensemble.Quantity{
	ensemble.Temperature, ensemble.Expansion, ensemble.Glacier, ensemble.GreenSMB,
	ensemble.AntSMB, ensemble.GreenDyn, ensemble.AntDyn, ensemble.LandWater,
}

// contributions gives each base quantity a distinct scale so that any
// term counted twice or missed shows up in the sums.
func contributions(t *testing.T, members int) map[ensemble.Quantity]*ensemble.Ensemble {
	t.Helper()
	axis, err := ensemble.NewYearAxis(2007, 2030)
	require.NoError(t, err)
	out := map[ensemble.Quantity]*ensemble.Ensemble{}
	for k, q := range base {
		e := ensemble.New(q, axis, members)
		scale := float64(int(1) << k)
		for m := range members {
			row := e.Row(m)
			for i := range row {
				row[i] = scale * (1 + 0.001*float64(m) + 0.1*float64(i))
			}
		}
		out[q] = e
	}
	return out
}

func TestBuildComposites(t *testing.T) {
	in := contributions(t, 17)
	out, err := Build(context.Background(), in, 4)
	require.NoError(t, err)

	for _, q := range base {
		assert.Same(t, in[q], out[q], "contributions pass through")
	}

	at := func(q ensemble.Quantity, m, i int) float64 { return in[q].At(m, i) }
	for m := range 17 {
		for i := range 24 {
			assert.Equal(t, at(ensemble.GreenSMB, m, i)+at(ensemble.GreenDyn, m, i), out[ensemble.GreenNet].At(m, i))
			assert.Equal(t, at(ensemble.AntSMB, m, i)+at(ensemble.AntDyn, m, i), out[ensemble.AntNet].At(m, i))
			assert.Equal(t, at(ensemble.GreenDyn, m, i)+at(ensemble.AntDyn, m, i), out[ensemble.SheetDyn].At(m, i))

			gmslr := at(ensemble.Expansion, m, i) + at(ensemble.Glacier, m, i) + at(ensemble.GreenSMB, m, i) +
				at(ensemble.GreenDyn, m, i) + at(ensemble.AntSMB, m, i) + at(ensemble.AntDyn, m, i) +
				at(ensemble.LandWater, m, i)
			require.Equal(t, gmslr, out[ensemble.GMSLR].At(m, i), "member %d year %d", m, i)
		}
	}
}

func TestGMSLRExcludesTemperatureAndComposites(t *testing.T) {
	for _, c := range Composites {
		if c.Quantity != ensemble.GMSLR {
			continue
		}
		assert.NotContains(t, c.Terms, ensemble.Temperature)
		for _, other := range Composites {
			assert.NotContains(t, c.Terms, other.Quantity)
		}
		assert.Len(t, c.Terms, 7)
	}
}

func TestBuildDoesNotMutateInputs(t *testing.T) {
	in := contributions(t, 3)
	before := append([]float64(nil), in[ensemble.GreenSMB].Values()...)
	_, err := Build(context.Background(), in, 1)
	require.NoError(t, err)
	assert.Equal(t, before, in[ensemble.GreenSMB].Values())
}

func TestBuildMissingContribution(t *testing.T) {
	in := contributions(t, 3)
	delete(in, ensemble.LandWater)

	out, err := Build(context.Background(), in, 1)
	assert.Nil(t, out)
	var pe *projerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, projerr.KindConfiguration, pe.Kind)
	assert.Equal(t, "landwater", pe.Quantity)
}

func TestBuildRejectsMismatchedShapes(t *testing.T) {
	in := contributions(t, 3)
	in[ensemble.AntDyn] = ensemble.New(ensemble.AntDyn, in[ensemble.AntSMB].Axis, 4)
	_, err := Build(context.Background(), in, 1)
	assert.ErrorIs(t, err, projerr.ErrConfiguration)
}
