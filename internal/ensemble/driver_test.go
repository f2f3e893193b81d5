package ensemble

import (
	"context"
	"errors"
	"math"
	"testing"

	"gmslr/internal/projerr"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

func testAxis(t *testing.T, first, last int) YearAxis {
	t.Helper()
	axis, err := NewYearAxis(first, last)
	require.NoError(t, err)
	return axis
}

func momentPair(axis YearAxis) (DriverInput, DriverInput) {
	n := axis.Len()
	tm, ts := make([]float64, n), make([]float64, n)
	xm, xs := make([]float64, n), make([]float64, n)
	for i := range n {
		tm[i] = 0.8 + 0.03*float64(i)
		ts[i] = 0.1 + 0.005*float64(i)
		xm[i] = 0.01 + 0.002*float64(i)
		xs[i] = 0.002 + 0.0001*float64(i)
	}
	return MomentInput(DriverTAS, axis.Years(), tm, ts), MomentInput(DriverZOSTOGA, axis.Years(), xm, xs)
}

func ensemblePair(axis YearAxis) (DriverInput, DriverInput) {
	sources := []string{"ACCESS1-0", "CanESM2", "MIROC5"}
	n := axis.Len()
	tv := make([][]float64, len(sources))
	xv := make([][]float64, len(sources))
	for s := range sources {
		tv[s] = make([]float64, n)
		xv[s] = make([]float64, n)
		for i := range n {
			tv[s][i] = float64(s+1) + 0.01*float64(i)
			xv[s][i] = float64(s+1) * 100
		}
	}
	return EnsembleInput(DriverTAS, axis.Years(), sources, tv), EnsembleInput(DriverZOSTOGA, axis.Years(), sources, xv)
}

func testBuilder(axis YearAxis, members, workers int) *Builder {
	return &Builder{Axis: axis, Members: members, Sampler: NewSampler(42), SDScale: 1, Workers: workers}
}

// =============================================================================
// MOMENT FORM
// =============================================================================

func TestBuildMomentFormSharesDrawAcrossYearsAndDrivers(t *testing.T) {
	axis := testAxis(t, 2007, 2020)
	tas, zos := momentPair(axis)

	d, err := testBuilder(axis, 200, 3).Build(context.Background(), tas, zos)
	require.NoError(t, err)
	assert.Equal(t, FormMoment, d.Form)

	for m := 0; m < d.Temperature.Members(); m++ {
		z := (d.Temperature.At(m, 0) - tas.Mean[0]) / tas.SD[0]
		for i := 0; i < axis.Len(); i++ {
			zt := (d.Temperature.At(m, i) - tas.Mean[i]) / tas.SD[i]
			zx := (d.Expansion.At(m, i) - zos.Mean[i]) / zos.SD[i]
			assert.InDelta(t, z, zt, 1e-9, "member %d year %d temperature", m, i)
			assert.InDelta(t, z, zx, 1e-9, "member %d year %d expansion", m, i)
		}
	}
}

func TestBuildMomentFormIntegral(t *testing.T) {
	axis := testAxis(t, 2007, 2012)
	tas, zos := momentPair(axis)

	d, err := testBuilder(axis, 10, 1).Build(context.Background(), tas, zos)
	require.NoError(t, err)

	assert.NotEqual(t, Temperature, d.TemperatureIntegral.Quantity)
	assert.NotContains(t, ReportOrder, d.TemperatureIntegral.Quantity)
	assert.Equal(t, "K yr", d.TemperatureIntegral.Quantity.Unit())

	var acc float64
	for i := 0; i < axis.Len(); i++ {
		acc += tas.Mean[i]
		assert.InDelta(t, acc, d.CentralIntegral[i], 1e-12)
	}
	for m := 0; m < 10; m++ {
		var sum float64
		for i := 0; i < axis.Len(); i++ {
			sum += d.Temperature.At(m, i)
			assert.InDelta(t, sum, d.TemperatureIntegral.At(m, i), 1e-12)
		}
	}
}

func TestBuildZeroScaleCollapsesOnMean(t *testing.T) {
	axis := testAxis(t, 2007, 2010)
	tas, zos := momentPair(axis)
	b := testBuilder(axis, 5, 1)
	b.SDScale = 0

	d, err := b.Build(context.Background(), tas, zos)
	require.NoError(t, err)
	for m := 0; m < 5; m++ {
		assert.Equal(t, tas.Mean, d.Temperature.Row(m))
	}
}

// =============================================================================
// ENSEMBLE FORM
// =============================================================================

func TestBuildEnsembleFormPairsSources(t *testing.T) {
	axis := testAxis(t, 2007, 2030)
	tas, zos := ensemblePair(axis)

	d, err := testBuilder(axis, 300, 4).Build(context.Background(), tas, zos)
	require.NoError(t, err)
	assert.Equal(t, tas.Sources, d.Sources)

	seen := map[int]int{}
	for m := 0; m < 300; m++ {
		src := int(d.Temperature.At(m, 0)) - 1
		require.GreaterOrEqual(t, src, 0)
		require.Less(t, src, 3)
		seen[src]++
		if diff := cmp.Diff(tas.Values[src], d.Temperature.Row(m)); diff != "" {
			t.Fatalf("member %d temperature not a whole source trajectory (-want +got):\n%s", m, diff)
		}
		if diff := cmp.Diff(zos.Values[src], d.Expansion.Row(m)); diff != "" {
			t.Fatalf("member %d expansion not paired with temperature source (-want +got):\n%s", m, diff)
		}
	}
	assert.Len(t, seen, 3, "every source should be resampled at least once")
}

func TestBuildEnsembleFormCentralIntegralIsSourceMean(t *testing.T) {
	axis := testAxis(t, 2007, 2009)
	tas, zos := ensemblePair(axis)

	d, err := testBuilder(axis, 4, 1).Build(context.Background(), tas, zos)
	require.NoError(t, err)
	// Source means are 2 + 0.01 i.
	want := []float64{2, 4.01, 6.03}
	for i, w := range want {
		assert.InDelta(t, w, d.CentralIntegral[i], 1e-12)
	}
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestBuildIsIndependentOfWorkerCount(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	tas, zos := momentPair(axis)

	one, err := testBuilder(axis, 997, 1).Build(context.Background(), tas, zos)
	require.NoError(t, err)
	many, err := testBuilder(axis, 997, 8).Build(context.Background(), tas, zos)
	require.NoError(t, err)

	assert.Equal(t, one.Temperature.Values(), many.Temperature.Values())
	assert.Equal(t, one.Expansion.Values(), many.Expansion.Values())
}

func TestBuildSeedChangesSamples(t *testing.T) {
	axis := testAxis(t, 2007, 2010)
	tas, zos := momentPair(axis)

	a, err := testBuilder(axis, 50, 2).Build(context.Background(), tas, zos)
	require.NoError(t, err)
	b := testBuilder(axis, 50, 2)
	b.Sampler = NewSampler(43)
	c, err := b.Build(context.Background(), tas, zos)
	require.NoError(t, err)

	assert.NotEqual(t, a.Temperature.Values(), c.Temperature.Values())
}

// =============================================================================
// ERRORS
// =============================================================================

func TestBuildErrors(t *testing.T) {
	axis := testAxis(t, 2007, 2010)
	mt, mx := momentPair(axis)
	et, ex := ensemblePair(axis)

	negative := mt
	negative.SD = append([]float64(nil), mt.SD...)
	negative.SD[2] = -0.1

	shifted := mx
	shifted.Years = []int{2008, 2009, 2010, 2011}

	missing := mt
	missing.Mean = append([]float64(nil), mt.Mean...)
	missing.Mean[1] = math.NaN()

	fewer := ex
	fewer.Sources = ex.Sources[:2]
	fewer.Values = ex.Values[:2]

	renamed := ex
	renamed.Sources = []string{"ACCESS1-0", "CanESM2", "NorESM1-M"}

	both := mt
	both.Sources = []string{"x"}

	tests := []struct {
		name     string
		tas, zos DriverInput
		kind     projerr.Kind
		year     int
	}{
		{"mixed forms", mt, ex, projerr.KindConfiguration, 0},
		{"both forms", both, mx, projerr.KindConfiguration, 0},
		{"negative sd", negative, mx, projerr.KindDomain, 2009},
		{"year axis mismatch", mt, shifted, projerr.KindDomain, 2008},
		{"missing data", missing, mx, projerr.KindDomain, 2008},
		{"member count mismatch", et, fewer, projerr.KindDomain, 0},
		{"source names disagree", et, renamed, projerr.KindDomain, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testBuilder(axis, 8, 1).Build(context.Background(), tt.tas, tt.zos)
			require.Error(t, err)
			assert.Equal(t, tt.kind, projerr.KindOf(err), err.Error())
			var pe *projerr.Error
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.year, pe.Year)
		})
	}
}

func TestBuildRejectsBadBuilder(t *testing.T) {
	axis := testAxis(t, 2007, 2010)
	tas, zos := momentPair(axis)

	b := testBuilder(axis, 0, 1)
	_, err := b.Build(context.Background(), tas, zos)
	assert.ErrorIs(t, err, projerr.ErrConfiguration)

	b = testBuilder(axis, 4, 1)
	b.SDScale = -1
	_, err = b.Build(context.Background(), tas, zos)
	assert.ErrorIs(t, err, projerr.ErrDomain)
}
