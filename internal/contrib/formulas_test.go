package contrib

import (
	"math"
	"testing"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TIME PROJECTION
// =============================================================================

func TestCalibrationHitsFinalAmount(t *testing.T) {
	axis := testAxis(t, 2007, 2100)

	q := newCalibration(axis, 1).fit(0.1, 0.4e-3)
	assert.InDelta(t, 0.1, q.at(94), 1e-12)
	assert.InDelta(t, 0.4e-3, q.at(1)-q.at(0), 1e-5, "initial rate")

	// A 20-year time-mean ending at 2100.
	cal := newCalibration(axis, 20)
	q = cal.fit(0.05, 0.2e-3)
	var mean float64
	for yr := 75; yr <= 94; yr++ {
		mean += q.at(float64(yr))
	}
	assert.InDelta(t, 0.05, mean/20, 1e-12)
}

func TestCalibrationIsAnchoredAtCalibrationYear(t *testing.T) {
	short := testAxis(t, 2007, 2050)
	lo, hi := antDynProjection.envelope(short, antDynRange)
	require.Len(t, lo, 44)

	full := testAxis(t, 2007, 2100)
	flo, fhi := antDynProjection.envelope(full, antDynRange)
	assert.Equal(t, flo[:44], lo)
	assert.Equal(t, fhi[:44], hi)
}

// =============================================================================
// AR5 REFERENCE VALUES AT 2100
// =============================================================================

// The scenario-independent terms are analytic at 2100, so their ranges can be
// checked against the assessed values directly.
func TestAR5RangesAt2100(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 2000, 1, 0.02)

	tests := []struct {
		name     string
		scenario string
		q        ensemble.Quantity
		lo, hi   float64
	}{
		{"greendyn rcp45", "rcp45", ensemble.GreenDyn, 0.014 + 0.5*dGreen, 0.063 + 0.5*dGreen},
		{"greendyn rcp85", "rcp85", ensemble.GreenDyn, 0.020 + 0.5*dGreen, 0.085 + 0.5*dGreen},
		{"antdyn", "rcp26", ensemble.AntDyn, -0.020 + dAnt, 0.185 + dAnt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Scenario = tt.scenario
			e := evaluate(t, tt.q, VariantAR5, testInputs(d, cfg))
			lo, hi := math.Inf(1), math.Inf(-1)
			for m := range e.Members() {
				v := last(e, m)
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			assert.GreaterOrEqual(t, lo, tt.lo-1e-12)
			assert.LessOrEqual(t, hi, tt.hi+1e-12)
			assert.InDelta(t, tt.lo, lo, 0.01)
			assert.InDelta(t, tt.hi, hi, 0.01)
		})
	}
}

func TestLandWaterFinalMeanWithinRange(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 500, 1, 0.02)
	e := evaluate(t, ensemble.LandWater, VariantAR5, testInputs(d, testConfig()))

	i0, _ := axis.Index(2081)
	for m := range e.Members() {
		var mean float64
		row := e.Row(m)
		for _, v := range row[i0:] {
			mean += v
		}
		mean /= landWaterFinal
		assert.GreaterOrEqual(t, mean, -0.01-1e-12)
		assert.LessOrEqual(t, mean, 0.09+1e-12)
	}
}

func TestLandWaterNoiseIsOptIn(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 20, 1, 0.02)

	quiet := evaluate(t, ensemble.LandWater, VariantAR5, testInputs(d, testConfig()))
	cfg := testConfig()
	cfg.Params.LandWaterNoiseSD = 0.5
	noisy := evaluate(t, ensemble.LandWater, VariantAR5, testInputs(d, cfg))
	assert.NotEqual(t, quiet.Values(), noisy.Values())
}

// =============================================================================
// GLACIER
// =============================================================================

func TestGlacierClampedAtVolume(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 40, 40, 0.5)
	e := evaluate(t, ensemble.Glacier, VariantAR5, testInputs(d, testConfig()))

	var clamped int
	for _, v := range e.Values() {
		require.LessOrEqual(t, v, DefaultGlacierVolume)
		if v == DefaultGlacierVolume {
			clamped++
		}
	}
	assert.Positive(t, clamped)
}

func TestGlacierStartOffset(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	// Zero-scale drivers give a zero integral, leaving only the offset.
	b := &ensemble.Builder{Axis: axis, Members: 8, Sampler: ensemble.NewSampler(1), Workers: 1}
	n := axis.Len()
	zero := make([]float64, n)
	d, err := b.Build(t.Context(),
		ensemble.MomentInput(ensemble.DriverTAS, axis.Years(), zero, zero),
		ensemble.MomentInput(ensemble.DriverZOSTOGA, axis.Years(), zero, zero))
	require.NoError(t, err)

	e := evaluate(t, ensemble.Glacier, VariantAR5, testInputs(d, testConfig()))
	assert.InDelta(t, 0.95e-3*10, e.At(3, 50), 1e-15)
}

func TestGlacierMethodsMustDivideMembers(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 30, 1, 0.01)

	cfg := testConfig()
	cfg.Glacier = VariantGlacierMIP2 // seven methods
	_, err := Evaluate(t.Context(), Model{Quantity: ensemble.Glacier, Variant: cfg.Glacier}, testInputs(d, cfg))
	assert.ErrorIs(t, err, projerr.ErrConfiguration)

	cfg.Glacier = VariantGlacierMIP // five methods
	_, err = Evaluate(t.Context(), Model{Quantity: ensemble.Glacier, Variant: cfg.Glacier}, testInputs(d, cfg))
	assert.NoError(t, err)
}

func TestGlacierMethodOverride(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 6, 1, 0.01)

	cfg := testConfig()
	cfg.Params.GlacierMethods = []GlacierMethod{
		{Name: "a", Factor: 1, Exponent: 1, CV: 0},
		{Name: "b", Factor: 2, Exponent: 1, CV: 0},
	}
	e := evaluate(t, ensemble.Glacier, VariantAR5, testInputs(d, cfg))
	offset := 0.95e-3 * 10
	for m := range 6 {
		f := float64(m%2 + 1)
		want := math.Min(1e-3*f*d.TemperatureIntegral.At(m, 20)+offset, DefaultGlacierVolume)
		assert.InDelta(t, want, e.At(m, 20), 1e-12, "member %d", m)
	}
}

// =============================================================================
// GREENLAND SMB
// =============================================================================

func TestGreenSMBIsCumulative(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 10, 1, 0.03)

	cfg := testConfig()
	cfg.Params.GreenSMBLogSD = 0
	cfg.Params.GreenFeedback = [2]float64{1, 1}
	e := evaluate(t, ensemble.GreenSMB, VariantAR5, testInputs(d, cfg))

	for m := range 10 {
		var acc float64
		for i := range axis.Len() {
			acc += fettweis(d.Temperature.At(m, i) + 0.146)
		}
		assert.InDelta(t, acc+0.5*dGreen, last(e, m), 1e-12)
	}
}

func TestGreenSMBFactorDraws(t *testing.T) {
	s := ensemble.NewSampler(7)
	p := DefaultParameters()

	p.GreenSMBLogSD = 0
	for m := range 200 {
		f := greenSMBFactor(s.Rand(m, ensemble.StreamGreenSMB), p)
		assert.GreaterOrEqual(t, f, 1.0)
		assert.LessOrEqual(t, f, 1.15)
	}

	p = DefaultParameters()
	var sum, sumsq float64
	const n = 4000
	for m := range n {
		l := math.Log(greenSMBFactor(s.Rand(m, ensemble.StreamGreenSMB), p))
		sum += l
		sumsq += l * l
	}
	mean := sum / n
	sd := math.Sqrt(sumsq/n - mean*mean)
	assert.InDelta(t, 0.4, sd, 0.03, "log sd dominated by the lognormal factor")
	assert.Equal(t, greenSMBFactor(s.Rand(3, ensemble.StreamGreenSMB), p),
		greenSMBFactor(s.Rand(3, ensemble.StreamGreenSMB), p))
}

// =============================================================================
// LEVERMANN
// =============================================================================

func TestResolveLevermann(t *testing.T) {
	tests := []struct {
		name     string
		scenario string
		mapping  map[string]string
		want     string
		wantErr  bool
	}{
		{"own name", "rcp85", nil, "rcp85", false},
		{"explicit mapping", "ssp245", map[string]string{"ssp245": "rcp45"}, "rcp45", false},
		{"wildcard", "ssp126", map[string]string{"*": "rcp26"}, "rcp26", false},
		{"explicit beats wildcard", "ssp585", map[string]string{"*": "rcp26", "ssp585": "rcp85"}, "rcp85", false},
		{"unmapped", "ssp245", nil, "", true},
		{"mapped to unknown", "rcp45", map[string]string{"rcp45": "ssp245"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLevermann(tt.scenario, tt.mapping)
			if tt.wantErr {
				assert.ErrorIs(t, err, projerr.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevermannFinal(t *testing.T) {
	c := levermannFits["rcp45"]
	assert.InDelta(t, math.Exp(c[0]), levermannFinal(c, 0.5), 1e-12)
	assert.Greater(t, levermannFinal(c, 0.05), levermannFinal(c, 0.95))
	assert.InDelta(t, 1.959964, normQuantile(0.975), 1e-6)
}

func TestAntDynLevermann(t *testing.T) {
	axis := testAxis(t, 2007, 2100)
	d := testDrivers(t, axis, 50, 1, 0.02)
	cfg := testConfig()
	cfg.AntDyn = VariantLevermann
	cfg.LevermannFit = "rcp85"
	in := testInputs(d, cfg)

	e := evaluate(t, ensemble.AntDyn, VariantLevermann, in)
	c := levermannFits["rcp85"]
	for m := range 50 {
		want := levermannFinal(c, antFraction(in.Sampler, m)) + dAnt
		assert.InDelta(t, want, last(e, m), 1e-12)
	}
}

// =============================================================================
// EXTENDED HORIZON
// =============================================================================

func TestExtendedHorizonContinuesFinalRate(t *testing.T) {
	axis := testAxis(t, 2007, 2200)
	d := testDrivers(t, axis, 12, 0.5, 0)
	cfg := testConfig()
	cfg.ExtendedHorizon = true
	require.NoError(t, cfg.Validate(axis))
	in := testInputs(d, cfg)
	end, _ := axis.Index(2100)

	for _, q := range []ensemble.Quantity{ensemble.GreenSMB, ensemble.GreenDyn, ensemble.AntDyn} {
		e := evaluate(t, q, VariantAR5, in)
		for m := range e.Members() {
			row := e.Row(m)
			rate := row[end] - row[end-1]
			for j := end + 1; j < len(row); j++ {
				require.InDelta(t, rate, row[j]-row[j-1], 1e-12, "%s member %d year %d", q, m, axis.Year(j))
			}
		}
	}

	// Glacier keeps its own formula and still grows with warming.
	g := evaluate(t, ensemble.Glacier, VariantAR5, in)
	assert.Greater(t, last(g, 0), g.At(0, end))
}

func TestExtensionLeavesCalibratedYearsAlone(t *testing.T) {
	short := testAxis(t, 2007, 2100)
	long := testAxis(t, 2007, 2150)
	cfg := testConfig()
	cfg.ExtendedHorizon = true

	a := evaluate(t, ensemble.GreenDyn, VariantAR5, testInputs(testDrivers(t, short, 4, 1, 0.01), cfg))
	b := evaluate(t, ensemble.GreenDyn, VariantAR5, testInputs(testDrivers(t, long, 4, 1, 0.01), cfg))
	for m := range 4 {
		assert.Equal(t, a.Row(m), b.Row(m)[:short.Len()])
	}
}
