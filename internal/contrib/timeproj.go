package contrib

import "gmslr/internal/ensemble"

// quadratic is S(t) = a t² + b t with t in years since the start of integration.
type quadratic struct{ a, b float64 }

func (q quadratic) at(t float64) float64 { return q.a*t*t + q.b*t }

// calibration describes where the final amount of a time projection applies:
// the time-mean of nfinal years ending at CalibrationYear.
type calibration struct {
	meanT, meanT2 float64
}

func newCalibration(axis ensemble.YearAxis, nfinal int) calibration {
	end := CalibrationYear - axis.StartYear()
	var c calibration
	for k := 0; k < nfinal; k++ {
		t := float64(end - nfinal + 1 + k)
		c.meanT += t
		c.meanT2 += t * t
	}
	c.meanT /= float64(nfinal)
	c.meanT2 /= float64(nfinal)
	return c
}

// fit returns the quadratic with start rate b whose time-mean over the
// calibration period equals final.
func (c calibration) fit(final, rate float64) quadratic {
	return quadratic{a: (final - rate*c.meanT) / c.meanT2, b: rate}
}

// timeProjection is a quantity growing quadratically from a start rate
// (mean ± pm, mm/yr) to a final amount in m.
type timeProjection struct {
	rateMean, ratePM float64
	nfinal           int
}

func (p timeProjection) rates() (lo, hi float64) {
	return (p.rateMean - p.ratePM) * mmToM, (p.rateMean + p.ratePM) * mmToM
}

// envelope returns the low and high trajectories for a final range, one
// value per axis year.
func (p timeProjection) envelope(axis ensemble.YearAxis, final [2]float64) (lo, hi []float64) {
	cal := newCalibration(axis, p.nfinal)
	r0, r1 := p.rates()
	q0, q1 := cal.fit(final[0], r0), cal.fit(final[1], r1)
	lo, hi = make([]float64, axis.Len()), make([]float64, axis.Len())
	for i := range lo {
		t := float64(i + 1)
		lo[i], hi[i] = q0.at(t), q1.at(t)
	}
	return lo, hi
}

// within writes the member's trajectory at fraction f of the envelope, offset by base.
func within(row, lo, hi []float64, f, base float64) {
	for i := range row {
		row[i] = (1-f)*lo[i] + f*hi[i] + base
	}
}

// member returns the quadratic for a single per-member final amount, with
// the start rate interpolated at the same fraction.
func (p timeProjection) member(cal calibration, final, f float64) quadratic {
	r0, r1 := p.rates()
	return cal.fit(final, (1-f)*r0+f*r1)
}
