package result

import (
	"testing"

	"gmslr/internal/ensemble"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(q ensemble.Quantity, uniform bool, years []int) Series {
	s := NewSeries(q, years, uniform)
	for i := range years {
		f := float64(i)
		s.Median[i], s.Low[i], s.High[i] = 1+f, f, 2+f
		s.Mean[i], s.Min[i], s.Max[i] = 1.1+f, f-1, 3+f
	}
	return s
}

func TestSeriesLikelyFollowsUniformity(t *testing.T) {
	years := []int{2099, 2100}
	p := series(ensemble.Glacier, false, years)
	u := series(ensemble.GreenDyn, true, years)

	assert.Equal(t, Entry{Median: 2, Low: 1, High: 3}, p.Final())
	assert.Equal(t, Entry{Median: 2.1, Low: 0, High: 4}, u.Final())

	e, ok := u.At(2099)
	require.True(t, ok)
	assert.Equal(t, Entry{Median: 1, Low: 0, High: 2}, e, "At reports percentiles")
	_, ok = u.At(2101)
	assert.False(t, ok)
	_, ok = Series{}.At(2000)
	assert.False(t, ok)
}

func TestNewSeriesUnits(t *testing.T) {
	assert.Equal(t, "K", NewSeries(ensemble.Temperature, []int{2007}, false).Unit)
	assert.Equal(t, "m", NewSeries(ensemble.GMSLR, []int{2007}, false).Unit)
}

func TestTable(t *testing.T) {
	years := []int{2099, 2100}
	tbl, err := NewTable(Meta{Scenario: "rcp45", Seed: 3, Members: 8}, []Series{
		series(ensemble.Temperature, false, years),
		series(ensemble.GMSLR, false, years),
	})
	require.NoError(t, err)

	assert.Equal(t, []ensemble.Quantity{ensemble.Temperature, ensemble.GMSLR}, tbl.Quantities())
	assert.Equal(t, years, tbl.Years())

	e, ok := tbl.Final(ensemble.GMSLR)
	require.True(t, ok)
	assert.Equal(t, 2.0, e.Median)
	_, ok = tbl.Final(ensemble.AntDyn)
	assert.False(t, ok)

	q := tbl.Quantities()
	q[0] = ensemble.AntDyn
	assert.Equal(t, ensemble.Temperature, tbl.Quantities()[0], "order is copied out")
}

func TestNewTableRejectsInconsistentSeries(t *testing.T) {
	_, err := NewTable(Meta{}, []Series{
		series(ensemble.Glacier, false, []int{2007}),
		series(ensemble.Glacier, false, []int{2007}),
	})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewTable(Meta{}, []Series{
		series(ensemble.Glacier, false, []int{2007}),
		series(ensemble.AntDyn, false, []int{2008}),
	})
	assert.ErrorContains(t, err, "different year axis")
}
