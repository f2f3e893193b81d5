// Package result holds the per-quantity summary statistics of a run.
package result

import (
	"fmt"
	"slices"

	"gmslr/internal/ensemble"
)

// Entry is one year's summary of a quantity.
type Entry struct {
	Median float64 `json:"median"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// Series is a quantity's summary on every year of the axis. Median, Low and
// High are the 50th, 5th and 95th percentiles; Mean, Min and Max describe the
// actual range of the ensemble.
type Series struct {
	Quantity ensemble.Quantity
	Unit     string
	// Uniform quantities are reported by their actual range.
	Uniform bool
	Years   []int

	Median []float64
	Low    []float64
	High   []float64

	Mean []float64
	Min  []float64
	Max  []float64
}

// NewSeries allocates an empty series for n years.
func NewSeries(q ensemble.Quantity, years []int, uniform bool) Series {
	n := len(years)
	return Series{
		Quantity: q,
		Unit:     q.Unit(),
		Uniform:  uniform,
		Years:    slices.Clone(years),
		Median:   make([]float64, n),
		Low:      make([]float64, n),
		High:     make([]float64, n),
		Mean:     make([]float64, n),
		Min:      make([]float64, n),
		Max:      make([]float64, n),
	}
}

// Len returns the number of years.
func (s Series) Len() int { return len(s.Years) }

// Percentiles returns the 50/5/95 percentiles at index i.
func (s Series) Percentiles(i int) Entry {
	return Entry{Median: s.Median[i], Low: s.Low[i], High: s.High[i]}
}

// Likely returns the reported central value and range at index i: the
// percentiles, or for uniform quantities the mean and actual range.
func (s Series) Likely(i int) Entry {
	if s.Uniform {
		return Entry{Median: s.Mean[i], Low: s.Min[i], High: s.Max[i]}
	}
	return s.Percentiles(i)
}

// At returns the percentiles for year.
func (s Series) At(year int) (Entry, bool) {
	if len(s.Years) == 0 {
		return Entry{}, false
	}
	i := year - s.Years[0]
	if i < 0 || i >= len(s.Years) {
		return Entry{}, false
	}
	return s.Percentiles(i), true
}

// Final returns the reported summary of the last year.
func (s Series) Final() Entry { return s.Likely(s.Len() - 1) }

// Meta describes the run a table came from.
type Meta struct {
	Scenario     string `json:"scenario"`
	Seed         int64  `json:"seed"`
	Members      int    `json:"members"`
	Glacier      string `json:"glacier"`
	AntDyn       string `json:"antdyn"`
	LevermannFit string `json:"levermann_fit,omitempty"`
	Form         string `json:"form"`
}

// Table maps quantities to their series. It is read-only once built.
type Table struct {
	Meta   Meta
	order  []ensemble.Quantity
	series map[ensemble.Quantity]Series
}

// NewTable builds a table from series with one entry per quantity, all on
// the same years.
func NewTable(meta Meta, series []Series) (*Table, error) {
	t := &Table{Meta: meta, series: make(map[ensemble.Quantity]Series, len(series))}
	for _, s := range series {
		if _, dup := t.series[s.Quantity]; dup {
			return nil, fmt.Errorf("duplicate series for %s", s.Quantity)
		}
		if len(t.order) > 0 && !slices.Equal(t.series[t.order[0]].Years, s.Years) {
			return nil, fmt.Errorf("series %s is on a different year axis", s.Quantity)
		}
		t.series[s.Quantity] = s
		t.order = append(t.order, s.Quantity)
	}
	return t, nil
}

// Quantities lists the quantities in insertion order.
func (t *Table) Quantities() []ensemble.Quantity { return slices.Clone(t.order) }

// Get returns the series for q.
func (t *Table) Get(q ensemble.Quantity) (Series, bool) {
	s, ok := t.series[q]
	return s, ok
}

// Final returns the reported summary of q in the last year.
func (t *Table) Final(q ensemble.Quantity) (Entry, bool) {
	s, ok := t.series[q]
	if !ok || s.Len() == 0 {
		return Entry{}, false
	}
	return s.Final(), true
}

// Years returns the year axis of the table.
func (t *Table) Years() []int {
	if len(t.order) == 0 {
		return nil
	}
	return slices.Clone(t.series[t.order[0]].Years)
}
