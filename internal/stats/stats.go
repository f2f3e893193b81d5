// Package stats reduces ensembles to per-year summary statistics.
//
// Percentiles interpolate linearly between order statistics at position
// p(n-1), the numpy default, so that AR5 values are reproduced.
package stats

import (
	"context"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
	"gmslr/internal/result"
)

// Reported percentiles.
const (
	PMedian = 50
	PLow    = 5
	PHigh   = 95
)

// Percentile returns the p-th percentile (0..100) of sorted values.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n == 1:
		return sorted[0]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Reduce summarises e year by year. Years are reduced concurrently, each
// from its own copy of the member column, so the result does not depend on
// scheduling.
func Reduce(ctx context.Context, e *ensemble.Ensemble, uniform bool, workers int) (result.Series, error) {
	s := result.NewSeries(e.Quantity, e.Axis.Years(), uniform)
	if e.Members() == 0 {
		return result.Series{}, projerr.Domain("empty ensemble").ForQuantity(string(e.Quantity))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ensemble.Workers(workers))
	for i := 0; i < e.Years(); i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col := e.Column(i, nil)
			var total float64
			for _, v := range col {
				total += v
			}
			slices.Sort(col)
			if !finite(col[0]) || !finite(col[len(col)-1]) {
				return projerr.Domain("ensemble holds non-finite values").
					ForQuantity(string(e.Quantity)).AtYear(e.Axis.Year(i))
			}
			s.Median[i] = Percentile(col, PMedian)
			s.Low[i] = Percentile(col, PLow)
			s.High[i] = Percentile(col, PHigh)
			s.Mean[i] = total / float64(len(col))
			s.Min[i] = col[0]
			s.Max[i] = col[len(col)-1]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.Series{}, err
	}
	return s, nil
}

// ReduceAll reduces each ensemble in order. uniform reports which quantities
// are summarised by their actual range.
func ReduceAll(ctx context.Context, es []*ensemble.Ensemble, uniform func(ensemble.Quantity) bool, workers int) ([]result.Series, error) {
	out := make([]result.Series, 0, len(es))
	for _, e := range es {
		s, err := Reduce(ctx, e, uniform(e.Quantity), workers)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
