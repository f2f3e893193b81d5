// Package aggregate forms the composite quantities from the contribution
// ensembles.
package aggregate

import (
	"context"

	"gmslr/internal/ensemble"
	"gmslr/internal/projerr"
)

// Composite is a quantity defined as the sum of others, added in Terms order.
type Composite struct {
	Quantity ensemble.Quantity
	Terms    []ensemble.Quantity
}

// Composites are built in this order. GMSLR sums only base contributions so
// the diagnostic composites are never counted twice.
var Composites = []Composite{
	{Quantity: ensemble.GMSLR, Terms: []ensemble.Quantity{
		ensemble.Expansion, ensemble.Glacier, ensemble.GreenSMB, ensemble.GreenDyn,
		ensemble.AntSMB, ensemble.AntDyn, ensemble.LandWater,
	}},
	{Quantity: ensemble.GreenNet, Terms: []ensemble.Quantity{ensemble.GreenSMB, ensemble.GreenDyn}},
	{Quantity: ensemble.AntNet, Terms: []ensemble.Quantity{ensemble.AntSMB, ensemble.AntDyn}},
	{Quantity: ensemble.SheetDyn, Terms: []ensemble.Quantity{ensemble.GreenDyn, ensemble.AntDyn}},
}

// Build returns a new map holding every contribution plus the composites.
// The input ensembles are only read.
func Build(ctx context.Context, contributions map[ensemble.Quantity]*ensemble.Ensemble, workers int) (map[ensemble.Quantity]*ensemble.Ensemble, error) {
	out := make(map[ensemble.Quantity]*ensemble.Ensemble, len(contributions)+len(Composites))
	for q, e := range contributions {
		out[q] = e
	}
	for _, c := range Composites {
		e, err := sum(ctx, c, contributions, workers)
		if err != nil {
			return nil, err
		}
		out[c.Quantity] = e
	}
	return out, nil
}

func sum(ctx context.Context, c Composite, in map[ensemble.Quantity]*ensemble.Ensemble, workers int) (*ensemble.Ensemble, error) {
	terms := make([]*ensemble.Ensemble, len(c.Terms))
	for k, q := range c.Terms {
		e, ok := in[q]
		if !ok || e == nil {
			return nil, projerr.Configuration("%s needs contribution %s, which was not produced", c.Quantity, q).
				ForQuantity(string(q))
		}
		if k > 0 && !terms[0].SameShape(e) {
			return nil, projerr.Configuration("%s: %s is %d×%d but %s is %d×%d", c.Quantity,
				q, e.Members(), e.Years(), c.Terms[0], terms[0].Members(), terms[0].Years()).
				ForQuantity(string(q))
		}
		terms[k] = e
	}

	out := ensemble.New(c.Quantity, terms[0].Axis, terms[0].Members())
	err := ensemble.FillRows(ctx, out, workers, func(m int, row []float64) error {
		copy(row, terms[0].Row(m))
		for _, e := range terms[1:] {
			for i, v := range e.Row(m) {
				row[i] += v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
