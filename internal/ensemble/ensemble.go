// Package ensemble holds the member × year sample buffers, the seeded
// sampling context and the driver ensemble builder.
package ensemble

import (
	"github.com/ctessum/sparse"
)

// Ensemble is a flat member × year buffer for one quantity. Row m holds the
// trajectory of member m; rows are written by exactly one worker and are
// read-only once the producing component returns.
type Ensemble struct {
	Quantity Quantity
	Axis     YearAxis
	data     *sparse.DenseArray
}

// New allocates a zeroed ensemble of the given size.
func New(q Quantity, axis YearAxis, members int) *Ensemble {
	return &Ensemble{
		Quantity: q,
		Axis:     axis,
		data:     sparse.ZerosDense(members, axis.Len()),
	}
}

// Members returns the ensemble size.
func (e *Ensemble) Members() int { return e.data.Shape[0] }

// Years returns the number of years per member.
func (e *Ensemble) Years() int { return e.data.Shape[1] }

// At returns the value for member m at year index i.
func (e *Ensemble) At(m, i int) float64 { return e.data.Get(m, i) }

// Row returns member m's trajectory, aliasing the underlying buffer.
func (e *Ensemble) Row(m int) []float64 {
	n := e.Years()
	return e.data.Elements[m*n : (m+1)*n : (m+1)*n]
}

// Column copies year index i across all members into dst, growing it if needed.
func (e *Ensemble) Column(i int, dst []float64) []float64 {
	nm, ny := e.Members(), e.Years()
	if cap(dst) < nm {
		dst = make([]float64, nm)
	}
	dst = dst[:nm]
	for m := 0; m < nm; m++ {
		dst[m] = e.data.Elements[m*ny+i]
	}
	return dst
}

// Values exposes the flat buffer in member-major order.
func (e *Ensemble) Values() []float64 { return e.data.Elements }

// Dense exposes the backing array.
func (e *Ensemble) Dense() *sparse.DenseArray { return e.data }

// As returns an ensemble named q sharing e's buffer. Used for quantities
// that pass a driver through unchanged.
func (e *Ensemble) As(q Quantity) *Ensemble {
	return &Ensemble{Quantity: q, Axis: e.Axis, data: e.data}
}

// SameShape reports whether o can be combined element-wise with e.
func (e *Ensemble) SameShape(o *Ensemble) bool {
	return e.Members() == o.Members() && e.Years() == o.Years() &&
		e.Axis.First() == o.Axis.First()
}
