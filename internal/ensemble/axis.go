package ensemble

import "gmslr/internal/projerr"

// YearAxis is a contiguous, ascending run of calendar years. Values on the
// axis apply at the end of each year; integration starts at First()-1.
type YearAxis struct {
	first int
	last  int
}

// NewYearAxis returns the axis first..last inclusive.
func NewYearAxis(first, last int) (YearAxis, error) {
	if last < first {
		return YearAxis{}, projerr.Domain("year axis %d..%d is empty", first, last)
	}
	return YearAxis{first: first, last: last}, nil
}

// First returns the first year on the axis.
func (a YearAxis) First() int { return a.first }

// Last returns the last year on the axis.
func (a YearAxis) Last() int { return a.last }

// Len returns the number of years.
func (a YearAxis) Len() int {
	if a.last < a.first {
		return 0
	}
	return a.last - a.first + 1
}

// StartYear is the year whose end is the origin of time integration.
func (a YearAxis) StartYear() int { return a.first - 1 }

// Year returns the year at index i.
func (a YearAxis) Year(i int) int { return a.first + i }

// Index returns the position of year on the axis.
func (a YearAxis) Index(year int) (int, bool) {
	if year < a.first || year > a.last {
		return 0, false
	}
	return year - a.first, true
}

// Years returns the axis as a slice.
func (a YearAxis) Years() []int {
	ys := make([]int, a.Len())
	for i := range ys {
		ys[i] = a.first + i
	}
	return ys
}

// Match checks that years is exactly this axis.
func (a YearAxis) Match(years []int) error {
	if len(years) != a.Len() {
		return projerr.Domain("input has %d years, configured axis %d..%d has %d",
			len(years), a.first, a.last, a.Len())
	}
	for i, y := range years {
		if y != a.first+i {
			return projerr.Domain("input year %d found where %d expected", y, a.first+i).AtYear(y)
		}
	}
	return nil
}
