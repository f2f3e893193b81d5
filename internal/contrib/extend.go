package contrib

import "gmslr/internal/ensemble"

// extensionIndex returns the axis index of CalibrationYear and whether rows
// must be continued past it.
func extensionIndex(axis ensemble.YearAxis, enabled bool) (int, bool) {
	if !enabled || axis.Last() <= CalibrationYear {
		return 0, false
	}
	i, ok := axis.Index(CalibrationYear)
	if !ok || i == 0 {
		return 0, false
	}
	return i, true
}

// extendLinearly continues row past index end at the rate of its last
// calibrated year.
func extendLinearly(row []float64, end int) {
	rate := row[end] - row[end-1]
	for j := end + 1; j < len(row); j++ {
		row[j] = row[end] + float64(j-end)*rate
	}
}
