package calculator

import (
	"math"

	"TurtleSentinel/internal/model"
)

// TrueRange returns the true range of bar i:
// max(high-low, |high-prevClose|, |low-prevClose|). Bar 0 has no previous close.
func TrueRange(bars []model.OHLCV, i int) model.Reading {
	if i < 1 || i >= len(bars) {
		return model.Reading{}
	}
	cur, prevClose := bars[i], bars[i-1].Close
	tr := math.Max(cur.High-cur.Low,
		math.Max(math.Abs(cur.High-prevClose), math.Abs(cur.Low-prevClose)))
	return model.ReadingOf(tr)
}

// TrueRanges returns the true range of every bar. Index 0 is NaN.
func TrueRanges(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	if len(bars) > 0 {
		out[0] = math.NaN()
	}
	for i := 1; i < len(bars); i++ {
		out[i] = TrueRange(bars, i).Value
	}
	return out
}

// ATR is the simple average of the p true ranges before index i.
// It needs i >= p+1 because bar 0 has no true range.
func ATR(trs []float64, i, p int) model.Reading {
	if p <= 0 || i < p+1 {
		return model.Reading{}
	}
	if v, ok := Mean(trs, i, p); ok {
		return model.ReadingOf(v)
	}
	return model.Reading{}
}
