package calculator

import "TurtleSentinel/internal/model"

// UpperChannel is the highest high of the n bars before index i.
// The bar at i never contributes, so a close above it is a genuine breakout.
func UpperChannel(highs []float64, i, n int) model.Reading {
	if v, ok := Highest(highs, i, n); ok {
		return model.ReadingOf(v)
	}
	return model.Reading{}
}

// LowerChannel is the lowest low of the n bars before index i.
func LowerChannel(lows []float64, i, n int) model.Reading {
	if v, ok := Lowest(lows, i, n); ok {
		return model.ReadingOf(v)
	}
	return model.Reading{}
}

func extractHighs(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func extractLows(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}
