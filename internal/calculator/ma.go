package calculator

import "TurtleSentinel/internal/model"

// VolumeMA is the simple moving average of volume over the n bars before index i.
func VolumeMA(volumes []float64, i, n int) model.Reading {
	if v, ok := Mean(volumes, i, n); ok {
		return model.ReadingOf(v)
	}
	return model.Reading{}
}

func extractVolumes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
