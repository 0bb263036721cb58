package calculator

import "math"

// trailing returns values[i-n .. i-1], the n values strictly before index i.
// ok is false when the window does not fit inside values.
func trailing(values []float64, i, n int) (w []float64, ok bool) {
	if n <= 0 || i < n || i > len(values) {
		return nil, false
	}
	return values[i-n : i], true
}

// Highest returns the maximum of the n values before index i.
func Highest(values []float64, i, n int) (float64, bool) {
	w, ok := trailing(values, i, n)
	if !ok {
		return 0, false
	}
	high := math.Inf(-1)
	for _, v := range w {
		if v > high {
			high = v
		}
	}
	return high, true
}

// Lowest returns the minimum of the n values before index i.
func Lowest(values []float64, i, n int) (float64, bool) {
	w, ok := trailing(values, i, n)
	if !ok {
		return 0, false
	}
	low := math.Inf(1)
	for _, v := range w {
		if v < low {
			low = v
		}
	}
	return low, true
}

// Mean returns the arithmetic mean of the n values before index i.
func Mean(values []float64, i, n int) (float64, bool) {
	w, ok := trailing(values, i, n)
	if !ok {
		return 0, false
	}
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(n), true
}
