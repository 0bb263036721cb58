package model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleSeries is the time-ordered, oldest-first bar history of one instrument
// for a single run. It is immutable after construction.
type CandleSeries struct {
	Symbol    string
	Timeframe string
	bars      []OHLCV
}

// NewCandleSeries copies bars into a series after checking that timestamps
// strictly increase and every price and volume is a finite number.
func NewCandleSeries(symbol, timeframe string, bars []OHLCV) (*CandleSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	for i, b := range bars {
		if !finite(b.Open, b.High, b.Low, b.Close, b.Volume) {
			return nil, errors.Wrapf(ErrMalformedBar, "bar %d at %s", i, b.Time.UTC().Format(time.RFC3339))
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, errors.Wrapf(ErrNonIncreasingTime, "bar %d at %s follows %s",
				i, b.Time.UTC().Format(time.RFC3339), bars[i-1].Time.UTC().Format(time.RFC3339))
		}
	}
	cp := make([]OHLCV, len(bars))
	copy(cp, bars)
	return &CandleSeries{Symbol: symbol, Timeframe: timeframe, bars: cp}, nil
}

// Len returns the number of bars.
func (s *CandleSeries) Len() int { return len(s.bars) }

// At returns the bar at index i. It panics when i is out of range, like a slice.
func (s *CandleSeries) At(i int) OHLCV { return s.bars[i] }

// Last returns the most recent bar, which is usually still forming.
func (s *CandleSeries) Last() OHLCV { return s.bars[len(s.bars)-1] }

// Bars returns a copy of the underlying bars.
func (s *CandleSeries) Bars() []OHLCV {
	cp := make([]OHLCV, len(s.bars))
	copy(cp, s.bars)
	return cp
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
