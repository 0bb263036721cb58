package collector

import (
	"context"
	"math"
	"time"

	"TurtleSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Generated bars are deterministic.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
	Start time.Time // first generated bar; zero means 2024-01-01 UTC
	Calls int
}

func (m *MockFetcher) Name() string { return ProviderMock }

func (m *MockFetcher) FetchCandles(_ context.Context, _, timeframe string, limit int) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	step := 4 * time.Hour
	if tf, err := ParseTimeframe(timeframe); err == nil {
		step = tf.Duration()
	}
	start := m.Start
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return generateMockBars(m.Price, limit, start, step), nil
}

func generateMockBars(basePrice float64, count int, start time.Time, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/5) + float64(i-count/2)*0.0005)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000 + float64(i%7)*50,
		}
	}
	return bars
}
