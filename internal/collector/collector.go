package collector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"TurtleSentinel/internal/model"
)

// Collector fetches and validates the candle series for one instrument.
type Collector struct {
	Fetcher   Fetcher
	Symbol    string
	Timeframe string
	Limit     int
	Logger    *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, timeframe string, limit int, logger *zap.Logger) *Collector {
	return &Collector{
		Fetcher:   fetcher,
		Symbol:    symbol,
		Timeframe: timeframe,
		Limit:     limit,
		Logger:    logger,
	}
}

// Collect fetches the latest bars, including the one still forming, and
// returns them as a validated series. Every failure is a *model.DataFetchError.
func (c *Collector) Collect(ctx context.Context) (*model.CandleSeries, error) {
	c.Logger.Info("checking signal",
		zap.String("symbol", c.Symbol),
		zap.String("timeframe", c.Timeframe),
		zap.String("provider", c.Fetcher.Name()),
		zap.Int("limit", c.Limit))

	start := time.Now()
	bars, err := c.Fetcher.FetchCandles(ctx, c.Symbol, c.Timeframe, c.Limit)
	if err != nil {
		return nil, &model.DataFetchError{Provider: c.Fetcher.Name(), Err: err}
	}
	series, err := model.NewCandleSeries(c.Symbol, c.Timeframe, bars)
	if err != nil {
		return nil, &model.DataFetchError{Provider: c.Fetcher.Name(), Err: err}
	}

	last := series.Last()
	c.Logger.Debug("candles fetched",
		zap.Int("count", series.Len()),
		zap.Time("last_bar", last.Time),
		zap.Duration("elapsed", time.Since(start)))
	return series, nil
}
