package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

// RESTFetcher reads bars from a generic JSON bar service:
// GET {base}/api/v1/bars?symbol=BTC/USDT&timeframe=4h&limit=100.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewRESTFetcher(baseURL, apiKey string, client *http.Client) *RESTFetcher {
	return &RESTFetcher{BaseURL: strings.TrimRight(baseURL, "/"), APIKey: apiKey, Client: client}
}

func (f *RESTFetcher) Name() string { return ProviderREST }

// restBar is the expected JSON shape from the bar service. Timestamp is in seconds.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchCandles asks for the timeframe directly. If the service rejects it and
// the timeframe is a whole number of hours, 1h bars are fetched and resampled.
func (f *RESTFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	tf, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	bars, err := f.fetchBars(ctx, symbol, tf.String(), limit)
	if err == nil {
		return bars, nil
	}
	if tf.Unit != 'h' || tf.Count == 1 || ctx.Err() != nil {
		return nil, err
	}

	hourly, hourlyErr := f.fetchBars(ctx, symbol, "1h", (limit+1)*tf.Count)
	if hourlyErr != nil {
		return nil, errors.Wrapf(hourlyErr, "%s fetch failed (%v); 1h fallback also failed", tf, err)
	}
	bars = resample(hourly, tf.Duration())
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	header := http.Header{}
	if f.APIKey != "" {
		header.Set("Authorization", "Bearer "+f.APIKey)
	}
	var raw []restBar
	if err := getJSON(ctx, f.Client, endpoint, header, &raw); err != nil {
		return nil, errors.Wrapf(err, "fetch %s bars", timeframe)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// resample merges oldest-first bars into buckets of the given period aligned
// to UTC midnight. The last bucket may be partial, like a live exchange bar.
func resample(bars []model.OHLCV, period time.Duration) []model.OHLCV {
	if len(bars) == 0 {
		return nil
	}
	var out []model.OHLCV
	var cur model.OHLCV
	started := false

	for _, b := range bars {
		bucket := b.Time.UTC().Truncate(period)
		if !started || !bucket.Equal(cur.Time) {
			if started {
				out = append(out, cur)
			}
			cur = model.OHLCV{Time: bucket, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	return append(out, cur)
}
