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

const okxDefaultBaseURL = "https://www.okx.com"

// OKXFetcher reads public candles from the OKX v5 REST API. No API key is needed.
type OKXFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewOKXFetcher(baseURL string, client *http.Client) *OKXFetcher {
	if baseURL == "" {
		baseURL = okxDefaultBaseURL
	}
	return &OKXFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (f *OKXFetcher) Name() string { return ProviderOKX }

// okxResponse is the envelope of /api/v5/market/candles. Each row is
// [ts, open, high, low, close, vol, volCcy, volCcyQuote, confirm], newest first.
type okxResponse struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

func (f *OKXFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	base, quote, err := ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	tf, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("instId", base+"-"+quote)
	q.Set("bar", okxBar(tf))
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v5/market/candles?%s", f.BaseURL, q.Encode())

	var resp okxResponse
	if err := getJSON(ctx, f.Client, endpoint, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "okx candles")
	}
	if resp.Code != "0" {
		return nil, errors.Errorf("okx candles: code %s: %s", resp.Code, resp.Msg)
	}
	return parseRows(resp.Data, 6)
}

// parseRows converts exchange rows of [ts(ms), open, high, low, close, volume, ...]
// into bars sorted oldest first. Any malformed row fails the whole batch.
func parseRows(rows [][]string, minCols int) ([]model.OHLCV, error) {
	bars := make([]model.OHLCV, 0, len(rows))
	for i, row := range rows {
		if len(row) < minCols {
			return nil, errors.Errorf("row %d: want at least %d columns, got %d", i, minCols, len(row))
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: parse timestamp", i)
		}
		var vals [5]float64
		for j, name := range []string{"open", "high", "low", "close", "volume"} {
			if vals[j], err = parseFloat(row[j+1], name); err != nil {
				return nil, errors.Wrapf(err, "row %d", i)
			}
		}
		bars = append(bars, model.OHLCV{
			Time:   time.UnixMilli(ts).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
