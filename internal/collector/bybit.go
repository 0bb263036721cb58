package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

const bybitDefaultBaseURL = "https://api.bybit.com"

// BybitFetcher reads spot klines from the Bybit v5 REST API.
type BybitFetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewBybitFetcher(baseURL string, client *http.Client) *BybitFetcher {
	if baseURL == "" {
		baseURL = bybitDefaultBaseURL
	}
	return &BybitFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (f *BybitFetcher) Name() string { return ProviderBybit }

// bybitResponse is the envelope of /v5/market/kline. Rows are
// [startTime, open, high, low, close, volume, turnover], newest first.
type bybitResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	} `json:"result"`
}

func (f *BybitFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error) {
	base, quote, err := ParseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	tf, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	interval, err := bybitInterval(tf)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("category", "spot")
	q.Set("symbol", base+quote)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/v5/market/kline?%s", f.BaseURL, q.Encode())

	var resp bybitResponse
	if err := getJSON(ctx, f.Client, endpoint, nil, &resp); err != nil {
		return nil, errors.Wrap(err, "bybit kline")
	}
	if resp.RetCode != 0 {
		return nil, errors.Errorf("bybit kline: retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	return parseRows(resp.Result.List, 6)
}
