package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"TurtleSentinel/internal/model"
)

func TestOKXFetcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/market/candles" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		// newest first, like the live API
		w.Write([]byte(`{"code":"0","msg":"","data":[
			["1704081600000","42500","42600","42400","42550","12.5","0","0","0"],
			["1704067200000","42300","42700","42200","42500","30.1","0","0","1"],
			["1704052800000","42000","42400","41900","42300","25.0","0","0","1"]]}`))
	}))
	defer srv.Close()

	f := NewOKXFetcher(srv.URL, srv.Client())
	bars, err := f.FetchCandles(context.Background(), "BTC/USDT", "4h", 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "bar=4H&instId=BTC-USDT&limit=3" {
		t.Errorf("query = %s", gotQuery)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if !bars[0].Time.Before(bars[1].Time) || !bars[1].Time.Before(bars[2].Time) {
		t.Error("bars not sorted oldest first")
	}
	if bars[0].Close != 42300 || bars[2].Volume != 12.5 {
		t.Errorf("unexpected values: %+v", bars)
	}
	if want := time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC); !bars[0].Time.Equal(want) {
		t.Errorf("first bar time = %s, want %s", bars[0].Time, want)
	}
}

func TestOKXFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error code", 200, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`},
		{"http error", 500, `oops`},
		{"malformed number", 200, `{"code":"0","data":[["1704052800000","x","1","1","1","1"]]}`},
		{"short row", 200, `{"code":"0","data":[["1704052800000","1","1"]]}`},
		{"bad json", 200, `{"code":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			if _, err := NewOKXFetcher(srv.URL, srv.Client()).FetchCandles(context.Background(), "BTC/USDT", "4h", 10); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBybitFetcher(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/kline" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"symbol":"BTCUSDT","category":"spot","list":[
			["1704067200000","42300","42700","42200","42500","30.1","1279000"],
			["1704052800000","42000","42400","41900","42300","25.0","1050000"]]}}`))
	}))
	defer srv.Close()

	bars, err := NewBybitFetcher(srv.URL, srv.Client()).FetchCandles(context.Background(), "BTC/USDT", "4h", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "category=spot&interval=240&limit=2&symbol=BTCUSDT" {
		t.Errorf("query = %s", gotQuery)
	}
	if len(bars) != 2 || bars[0].Open != 42000 || bars[1].High != 42700 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

func TestBybitFetcher_RetCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":10001,"retMsg":"params error","result":{}}`))
	}))
	defer srv.Close()
	if _, err := NewBybitFetcher(srv.URL, srv.Client()).FetchCandles(context.Background(), "BTC/USDT", "4h", 2); err == nil {
		t.Error("expected error for non-zero retCode")
	}
}

func TestRESTFetcher_HourlyFallback(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Query().Get("timeframe") != "1h" {
			http.Error(w, "unsupported timeframe", http.StatusBadRequest)
			return
		}
		// 2023-12-31 22:00 .. 2024-01-01 05:00 UTC, eight hourly bars out of order
		w.Write([]byte(`[
			{"timestamp":1704085200,"open":8,"high":9,"low":7,"close":8.5,"volume":1},
			{"timestamp":1704067200,"open":3,"high":4,"low":2,"close":3.5,"volume":1},
			{"timestamp":1704070800,"open":4,"high":6,"low":3,"close":5,"volume":2},
			{"timestamp":1704074400,"open":5,"high":5,"low":1,"close":4,"volume":3},
			{"timestamp":1704078000,"open":4,"high":5,"low":3,"close":4.5,"volume":4},
			{"timestamp":1704081600,"open":6,"high":7,"low":5,"close":6.5,"volume":1},
			{"timestamp":1704063600,"open":2,"high":3,"low":1,"close":2.5,"volume":1},
			{"timestamp":1704060000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":1}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "k", srv.Client())
	bars, err := f.FetchCandles(context.Background(), "BTC/USDT", "4h", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if auth != "Bearer k" {
		t.Errorf("authorization = %q", auth)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 resampled bars, got %d: %+v", len(bars), bars)
	}
	if b := bars[0]; b.Open != 1 || b.High != 3 || b.Low != 0.5 || b.Close != 2.5 || b.Volume != 2 {
		t.Errorf("partial leading bucket = %+v", b)
	}
	full := bars[1]
	if !full.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("full bucket time = %s", full.Time)
	}
	if full.Open != 3 || full.High != 6 || full.Low != 1 || full.Close != 4.5 || full.Volume != 10 {
		t.Errorf("full bucket = %+v", full)
	}
	if !bars[2].Time.Equal(time.Date(2024, 1, 1, 4, 0, 0, 0, time.UTC)) {
		t.Errorf("last bucket time = %s", bars[2].Time)
	}
}

func TestResample_Empty(t *testing.T) {
	if got := resample(nil, 4*time.Hour); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestParseHelpers(t *testing.T) {
	if b, q, err := ParseSymbol("BTC/USDT"); err != nil || b != "BTC" || q != "USDT" {
		t.Errorf("ParseSymbol = %s %s %v", b, q, err)
	}
	for _, bad := range []string{"BTCUSDT", "btc/usdt", "BTC-USDT", "/USDT"} {
		if _, _, err := ParseSymbol(bad); err == nil {
			t.Errorf("ParseSymbol(%q) expected error", bad)
		}
	}

	tests := []struct {
		in    string
		okx   string
		bybit string
		dur   time.Duration
	}{
		{"15m", "15m", "15", 15 * time.Minute},
		{"1h", "1H", "60", time.Hour},
		{"4h", "4H", "240", 4 * time.Hour},
		{"1d", "1Dutc", "D", 24 * time.Hour},
		{"1w", "1Wutc", "W", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		tf, err := ParseTimeframe(tt.in)
		if err != nil {
			t.Fatalf("ParseTimeframe(%q): %v", tt.in, err)
		}
		if got := okxBar(tf); got != tt.okx {
			t.Errorf("okxBar(%s) = %s, want %s", tt.in, got, tt.okx)
		}
		if got, err := bybitInterval(tf); err != nil || got != tt.bybit {
			t.Errorf("bybitInterval(%s) = %s, %v", tt.in, got, err)
		}
		if tf.Duration() != tt.dur {
			t.Errorf("Duration(%s) = %s", tt.in, tf.Duration())
		}
	}
	if _, err := ParseTimeframe("4x"); err == nil {
		t.Error("expected error for unknown unit")
	}
	tf, _ := ParseTimeframe("7h")
	if _, err := bybitInterval(tf); err == nil {
		t.Error("expected bybit to reject 7h")
	}
}

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		provider string
		baseURL  string
		name     string
		wantErr  bool
	}{
		{"okx", "", ProviderOKX, false},
		{"", "", ProviderOKX, false},
		{"bybit", "", ProviderBybit, false},
		{"rest", "http://localhost:9000", ProviderREST, false},
		{"rest", "", "", true},
		{"mock", "", ProviderMock, false},
		{"binance", "", "", true},
	}
	for _, tt := range tests {
		f, err := NewFetcher(Options{Provider: tt.provider, BaseURL: tt.baseURL})
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v", tt.provider, err)
			continue
		}
		if err == nil && f.Name() != tt.name {
			t.Errorf("%s: name = %s, want %s", tt.provider, f.Name(), tt.name)
		}
	}
}

func TestCollect(t *testing.T) {
	mock := &MockFetcher{Price: 65000}
	c := NewCollector(mock, "BTC/USDT", "4h", 100, zap.NewNop())
	series, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if series.Len() != 100 || series.Symbol != "BTC/USDT" || series.Timeframe != "4h" {
		t.Errorf("unexpected series: len=%d %s %s", series.Len(), series.Symbol, series.Timeframe)
	}
	if step := series.At(1).Time.Sub(series.At(0).Time); step != 4*time.Hour {
		t.Errorf("bar spacing = %s", step)
	}
}

func TestCollect_Failures(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		fetch *MockFetcher
	}{
		{"provider error", &MockFetcher{Err: errors.New("connection refused")}},
		{"empty", &MockFetcher{Bars: []model.OHLCV{}}},
		{"duplicate time", &MockFetcher{Bars: []model.OHLCV{{Time: ts, Close: 1}, {Time: ts, Close: 2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollector(tt.fetch, "BTC/USDT", "4h", 100, zap.NewNop()).Collect(context.Background())
			var fe *model.DataFetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected DataFetchError, got %v", err)
			}
			if fe.Provider != ProviderMock {
				t.Errorf("provider = %s", fe.Provider)
			}
		})
	}
}
