package collector

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"TurtleSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
// Implementations return bars oldest first.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.OHLCV, error)
	Name() string
}

// Provider names accepted by NewFetcher.
const (
	ProviderOKX   = "okx"
	ProviderBybit = "bybit"
	ProviderREST  = "rest"
	ProviderMock  = "mock"
)

// Options configures a provider.
type Options struct {
	Provider string
	BaseURL  string // empty selects the provider default
	APIKey   string
	Proxy    string
	Timeout  time.Duration
}

// NewFetcher builds the fetcher for opts.Provider.
func NewFetcher(opts Options) (Fetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	client := newHTTPClient(opts.Proxy, opts.Timeout)
	switch strings.ToLower(opts.Provider) {
	case ProviderOKX, "":
		return NewOKXFetcher(opts.BaseURL, client), nil
	case ProviderBybit:
		return NewBybitFetcher(opts.BaseURL, client), nil
	case ProviderREST:
		if opts.BaseURL == "" {
			return nil, errors.New("rest provider requires market.base_url")
		}
		return NewRESTFetcher(opts.BaseURL, opts.APIKey, client), nil
	case ProviderMock:
		return &MockFetcher{Price: 65000}, nil
	default:
		return nil, errors.Errorf("unknown market data provider %q", opts.Provider)
	}
}

// newHTTPClient returns a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// getJSON performs a GET and decodes a JSON body into out.
func getJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if resp.StatusCode != http.StatusOK {
		if len(body) > 512 {
			body = body[:512]
		}
		return errors.Errorf("status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}
