package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"TurtleSentinel/internal/calculator"
	"TurtleSentinel/internal/collector"
	"TurtleSentinel/internal/fund"
	"TurtleSentinel/internal/metrics"
	"TurtleSentinel/internal/model"
	"TurtleSentinel/internal/recorder"
	"TurtleSentinel/internal/strategy"
)

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

type memRecorder struct {
	evals []*recorder.Evaluation
}

func (m *memRecorder) RecordEvaluation(ev *recorder.Evaluation) error {
	m.evals = append(m.evals, ev)
	return nil
}

func (m *memRecorder) Close() error { return nil }

// bars builds flat history (upper 64800, volume MA 1000, ATR 500), the target
// bar and a forming bar.
func bars(history int, target model.OHLCV) []model.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, 0, history+2)
	for i := 0; i < history; i++ {
		out = append(out, model.OHLCV{
			Time: start.Add(time.Duration(i) * 4 * time.Hour),
			Open: 64550, High: 64800, Low: 64300, Close: 64550, Volume: 1000,
		})
	}
	target.Time = start.Add(time.Duration(history) * 4 * time.Hour)
	out = append(out, target, model.OHLCV{
		Time: start.Add(time.Duration(history+1) * 4 * time.Hour),
		Open: 65000, High: 65200, Low: 64900, Close: 65100, Volume: 10,
	})
	return out
}

var breakout = model.OHLCV{Open: 64500, High: 65100, Low: 64400, Close: 65000, Volume: 1500}

func newTestScheduler(fetcher collector.Fetcher, n *fakeNotifier, rec *memRecorder) *Scheduler {
	logger := zap.NewNop()
	col := collector.NewCollector(fetcher, "BTC/USDT", "4h", 100, logger)
	ev := strategy.NewEvaluator(calculator.DefaultParams(), strategy.DefaultParams())
	s := NewScheduler(col, ev, fund.NewSizer(fund.DefaultParams()), n, rec, metrics.New(""), logger)
	s.Clock = func() time.Time { return time.Date(2024, 3, 6, 8, 1, 0, 0, time.UTC) }
	return s
}

func TestRunOnce_BreakoutEntry(t *testing.T) {
	n, rec := &fakeNotifier{}, &memRecorder{}
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(30, breakout)}, n, rec)

	d, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if d.Kind != model.KindBreakoutEntry || d.Entry == nil || d.Entry.Sizing == nil {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Entry.StopLoss != 64000 || d.Entry.TakeProfit != 66500 {
		t.Errorf("levels = %+v", d.Entry)
	}
	if len(n.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(n.sent))
	}
	if !strings.Contains(n.sent[0], "breakout entry") || !strings.Contains(n.sent[0], "520 USDT notional @ 6.5x") {
		t.Errorf("unexpected message:\n%s", n.sent[0])
	}
	if len(rec.evals) != 1 || rec.evals[0].Outcome != recorder.OutcomeEntry || !rec.evals[0].Delivered {
		t.Errorf("unexpected journal: %+v", rec.evals)
	}
	if got := testutil.ToFloat64(s.Metrics.EvaluationsTotal.WithLabelValues("BREAKOUT_ENTRY")); got != 1 {
		t.Errorf("entry counter = %v", got)
	}
	if got := testutil.ToFloat64(s.Metrics.LastClose); got != 65000 {
		t.Errorf("last close = %v", got)
	}
}

func TestRunOnce_HoldingGuidance(t *testing.T) {
	quiet := breakout
	quiet.Volume = 1100
	n := &fakeNotifier{}
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(30, quiet)}, n, &memRecorder{})

	d, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if d.Kind != model.KindHoldingGuidance || d.Holding == nil {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if d.Holding.TrailingStop != 64250 || d.Holding.TurtleExit != 64300 {
		t.Errorf("holding = %+v", d.Holding)
	}
	if len(n.sent) != 1 || !strings.Contains(n.sent[0], "Trailing stop: 64250.00") {
		t.Errorf("unexpected messages: %q", n.sent)
	}
}

func TestRunOnce_FetchErrorSendsNothing(t *testing.T) {
	n, rec := &fakeNotifier{}, &memRecorder{}
	s := newTestScheduler(&collector.MockFetcher{Err: errors.New("timeout")}, n, rec)

	_, err := s.RunOnce(context.Background())
	if !model.IsDataFetch(err) {
		t.Fatalf("expected DataFetchError, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent %d messages on fetch failure", len(n.sent))
	}
	if len(rec.evals) != 1 || rec.evals[0].Outcome != recorder.OutcomeFetchError || rec.evals[0].Error == "" {
		t.Errorf("unexpected journal: %+v", rec.evals)
	}
}

func TestRunOnce_InsufficientDataSendsNothing(t *testing.T) {
	n, rec := &fakeNotifier{}, &memRecorder{}
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(15, breakout)}, n, rec)

	_, err := s.RunOnce(context.Background())
	if !model.IsInsufficientData(err) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if len(n.sent) != 0 {
		t.Errorf("sent %d messages without enough data", len(n.sent))
	}
	if rec.evals[0].Outcome != recorder.OutcomeInsufficientData {
		t.Errorf("outcome = %s", rec.evals[0].Outcome)
	}
}

func TestRunOnce_DeliveryFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{err: &model.DeliveryError{Channel: "fake", StatusCode: 502, Err: errors.New("bad gateway")}}
	rec := &memRecorder{}
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(30, breakout)}, n, rec)

	d, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("delivery failure leaked into run result: %v", err)
	}
	if d.Kind != model.KindBreakoutEntry {
		t.Errorf("decision changed by delivery failure: %s", d.Kind)
	}
	if len(n.sent) != 1 {
		t.Errorf("expected a single attempt, got %d", len(n.sent))
	}
	if rec.evals[0].Delivered {
		t.Error("journal marks a failed send as delivered")
	}
	if got := testutil.ToFloat64(s.Metrics.NotificationsTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed counter = %v", got)
	}
}

func TestRunOnce_Deterministic(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(40, breakout)}, n, &memRecorder{})
	for i := 0; i < 2; i++ {
		if _, err := s.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if n.sent[0] != n.sent[1] {
		t.Errorf("messages differ:\n%s\n---\n%s", n.sent[0], n.sent[1])
	}
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&collector.MockFetcher{Bars: bars(30, breakout)}, &fakeNotifier{}, &memRecorder{})
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.Register("0 1 */4 * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(s.Cron.Entries()) != 1 {
		t.Errorf("expected one entry, got %d", len(s.Cron.Entries()))
	}
	s.Start(context.Background())
	s.Stop()
}
