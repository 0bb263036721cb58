package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"TurtleSentinel/internal/collector"
	"TurtleSentinel/internal/fund"
	"TurtleSentinel/internal/metrics"
	"TurtleSentinel/internal/model"
	"TurtleSentinel/internal/notifier"
	"TurtleSentinel/internal/recorder"
	"TurtleSentinel/internal/strategy"
)

// Notification results used as metric labels.
const (
	resultSent   = "sent"
	resultFailed = "failed"
)

// Scheduler runs evaluation cycles, once or on a cron schedule. Every cycle
// is independent and recomputes from freshly fetched data.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Evaluator *strategy.Evaluator
	Sizer     *fund.Sizer
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time

	ctx context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(col *collector.Collector, ev *strategy.Evaluator, sz *fund.Sizer,
	n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		Collector: col,
		Evaluator: ev,
		Sizer:     sz,
		Notifier:  n,
		Recorder:  rec,
		Metrics:   m,
		Logger:    logger,
		Clock:     time.Now,
		ctx:       context.Background(),
	}
}

// Register adds the evaluation cycle to the cron schedule. expr uses the
// six-field format with seconds.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.task); err != nil {
		return errors.Wrapf(err, "register evaluation task %q", expr)
	}
	return nil
}

// Start starts the cron scheduler. Cycles run with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) task() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		LogRunError(s.Logger, err)
	}
}

// RunOnce fetches data, evaluates the last closed bar, applies risk levels
// and sends the message. Delivery failures are logged and do not fail the run.
// Fetch errors and insufficient data return before anything is sent.
func (s *Scheduler) RunOnce(ctx context.Context) (*model.Decision, error) {
	ev := &recorder.Evaluation{
		RunAt:     s.Clock().UTC(),
		Symbol:    s.Collector.Symbol,
		Timeframe: s.Collector.Timeframe,
	}

	start := time.Now()
	series, err := s.Collector.Collect(ctx)
	s.Metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.finish(ev, recorder.OutcomeFetchError, err)
		return nil, err
	}

	decision, err := s.Evaluator.Evaluate(series)
	if err != nil {
		outcome := recorder.OutcomeError
		if model.IsInsufficientData(err) {
			outcome = recorder.OutcomeInsufficientData
		}
		s.finish(ev, outcome, err)
		return nil, err
	}
	if err := s.Sizer.Apply(decision); err != nil {
		err = errors.Wrap(err, "apply risk levels")
		s.finish(ev, recorder.OutcomeError, err)
		return nil, err
	}
	ev.Decision = decision

	s.Logger.Info("bar evaluated",
		zap.String("decision", string(decision.Kind)),
		zap.Time("bar", decision.Candle.Time),
		zap.Float64("close", decision.Price()),
		zap.Float64("upper_channel", decision.Snapshot.UpperChannel.Value),
		zap.Float64("volume", decision.Candle.Volume),
		zap.Float64("volume_threshold", decision.VolumeThreshold),
		zap.Float64("atr", decision.Snapshot.ATR.Value))
	for _, c := range decision.Conditions {
		s.Logger.Debug("entry condition", zap.String("name", c.Name), zap.Bool("passed", c.Passed), zap.String("detail", c.Detail))
	}
	if decision.Entry != nil && decision.Entry.Sizing == nil {
		s.Logger.Warn("sizing unavailable", zap.Float64("stop_distance", decision.Entry.StopDistance))
	}

	ev.Message = notifier.FormatDecision(decision)
	ev.Delivered = s.deliver(ctx, ev.Message)

	s.Metrics.LastClose.Set(decision.Price())
	s.Metrics.LastSuccess.Set(float64(s.Clock().Unix()))
	s.finish(ev, recorder.OutcomeOf(decision.Kind), nil)
	return decision, nil
}

// deliver makes a single send attempt.
func (s *Scheduler) deliver(ctx context.Context, text string) bool {
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Metrics.NotificationsTotal.WithLabelValues(resultFailed).Inc()
		s.Logger.Error("notification failed", zap.String("notifier", s.Notifier.Name()), zap.Error(err))
		return false
	}
	s.Metrics.NotificationsTotal.WithLabelValues(resultSent).Inc()
	s.Logger.Info("notification sent", zap.String("notifier", s.Notifier.Name()))
	return true
}

func (s *Scheduler) finish(ev *recorder.Evaluation, outcome recorder.Outcome, err error) {
	ev.Outcome = outcome
	if err != nil {
		ev.Error = err.Error()
	}
	s.Metrics.EvaluationsTotal.WithLabelValues(string(outcome)).Inc()
	if rerr := s.Recorder.RecordEvaluation(ev); rerr != nil {
		s.Logger.Error("record evaluation", zap.Error(rerr))
	}
}

// LogRunError logs a failed cycle at a level matching its cause.
func LogRunError(logger *zap.Logger, err error) {
	switch {
	case model.IsInsufficientData(err):
		logger.Warn("evaluation skipped", zap.Error(err))
	case model.IsDataFetch(err):
		logger.Error("market data unavailable", zap.Error(err))
	default:
		logger.Error("evaluation failed", zap.Error(err))
	}
}
