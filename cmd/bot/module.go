package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"TurtleSentinel/internal/collector"
	"TurtleSentinel/internal/config"
	"TurtleSentinel/internal/fund"
	"TurtleSentinel/internal/metrics"
	"TurtleSentinel/internal/notifier"
	"TurtleSentinel/internal/recorder"
	"TurtleSentinel/internal/scheduler"
	"TurtleSentinel/internal/strategy"
)

// Module provides every component of one evaluation cycle.
func Module() fx.Option {
	return fx.Module("sentinel",
		fx.Provide(
			newFetcher,
			newCollector,
			newEvaluator,
			newSizer,
			newNotifier,
			newRecorder,
			newMetrics,
			scheduler.NewScheduler,
		),
	)
}

func newFetcher(cfg *config.Config, log *zap.Logger) (collector.Fetcher, error) {
	f, err := collector.NewFetcher(cfg.FetcherOptions())
	if err != nil {
		return nil, err
	}
	log.Info("data source", zap.String("provider", f.Name()))
	return f, nil
}

func newCollector(f collector.Fetcher, cfg *config.Config, log *zap.Logger) *collector.Collector {
	return collector.NewCollector(f, cfg.Market.Symbol, cfg.Market.Timeframe, cfg.Market.Limit, log)
}

func newEvaluator(cfg *config.Config) *strategy.Evaluator {
	return strategy.NewEvaluator(cfg.IndicatorParams(), cfg.StrategyParams())
}

func newSizer(cfg *config.Config) *fund.Sizer {
	return fund.NewSizer(cfg.SizerParams())
}

func newNotifier(cfg *config.Config) notifier.Notifier {
	if cfg.DryRun {
		return notifier.NewStdoutNotifier()
	}
	t := cfg.Telegram
	return notifier.NewTelegramNotifier(t.BotToken, t.ChatID, t.APIBaseURL, cfg.Proxy, t.Timeout)
}

// newRecorder opens the evaluation journal. An unusable database degrades to
// the no-op recorder so the signal still goes out.
func newRecorder(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return sr.Close() },
	})
	return sr
}

func newMetrics(cfg *config.Config) *metrics.Metrics {
	return metrics.New(cfg.Metrics.PushgatewayURL)
}

// runSchedule registers the cron cycle and, when configured, the metrics
// endpoint.
func runSchedule(lc fx.Lifecycle, s *scheduler.Scheduler, cfg *config.Config, log *zap.Logger) error {
	if err := s.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start(runCtx)
			log.Info("TurtleSentinel is running", zap.String("cron", cfg.Schedule.Cron))
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			s.Stop()
			return nil
		},
	})

	if cfg.Metrics.ListenAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("metrics endpoint listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("metrics server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return nil
}
