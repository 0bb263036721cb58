package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"TurtleSentinel/internal/config"
	"TurtleSentinel/internal/logger"
	"TurtleSentinel/internal/scheduler"
)

func main() {
	flags := pflag.NewFlagSet("turtle-sentinel", pflag.ExitOnError)
	cfgPath := flags.String("config", "configs/config.yaml", "path to the YAML config file")
	flags.Bool("schedule", false, "keep running and evaluate on the configured cron schedule")
	flags.Bool("dry-run", false, "print the message to stdout instead of sending it")
	printConfig := flags.Bool("print-config", false, "print the effective config with secrets masked and exit")
	_ = flags.Parse(os.Args[1:])

	if v := os.Getenv("CONFIG_PATH"); v != "" && !flags.Changed("config") {
		*cfgPath = v
	}

	cfg, err := config.Load(*cfgPath, flags)
	if err != nil {
		fatal("load config", err)
	}
	if *printConfig {
		out, err := cfg.Redacted().YAML()
		if err != nil {
			fatal("render config", err)
		}
		fmt.Print(out)
		return
	}

	if cfg.NeedsSecrets() && !cfg.DryRun {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := config.NewParameterStore(ctx)
		if err == nil {
			err = cfg.ResolveSecrets(ctx, store)
		}
		cancel()
		if err != nil {
			fatal("resolve secrets", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fatal("init logger", err)
	}

	log.Info("TurtleSentinel starting",
		zap.String("symbol", cfg.Market.Symbol),
		zap.String("timeframe", cfg.Market.Timeframe),
		zap.String("provider", cfg.Market.Provider),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Bool("schedule", cfg.Schedule.Enabled))

	if cfg.Schedule.Enabled {
		fx.New(appOptions(cfg, log), fx.Invoke(runSchedule)).Run()
		_ = log.Sync()
		return
	}
	code := runOnce(cfg, log)
	_ = log.Sync()
	os.Exit(code)
}

// runOnce evaluates the last closed bar and returns the process exit code.
func runOnce(cfg *config.Config, log *zap.Logger) int {
	var sched *scheduler.Scheduler
	app := fx.New(appOptions(cfg, log), fx.Populate(&sched))
	if err := app.Err(); err != nil {
		log.Error("build application", zap.Error(err))
		return 1
	}

	ctx := context.Background()
	startCtx, cancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Error("start application", zap.Error(err))
		return 1
	}

	_, runErr := sched.RunOnce(ctx)
	if runErr != nil {
		scheduler.LogRunError(log, runErr)
	}
	if sched.Metrics.PushEnabled() {
		if err := sched.Metrics.Push(ctx); err != nil {
			log.Warn("push metrics", zap.Error(err))
		}
	}

	stopCtx, stopCancel := context.WithTimeout(ctx, fx.DefaultTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Warn("stop application", zap.Error(err))
	}

	if runErr != nil && cfg.StrictExit {
		return 1
	}
	return 0
}

func appOptions(cfg *config.Config, log *zap.Logger) fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Supply(cfg, log),
		Module(),
	)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "turtle-sentinel: %s: %v\n", msg, err)
	os.Exit(1)
}
