package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"TurtleSentinel/internal/calculator"
	"TurtleSentinel/internal/collector"
	"TurtleSentinel/internal/fund"
	"TurtleSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram   TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Market     MarketConfig   `mapstructure:"market" yaml:"market"`
	Strategy   StrategyConfig `mapstructure:"strategy" yaml:"strategy"`
	Risk       RiskConfig     `mapstructure:"risk" yaml:"risk"`
	Schedule   ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Database   DatabaseConfig `mapstructure:"database" yaml:"database"`
	Metrics    MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	Log        LogConfig      `mapstructure:"log" yaml:"log"`
	Proxy      string         `mapstructure:"proxy" yaml:"proxy"`
	StrictExit bool           `mapstructure:"strict_exit" yaml:"strict_exit"`
	DryRun     bool           `mapstructure:"dry_run" yaml:"dry_run"`
}

type TelegramConfig struct {
	BotToken      string        `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID        string        `mapstructure:"chat_id" yaml:"chat_id"`
	TokenSSMParam string        `mapstructure:"token_ssm_param" yaml:"token_ssm_param"`
	APIBaseURL    string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type MarketConfig struct {
	Provider  string        `mapstructure:"provider" yaml:"provider"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"`
	Symbol    string        `mapstructure:"symbol" yaml:"symbol"`
	Timeframe string        `mapstructure:"timeframe" yaml:"timeframe"`
	Limit     int           `mapstructure:"limit" yaml:"limit"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type StrategyConfig struct {
	ChannelPeriod     int     `mapstructure:"channel_period" yaml:"channel_period"`
	ExitPeriod        int     `mapstructure:"exit_period" yaml:"exit_period"`
	VolumePeriod      int     `mapstructure:"volume_period" yaml:"volume_period"`
	ATRPeriod         int     `mapstructure:"atr_period" yaml:"atr_period"`
	VolumeSurgeFactor float64 `mapstructure:"volume_surge_factor" yaml:"volume_surge_factor"`
}

type RiskConfig struct {
	SLMultiplier    float64 `mapstructure:"sl_multiplier" yaml:"sl_multiplier"`
	TPMultiplier    float64 `mapstructure:"tp_multiplier" yaml:"tp_multiplier"`
	TrailMultiplier float64 `mapstructure:"trail_multiplier" yaml:"trail_multiplier"`
	TotalCapital    float64 `mapstructure:"total_capital" yaml:"total_capital"`
	RiskFraction    float64 `mapstructure:"risk_fraction" yaml:"risk_fraction"`
}

type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Cron    string `mapstructure:"cron" yaml:"cron"`
}

type DatabaseConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" yaml:"pushgateway_url"`
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format      string `mapstructure:"format" yaml:"format"`           // json or console
	OutputFile  string `mapstructure:"output_file" yaml:"output_file"` // optional rotated log file
	Environment string `mapstructure:"environment" yaml:"environment"` // dev or prod
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"dry-run":  "dry_run",
	"schedule": "schedule.enabled",
}

func setDefaults(v *viper.Viper) {
	ind := calculator.DefaultParams()
	risk := fund.DefaultParams()

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.token_ssm_param", "")
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", 10*time.Second)

	v.SetDefault("market.provider", collector.ProviderOKX)
	v.SetDefault("market.base_url", "")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.symbol", "BTC/USDT")
	v.SetDefault("market.timeframe", "4h")
	v.SetDefault("market.limit", 100)
	v.SetDefault("market.timeout", 30*time.Second)

	v.SetDefault("strategy.channel_period", ind.ChannelPeriod)
	v.SetDefault("strategy.exit_period", ind.ExitPeriod)
	v.SetDefault("strategy.volume_period", ind.VolumePeriod)
	v.SetDefault("strategy.atr_period", ind.ATRPeriod)
	v.SetDefault("strategy.volume_surge_factor", strategy.DefaultParams().VolumeSurgeFactor)

	v.SetDefault("risk.sl_multiplier", risk.SLMultiplier)
	v.SetDefault("risk.tp_multiplier", risk.TPMultiplier)
	v.SetDefault("risk.trail_multiplier", risk.TrailMultiplier)
	v.SetDefault("risk.total_capital", risk.TotalCapital)
	v.SetDefault("risk.risk_fraction", risk.RiskFraction)

	v.SetDefault("schedule.enabled", false)
	// one minute after every 4h close
	v.SetDefault("schedule.cron", "0 1 */4 * * *")

	v.SetDefault("database.sqlite_path", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.listen_addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "prod")

	v.SetDefault("proxy", "")
	v.SetDefault("strict_exit", false)
	v.SetDefault("dry_run", false)
}

// Load reads an optional YAML file, then environment variables (a .env file
// is loaded first when present), then any bound flags. A missing file is not
// an error. Environment keys replace dots with underscores, e.g.
// TELEGRAM_BOT_TOKEN or MARKET_SYMBOL.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrap(err, "read config")
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "stat config")
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short aliases kept for existing deployments.
	if err := v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN", "TG_TOKEN"); err != nil {
		return nil, errors.Wrap(err, "bind env")
	}
	if err := v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID", "TG_CHAT_ID"); err != nil {
		return nil, errors.Wrap(err, "bind env")
	}
	if err := v.BindEnv("proxy", "PROXY", "HTTPS_PROXY"); err != nil {
		return nil, errors.Wrap(err, "bind env")
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// IndicatorParams returns the indicator look-back periods.
func (c *Config) IndicatorParams() calculator.Params {
	return calculator.Params{
		ChannelPeriod: c.Strategy.ChannelPeriod,
		ExitPeriod:    c.Strategy.ExitPeriod,
		VolumePeriod:  c.Strategy.VolumePeriod,
		ATRPeriod:     c.Strategy.ATRPeriod,
	}
}

// StrategyParams returns the entry rule parameters.
func (c *Config) StrategyParams() strategy.Params {
	return strategy.Params{VolumeSurgeFactor: c.Strategy.VolumeSurgeFactor}
}

// SizerParams returns the risk sizing parameters.
func (c *Config) SizerParams() fund.Params {
	return fund.Params{
		SLMultiplier:    c.Risk.SLMultiplier,
		TPMultiplier:    c.Risk.TPMultiplier,
		TrailMultiplier: c.Risk.TrailMultiplier,
		TotalCapital:    c.Risk.TotalCapital,
		RiskFraction:    c.Risk.RiskFraction,
	}
}

// FetcherOptions returns the market data provider options.
func (c *Config) FetcherOptions() collector.Options {
	return collector.Options{
		Provider: c.Market.Provider,
		BaseURL:  c.Market.BaseURL,
		APIKey:   c.Market.APIKey,
		Proxy:    c.Proxy,
		Timeout:  c.Market.Timeout,
	}
}

// Validate checks that all required fields are set and parameters are usable.
// Telegram credentials are only required outside dry runs.
func (c *Config) Validate() error {
	if !c.DryRun {
		if c.Telegram.BotToken == "" {
			return errors.New("telegram.bot_token is required (or TG_TOKEN, or telegram.token_ssm_param)")
		}
		if c.Telegram.ChatID == "" {
			return errors.New("telegram.chat_id is required (or TG_CHAT_ID)")
		}
	}
	if c.Telegram.Timeout <= 0 {
		return errors.New("telegram.timeout must be positive")
	}
	if c.Market.Timeout <= 0 {
		return errors.New("market.timeout must be positive")
	}
	switch strings.ToLower(c.Market.Provider) {
	case collector.ProviderOKX, collector.ProviderBybit, collector.ProviderMock:
	case collector.ProviderREST:
		if c.Market.BaseURL == "" {
			return errors.New("market.base_url is required for the rest provider")
		}
	default:
		return errors.Errorf("unknown market.provider %q", c.Market.Provider)
	}
	if _, _, err := collector.ParseSymbol(c.Market.Symbol); err != nil {
		return errors.Wrap(err, "market.symbol")
	}
	if _, err := collector.ParseTimeframe(c.Market.Timeframe); err != nil {
		return errors.Wrap(err, "market.timeframe")
	}

	ind := c.IndicatorParams()
	if err := ind.Validate(); err != nil {
		return errors.Wrap(err, "strategy")
	}
	if c.Market.Limit < ind.MinBars() {
		return errors.Errorf("market.limit %d is below the %d candles the indicators need", c.Market.Limit, ind.MinBars())
	}
	if c.Strategy.VolumeSurgeFactor <= 0 {
		return errors.New("strategy.volume_surge_factor must be positive")
	}
	if err := c.SizerParams().Validate(); err != nil {
		return errors.Wrap(err, "risk")
	}
	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return errors.New("schedule.cron is required in schedule mode")
	}
	return nil
}

// Redacted returns a copy with secrets masked.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Telegram.BotToken = mask(cp.Telegram.BotToken)
	cp.Market.APIKey = mask(cp.Market.APIKey)
	return &cp
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	return string(out), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
