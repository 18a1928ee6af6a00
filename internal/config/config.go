package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API        APIConfig        `yaml:"api" mapstructure:"api"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Dashboard  DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard"`
	Analytics  AnalyticsConfig  `yaml:"analytics" mapstructure:"analytics"`
	Predict    PredictConfig    `yaml:"predict" mapstructure:"predict"`
	Sample     SampleConfig     `yaml:"sample" mapstructure:"sample"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Locale     string           `yaml:"locale" mapstructure:"locale"`
}

// APIConfig configures the plant service client.
type APIConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	Token            string  `yaml:"token" mapstructure:"token"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	BreakerFailures  int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// StoreConfig selects where production data comes from. Driver "api" reads
// through the plant service; "sqlite" and "postgres" use a local database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DashboardConfig configures the main dashboard view.
type DashboardConfig struct {
	TrendDays int `yaml:"trend_days" mapstructure:"trend_days"`
}

// AnalyticsConfig configures the analytics view.
type AnalyticsConfig struct {
	DefaultDays int `yaml:"default_days" mapstructure:"default_days"`
}

// PredictConfig configures the prediction workflow.
type PredictConfig struct {
	DefaultDaysAhead int `yaml:"default_days_ahead" mapstructure:"default_days_ahead"`
}

// SampleConfig configures local sample data and KPI computation.
type SampleConfig struct {
	Days               int     `yaml:"days" mapstructure:"days"`
	PlannedHours       float64 `yaml:"planned_hours" mapstructure:"planned_hours"`
	AlertDowntimeHours float64 `yaml:"alert_downtime_hours" mapstructure:"alert_downtime_hours"`
	KPIWindowDays      int     `yaml:"kpi_window_days" mapstructure:"kpi_window_days"`
}

// MonitoringConfig configures fleet health checks and alert delivery.
type MonitoringConfig struct {
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	LookbackDays       int     `yaml:"lookback_days" mapstructure:"lookback_days"`
	CheckIntervalSecs  int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	Concurrency        int     `yaml:"concurrency" mapstructure:"concurrency"`
	AlertDowntimeHours float64 `yaml:"alert_downtime_hours" mapstructure:"alert_downtime_hours"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "http://localhost:8001")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_per_sec", 20.0)
	v.SetDefault("api.burst", 20)
	v.SetDefault("api.retry_attempts", 3)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_reset_secs", 30)
	v.SetDefault("store.driver", "api")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("dashboard.trend_days", 14)
	v.SetDefault("analytics.default_days", 30)
	v.SetDefault("predict.default_days_ahead", 7)
	v.SetDefault("sample.days", 30)
	v.SetDefault("sample.planned_hours", 24.0)
	v.SetDefault("sample.alert_downtime_hours", 8.0)
	v.SetDefault("sample.kpi_window_days", 7)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.lookback_days", 7)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.concurrency", 4)
	v.SetDefault("monitoring.alert_downtime_hours", 8.0)
	v.SetDefault("locale", "en")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// LocalStore reports whether production data is read from a local database.
func (c *Config) LocalStore() bool {
	return c.Store.Driver == "sqlite" || c.Store.Driver == "postgres"
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
