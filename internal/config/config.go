package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	SAM        SAMConfig        `yaml:"sam" mapstructure:"sam"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Alerts     AlertsConfig     `yaml:"alerts" mapstructure:"alerts"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SAMConfig holds SAM.gov opportunities API settings.
type SAMConfig struct {
	APIKey            string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	PageSize          int    `yaml:"page_size" mapstructure:"page_size"`
	LookbackDays      int    `yaml:"lookback_days" mapstructure:"lookback_days"`
	UserAgent         string `yaml:"user_agent" mapstructure:"user_agent"`
	FetchDescriptions bool   `yaml:"fetch_descriptions" mapstructure:"fetch_descriptions"`
	MaxPages          int    `yaml:"max_pages" mapstructure:"max_pages"`
}

// IngestConfig configures the ingestion coordinator.
type IngestConfig struct {
	NAICSCodes       []string `yaml:"naics_codes" mapstructure:"naics_codes"`
	MaxConcurrency   int      `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	FetchTimeoutSecs int      `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	FetchRetries     int      `yaml:"fetch_retries" mapstructure:"fetch_retries"`
}

// ScoringConfig configures batch match scoring.
type ScoringConfig struct {
	PageSize  int `yaml:"page_size" mapstructure:"page_size"`
	Workers   int `yaml:"workers" mapstructure:"workers"`
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// AlertsConfig configures the Redis channel alert matches are published to.
type AlertsConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	Channel  string `yaml:"channel" mapstructure:"channel"`
}

// ScheduleConfig configures the ingestion cron trigger.
type ScheduleConfig struct {
	IngestCron              string `yaml:"ingest_cron" mapstructure:"ingest_cron"`
	RunSourcesSoughtOnStart bool   `yaml:"run_sources_sought_on_start" mapstructure:"run_sources_sought_on_start"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures ingestion health alerting.
type MonitoringConfig struct {
	WebhookURL                string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	PartitionFailureThreshold float64 `yaml:"partition_failure_threshold" mapstructure:"partition_failure_threshold"`
	CheckIntervalSecs         int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours       int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	RepeatAlertMins           int     `yaml:"repeat_alert_mins" mapstructure:"repeat_alert_mins"`
}

// CheckInterval is the health check period. Defaults to five minutes.
func (m MonitoringConfig) CheckInterval() time.Duration {
	if m.CheckIntervalSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.CheckIntervalSecs) * time.Second
}

// LookbackHours is the run log window the checker summarises. Defaults to 48.
func (m MonitoringConfig) LookbackHours() int {
	if m.LookbackWindowHours <= 0 {
		return 48
	}
	return m.LookbackWindowHours
}

// RepeatAfter is how long an unchanged alert is held back before it is sent
// again. Defaults to one hour.
func (m MonitoringConfig) RepeatAfter() time.Duration {
	if m.RepeatAlertMins <= 0 {
		return time.Hour
	}
	return time.Duration(m.RepeatAlertMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GOVCON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("sam.base_url", "https://api.sam.gov/opportunities/v2/search")
	v.SetDefault("sam.page_size", 100)
	v.SetDefault("sam.lookback_days", 30)
	v.SetDefault("sam.max_pages", 50)
	v.SetDefault("sam.user_agent", "govcon-cli/1.0")
	v.SetDefault("ingest.naics_codes", []string{"541511", "541512", "541519", "541330", "541611", "518210"})
	v.SetDefault("ingest.max_concurrency", 8)
	v.SetDefault("ingest.fetch_timeout_secs", 60)
	v.SetDefault("ingest.fetch_retries", 3)
	v.SetDefault("scoring.page_size", 100)
	v.SetDefault("scoring.workers", 2)
	v.SetDefault("scoring.queue_size", 64)
	v.SetDefault("alerts.channel", "govcon:alert-matches")
	v.SetDefault("schedule.ingest_cron", "0 6 * * *")
	v.SetDefault("schedule.run_sources_sought_on_start", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.partition_failure_threshold", 0.5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 48)
	v.SetDefault("monitoring.repeat_alert_mins", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the settings a command depends on are present.
// mode is one of "ingest", "score", "alerts", "serve" or "schedule".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		errs = append(errs, "store.driver must be postgres or sqlite")
	}

	switch mode {
	case "ingest", "schedule":
		if c.SAM.APIKey == "" {
			errs = append(errs, "sam.api_key is required")
		}
		if c.Ingest.MaxConcurrency <= 0 {
			errs = append(errs, "ingest.max_concurrency must be > 0")
		}
		if mode == "schedule" && c.Schedule.IngestCron == "" {
			errs = append(errs, "schedule.ingest_cron is required")
		}
	case "score":
		if c.Scoring.PageSize <= 0 {
			errs = append(errs, "scoring.page_size must be > 0")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Scoring.Workers <= 0 {
			errs = append(errs, "scoring.workers must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
