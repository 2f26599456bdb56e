// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Scoring       ScoringConfig       `yaml:"scoring"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// RedisConfig defines the shared market price cache. When disabled every
// replica reads market prices from Postgres directly.
type RedisConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"` // redis://... or host:port
	TTL     time.Duration `yaml:"ttl"`
}

// ScoringConfig defines market price caching and batch rescoring settings.
type ScoringConfig struct {
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	ReloadTimeout    time.Duration `yaml:"reload_timeout"`
	ReloadRetryAfter time.Duration `yaml:"reload_retry_after"`
	ReloadRetries    int           `yaml:"reload_retries"`
	Workers          int           `yaml:"workers"`
	BatchSize        int           `yaml:"batch_size"`
	WritesPerSecond  float64       `yaml:"writes_per_second"` // 0 means unlimited
}

// ScheduleConfig defines rescoring intervals. A negative
// full_rescore_interval disables the periodic full rescore.
type ScheduleConfig struct {
	Disabled            bool          `yaml:"disabled"`
	RescoreInterval     time.Duration `yaml:"rescore_interval"`
	FullRescoreInterval time.Duration `yaml:"full_rescore_interval"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	MinGrade   string `yaml:"min_grade"`
}

// KafkaConfig defines the listing.scored event stream.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// TracingConfig defines the OTLP trace and metric exporters. Both share the
// collector endpoint; metrics are pushed only when Metrics is set.
type TracingConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"service_name"`
	SampleRatio    float64       `yaml:"sample_ratio"`
	Metrics        bool          `yaml:"metrics"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyRedisDefaults(&cfg.Redis)
	applyScoringDefaults(&cfg.Scoring)
	applyScheduleDefaults(&cfg.Schedule)
	applyNotificationDefaults(&cfg.Notifications)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		// Synchronous full rescores can take a while.
		s.WriteTimeout = 5 * time.Minute
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyRedisDefaults(r *RedisConfig) {
	if r.TTL == 0 {
		r.TTL = 5 * time.Minute
	}
}

func applyScoringDefaults(s *ScoringConfig) {
	if s.CacheTTL == 0 {
		s.CacheTTL = 30 * time.Minute
	}
	if s.ReloadTimeout == 0 {
		s.ReloadTimeout = 10 * time.Second
	}
	if s.ReloadRetryAfter == 0 {
		s.ReloadRetryAfter = 30 * time.Second
	}
	if s.ReloadRetries == 0 {
		s.ReloadRetries = 3
	}
	if s.Workers == 0 {
		s.Workers = 8
	}
	if s.BatchSize == 0 {
		s.BatchSize = 200
	}
	if s.WritesPerSecond == 0 {
		s.WritesPerSecond = 50
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.RescoreInterval == 0 {
		s.RescoreInterval = 15 * time.Minute
	}
	if s.FullRescoreInterval == 0 {
		s.FullRescoreInterval = 6 * time.Hour
	}
}

func applyNotificationDefaults(n *NotificationsConfig) {
	if n.Discord.MinGrade == "" {
		n.Discord.MinGrade = string(score.GradeGreat)
	}
	if n.Kafka.Topic == "" {
		n.Kafka.Topic = "deals.scored"
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "deal-scorer"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1.0
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = time.Minute
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("redis.url is required when redis is enabled"))
	}
	// A shared copy older than the local TTL would make every snapshot
	// stale on arrival.
	if cfg.Redis.Enabled && cfg.Redis.TTL > cfg.Scoring.CacheTTL {
		errs = append(errs, fmt.Errorf(
			"redis.ttl (%s) must not exceed scoring.cache_ttl (%s)", cfg.Redis.TTL, cfg.Scoring.CacheTTL,
		))
	}

	errs = append(errs, validateScoring(&cfg.Scoring)...)
	errs = append(errs, validateNotifications(&cfg.Notifications)...)

	if cfg.Schedule.RescoreInterval < 0 {
		errs = append(errs, fmt.Errorf("schedule.rescore_interval must be positive"))
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf(
			"tracing.sample_ratio must be between 0 and 1 (got %v)", cfg.Tracing.SampleRatio,
		))
	}
	if cfg.Tracing.MetricInterval < 0 {
		errs = append(errs, fmt.Errorf("tracing.metric_interval must be positive"))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level,
		))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)", cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}

func validateScoring(s *ScoringConfig) []error {
	var errs []error
	if s.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("scoring.cache_ttl must be positive"))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("scoring.workers must be positive"))
	}
	if s.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("scoring.batch_size must be positive"))
	}
	if s.WritesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("scoring.writes_per_second must not be negative"))
	}
	return errs
}

func validateNotifications(n *NotificationsConfig) []error {
	var errs []error

	if n.Discord.Enabled {
		if n.Discord.WebhookURL == "" {
			errs = append(errs, fmt.Errorf(
				"notifications.discord.webhook_url is required when discord is enabled",
			))
		}
		if _, err := score.ParseGrade(n.Discord.MinGrade); err != nil {
			errs = append(errs, fmt.Errorf("notifications.discord.min_grade: %w", err))
		}
	}

	if n.Kafka.Enabled && len(n.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf(
			"notifications.kafka.brokers is required when kafka is enabled",
		))
	}

	return errs
}
