package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDB = `
database:
  host: localhost
  name: testdb
  user: testuser
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: minimalDB,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "testdb", cfg.Database.Name)
				assert.Equal(t, "testuser", cfg.Database.User)
				assert.False(t, cfg.Redis.Enabled)
				assert.False(t, cfg.Notifications.Discord.Enabled)
				assert.False(t, cfg.Tracing.Enabled)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: minimalDB,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, 10, cfg.Database.PoolSize)
				assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
				assert.Equal(t, 30*time.Minute, cfg.Scoring.CacheTTL)
				assert.Equal(t, 10*time.Second, cfg.Scoring.ReloadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Scoring.ReloadRetryAfter)
				assert.Equal(t, 3, cfg.Scoring.ReloadRetries)
				assert.Equal(t, 8, cfg.Scoring.Workers)
				assert.Equal(t, 200, cfg.Scoring.BatchSize)
				assert.InDelta(t, 50.0, cfg.Scoring.WritesPerSecond, 0.001)
				assert.Equal(t, 15*time.Minute, cfg.Schedule.RescoreInterval)
				assert.Equal(t, 6*time.Hour, cfg.Schedule.FullRescoreInterval)
				assert.Equal(t, "great", cfg.Notifications.Discord.MinGrade)
				assert.Equal(t, "deals.scored", cfg.Notifications.Kafka.Topic)
				assert.Equal(t, "localhost:4317", cfg.Tracing.Endpoint)
				assert.Equal(t, "deal-scorer", cfg.Tracing.ServiceName)
				assert.InDelta(t, 1.0, cfg.Tracing.SampleRatio, 0.001)
				assert.False(t, cfg.Tracing.Metrics)
				assert.Equal(t, time.Minute, cfg.Tracing.MetricInterval)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: minimalDB + `
  password: ${DS_TEST_DB_PASSWORD}
notifications:
  discord:
    enabled: true
    webhook_url: ${DS_TEST_WEBHOOK}
`,
			envVars: map[string]string{
				"DS_TEST_DB_PASSWORD": "hunter2",
				"DS_TEST_WEBHOOK":     "https://discord.com/api/webhooks/1/abc",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "hunter2", cfg.Database.Password)
				assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notifications.Discord.WebhookURL)
			},
		},
		{
			name: "missing required database.host",
			yaml: `
database:
  name: testdb
  user: testuser
`,
			wantErr: "database.host is required",
		},
		{
			name: "missing required database.name",
			yaml: `
database:
  host: localhost
  user: testuser
`,
			wantErr: "database.name is required",
		},
		{
			name: "missing required database.user",
			yaml: `
database:
  host: localhost
  name: testdb
`,
			wantErr: "database.user is required",
		},
		{
			name: "redis enabled without url",
			yaml: minimalDB + `
redis:
  enabled: true
`,
			wantErr: "redis.url is required",
		},
		{
			name: "redis ttl longer than cache ttl",
			yaml: minimalDB + `
redis:
  enabled: true
  url: localhost:6379
  ttl: 45m
`,
			wantErr: "redis.ttl (45m0s) must not exceed scoring.cache_ttl (30m0s)",
		},
		{
			name: "discord enabled without webhook",
			yaml: minimalDB + `
notifications:
  discord:
    enabled: true
`,
			wantErr: "webhook_url is required",
		},
		{
			name: "discord min grade must be known",
			yaml: minimalDB + `
notifications:
  discord:
    enabled: true
    webhook_url: https://discord.com/api/webhooks/1/abc
    min_grade: stellar
`,
			wantErr: "notifications.discord.min_grade",
		},
		{
			name: "kafka enabled without brokers",
			yaml: minimalDB + `
notifications:
  kafka:
    enabled: true
`,
			wantErr: "kafka.brokers is required",
		},
		{
			name: "negative workers rejected",
			yaml: minimalDB + `
scoring:
  workers: -1
`,
			wantErr: "scoring.workers must be positive",
		},
		{
			name: "sample ratio out of range",
			yaml: minimalDB + `
tracing:
  sample_ratio: 1.5
`,
			wantErr: "tracing.sample_ratio must be between 0 and 1",
		},
		{
			name: "invalid logging level",
			yaml: minimalDB + `
logging:
  level: verbose
`,
			wantErr: "logging.level must be one of",
		},
		{
			name: "multiple errors are joined",
			yaml: `
database:
  host: localhost
logging:
  format: xml
`,
			wantErr: "database.name is required\ndatabase.user is required",
		},
		{
			name:    "invalid YAML",
			yaml:    "database: [unclosed",
			wantErr: "parsing config YAML",
		},
		{
			name: "negative full rescore interval is kept",
			yaml: minimalDB + `
schedule:
  full_rescore_interval: -1s
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, -time.Second, cfg.Schedule.FullRescoreInterval)
				assert.Equal(t, 15*time.Minute, cfg.Schedule.RescoreInterval)
			},
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 10s
  write_timeout: 2m
  shutdown_timeout: 20s
database:
  host: db.example.com
  port: 5433
  name: deals_prod
  user: scorer
  password: secret
  sslmode: require
  pool_size: 25
redis:
  enabled: true
  url: redis://cache:6379/2
  ttl: 1m
scoring:
  cache_ttl: 10m
  reload_timeout: 5s
  reload_retry_after: 1m
  reload_retries: 5
  workers: 16
  batch_size: 500
  writes_per_second: 120
schedule:
  disabled: true
  rescore_interval: 5m
  full_rescore_interval: 24h
notifications:
  discord:
    enabled: true
    webhook_url: https://discord.com/api/webhooks/1/abc
    min_grade: insane
  kafka:
    enabled: true
    brokers: [kafka-1:9092, kafka-2:9092]
    topic: deals.v2
tracing:
  enabled: true
  endpoint: otel-collector:4317
  insecure: true
  service_name: deal-scorer-prod
  sample_ratio: 0.25
  metrics: true
  metric_interval: 15s
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
				assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, 25, cfg.Database.PoolSize)
				assert.True(t, cfg.Redis.Enabled)
				assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
				assert.Equal(t, time.Minute, cfg.Redis.TTL)
				assert.Equal(t, 10*time.Minute, cfg.Scoring.CacheTTL)
				assert.Equal(t, 5, cfg.Scoring.ReloadRetries)
				assert.Equal(t, 16, cfg.Scoring.Workers)
				assert.Equal(t, 500, cfg.Scoring.BatchSize)
				assert.InDelta(t, 120.0, cfg.Scoring.WritesPerSecond, 0.001)
				assert.True(t, cfg.Schedule.Disabled)
				assert.Equal(t, 5*time.Minute, cfg.Schedule.RescoreInterval)
				assert.Equal(t, 24*time.Hour, cfg.Schedule.FullRescoreInterval)
				assert.Equal(t, "insane", cfg.Notifications.Discord.MinGrade)
				assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notifications.Kafka.Brokers)
				assert.Equal(t, "deals.v2", cfg.Notifications.Kafka.Topic)
				assert.True(t, cfg.Tracing.Insecure)
				assert.Equal(t, "deal-scorer-prod", cfg.Tracing.ServiceName)
				assert.InDelta(t, 0.25, cfg.Tracing.SampleRatio, 0.001)
				assert.True(t, cfg.Tracing.Metrics)
				assert.Equal(t, 15*time.Second, cfg.Tracing.MetricInterval)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "basic DSN",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Name:     "testdb",
				User:     "testuser",
				Password: "testpass",
				SSLMode:  "disable",
			},
			want: "host=localhost port=5432 dbname=testdb user=testuser password=testpass sslmode=disable",
		},
		{
			name: "production DSN",
			cfg: DatabaseConfig{
				Host:     "db.example.com",
				Port:     5433,
				Name:     "deals",
				User:     "admin",
				Password: "s3cret",
				SSLMode:  "require",
			},
			want: "host=db.example.com port=5433 dbname=deals user=admin password=s3cret sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
