package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/donaldgifford/deal-scorer/internal/config"
	"github.com/donaldgifford/deal-scorer/internal/engine"
	"github.com/donaldgifford/deal-scorer/internal/notify"
	"github.com/donaldgifford/deal-scorer/internal/pricecache"
	"github.com/donaldgifford/deal-scorer/internal/store"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

// components holds the wired dependencies shared by serve and rescore.
type components struct {
	store    *store.PostgresStore
	redis    *redis.Client
	shared   *store.RedisMarketPrices
	prices   *pricecache.Cache
	scorer   *score.Scorer
	notifier notify.Notifier
	engine   *engine.Engine
	closers  []func() error
}

func buildComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*components, error) {
	pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), int32(cfg.Database.PoolSize)) //nolint:gosec // validated pool size
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	c := &components{store: pg}
	c.closers = append(c.closers, func() error { pg.Close(); return nil })

	var loader pricecache.Loader = pg
	if cfg.Redis.Enabled {
		rc, err := store.ConnectRedis(cfg.Redis.URL)
		if err != nil {
			c.close(log)
			return nil, err
		}
		c.redis = rc
		c.closers = append(c.closers, rc.Close)
		c.shared = store.NewRedisMarketPrices(rc, pg,
			store.WithRedisTTL(cfg.Redis.TTL),
			store.WithRedisLogger(log.With("component", "redis")),
		)
		loader = c.shared
	}

	c.prices = pricecache.New(loader,
		pricecache.WithTTL(cfg.Scoring.CacheTTL),
		pricecache.WithReloadTimeout(cfg.Scoring.ReloadTimeout),
		pricecache.WithRetryAfter(cfg.Scoring.ReloadRetryAfter),
		pricecache.WithLogger(log.With("component", "pricecache")),
	)
	c.scorer = score.New(c.prices)

	n, closeNotifier, err := buildNotifier(&cfg.Notifications, log)
	if err != nil {
		c.close(log)
		return nil, err
	}
	c.notifier = n
	c.closers = append(c.closers, closeNotifier)

	c.engine = engine.NewEngine(pg, c.scorer, c.prices, n,
		engine.WithLogger(log.With("component", "engine")),
		engine.WithWorkers(cfg.Scoring.Workers),
		engine.WithBatchSize(cfg.Scoring.BatchSize),
		engine.WithWarmRetries(cfg.Scoring.ReloadRetries),
		engine.WithWritesPerSecond(cfg.Scoring.WritesPerSecond),
	)

	return c, nil
}

// close releases resources in reverse order of acquisition.
func (c *components) close(log *slog.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			log.Warn("closing component", "error", err)
		}
	}
}

// buildNotifier fans scored listings out to every enabled backend. With no
// backend enabled a logging no-op is returned.
func buildNotifier(cfg *config.NotificationsConfig, log *slog.Logger) (notify.Notifier, func() error, error) {
	var (
		notifiers []notify.Notifier
		closeFn   = func() error { return nil }
	)

	if cfg.Discord.Enabled {
		grade, err := score.ParseGrade(cfg.Discord.MinGrade)
		if err != nil {
			return nil, nil, fmt.Errorf("discord min grade: %w", err)
		}
		notifiers = append(notifiers, notify.NewDiscordNotifier(cfg.Discord.WebhookURL,
			notify.WithMinGrade(grade),
			notify.WithHTTPClient(webhookClient()),
		))
	}

	if cfg.Kafka.Enabled {
		p, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		notifiers = append(notifiers, p)
		closeFn = p.Close
	}

	switch len(notifiers) {
	case 0:
		return notify.NewNoOpNotifier(log.With("component", "notify")), closeFn, nil
	case 1:
		return notifiers[0], closeFn, nil
	default:
		return notify.NewMultiNotifier(notifiers...), closeFn, nil
	}
}

// webhookClient traces outbound webhook calls so a slow Discord post shows
// up under the rescore or ingest span that triggered it.
func webhookClient() *http.Client {
	return &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
