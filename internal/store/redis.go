package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const (
	marketPricesKey        = "ds:market_prices:v2"
	defaultMarketPricesTTL = 5 * time.Minute
)

// MarketPriceReader performs the bulk read of market price aggregates.
type MarketPriceReader interface {
	ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error)
}

// ConnectRedis builds a client from a redis:// URL or a bare host:port.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// RedisMarketPrices is a read-through cache in front of the market price
// bulk read, shared by every replica. Redis failures fall through to the
// underlying reader.
type RedisMarketPrices struct {
	client *redis.Client
	next   MarketPriceReader
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// marketPricesEntry is the shared copy. ReadAt is when the rows were read
// from the database, not when this replica fetched them from Redis.
type marketPricesEntry struct {
	ReadAt  time.Time                  `json:"read_at"`
	Records []domain.MarketPriceRecord `json:"records"`
}

// RedisOption configures a RedisMarketPrices.
type RedisOption func(*RedisMarketPrices)

// WithRedisTTL sets how long the shared copy lives in Redis.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(r *RedisMarketPrices) {
		r.ttl = d
	}
}

// WithRedisLogger sets a custom logger.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *RedisMarketPrices) {
		r.log = l
	}
}

// WithRedisClock overrides the time source used to stamp new entries.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *RedisMarketPrices) {
		r.now = now
	}
}

// NewRedisMarketPrices wraps next with a Redis read-through cache.
func NewRedisMarketPrices(
	client *redis.Client,
	next MarketPriceReader,
	opts ...RedisOption,
) *RedisMarketPrices {
	r := &RedisMarketPrices{
		client: client,
		next:   next,
		ttl:    defaultMarketPricesTTL,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListMarketPrices returns the shared copy if present, otherwise reads
// through to the underlying reader and stores the result.
func (r *RedisMarketPrices) ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error) {
	records, _, err := r.ListMarketPricesReadAt(ctx)
	return records, err
}

// ListMarketPricesReadAt is ListMarketPrices plus the time the rows were
// read from the database. A shared copy is older than the call by up to the
// Redis TTL.
func (r *RedisMarketPrices) ListMarketPricesReadAt(
	ctx context.Context,
) ([]domain.MarketPriceRecord, time.Time, error) {
	raw, err := r.client.Get(ctx, marketPricesKey).Bytes()
	switch {
	case err == nil:
		if entry, ok := decodeMarketPrices(raw); ok {
			return entry.Records, entry.ReadAt, nil
		}
		r.log.Warn("discarding corrupt market price cache entry")
	case errors.Is(err, redis.Nil):
	default:
		r.log.Warn("redis market price read failed", "error", err)
	}

	readAt := r.now()
	records, err := r.next.ListMarketPrices(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	payload, err := json.Marshal(marketPricesEntry{ReadAt: readAt, Records: records})
	if err != nil {
		return records, readAt, nil
	}
	if err := r.client.Set(ctx, marketPricesKey, payload, r.ttl).Err(); err != nil {
		r.log.Warn("redis market price write failed", "error", err)
	}

	return records, readAt, nil
}

func decodeMarketPrices(raw []byte) (marketPricesEntry, bool) {
	var entry marketPricesEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.ReadAt.IsZero() {
		return marketPricesEntry{}, false
	}
	return entry, true
}

// Invalidate drops the shared copy so the next read goes to the database.
func (r *RedisMarketPrices) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, marketPricesKey).Err(); err != nil {
		return fmt.Errorf("deleting market price cache entry: %w", err)
	}
	return nil
}
