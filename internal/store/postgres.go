package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const defaultPoolSize = 10

// zeroUUID sorts before every generated listing ID and starts a cursor scan.
const zeroUUID = "00000000-0000-0000-0000-000000000000"

// PostgresStore implements Store using pgxpool (connection-pooled PostgreSQL).
//
// PostgresStore methods require live Postgres and are covered by the
// integration tests.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// UpsertListing inserts or updates a listing by (source, external_id) and
// fills in ID, FirstSeenAt and UpdatedAt. Score fields are left untouched.
func (s *PostgresStore) UpsertListing(ctx context.Context, l *domain.Listing) error {
	args := pgx.NamedArgs{
		"external_id":   l.ExternalID,
		"url":           l.URL,
		"title":         l.Title,
		"source":        l.Source,
		"brand":         l.Brand,
		"model":         l.Model,
		"condition":     l.Condition,
		"currency":      l.Currency,
		"price":         l.Price,
		"description":   l.Description,
		"seller":        l.Seller,
		"seller_name":   l.SellerName,
		"seller_type":   l.SellerType,
		"seller_rating": l.SellerRating,
		"posted_at":     l.Timestamp,
		"created_at":    l.CreatedAt,
		"scraped_at":    l.ScrapedAt,
	}

	if err := s.pool.QueryRow(ctx, queryUpsertListing, args).Scan(
		&l.ID, &l.FirstSeenAt, &l.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upserting listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by its internal UUID.
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	l := &domain.Listing{}
	err := scanListing(s.pool.QueryRow(ctx, queryGetListing, id), l)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}
	return l, nil
}

// ListListings queries listings with optional filters, returning results and total count.
func (s *PostgresStore) ListListings(
	ctx context.Context,
	opts *ListingQuery,
) ([]domain.Listing, int, error) {
	dataSQL, countSQL, args := opts.ToSQL()

	// Get total count.
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting listings: %w", err)
	}

	listings, err := s.queryListings(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// ListListingsAfter returns up to limit listings with an ID greater than
// afterID, in ID order. An empty afterID starts from the beginning.
func (s *PostgresStore) ListListingsAfter(
	ctx context.Context,
	afterID string,
	limit int,
) ([]domain.Listing, error) {
	if afterID == "" {
		afterID = zeroUUID
	}
	return s.queryListings(ctx, queryListListingsAfter, afterID, limit)
}

// ListUnscoredListings returns listings that have never been scored.
func (s *PostgresStore) ListUnscoredListings(
	ctx context.Context,
	limit int,
) ([]domain.Listing, error) {
	return s.queryListings(ctx, queryListUnscoredListings, limit)
}

// UpdateScore stores the score, grade and breakdown for a listing.
func (s *PostgresStore) UpdateScore(
	ctx context.Context,
	id string,
	score int,
	grade string,
	breakdown json.RawMessage,
) error {
	tag, err := s.pool.Exec(ctx, queryUpdateScore, id, score, grade, breakdown)
	if err != nil {
		return fmt.Errorf("updating score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	return nil
}

// CountListings returns the total and unscored listing counts.
func (s *PostgresStore) CountListings(ctx context.Context) (int, int, error) {
	var total, unscored int
	if err := s.pool.QueryRow(ctx, queryCountListings).Scan(&total, &unscored); err != nil {
		return 0, 0, fmt.Errorf("counting listings: %w", err)
	}
	return total, unscored, nil
}

// ListMarketPrices performs the single bulk read of all usable market price
// aggregates.
func (s *PostgresStore) ListMarketPrices(ctx context.Context) ([]domain.MarketPriceRecord, error) {
	rows, err := s.pool.Query(ctx, queryListMarketPrices)
	if err != nil {
		return nil, fmt.Errorf("querying market prices: %w", err)
	}
	defer rows.Close()

	var records []domain.MarketPriceRecord
	for rows.Next() {
		var r domain.MarketPriceRecord
		if err := rows.Scan(
			&r.Brand, &r.Model, &r.AvgPrice, &r.MinPrice, &r.MaxPrice, &r.SampleCount,
		); err != nil {
			return nil, fmt.Errorf("scanning market price: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating market prices: %w", err)
	}

	return records, nil
}

// UpsertMarketPrices writes records in one transaction.
func (s *PostgresStore) UpsertMarketPrices(
	ctx context.Context,
	records []domain.MarketPriceRecord,
) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(queryUpsertMarketPrice,
			r.Brand, r.Model, r.AvgPrice, r.MinPrice, r.MaxPrice, r.SampleCount,
		)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting market prices: %w", err)
		}
		return nil
	})
}

// InsertJobRun records the start of a scheduled job and returns its UUID.
func (s *PostgresStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	var id string
	if err := s.pool.QueryRow(ctx, queryInsertJobRun, jobName).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting job run: %w", err)
	}
	return id, nil
}

// CompleteJobRun marks a job run as finished with the given status and metadata.
func (s *PostgresStore) CompleteJobRun(
	ctx context.Context,
	id string,
	status string,
	errText string,
	rowsAffected int,
) error {
	_, err := s.pool.Exec(ctx, queryCompleteJobRun, id, status, errText, rowsAffected)
	if err != nil {
		return fmt.Errorf("completing job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs for a specific job, newest first.
func (s *PostgresStore) ListJobRuns(
	ctx context.Context,
	jobName string,
	limit int,
) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListJobRuns, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// ListLatestJobRuns returns the single most recent run for each distinct job name.
func (s *PostgresStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	rows, err := s.pool.Query(ctx, queryListLatestJobRuns)
	if err != nil {
		return nil, fmt.Errorf("querying latest job runs: %w", err)
	}
	defer rows.Close()

	return scanJobRuns(rows)
}

// RecoverStaleJobRuns marks any 'running' job rows older than olderThan as 'crashed',
// then deletes all rows older than 30 days. Returns the number of rows marked as crashed.
func (s *PostgresStore) RecoverStaleJobRuns(
	ctx context.Context,
	olderThan time.Duration,
) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	tag, err := s.pool.Exec(ctx, queryMarkStaleJobRunsCrashed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("marking stale job runs crashed: %w", err)
	}
	affected := int(tag.RowsAffected())

	if _, err := s.pool.Exec(ctx, queryDeleteOldJobRuns); err != nil {
		return affected, fmt.Errorf("deleting old job runs: %w", err)
	}

	return affected, nil
}

// AcquireSchedulerLock attempts to acquire a distributed lock for the given job.
// Returns true if the lock was acquired, false if another holder already owns it.
func (s *PostgresStore) AcquireSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
	ttl time.Duration,
) (bool, error) {
	expiresAt := time.Now().Add(ttl)

	var gotName string
	err := s.pool.QueryRow(ctx, queryAcquireSchedulerLock, jobName, holder, expiresAt).Scan(&gotName)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // lock held by another; conflict not replaced
	}
	if err != nil {
		return false, fmt.Errorf("acquiring scheduler lock: %w", err)
	}

	return true, nil
}

// ReleaseSchedulerLock deletes the lock row for the given job and holder.
func (s *PostgresStore) ReleaseSchedulerLock(
	ctx context.Context,
	jobName string,
	holder string,
) error {
	_, err := s.pool.Exec(ctx, queryReleaseSchedulerLock, jobName, holder)
	if err != nil {
		return fmt.Errorf("releasing scheduler lock: %w", err)
	}
	return nil
}

// scanJobRuns scans rows from a job_runs query into a slice.
func scanJobRuns(rows pgx.Rows) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	for rows.Next() {
		var r domain.JobRun
		if err := rows.Scan(
			&r.ID, &r.JobName, &r.StartedAt, &r.CompletedAt,
			&r.Status, &r.ErrorText, &r.RowsAffected,
		); err != nil {
			return nil, fmt.Errorf("scanning job run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// queryListings runs a listing SELECT and scans every row.
func (s *PostgresStore) queryListings(
	ctx context.Context,
	query string,
	args ...any,
) ([]domain.Listing, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, nil
}

// scannable abstracts pgx.Row and pgx.Rows for reuse.
type scannable interface {
	Scan(dest ...any) error
}

// scanListing scans the listingColumns projection into l.
func scanListing(row scannable, l *domain.Listing) error {
	return row.Scan(
		&l.ID, &l.ExternalID, &l.URL, &l.Title, &l.Source, &l.Brand, &l.Model,
		&l.Condition, &l.Currency, &l.Price, &l.Description,
		&l.Seller, &l.SellerName, &l.SellerType, &l.SellerRating,
		&l.Timestamp, &l.CreatedAt, &l.ScrapedAt,
		&l.Score, &l.Grade, &l.ScoreBreakdown, &l.ScoredAt,
		&l.FirstSeenAt, &l.UpdatedAt,
	)
}
