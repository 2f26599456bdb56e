package store

// SQL query constants organized by entity.
// All SQL lives here. PostgresStore methods reference these constants.

// Listing queries.
const (
	queryUpsertListing = `
		INSERT INTO listings (
			external_id, url, title, source, brand, model,
			condition, currency, price, description,
			seller, seller_name, seller_type, seller_rating,
			posted_at, created_at, scraped_at,
			first_seen_at, updated_at
		) VALUES (
			@external_id, @url, @title, @source, @brand, @model,
			@condition, @currency, @price, @description,
			@seller, @seller_name, @seller_type, @seller_rating,
			@posted_at, @created_at, @scraped_at,
			now(), now()
		)
		ON CONFLICT (source, external_id) DO UPDATE SET
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			condition = EXCLUDED.condition,
			currency = EXCLUDED.currency,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			seller = EXCLUDED.seller,
			seller_name = EXCLUDED.seller_name,
			seller_type = EXCLUDED.seller_type,
			seller_rating = EXCLUDED.seller_rating,
			posted_at = EXCLUDED.posted_at,
			created_at = EXCLUDED.created_at,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = now()
		RETURNING id, first_seen_at, updated_at`

	queryGetListing = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id = $1`

	queryListListingsAfter = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE id > $1::uuid
		ORDER BY id
		LIMIT $2`

	queryListUnscoredListings = `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE score IS NULL
		ORDER BY first_seen_at DESC
		LIMIT $1`

	queryUpdateScore = `
		UPDATE listings SET
			score = $2,
			grade = $3,
			score_breakdown = $4,
			scored_at = now(),
			updated_at = now()
		WHERE id = $1`

	queryCountListings = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE score IS NULL) AS unscored
		FROM listings`
)

// Market price queries.
const (
	queryListMarketPrices = `
		SELECT brand, model, avg_price, min_price, max_price, sample_count
		FROM market_prices
		WHERE avg_price > 0
		ORDER BY brand, model`

	queryUpsertMarketPrice = `
		INSERT INTO market_prices (brand, model, avg_price, min_price, max_price, sample_count, updated_at)
		VALUES (lower($1), lower($2), $3, $4, $5, $6, now())
		ON CONFLICT (brand, model) DO UPDATE SET
			avg_price    = EXCLUDED.avg_price,
			min_price    = EXCLUDED.min_price,
			max_price    = EXCLUDED.max_price,
			sample_count = EXCLUDED.sample_count,
			updated_at   = now()`
)

// Scheduler queries.
const (
	queryInsertJobRun = `
		INSERT INTO job_runs (job_name)
		VALUES ($1)
		RETURNING id`

	queryCompleteJobRun = `
		UPDATE job_runs SET
			completed_at  = now(),
			status        = $2,
			error_text    = $3,
			rows_affected = $4
		WHERE id = $1`

	queryListJobRuns = `
		SELECT id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		WHERE job_name = $1
		ORDER BY started_at DESC
		LIMIT $2`

	queryListLatestJobRuns = `
		SELECT DISTINCT ON (job_name)
			id, job_name, started_at, completed_at, status,
			COALESCE(error_text, ''), rows_affected
		FROM job_runs
		ORDER BY job_name, started_at DESC`

	queryMarkStaleJobRunsCrashed = `
		UPDATE job_runs SET
			status       = 'crashed',
			completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	queryDeleteOldJobRuns = `
		DELETE FROM job_runs WHERE started_at < now() - interval '30 days'`

	queryAcquireSchedulerLock = `
		INSERT INTO scheduler_locks (job_name, lock_holder, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE
			SET locked_at   = now(),
				lock_holder = EXCLUDED.lock_holder,
				expires_at  = EXCLUDED.expires_at
			WHERE scheduler_locks.expires_at < now()
		RETURNING job_name`

	queryReleaseSchedulerLock = `
		DELETE FROM scheduler_locks WHERE job_name = $1 AND lock_holder = $2`
)
