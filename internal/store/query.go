package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByScore     = "score"
	orderByPrice     = "price"
	orderByFirstSeen = "first_seen_at"
	orderByScoredAt  = "scored_at"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByScore:     "score DESC NULLS LAST",
	orderByPrice:     "price ASC NULLS LAST",
	orderByFirstSeen: "first_seen_at DESC",
	orderByScoredAt:  "scored_at DESC NULLS LAST",
}

const defaultOrderBy = "first_seen_at DESC"

const listingColumns = `id, external_id, url, title, source, brand, model,
	condition, currency, price, description,
	seller, seller_name, seller_type, seller_rating,
	posted_at, created_at, scraped_at,
	score, grade, score_breakdown, scored_at,
	first_seen_at, updated_at`

const baseListingsSelect = "SELECT " + listingColumns + "\nFROM listings"

const countListingsSelect = "SELECT COUNT(*) FROM listings"

// ValidOrderBy reports whether s is an accepted OrderBy value.
func ValidOrderBy(s string) bool {
	_, ok := validOrderBy[s]
	return ok
}

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a listing query.
// It returns two SQL strings (one for the data query, one for the count query)
// and the positional parameters.
func (q *ListingQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.MinScore != nil {
		conditions = append(conditions, fmt.Sprintf("score >= $%d", paramIdx))
		args = append(args, *q.MinScore)
		paramIdx++
	}

	if q.MaxScore != nil {
		conditions = append(conditions, fmt.Sprintf("score <= $%d", paramIdx))
		args = append(args, *q.MaxScore)
		paramIdx++
	}

	if q.Grade != nil {
		conditions = append(conditions, fmt.Sprintf("grade = $%d", paramIdx))
		args = append(args, *q.Grade)
		paramIdx++
	}

	if q.Source != nil {
		conditions = append(conditions, fmt.Sprintf("lower(source) = lower($%d)", paramIdx))
		args = append(args, *q.Source)
		paramIdx++
	}

	if q.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("lower(brand) = lower($%d)", paramIdx))
		args = append(args, *q.Brand)
	}

	if q.Unscored {
		conditions = append(conditions, "score IS NULL")
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by
	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	// Limit
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseListingsSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countListingsSelect + whereClause

	return dataSQL, countSQL, args
}
