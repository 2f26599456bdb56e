package pricecache

import (
	"sort"
	"strings"
	"time"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// placeholderBrand is what ingestion writes when it could not detect a brand.
// It never serves as a brand-level fallback.
const placeholderBrand = "unknown"

// Snapshot is an immutable set of market price records. A reload builds a
// new Snapshot rather than mutating the current one.
type Snapshot struct {
	records  map[string]domain.MarketPriceRecord
	ordered  []domain.MarketPriceRecord // sorted by key, for deterministic scans
	loadedAt time.Time
}

// NewSnapshot builds a snapshot from raw rows. Rows without a usable average
// price are dropped; on duplicate keys the last row wins.
func NewSnapshot(rows []domain.MarketPriceRecord, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		records:  make(map[string]domain.MarketPriceRecord, len(rows)),
		loadedAt: loadedAt,
	}
	for _, r := range rows {
		if !r.Usable() {
			continue
		}
		r.Brand = normalize(r.Brand)
		r.Model = normalize(r.Model)
		s.records[r.Key()] = r
	}

	s.ordered = make([]domain.MarketPriceRecord, 0, len(s.records))
	for _, r := range s.records {
		s.ordered = append(s.ordered, r)
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].Key() < s.ordered[j].Key()
	})

	return s
}

// Len returns the number of usable records.
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

// LoadedAt returns when the snapshot was read from the reference store.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Records returns the records ordered by key.
func (s *Snapshot) Records() []domain.MarketPriceRecord {
	out := make([]domain.MarketPriceRecord, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Match resolves brand and model against the snapshot: exact key, then
// mutual-substring fuzzy match, then the best-sampled record of a matching
// brand.
func (s *Snapshot) Match(brand, model string) (domain.PriceMatch, bool) {
	b, m := normalize(brand), normalize(model)

	if r, ok := s.records[domain.MarketKey(b, m)]; ok {
		return domain.PriceMatch{Record: r, Level: domain.MatchExact}, true
	}

	// An empty string is a substring of everything, so the fuzzy steps need
	// something to compare.
	if b == "" {
		return domain.PriceMatch{}, false
	}

	if m != "" {
		for _, r := range s.ordered {
			if r.Brand == "" || r.Model == "" {
				continue
			}
			if overlaps(b, r.Brand) && overlaps(m, r.Model) {
				return domain.PriceMatch{Record: r, Level: domain.MatchFuzzy}, true
			}
		}
	}

	if b == placeholderBrand {
		return domain.PriceMatch{}, false
	}

	var (
		best  domain.MarketPriceRecord
		found bool
	)
	for _, r := range s.ordered {
		if r.Brand == "" || r.Brand == placeholderBrand || !overlaps(b, r.Brand) {
			continue
		}
		if !found || r.SampleCount > best.SampleCount {
			best, found = r, true
		}
	}
	if !found {
		return domain.PriceMatch{}, false
	}
	return domain.PriceMatch{Record: best, Level: domain.MatchBrand}, true
}

// overlaps reports whether either string contains the other.
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
