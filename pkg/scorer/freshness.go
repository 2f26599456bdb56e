package score

import (
	"time"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const neutralFreshnessRatio = 0.3

type ageStep struct {
	maxHours float64
	ratio    float64
}

// freshnessSteps is ordered youngest first. Anything older gets staleRatio.
var freshnessSteps = []ageStep{
	{maxHours: 6, ratio: 1.0},
	{maxHours: 24, ratio: 0.8},
	{maxHours: 72, ratio: 0.6},
	{maxHours: 168, ratio: 0.4},
	{maxHours: 336, ratio: 0.25},
	{maxHours: 672, ratio: 0.15},
}

const staleRatio = 0.05

func freshness(l *domain.Listing, now time.Time) Category {
	c := Category{Max: MaxFreshness, Details: map[string]any{}}

	listed, ok := l.ListedAt()
	if !ok {
		c.Points = scaled(MaxFreshness, neutralFreshnessRatio)
		c.Details["note"] = "no timestamp"
		return c
	}

	hours := now.Sub(listed).Hours()
	ratio := staleRatio
	for _, s := range freshnessSteps {
		if hours <= s.maxHours {
			ratio = s.ratio
			break
		}
	}

	c.Points = scaled(MaxFreshness, ratio)
	c.Details["hours_old"] = round1(hours)
	return c
}
