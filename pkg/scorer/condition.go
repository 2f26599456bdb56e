package score

import (
	"cmp"
	"slices"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

const (
	unknownCondition      = "Unknown"
	neutralConditionRatio = 0.4
)

// conditionSource is one text field scanned for condition keywords.
type conditionSource struct {
	name    string
	text    string
	isField bool
}

type tierMatch struct {
	tier    int
	source  string
	keyword string
}

// firstTier walks the tiers best to worst and returns the first one with a
// keyword in src.
func firstTier(src conditionSource) (tierMatch, bool) {
	for i, t := range conditionTiers {
		if kw, ok := t.keywords.find(src.text); ok {
			return tierMatch{tier: i, source: src.name, keyword: kw}, true
		}
		if !src.isField {
			continue
		}
		if kw, ok := t.fieldOnly.find(src.text); ok {
			return tierMatch{tier: i, source: src.name, keyword: kw}, true
		}
	}
	return tierMatch{}, false
}

// bestTier reduces per-source matches to the best tier. Ties keep the
// earliest source.
func bestTier(sources []conditionSource) (tierMatch, bool) {
	var matches []tierMatch
	for _, src := range sources {
		if m, ok := firstTier(src); ok {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return tierMatch{}, false
	}
	return slices.MinFunc(matches, func(a, b tierMatch) int {
		return cmp.Compare(a.tier, b.tier)
	}), true
}

func condition(l *domain.Listing) Category {
	c := Category{Max: MaxCondition, Details: map[string]any{}}

	m, ok := bestTier([]conditionSource{
		{name: "condition", text: l.Condition, isField: true},
		{name: "title", text: l.Title},
		{name: "description", text: deref(l.Description)},
	})
	if !ok {
		c.Points = scaled(MaxCondition, neutralConditionRatio)
		c.Details["detected"] = unknownCondition
		return c
	}

	tier := conditionTiers[m.tier]
	c.Points = scaled(MaxCondition, tier.score)
	c.Details["detected"] = tier.label
	c.Details["source"] = m.source
	c.Details["keyword"] = m.keyword
	return c
}
