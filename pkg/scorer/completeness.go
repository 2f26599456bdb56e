package score

import (
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

func completeness(l *domain.Listing) Category {
	c := Category{Max: MaxCompleteness, Details: map[string]any{}}

	text := joinText(l.Title, l.Condition, deref(l.Description))

	items := []string{}
	total := 0.0
	for _, item := range completenessItems {
		if _, ok := item.keywords.find(text); ok {
			items = append(items, item.name)
			total += item.points
		}
	}
	c.Details["items"] = items

	if kw, ok := fullSetKeywords.find(text); ok {
		c.Points = MaxCompleteness
		c.Details["full_set"] = kw
		return c
	}

	c.Points = round1(min(total, MaxCompleteness))
	return c
}
