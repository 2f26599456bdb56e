package score

import (
	"regexp"
	"strconv"
	"strings"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

var transactionRe = regexp.MustCompile(`(\d[\d,]*)\s*\+?\s*transactions?`)

// maxTransactionCount returns the largest "<N>+ transactions" count in text.
func maxTransactionCount(text string) (int, bool) {
	best, found := 0, false
	for _, m := range transactionRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if !found || n > best {
			best, found = n, true
		}
	}
	return best, found
}

// sellerReputation scores platform trust, transaction history, seller type,
// rating and negative keywords.
func sellerReputation(l *domain.Listing) Category {
	c := Category{Max: MaxSellerReputation, Details: map[string]any{}}

	text := joinText(
		l.Title,
		deref(l.Description),
		deref(l.Seller),
		deref(l.SellerName),
		deref(l.SellerType),
	)

	source := strings.ToLower(strings.TrimSpace(l.Source))
	platform, ok := platformBaseline[source]
	if !ok {
		platform = defaultPlatformBaseline
	}
	total := platform
	c.Details["platform"] = source
	c.Details["platform_points"] = platform

	if n, ok := maxTransactionCount(text); ok {
		pts := tierPoints(transactionTiers, float64(n))
		total += pts
		c.Details["transactions"] = n
		c.Details["transaction_points"] = pts
	}

	for _, t := range sellerTypeTiers {
		if kw, ok := t.keywords.find(text); ok {
			total += t.points
			c.Details["seller_type"] = t.label
			c.Details["seller_type_keyword"] = kw
			c.Details["seller_type_points"] = t.points
			break
		}
	}

	if l.SellerRating != nil {
		pts := tierPoints(ratingTiers, *l.SellerRating)
		total += pts
		c.Details["rating"] = *l.SellerRating
		c.Details["rating_points"] = pts
	}

	var penalties []string
	for _, n := range negativeSignals {
		if _, ok := n.keywords.find(text); ok {
			total += n.points
			penalties = append(penalties, n.label)
		}
	}
	if len(penalties) > 0 {
		c.Details["penalties"] = penalties
	}

	c.Points = round1(clamp(total, 0, MaxSellerReputation))
	return c
}
