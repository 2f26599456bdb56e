package score

import (
	"regexp"
	"strings"
)

// keywordSet matches whole-word, case-insensitive keywords in free text.
type keywordSet struct {
	words    []string
	patterns []*regexp.Regexp
}

func keywords(words ...string) keywordSet {
	k := keywordSet{
		words:    words,
		patterns: make([]*regexp.Regexp, len(words)),
	}
	for i, w := range words {
		k.patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return k
}

// find returns the first keyword (in declaration order) present in text.
func (k keywordSet) find(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for i, p := range k.patterns {
		if p.MatchString(text) {
			return k.words[i], true
		}
	}
	return "", false
}

// conditionTier is one rung of the condition ladder. fieldOnly keywords
// are too ambiguous for free text and only count in the condition field.
type conditionTier struct {
	label     string
	score     float64
	keywords  keywordSet
	fieldOnly keywordSet
}

// conditionTiers is ordered best to worst.
var conditionTiers = []conditionTier{
	{
		label: "BNIB",
		score: 1.0,
		keywords: keywords(
			"bnib", "brand new", "new in box", "new with tags",
			"unworn", "never worn", "new old stock",
		),
		fieldOnly: keywords("new"),
	},
	{
		label:    "Mint",
		score:    0.85,
		keywords: keywords("mint", "like new", "lnib"),
	},
	{
		label:    "Excellent",
		score:    0.70,
		keywords: keywords("excellent", "pristine", "immaculate"),
	},
	{
		label:    "Very Good",
		score:    0.55,
		keywords: keywords("very good", "vgc"),
	},
	{
		label:    "Good",
		score:    0.40,
		keywords: keywords("good"),
	},
	{
		label:    "Fair",
		score:    0.25,
		keywords: keywords("fair", "well worn", "heavily worn", "heavy wear"),
	},
	{
		label:    "Poor",
		score:    0.10,
		keywords: keywords("poor", "for parts", "not working", "broken", "needs repair", "damaged"),
	},
}

// completenessItem is an accessory or paperwork group, counted once.
type completenessItem struct {
	name     string
	points   float64
	keywords keywordSet
}

var completenessItems = []completenessItem{
	{name: "box", points: 2.5, keywords: keywords("box", "boxes")},
	{name: "papers", points: 2.5, keywords: keywords("papers", "paperwork", "card")},
	{name: "warranty", points: 2.5, keywords: keywords("warranty", "guarantee")},
	{
		name:     "extras",
		points:   1.25,
		keywords: keywords("hang tag", "hangtag", "booklet", "manual", "extra strap", "bracelet"),
	},
	{name: "receipt", points: 1.25, keywords: keywords("receipt", "invoice", "proof of purchase")},
}

// fullSetKeywords override completeness to the maximum.
var fullSetKeywords = keywords("full set", "full kit", "complete set", "all original")

// platformBaseline is keyed by lower-cased source.
var platformBaseline = map[string]float64{
	"chrono24":   6,
	"watchbox":   5.5,
	"hodinkee":   5.5,
	"watchuseek": 4.5,
	"reddit":     4,
	"ebay":       3.5,
	"facebook":   2,
}

const defaultPlatformBaseline = 3.0

type countTier struct {
	min    float64
	points float64
}

// transactionTiers and ratingTiers are ordered highest first.
var transactionTiers = []countTier{
	{min: 100, points: 7},
	{min: 50, points: 6},
	{min: 25, points: 5},
	{min: 10, points: 4},
	{min: 5, points: 3},
	{min: 1, points: 1.5},
}

var ratingTiers = []countTier{
	{min: 99, points: 3},
	{min: 95, points: 2},
	{min: 90, points: 1},
}

func tierPoints(tiers []countTier, v float64) float64 {
	for _, t := range tiers {
		if v >= t.min {
			return t.points
		}
	}
	return 0
}

type sellerSignal struct {
	label    string
	points   float64
	keywords keywordSet
}

// sellerTypeTiers is ordered highest first; only the first match applies.
var sellerTypeTiers = []sellerSignal{
	{label: "dealer", points: 4, keywords: keywords("dealer", "authorized")},
	{label: "professional", points: 3, keywords: keywords("professional seller", "full-time", "full time")},
	{label: "collector", points: 1.5, keywords: keywords("collector", "enthusiast")},
}

// negativeSignals each apply at most once and stack with each other.
var negativeSignals = []sellerSignal{
	{label: "new_seller", points: -3, keywords: keywords("first time seller", "new seller")},
	{label: "no_returns", points: -1, keywords: keywords("no returns", "as-is")},
}

// joinText lower-cases and joins the non-empty parts with a space.
func joinText(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(p))
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
