package score

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// Stored prices are occasionally truncated during ingestion. A title price
// within this band (exclusive) of the stored price replaces it.
const (
	correctionMinFactor = 5.0
	correctionMaxFactor = 100.0
)

// neutralPriceRatio is applied when a listing has a price but no market data.
const neutralPriceRatio = 0.4

var titlePriceRe = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`)

// maxTitlePrice returns the largest "$<number>" amount in the title.
func maxTitlePrice(title string) (float64, bool) {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, m := range titlePriceRe.FindAllStringSubmatch(title, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if !found || d.GreaterThan(best) {
			best = d
			found = true
		}
	}
	return best.InexactFloat64(), found
}

// sanitizedPrice is a listing price after the title cross-check.
type sanitizedPrice struct {
	value         float64
	usable        bool
	corrected     bool
	correctedFrom float64
}

func sanitizePrice(price *float64, title string) sanitizedPrice {
	if price == nil {
		return sanitizedPrice{}
	}
	p := sanitizedPrice{value: *price, usable: *price > 0}
	if !p.usable {
		return p
	}

	tp, ok := maxTitlePrice(title)
	if ok && tp > *price*correctionMinFactor && tp < *price*correctionMaxFactor {
		p.correctedFrom = *price
		p.value = tp
		p.corrected = true
	}
	return p
}

func (p sanitizedPrice) annotate(details map[string]any) {
	if !p.corrected {
		return
	}
	details["price_corrected_from"] = p.correctedFrom
	details["price_corrected_to"] = p.value
	details["price_note"] = "stored price looked truncated, using title price"
}

// discountRatio maps a discount percentage onto the price curve. The curve is
// continuous at every breakpoint.
func discountRatio(d float64) float64 {
	switch {
	case d >= 30:
		return 1.0
	case d >= 20:
		return 0.75 + (d-20)*0.025
	case d >= 10:
		return 0.55 + (d-10)*0.020
	case d >= 0:
		return 0.35 + d*0.020
	case d >= -10:
		return 0.15 + (d+10)*0.020
	case d >= -20:
		return 0.05 + (d+20)*0.010
	default:
		return 0.05
	}
}

func priceVsMarket(l *domain.Listing, match *domain.PriceMatch) Category {
	c := Category{Max: MaxPriceVsMarket, Details: map[string]any{}}

	p := sanitizePrice(l.Price, l.Title)
	p.annotate(c.Details)
	if !p.usable {
		c.Details["note"] = "no usable price"
		return c
	}
	c.Details["price"] = p.value

	if match == nil {
		c.Points = scaled(MaxPriceVsMarket, neutralPriceRatio)
		c.Details["note"] = "no market data"
		return c
	}

	avg := match.Record.AvgPrice
	discount := (avg - p.value) * 100 / avg
	ratio := discountRatio(discount)

	c.Points = scaled(MaxPriceVsMarket, ratio)
	c.Details["market_avg"] = avg
	c.Details["market_key"] = match.Record.Key()
	c.Details["match_level"] = string(match.Level)
	c.Details["sample_count"] = match.Record.SampleCount
	c.Details["discount_pct"] = round1(discount)
	return c
}

type priceBand struct {
	lo, hi      float64
	loInclusive bool
	hiInclusive bool
	ratio       float64
	label       string
}

func (b priceBand) contains(v float64) bool {
	aboveLo := v > b.lo || (b.loInclusive && v == b.lo)
	belowHi := v < b.hi || (b.hiInclusive && v == b.hi)
	return aboveLo && belowHi
}

// sweetSpotBands cover (0, +inf) without gaps.
var sweetSpotBands = []priceBand{
	{lo: 500, hi: 5000, loInclusive: true, hiInclusive: true, ratio: 1.0, label: "500-5000"},
	{lo: 200, hi: 500, loInclusive: true, ratio: 0.7, label: "200-500"},
	{lo: 5000, hi: 10000, hiInclusive: true, ratio: 0.6, label: "5000-10000"},
	{lo: 100, hi: 200, loInclusive: true, ratio: 0.4, label: "100-200"},
	{lo: 10000, hi: 25000, hiInclusive: true, ratio: 0.4, label: "10000-25000"},
	{lo: 0, hi: 100, ratio: 0.2, label: "under 100"},
}

const overSweetSpotRatio = 0.2

func sweetSpot(l *domain.Listing) Category {
	c := Category{Max: MaxSweetSpot, Details: map[string]any{}}

	p := sanitizePrice(l.Price, l.Title)
	p.annotate(c.Details)
	if !p.usable {
		c.Details["note"] = "no usable price"
		return c
	}
	c.Details["price"] = p.value

	ratio, band := overSweetSpotRatio, "over 25000"
	for _, b := range sweetSpotBands {
		if b.contains(p.value) {
			ratio, band = b.ratio, b.label
			break
		}
	}

	c.Points = scaled(MaxSweetSpot, ratio)
	c.Details["band"] = band
	return c
}
