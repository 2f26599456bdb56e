package pricecache

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// StaticLoader serves a fixed set of records. It backs offline scoring and
// tests.
type StaticLoader []domain.MarketPriceRecord

// ListMarketPrices returns a copy of the records.
func (s StaticLoader) ListMarketPrices(_ context.Context) ([]domain.MarketPriceRecord, error) {
	out := make([]domain.MarketPriceRecord, len(s))
	copy(out, s)
	return out, nil
}

// fixture is the on-disk layout of a market price file.
type fixture struct {
	MarketPrices []domain.MarketPriceRecord `yaml:"market_prices"`
}

// LoadFile reads market price records from a YAML file of the form
//
//	market_prices:
//	  - brand: rolex
//	    model: submariner
//	    avg_price: 10000
//	    sample_count: 42
func LoadFile(path string) (StaticLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading market price file: %w", err)
	}

	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing market price file: %w", err)
	}

	return StaticLoader(f.MarketPrices), nil
}
