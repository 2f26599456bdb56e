package client

import (
	"context"
	"net/url"

	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

// MarketPriceStatus returns the size, age, and freshness of the server's
// market price snapshot.
func (c *Client) MarketPriceStatus(ctx context.Context, withRecords bool) (*handlers.MarketPriceStatus, error) {
	path := "/api/v1/market-prices"
	if withRecords {
		path += "?include_records=true"
	}

	var st handlers.MarketPriceStatus
	if err := c.get(ctx, path, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ResolveMarketPrice returns the reference price the server would use for
// a brand and model.
func (c *Client) ResolveMarketPrice(ctx context.Context, brand, model string) (*domain.PriceMatch, error) {
	q := url.Values{}
	q.Set("brand", brand)
	q.Set("model", model)

	var m domain.PriceMatch
	if err := c.get(ctx, "/api/v1/market-prices/resolve?"+q.Encode(), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// InvalidateMarketPrices drops the server's cached market prices and,
// with reload, rebuilds them before returning.
func (c *Client) InvalidateMarketPrices(ctx context.Context, reload bool) (*handlers.MarketPriceStatus, error) {
	path := "/api/v1/market-prices/invalidate"
	if reload {
		path += "?reload=true"
	}

	var st handlers.MarketPriceStatus
	if err := c.post(ctx, path, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
