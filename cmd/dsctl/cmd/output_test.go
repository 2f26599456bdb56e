package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short string unchanged", in: "Tudor", max: 10, want: "Tudor"},
		{name: "exact length unchanged", in: "0123456789", max: 10, want: "0123456789"},
		{name: "long string cut", in: "Rolex Submariner Date 126610LN", max: 12, want: "Rolex Sub..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}

func TestFormatters(t *testing.T) {
	t.Parallel()

	price := 9500.0
	s := 81
	grade := "great"

	assert.Equal(t, "-", formatPrice(nil, "EUR"))
	assert.Equal(t, "9500.00 EUR", formatPrice(&price, "EUR"))
	assert.Equal(t, "9500.00", formatPrice(&price, ""))
	assert.Equal(t, "-", formatScore(nil))
	assert.Equal(t, "81", formatScore(&s))
	assert.Equal(t, "-", deref(nil))
	assert.Equal(t, "great", deref(&grade))
}

func TestReadListingBody(t *testing.T) {
	t.Parallel()

	body, err := readListingBody(strings.NewReader(`{"source":"chrono24","external_id":"9","price":9500}`), "-")
	require.NoError(t, err)
	assert.Equal(t, "chrono24", body.Source)
	require.NotNil(t, body.Price)
	assert.InDelta(t, 9500.0, *body.Price, 0.001)

	_, err = readListingBody(strings.NewReader(`not json`), "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding listing")

	_, err = readListingBody(nil, "/nonexistent/listing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening listing")
}

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, c := range Root().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"listings", "score", "grades", "rescore", "jobs", "market-prices"} {
		assert.True(t, names[want], want)
	}
}
