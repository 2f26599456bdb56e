package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

func ptr[T any](v T) *T { return &v }

func testScored(s int) ScoredListing {
	return ScoredListing{
		ListingID: "8f14e45f-ceea-467a-9575-1f2a0c4b1e11",
		Title:     "[WTS] Rolex Submariner 126610LN BNIB",
		URL:       "https://reddit.com/r/watchexchange/abc123",
		Source:    "reddit",
		Brand:     "Rolex",
		Model:     "Submariner 126610LN",
		Price:     ptr(8000.0),
		Currency:  "USD",
		Score:     s,
		Grade:     score.GradeFor(s),
		Breakdown: score.Breakdown{
			PriceVsMarket:    score.Category{Points: 30, Max: score.MaxPriceVsMarket},
			SellerReputation: score.Category{Points: 9, Max: score.MaxSellerReputation},
			Condition:        score.Category{Points: 15, Max: score.MaxCondition},
		},
	}
}

func TestDiscordNotifier_NotifyScored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		listing    ScoredListing
		minGrade   score.Grade
		statusCode int
		wantPost   bool
		wantErr    bool
		errMsg     string
		wantColor  int
	}{
		{
			name:       "insane deal uses green color",
			listing:    testScored(93),
			minGrade:   score.GradeGreat,
			statusCode: http.StatusNoContent,
			wantPost:   true,
			wantColor:  colorGreen,
		},
		{
			name:       "great deal uses yellow color",
			listing:    testScored(80),
			minGrade:   score.GradeGreat,
			statusCode: http.StatusNoContent,
			wantPost:   true,
			wantColor:  colorYellow,
		},
		{
			name:       "good deal uses orange color when allowed",
			listing:    testScored(62),
			minGrade:   score.GradeGood,
			statusCode: http.StatusNoContent,
			wantPost:   true,
			wantColor:  colorOrange,
		},
		{
			name:     "below minimum grade is skipped",
			listing:  testScored(62),
			minGrade: score.GradeGreat,
			wantPost: false,
		},
		{
			name:       "discord returns 429 rate limited",
			listing:    testScored(85),
			minGrade:   score.GradeGreat,
			statusCode: http.StatusTooManyRequests,
			wantPost:   true,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			listing:    testScored(85),
			minGrade:   score.GradeGreat,
			statusCode: http.StatusBadRequest,
			wantPost:   true,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				received discordWebhookPayload
				posts    atomic.Int32
			)

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					posts.Add(1)
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, http.MethodPost, r.Method)

					err := json.NewDecoder(r.Body).Decode(&received)
					assert.NoError(t, err)

					w.WriteHeader(tt.statusCode)
				}),
			)
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL, WithMinGrade(tt.minGrade))
			err := d.NotifyScored(context.Background(), &tt.listing)

			if !tt.wantPost {
				require.NoError(t, err)
				assert.Equal(t, int32(0), posts.Load())
				return
			}

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			require.Len(t, received.Embeds, 1)

			embed := received.Embeds[0]
			assert.Equal(t, tt.wantColor, embed.Color)
			assert.Contains(t, embed.Title, tt.listing.Title)
			assert.Equal(t, tt.listing.URL, embed.URL)
			require.NotEmpty(t, embed.Fields)
			assert.Equal(t, fmt.Sprintf("%d/100", tt.listing.Score), embed.Fields[0].Value)
			assert.Equal(t, "$8000.00", embed.Fields[1].Value)
			assert.Equal(t, "30.0/40", embed.Fields[3].Value)
		})
	}
}

func TestDiscordNotifier_NotifyBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scores     []int
		wantPost   bool
		wantEmbeds int
	}{
		{
			name:       "only qualifying listings are posted",
			scores:     []int{95, 80, 50, 20},
			wantPost:   true,
			wantEmbeds: 2,
		},
		{
			name:     "nothing qualifies",
			scores:   []int{50, 20},
			wantPost: false,
		},
		{
			name:       "more than ten qualifying adds overflow embed",
			scores:     []int{90, 91, 92, 93, 94, 95, 96, 97, 98, 99, 100, 76},
			wantPost:   true,
			wantEmbeds: 11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				received discordWebhookPayload
				posts    atomic.Int32
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				posts.Add(1)
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			items := make([]ScoredListing, 0, len(tt.scores))
			for _, s := range tt.scores {
				items = append(items, testScored(s))
			}

			d := NewDiscordNotifier(srv.URL)
			require.NoError(t, d.NotifyBatch(context.Background(), items))

			if !tt.wantPost {
				assert.Equal(t, int32(0), posts.Load())
				return
			}
			assert.Equal(t, int32(1), posts.Load())
			assert.Len(t, received.Embeds, tt.wantEmbeds)
		})
	}
}

func TestDiscordNotifier_InvalidURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://not-a-valid-url")
	s := testScored(95)
	err := d.NotifyScored(context.Background(), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
	assert.Equal(t, score.GradeGreat, d.minGrade)
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", formatPrice(nil, "USD"))
	assert.Equal(t, "$12.50", formatPrice(ptr(12.5), ""))
	assert.Equal(t, "950.00 EUR", formatPrice(ptr(950.0), "EUR"))
}

func counterValue(c prometheus.Counter) float64 {
	pb := &dto.Metric{}
	_ = c.Write(pb)
	return pb.GetCounter().GetValue()
}

func TestNotifyScored_CountsSentNotifications(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sent := metrics.NotificationsSentTotal.WithLabelValues(channelDiscord)
	before := counterValue(sent)

	d := NewDiscordNotifier(srv.URL)
	s := testScored(92)
	require.NoError(t, d.NotifyScored(context.Background(), &s))

	assert.Greater(t, counterValue(sent), before)
}
