package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/donaldgifford/deal-scorer/internal/metrics"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

const (
	colorGreen  = 0x2ECC71 // insane
	colorYellow = 0xF1C40F // great
	colorOrange = 0xE67E22 // good
	colorGrey   = 0x95A5A6 // everything below

	maxEmbeds = 10

	channelDiscord = "discord"
)

// DiscordNotifier implements Notifier via Discord webhook. Listings below
// the minimum grade are skipped.
type DiscordNotifier struct {
	webhookURL string
	minGrade   score.Grade
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier. The default minimum
// grade is great.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		minGrade:   score.GradeGreat,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithMinGrade sets the lowest grade that is posted.
func WithMinGrade(g score.Grade) DiscordOption {
	return func(d *DiscordNotifier) {
		d.minGrade = g
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NotifyScored posts one listing as a Discord embed if it meets the
// minimum grade.
func (d *DiscordNotifier) NotifyScored(ctx context.Context, s *ScoredListing) error {
	if !s.Grade.AtLeast(d.minGrade) {
		return nil
	}
	return d.send(ctx, discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(s)},
	})
}

// NotifyBatch posts the qualifying listings of a batch as a single message.
func (d *DiscordNotifier) NotifyBatch(ctx context.Context, items []ScoredListing) error {
	var qualifying []*ScoredListing
	for i := range items {
		if items[i].Grade.AtLeast(d.minGrade) {
			qualifying = append(qualifying, &items[i])
		}
	}
	if len(qualifying) == 0 {
		return nil
	}

	limit := min(len(qualifying), maxEmbeds)
	embeds := make([]discordEmbed, 0, limit+1)
	for _, s := range qualifying[:limit] {
		embeds = append(embeds, buildEmbed(s))
	}

	if len(qualifying) > maxEmbeds {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("... and %d more %s+ deals", len(qualifying)-maxEmbeds, d.minGrade),
			Color:       colorGrey,
			Description: "Query /api/v1/listings for the full list.",
		})
	}

	return d.send(ctx, discordWebhookPayload{Embeds: embeds})
}

func buildEmbed(s *ScoredListing) discordEmbed {
	b := &s.Breakdown
	return discordEmbed{
		Title: fmt.Sprintf("%s deal: %s", titleCase(s.Grade), s.Title),
		URL:   s.URL,
		Color: gradeColor(s.Grade),
		Fields: []discordEmbedField{
			{Name: "Score", Value: fmt.Sprintf("%d/100", s.Score), Inline: true},
			{Name: "Price", Value: formatPrice(s.Price, s.Currency), Inline: true},
			{Name: "Source", Value: orDash(s.Source), Inline: true},
			{Name: "Market", Value: categoryValue(b.PriceVsMarket), Inline: true},
			{Name: "Seller", Value: categoryValue(b.SellerReputation), Inline: true},
			{Name: "Condition", Value: categoryValue(b.Condition), Inline: true},
		},
	}
}

func gradeColor(g score.Grade) int {
	switch g {
	case score.GradeInsane:
		return colorGreen
	case score.GradeGreat:
		return colorYellow
	case score.GradeGood:
		return colorOrange
	default:
		return colorGrey
	}
}

func categoryValue(c score.Category) string {
	return fmt.Sprintf("%.1f/%.0f", c.Points, c.Max)
}

func formatPrice(p *float64, currency string) string {
	if p == nil {
		return "-"
	}
	if currency == "" || currency == "USD" {
		return fmt.Sprintf("$%.2f", *p)
	}
	return fmt.Sprintf("%.2f %s", *p, currency)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func titleCase(g score.Grade) string {
	s := string(g)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (d *DiscordNotifier) send(ctx context.Context, payload discordWebhookPayload) error {
	if err := d.post(ctx, payload); err != nil {
		metrics.NotificationFailuresTotal.WithLabelValues(channelDiscord).Inc()
		return err
	}
	metrics.NotificationsSentTotal.WithLabelValues(channelDiscord).Inc()
	return nil
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
