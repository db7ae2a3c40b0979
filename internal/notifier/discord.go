package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/rentacos/internal/models"
)

const (
	colorRent       = 3447003  // #3498DB
	colorSell       = 3066993  // #2ECC71
	colorCommission = 10181046 // #9B59B6

	maxAttempts        = 3
	maxDescriptionRune = 300
)

type Client struct {
	webhookURL  string
	siteURL     string
	client      *http.Client
	rateLimiter *rate.Limiter
}

// New returns a webhook client. siteURL, when set, is used to link the embed
// title back to the listing.
func New(webhookURL, siteURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		siteURL:    strings.TrimSuffix(siteURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows roughly 30 webhook posts a minute per channel.
		rateLimiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
	}
}

// Announce posts a newly published listing and returns the message ID.
func (c *Client) Announce(ctx context.Context, l models.Listing) (string, error) {
	if c.webhookURL == "" {
		return "", nil
	}
	embed := formatListingToEmbed(l, c.siteURL)
	return c.sendAndGetMessageID(ctx, embed)
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedImage struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Thumbnail   discordEmbedImage   `json:"thumbnail,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func formatListingToEmbed(l models.Listing, siteURL string) discordEmbed {
	embed := discordEmbed{
		Title:       l.Title,
		Description: truncate(l.Description, maxDescriptionRune),
		Color:       typeColor(l.Type),
		Footer:      discordEmbedFooter{Text: strings.ToUpper(string(l.Type))},
	}
	if siteURL != "" && l.ID != "" {
		embed.URL = siteURL + "/listings/" + url.PathEscape(l.ID)
	}
	if !l.CreatedAt.IsZero() {
		embed.Timestamp = l.CreatedAt.Format(time.RFC3339)
	}
	if len(l.Images) > 0 {
		embed.Thumbnail.URL = l.Images[0]
	}

	embed.Fields = append(embed.Fields, discordEmbedField{Name: "Price", Value: formatPrice(l.Price, l.PriceUnit), Inline: true})
	if l.City != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "City", Value: l.City, Inline: true})
	}
	if who := strings.TrimSpace(strings.Join(nonEmpty(l.Character, l.Franchise), " / ")); who != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "Character", Value: who})
	}
	return embed
}

func formatPrice(price int, unit models.PriceUnit) string {
	if unit == models.PricePerDay {
		return fmt.Sprintf("₹%d / day", price)
	}
	return fmt.Sprintf("₹%d", price)
}

func typeColor(t models.ListingType) int {
	switch t {
	case models.TypeSell:
		return colorSell
	case models.TypeCommission:
		return colorCommission
	default:
		return colorRent
	}
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (c *Client) sendAndGetMessageID(ctx context.Context, embed discordEmbed) (string, error) {
	payloadBytes, err := json.Marshal(discordWebhookPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return "", err
	}

	parsedURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", err
	}
	q := parsedURL.Query()
	q.Set("wait", "true")
	parsedURL.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}

		id, resp, err := c.post(ctx, parsedURL.String(), payloadBytes)
		if err == nil {
			return id, nil
		}
		lastErr = err
		if resp == nil {
			return "", err
		}

		backoff := retryBackoff(resp, attempt)
		if backoff == 0 {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", fmt.Errorf("discord webhook failed after %d attempts: %w", maxAttempts, lastErr)
}

// post returns the response alongside any status error so the caller can
// decide whether to retry.
func (c *Client) post(ctx context.Context, target string, body []byte) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var msgResponse discordMessageResponse
		if err := json.Unmarshal(bodyBytes, &msgResponse); err != nil {
			return "", nil, err
		}
		return msgResponse.ID, resp, nil
	}
	return "", resp, fmt.Errorf("discord status: %s, body: %s", resp.Status, string(bodyBytes))
}

// retryBackoff returns how long to wait before retrying resp, or zero when the
// status is not retryable.
func retryBackoff(resp *http.Response, attempt int) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
		return time.Duration(1<<attempt) * time.Second
	case resp.StatusCode >= 500:
		return time.Duration(1<<attempt) * 500 * time.Millisecond
	}
	return 0
}
