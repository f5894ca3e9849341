// Package marketdata fetches index, FX and commodity quotes from the quote
// service.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client is a quote-service client.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: baseURL,
		log:     log.With().Str("client", "marketdata").Logger(),
	}
}

type quoteResponse struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"currentPrice"`
	PreviousClose float64 `json:"previousClose"`
}

// Quote fetches the current value and previous close for one instrument code.
func (c *Client) Quote(ctx context.Context, code string) (float64, float64, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s", c.baseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("quote request failed for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("quote request for %s returned status %d", code, resp.StatusCode)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return 0, 0, fmt.Errorf("failed to decode quote for %s: %w", code, err)
	}

	if quote.CurrentPrice == 0 {
		return 0, 0, fmt.Errorf("quote for %s has no current price", code)
	}

	return quote.CurrentPrice, quote.PreviousClose, nil
}
