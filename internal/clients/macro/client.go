// Package macro fetches macro indicator series from the macro data service.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client is a macro-series client.
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
		log:     log.With().Str("client", "macro").Logger(),
	}
}

type seriesResponse struct {
	Series string  `json:"series"`
	Latest float64 `json:"latest"`
	Prior  float64 `json:"prior"`
}

// Series fetches the latest and prior readings of one series.
func (c *Client) Series(ctx context.Context, seriesID string) (float64, float64, error) {
	endpoint := fmt.Sprintf("%s/series?id=%s", c.baseURL, url.QueryEscape(seriesID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("series request failed for %s: %w", seriesID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("series request for %s returned status %d", seriesID, resp.StatusCode)
	}

	var series seriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return 0, 0, fmt.Errorf("failed to decode series %s: %w", seriesID, err)
	}

	return series.Latest, series.Prior, nil
}
