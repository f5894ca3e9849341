// Package predictions fetches event-contract markets from the Gamma API.
package predictions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wardstone/newswire/internal/snapshots"
)

// Client is a Gamma markets client.
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		baseURL: baseURL,
		log:     log.With().Str("client", "predictions").Logger(),
	}
}

// gammaMarket mirrors the wire format. Numeric fields arrive sometimes as
// numbers and sometimes as strings, and outcomePrices is a JSON array encoded
// inside a string.
type gammaMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	OutcomePrices string    `json:"outcomePrices"`
	Volume24hr    flexFloat `json:"volume24hr"`
	EndDate       string    `json:"endDate"`
}

// flexFloat decodes from either a JSON number or a quoted numeric string.
// Anything unparseable degrades to zero rather than failing the whole slate.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// Markets fetches the active market slate.
func (c *Client) Markets(ctx context.Context) ([]snapshots.PredictionMarket, error) {
	endpoint := fmt.Sprintf("%s/markets?active=true&closed=false&limit=100", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("markets request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("markets request returned status %d", resp.StatusCode)
	}

	var raw []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}

	markets := make([]snapshots.PredictionMarket, 0, len(raw))
	for _, m := range raw {
		if m.ID == "" || m.Question == "" {
			continue
		}
		markets = append(markets, snapshots.PredictionMarket{
			ID:        m.ID,
			Question:  m.Question,
			YesPrice:  firstOutcomePrice(m.OutcomePrices),
			Volume24h: float64(m.Volume24hr),
			EndDate:   m.EndDate,
		})
	}

	return markets, nil
}

// firstOutcomePrice unwraps the doubly-encoded price array and returns the
// YES leg, zero when the field is absent or malformed.
func firstOutcomePrice(encoded string) float64 {
	if encoded == "" {
		return 0
	}
	var prices []string
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil || len(prices) == 0 {
		return 0
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0
	}
	return p
}
