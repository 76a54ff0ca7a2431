// Package yahoo provides a client for the Yahoo Finance chart API, used to
// fetch historical daily closing prices.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/history"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// chartResponse mirrors the relevant part of the v8 chart payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Client fetches daily price history from Yahoo Finance
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// NewClientWithHTTP creates a client with a custom HTTP client and base URL (for testing)
func NewClientWithHTTP(httpClient *http.Client, baseURL string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

// GetDailyCloses fetches up to lookbackDays of daily closing prices for a
// symbol, oldest first. Bars with a zero or missing close are skipped.
func (c *Client) GetDailyCloses(ctx context.Context, symbol string, lookbackDays int) ([]history.DailyClose, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if lookbackDays <= 0 {
		return nil, fmt.Errorf("lookback days must be positive, got %d", lookbackDays)
	}

	rangeParam := rangeForLookback(lookbackDays)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", c.baseURL, url.PathEscape(symbol), rangeParam)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "curl/8")

	c.log.Debug().Str("symbol", symbol).Str("range", rangeParam).Msg("Fetching daily closes")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, symbol)
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", symbol, err)
	}

	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	timestamps := payload.Chart.Result[0].Timestamp
	closes := payload.Chart.Result[0].Indicators.Quote[0].Close

	out := make([]history.DailyClose, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		out = append(out, history.DailyClose{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close:  closes[i],
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid bars for %s", symbol)
	}

	c.log.Debug().Str("symbol", symbol).Int("bars", len(out)).Msg("Fetched daily closes")
	return out, nil
}

// rangeForLookback maps a trading-day window onto the nearest Yahoo range
// parameter that covers it.
func rangeForLookback(days int) string {
	switch {
	case days <= 21:
		return "1mo"
	case days <= 63:
		return "3mo"
	case days <= 126:
		return "6mo"
	case days <= 252:
		return "1y"
	case days <= 504:
		return "2y"
	case days <= 1260:
		return "5y"
	default:
		return "10y"
	}
}
