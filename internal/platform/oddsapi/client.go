// Package oddsapi is the REST client for the-odds-api-style upstream odds
// feeds: sport catalogue discovery and per-sport odds snapshots.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// Client is the REST client for the odds feed API. Credentials are supplied
// per call: the rotator owns which key is active, not the client.
type Client struct {
	baseURL    string
	regions    string
	httpClient *http.Client
}

// NewClient creates a new odds feed client.
//
// baseURL is the API root, e.g. "https://api.the-odds-api.com/v4". regions
// selects the bookmaker regions included in odds responses. timeout bounds
// every individual request.
func NewClient(baseURL string, regions []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		regions: strings.Join(regions, ","),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListSports returns the full sport catalogue, including inactive and
// outright-only entries; the caller filters with Sport.Scannable.
func (c *Client) ListSports(ctx context.Context, apiKey string) ([]domain.Sport, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)

	path := "/sports?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: list sports: %w", err)
	}

	var apiSports []APISport
	if err := json.Unmarshal(body, &apiSports); err != nil {
		return nil, fmt.Errorf("oddsapi: decode sports: %w", err)
	}

	sports := make([]domain.Sport, 0, len(apiSports))
	for i := range apiSports {
		sports = append(sports, apiSports[i].ToDomainSport())
	}

	return sports, nil
}

// GetOdds returns the current odds snapshot for one sport: every upcoming
// match with per-bookmaker quote sets for the configured regions.
func (c *Client) GetOdds(ctx context.Context, sportKey, apiKey string) ([]domain.MatchQuote, error) {
	params := url.Values{}
	params.Set("apiKey", apiKey)
	if c.regions != "" {
		params.Set("regions", c.regions)
	}

	path := fmt.Sprintf("/sports/%s/odds?%s", url.PathEscape(sportKey), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: get odds %s: %w", sportKey, err)
	}

	var apiEvents []APIEvent
	if err := json.Unmarshal(body, &apiEvents); err != nil {
		return nil, fmt.Errorf("oddsapi: decode odds %s: %w", sportKey, err)
	}

	matches := make([]domain.MatchQuote, 0, len(apiEvents))
	for i := range apiEvents {
		matches = append(matches, apiEvents[i].ToDomainMatchQuote())
	}

	return matches, nil
}

// doGet performs a GET request against the API and returns the response body.
// Status codes that indicate a rejected or over-quota credential map to
// domain.ErrAuthOrQuota so callers can trigger rotation with errors.Is.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus classifies non-2xx responses. 401 (bad key), 402 (quota
// spent) and 429 (rate limited) all mean the active credential cannot do more
// work right now and the rotator should advance.
func checkHTTPStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}

	switch status {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %s: %w", status, detail, domain.ErrAuthOrQuota)
	default:
		return fmt.Errorf("status %d: %s", status, detail)
	}
}
