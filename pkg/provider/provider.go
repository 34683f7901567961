package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// RawHit is one property hit exactly as the provider returned it. Keys and
// value shapes are provider-defined; the normalizer extracts the fields it
// models and preserves the rest.
type RawHit map[string]any

// Client supplies raw search results for a set of criteria.
type Client interface {
	// Search executes a property search on behalf of an owner and returns
	// the raw hits in the provider's relevance order.
	Search(ctx context.Context, owner string, criteria map[string]any) ([]RawHit, error)
}

// QuotaError reports an owner that has exhausted their query budget.
type QuotaError struct {
	Owner string
	Limit int
}

// Error implements the error interface.
func (e *QuotaError) Error() string {
	return fmt.Sprintf("owner %s reached the %d-query limit", e.Owner, e.Limit)
}

// APIError reports a non-success response from the provider API.
type APIError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Config contains configuration for the HTTP provider client.
type Config struct {
	// BaseURL is the provider API root, e.g. "https://api.rentcast.io/v1".
	BaseURL string

	// APIKey is sent as the X-Api-Key header.
	APIKey string

	// MaxQueries is the per-owner query budget. 0 means unlimited.
	MaxQueries int

	// Timeout bounds a single API call. Default: 15 seconds.
	Timeout time.Duration
}

// HTTPClient implements Client against a RentCast-style properties endpoint.
type HTTPClient struct {
	config Config
	client *http.Client
	logger *slog.Logger

	mu   sync.Mutex
	used map[string]int
}

// NewHTTPClient creates a new HTTP provider client.
func NewHTTPClient(config Config) *HTTPClient {
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &HTTPClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "provider.http"),
		used:   make(map[string]int),
	}
}

// Search executes GET {base}/properties with the criteria as query
// parameters. Each call counts against the owner's query budget; a budget
// overrun returns a QuotaError before any network call.
func (c *HTTPClient) Search(ctx context.Context, owner string, criteria map[string]any) ([]RawHit, error) {
	if err := c.consumeQuota(owner); err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(c.config.BaseURL + "/properties")
	if err != nil {
		return nil, fmt.Errorf("invalid provider base URL: %w", err)
	}

	params := url.Values{}
	for key, value := range criteria {
		params.Set(key, fmt.Sprint(value))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.config.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.refundQuota(owner)
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.refundQuota(owner)
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	var hits []RawHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	c.logger.Debug("provider search completed",
		"owner", owner,
		"hits", len(hits),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return hits, nil
}

// Remaining returns how many queries the owner has left, or -1 when the
// budget is unlimited.
func (c *HTTPClient) Remaining(owner string) int {
	if c.config.MaxQueries <= 0 {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.config.MaxQueries - c.used[owner]
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *HTTPClient) consumeQuota(owner string) error {
	if c.config.MaxQueries <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used[owner] >= c.config.MaxQueries {
		return &QuotaError{Owner: owner, Limit: c.config.MaxQueries}
	}
	c.used[owner]++
	return nil
}

// refundQuota returns a consumed slot after a failed call so transport
// errors do not burn the owner's budget.
func (c *HTTPClient) refundQuota(owner string) {
	if c.config.MaxQueries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used[owner] > 0 {
		c.used[owner]--
	}
}
