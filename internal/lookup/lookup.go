// Package lookup resolves vehicle makes, models and engine variants through an
// upstream catalogue API, caching responses so repeated form lookups do not
// hammer the provider.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/carlog/internal/cache"
)

// cacheTTL keeps catalogue answers for a day; the upstream data changes at
// model-year cadence, not daily.
const cacheTTL = 24 * time.Hour

// MalformedResponseError reports an upstream payload that did not decode into
// the expected shape.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Variant is one engine/trim option for a model.
type Variant struct {
	Name   string `json:"name"`
	Engine string `json:"engine"`
	Fuel   string `json:"fuel"`
}

// Client talks to the catalogue API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a lookup client. A nil httpClient uses a 10s-timeout
// default; a nil c falls back to a private in-memory cache.
func NewClient(baseURL string, httpClient *http.Client, c *cache.Cache) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c == nil {
		c = cache.New(cache.NewMemoryBackend(), nil)
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, cache: c}
}

// Makes lists the known vehicle makes.
func (c *Client) Makes(ctx context.Context) ([]string, error) {
	var makes []string
	if err := c.fetch(ctx, "/makes", nil, &makes); err != nil {
		return nil, err
	}
	return makes, nil
}

// Models lists the models for a make.
func (c *Client) Models(ctx context.Context, make string) ([]string, error) {
	var models []string
	if err := c.fetch(ctx, "/models", url.Values{"make": {make}}, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// Variants lists the engine variants for a make and model.
func (c *Client) Variants(ctx context.Context, make, model string) ([]Variant, error) {
	var variants []Variant
	if err := c.fetch(ctx, "/variants", url.Values{"make": {make}, "model": {model}}, &variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// fetch resolves endpoint+query through the cache, hitting the upstream only
// on a miss, and decodes the body strictly into out.
func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if body, ok := c.cache.Get(target); ok {
		if err := json.Unmarshal(body, out); err != nil {
			return &MalformedResponseError{Endpoint: endpoint, Err: err}
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lookup request failed: %s returned %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read lookup response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Endpoint: endpoint, Err: err}
	}

	c.cache.Set(target, body, cacheTTL)
	log.WithFields(log.Fields{"endpoint": endpoint, "bytes": len(body)}).Debug("Cached lookup response")
	return nil
}
