// Package catalog is a client for the Perenual species-list API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public catalog endpoint root.
const DefaultBaseURL = "https://perenual.com/api"

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("catalog: API key is not configured (set PERENUAL_API_KEY)")

// APIError is a non-2xx answer from the catalog.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog: HTTP %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the catalog rejected the API key.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Query holds the species-list filters. Empty fields are not sent.
type Query struct {
	FlowerColor    string // hex without '#'
	Limit          int
	SunLevel       string
	WaterFrequency string
	PlantCycle     string
	GrowthRate     string
	Page           int
}

// Values encodes the query using the catalog's parameter names.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("flower_color", strings.TrimPrefix(q.FlowerColor, "#"))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	set("sun_level", q.SunLevel)
	set("water_frequency", q.WaterFrequency)
	set("plant_cycle", q.PlantCycle)
	set("growth_rate", q.GrowthRate)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Page is one decoded species-list response.
type Page struct {
	Plants      []Plant
	CurrentPage int
	LastPage    int
	Total       int
}

type pageResponse struct {
	Data        []rawPlant `json:"data"`
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	Total       int        `json:"total"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	RateLimit  rate.Limit // requests per second, 0 = unlimited
	Burst      int
}

// Client queries the catalog. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a catalog client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return c
}

// SpeciesList fetches one page of plants matching q. A response without a
// "data" array yields an empty page.
func (c *Client) SpeciesList(ctx context.Context, q Query) (*Page, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("catalog: rate limiter: %w", err)
		}
	}

	params := q.Values()
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + "/species-list?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		MetricRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("catalog: request failed: %w", c.redact(err))
	}
	defer resp.Body.Close()
	MetricRequestDuration.Observe(time.Since(start).Seconds())
	MetricRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var pr pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("catalog: decode species list: %w", err)
	}

	page := &Page{
		Plants:      make([]Plant, 0, len(pr.Data)),
		CurrentPage: pr.CurrentPage,
		LastPage:    pr.LastPage,
		Total:       pr.Total,
	}
	for _, raw := range pr.Data {
		page.Plants = append(page.Plants, raw.plant())
	}
	return page, nil
}

// Walk calls fn for every page of q starting at page 1. It stops after an
// empty page, after the catalog's last page, or after maxPages pages
// (0 = no limit).
func (c *Client) Walk(ctx context.Context, q Query, maxPages int, fn func(*Page) error) error {
	for n := 1; maxPages <= 0 || n <= maxPages; n++ {
		q.Page = n
		page, err := c.SpeciesList(ctx, q)
		if err != nil {
			return fmt.Errorf("page %d: %w", n, err)
		}
		if len(page.Plants) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if page.LastPage > 0 && n >= page.LastPage {
			return nil
		}
	}
	return nil
}

// redact strips the API key from transport errors, which embed the URL.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(c.apiKey), "REDACTED")
	}
	return err
}
