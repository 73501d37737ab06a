// Package photos looks up plant pictures through the Unsplash search API.
package photos

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
)

// DefaultBaseURL is the public Unsplash API root.
const DefaultBaseURL = "https://api.unsplash.com"

// NotAvailable is shown for text fields the API omitted.
const NotAvailable = "N/A"

// ErrDisabled is returned when no access key is configured.
var ErrDisabled = errors.New("photos: search disabled (set UNSPLASH_ACCESS_KEY)")

// Photo is one search hit with optional fields resolved.
type Photo struct {
	URL          string `json:"url"`
	ThumbURL     string `json:"thumb_url"`
	Description  string `json:"description"`
	Photographer string `json:"photographer"`
	PageURL      string `json:"page_url"`
}

type searchResponse struct {
	Results []struct {
		Description    *string `json:"description"`
		AltDescription *string `json:"alt_description"`
		URLs           *struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		Links *struct {
			HTML string `json:"html"`
		} `json:"links"`
		User *struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	AccessKey  string
	HTTPClient *http.Client
}

// Client searches for photos.
type Client struct {
	baseURL   string
	accessKey string
	http      *http.Client
}

// NewClient creates a photo search client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		accessKey: opts.AccessKey,
		http:      opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// Enabled reports whether the client has credentials.
func (c *Client) Enabled() bool {
	return c != nil && c.accessKey != ""
}

// Search returns up to perPage photos matching query. Hits without any
// image URL are skipped.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]Photo, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if perPage <= 0 {
		perPage = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("photos: build request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.http.Do(req)
	if err != nil {
		MetricRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("photos: request failed: %w", err)
	}
	defer resp.Body.Close()
	MetricRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("photos: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("photos: decode search response: %w", err)
	}

	out := make([]Photo, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URLs == nil {
			continue
		}
		p := Photo{
			URL:          firstNonEmpty(r.URLs.Regular, r.URLs.Small, r.URLs.Thumb),
			ThumbURL:     firstNonEmpty(r.URLs.Thumb, r.URLs.Small, r.URLs.Regular),
			Description:  NotAvailable,
			Photographer: NotAvailable,
		}
		if p.URL == "" {
			continue
		}
		if d := firstNonEmpty(deref(r.Description), deref(r.AltDescription)); d != "" {
			p.Description = d
		}
		if r.User != nil && r.User.Name != "" {
			p.Photographer = r.User.Name
		}
		if r.Links != nil {
			p.PageURL = r.Links.HTML
		}
		out = append(out, p)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
