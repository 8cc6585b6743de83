// Package brandfetch fetches brand assets (logos and colors) for a company
// domain from the Brandfetch API.
package brandfetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/demoforge/demoforge/pkg/utils"
)

const (
	defaultBaseURL = "https://api.brandfetch.io"

	requestTimeout = 15 * time.Second

	maxErrorBody = 500
)

// Brand is the subset of the Brandfetch brand payload the wizard needs.
type Brand struct {
	Name    string  `json:"name"`
	Domain  string  `json:"domain"`
	Logos   []Logo  `json:"logos"`
	Colors  []Color `json:"colors"`
	ClaimID string  `json:"claimed,omitempty"`
}

// Logo is one logo rendition group (e.g. theme "dark" or "light").
type Logo struct {
	Theme   string       `json:"theme"`
	Type    string       `json:"type"`
	Formats []LogoFormat `json:"formats"`
}

// LogoFormat is one downloadable file for a logo.
type LogoFormat struct {
	Src    string `json:"src"`
	Format string `json:"format"`
}

// Color is one brand palette entry.
type Color struct {
	Hex  string `json:"hex"`
	Type string `json:"type"` // "dark", "light", "accent", ...
}

// LogoURLs returns up to n logo source URLs, preferring the order Brandfetch
// returns them in.
func (b *Brand) LogoURLs(n int) []string {
	var urls []string
	for _, logo := range b.Logos {
		for _, f := range logo.Formats {
			if f.Src == "" {
				continue
			}
			urls = append(urls, f.Src)
			if len(urls) == n {
				return urls
			}
		}
	}
	return urls
}

// ColorHexes returns up to n palette hex values.
func (b *Brand) ColorHexes(n int) []string {
	var hexes []string
	for _, c := range b.Colors {
		if c.Hex == "" {
			continue
		}
		hexes = append(hexes, c.Hex)
		if len(hexes) == n {
			return hexes
		}
	}
	return hexes
}

// Client talks to the Brandfetch REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a Brandfetch client with the given opaque bearer token.
func New(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("brandfetch: token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Brand fetches brand assets for the given domain (e.g. "acme.com").
func (c *Client) Brand(ctx context.Context, domain string) (*Brand, error) {
	if domain == "" {
		return nil, errors.New("brandfetch: domain is required")
	}

	url := fmt.Sprintf("%s/v2/brands/%s", c.baseURL, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building brandfetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling brandfetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return nil, fmt.Errorf("brandfetch returned status %d for %s: %s",
			resp.StatusCode, domain, utils.Truncate(string(body), maxErrorBody))
	}

	var brand Brand
	if err := json.NewDecoder(resp.Body).Decode(&brand); err != nil {
		return nil, fmt.Errorf("decoding brandfetch response: %w", err)
	}

	c.logger.Debug("fetched brand assets",
		"domain", domain,
		"logos", len(brand.Logos),
		"colors", len(brand.Colors),
	)

	return &brand, nil
}
