// Package pagespeed is a client for the Google PageSpeed Insights API with
// two normalisers: a compact Result and a detailed Lighthouse Report.
package pagespeed

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/geacyber/cyberbot/internal/vendor"
)

// DefaultBaseURL is the runPagespeed endpoint.
const DefaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

const service = "PageSpeed"

// Client calls runPagespeed. A nil limiter means unthrottled.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRequestsPerMinute throttles outbound calls. Zero removes the limit.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// NewClient creates a client. apiKey is optional; without it the vendor
// applies a much lower anonymous quota.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		// Lighthouse runs routinely take 10-30s.
		http: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) messages() vendor.Messages {
	rateLimited := "PageSpeed API rate limit exceeded. Please try again later."
	if c.apiKey == "" {
		rateLimited = "PageSpeed API rate limit exceeded. Consider adding PAGESPEED_API_KEY for higher rate limits (25k/day vs 25/day)."
	}
	return vendor.Messages{
		RateLimited:  rateLimited,
		Unauthorized: "Authentication failed. Check your Google API key.",
		BadRequest:   "Invalid request. Check the URL format.",
		Server:       "PageSpeed API server error. Please try again later.",
		Fallback:     "PageSpeed API request failed",
		Connect:      "Failed to analyze website",
	}
}

// ValidateURL reports whether target is an absolute http(s) URL.
func ValidateURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func invalidURL() *vendor.Error {
	return &vendor.Error{
		Service:    service,
		Kind:       vendor.KindBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    "Invalid URL format. Please provide a full URL (e.g., https://example.com)",
	}
}

// Fetch runs one analysis and returns the raw response.
func (c *Client) Fetch(ctx context.Context, target string, strategy Strategy) (*Response, error) {
	if !ValidateURL(target) {
		return nil, invalidURL()
	}
	if strategy == "" {
		strategy = Mobile
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, vendor.Transport(service, err, c.messages())
		}
	}

	q := url.Values{
		"url":      {target},
		"strategy": {string(strategy)},
		"category": Categories,
	}
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	log.Info().Str("url", target).Str("strategy", string(strategy)).
		Bool("has_api_key", c.apiKey != "").Msg("requesting pagespeed analysis")

	var resp Response
	err := vendor.GetJSON(ctx, c.http, vendor.Request{
		Service:  service,
		URL:      c.baseURL,
		Query:    q,
		Messages: c.messages(),
		Redact:   []string{"key"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze returns the compact Result.
func (c *Client) Analyze(ctx context.Context, target string, strategy Strategy) (*Result, error) {
	if strategy == "" {
		strategy = Mobile
	}
	resp, err := c.Fetch(ctx, target, strategy)
	if err != nil {
		return nil, err
	}
	res := Normalize(resp, strategy)
	log.Info().Str("url", res.URL).Int("performance", res.Scores.Performance).
		Int("opportunities", len(res.Opportunities)).Int("diagnostics", len(res.Diagnostics)).
		Msg("pagespeed analysis complete")
	return res, nil
}

// Audit returns the detailed Report.
func (c *Client) Audit(ctx context.Context, target string, strategy Strategy) (*Report, error) {
	if strategy == "" {
		strategy = Mobile
	}
	resp, err := c.Fetch(ctx, target, strategy)
	if err != nil {
		return nil, err
	}
	return NormalizeReport(resp, target, strategy), nil
}
