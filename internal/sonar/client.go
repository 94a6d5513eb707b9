// Package sonar is a client for the SonarCloud Web API and the normaliser
// that turns its responses into the report the assistant reads.
package sonar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/geacyber/cyberbot/internal/vendor"
)

// DefaultBaseURL is the public SonarCloud API root.
const DefaultBaseURL = "https://sonarcloud.io/api"

const service = "SonarCloud"

// maxPageSize is the largest page SonarCloud serves; results beyond it are
// not fetched.
const maxPageSize = "500"

var messages = vendor.Messages{
	RateLimited:  "Rate limit exceeded. Please try again later.",
	Unauthorized: "Authentication failed. Check your SonarCloud token.",
	NotFound:     "Resource not found. Check project key and organization.",
	Server:       "SonarCloud server error. Please try again.",
	Fallback:     "SonarCloud API request failed",
	Connect:      "Failed to connect to SonarCloud",
}

// Client talks to SonarCloud on behalf of one organization.
type Client struct {
	baseURL      string
	token        string
	organization string
	http         *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, SonarQube).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client authenticated with a bearer token.
func NewClient(token, organization string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		token:        token,
		organization: organization,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Organization returns the organization the client is scoped to.
func (c *Client) Organization() string {
	return c.organization
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	return vendor.GetJSON(ctx, c.http, vendor.Request{
		Service:  service,
		URL:      c.baseURL + endpoint,
		Query:    params,
		Header:   http.Header{"Authorization": {"Bearer " + c.token}},
		Messages: messages,
	}, out)
}

// GetProject looks up a project by key. An empty result is a 404.
func (c *Client) GetProject(ctx context.Context, projectKey string) (*Project, error) {
	var resp struct {
		Components []Project `json:"components"`
	}
	err := c.get(ctx, "/projects/search", url.Values{
		"projects":     {projectKey},
		"organization": {c.organization},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Components) == 0 {
		return nil, &vendor.Error{
			Service:    service,
			Kind:       vendor.KindNotFound,
			StatusCode: http.StatusNotFound,
			Message:    "Project not found: " + projectKey,
		}
	}
	return &resp.Components[0], nil
}

// SearchProjects lists the organization's projects (first page of 500).
func (c *Client) SearchProjects(ctx context.Context) ([]Project, error) {
	var resp struct {
		Components []Project `json:"components"`
	}
	err := c.get(ctx, "/projects/search", url.Values{
		"organization": {c.organization},
		"ps":           {maxPageSize},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Components, nil
}

// GetMetrics fetches the named measures for a project.
func (c *Client) GetMetrics(ctx context.Context, projectKey string, metricKeys []string) (*Component, error) {
	var resp struct {
		Component Component `json:"component"`
	}
	err := c.get(ctx, "/measures/component", url.Values{
		"component":  {projectKey},
		"metricKeys": {strings.Join(metricKeys, ",")},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Component, nil
}

// GetIssues fetches up to 500 issues, optionally filtered.
func (c *Client) GetIssues(ctx context.Context, projectKey string, severities, types []string) ([]Issue, error) {
	params := url.Values{
		"componentKeys": {projectKey},
		"ps":            {maxPageSize},
	}
	if len(severities) > 0 {
		params.Set("severities", strings.Join(severities, ","))
	}
	if len(types) > 0 {
		params.Set("types", strings.Join(types, ","))
	}

	var resp struct {
		Issues []Issue `json:"issues"`
		Total  int     `json:"total"`
	}
	if err := c.get(ctx, "/issues/search", params, &resp); err != nil {
		return nil, err
	}
	if resp.Total > len(resp.Issues) {
		log.Debug().Str("project", projectKey).Int("total", resp.Total).
			Int("fetched", len(resp.Issues)).Msg("issue list truncated")
	}
	if resp.Issues == nil {
		return []Issue{}, nil
	}
	return resp.Issues, nil
}

// GetHotspots fetches the project's security hotspots.
func (c *Client) GetHotspots(ctx context.Context, projectKey string) ([]Hotspot, error) {
	var resp struct {
		Hotspots []Hotspot `json:"hotspots"`
	}
	if err := c.get(ctx, "/hotspots/search", url.Values{"projectKey": {projectKey}}, &resp); err != nil {
		return nil, err
	}
	if resp.Hotspots == nil {
		return []Hotspot{}, nil
	}
	return resp.Hotspots, nil
}

// GetFullAnalysis fetches project, metrics and issues concurrently and
// normalises them. The first failure cancels the rest and is returned as is.
func (c *Client) GetFullAnalysis(ctx context.Context, projectKey string, repo RepoRef) (*Analysis, error) {
	var (
		project   *Project
		component *Component
		issues    []Issue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = c.GetProject(gctx, projectKey)
		return err
	})
	g.Go(func() error {
		var err error
		component, err = c.GetMetrics(gctx, projectKey, MetricKeys)
		return err
	})
	g.Go(func() error {
		var err error
		issues, err = c.GetIssues(gctx, projectKey, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		if _, ok := vendor.As(err); ok {
			return nil, err
		}
		return nil, &vendor.Error{
			Service:    service,
			Kind:       vendor.KindFailed,
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("Failed to fetch analysis: %v", err),
			Err:        err,
		}
	}

	return Normalize(projectKey, repo, *project, component.Measures, issues), nil
}
