// Package github looks up repository metadata on GitHub. It is used to
// confirm repository URLs rebuilt from SonarCloud project keys.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogh "github.com/google/go-github/v68/github"
)

// ErrNotFound is returned when the repository does not exist or is not
// visible to the token.
var ErrNotFound = errors.New("repository not found")

// Client wraps the GitHub API.
type Client struct {
	gh *gogh.Client
}

// NewClient creates a GitHub client authenticated with the given token.
func NewClient(token string) *Client {
	return &Client{
		gh: gogh.NewClient(nil).WithAuthToken(token),
	}
}

// NewClientWithBaseURL points the client at another API root (tests, GHES).
func NewClientWithBaseURL(token, baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	gh := gogh.NewClient(httpClient)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	gh.BaseURL = u
	return &Client{gh: gh}, nil
}

// Repo is the subset of repository metadata cyberbot uses.
type Repo struct {
	FullName      string
	HTMLURL       string
	DefaultBranch string
	Description   string
	Archived      bool
}

// Repository fetches metadata for owner/repo.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*Repo, error) {
	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s/%s: %w", owner, repo, ErrNotFound)
		}
		return nil, fmt.Errorf("getting repository: %w", err)
	}
	return &Repo{
		FullName:      r.GetFullName(),
		HTMLURL:       r.GetHTMLURL(),
		DefaultBranch: r.GetDefaultBranch(),
		Description:   r.GetDescription(),
		Archived:      r.GetArchived(),
	}, nil
}

// SplitRepo splits "owner/repo".
func SplitRepo(fullName string) (owner, repo string, err error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q, expected \"owner/repo\"", fullName)
	}
	return parts[0], parts[1], nil
}
