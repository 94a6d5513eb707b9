// Package repos maps GitHub repository URLs to SonarCloud projects.
//
// The static catalog is a JSON file listing the repositories that are wired
// to SonarCloud. It is read lazily, once, and kept for the life of the
// process.
package repos

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Repository is one configured repository.
type Repository struct {
	GitHubURL       string `json:"githubUrl"`
	SonarProjectKey string `json:"sonarProjectKey"`
	DisplayName     string `json:"displayName"`
	Branch          string `json:"branch,omitempty"`
	Configured      bool   `json:"configured"`
	LastSync        string `json:"lastSync,omitempty"`
}

// File is the on-disk shape of the catalog.
type File struct {
	Repositories []Repository `json:"repositories"`
}

// Catalog is the lazily loaded static repository list. Candidate paths are
// tried in order; the first that exists is used.
type Catalog struct {
	paths []string

	mu     sync.Mutex
	loaded bool
	repos  []Repository
}

// NewCatalog creates a catalog reading from the first existing path.
func NewCatalog(paths ...string) *Catalog {
	return &Catalog{paths: paths}
}

// All returns the configured repositories. A missing or malformed file yields
// an empty list and is retried on the next call; a successful read is kept
// until Clear.
func (c *Catalog) All() []Repository {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return slices.Clone(c.repos)
	}

	repos, path, err := c.read()
	if err != nil {
		log.Error().Err(err).Strs("paths", c.paths).Msg("loading repository catalog")
		return []Repository{}
	}
	c.repos = repos
	c.loaded = true
	log.Info().Str("path", path).Int("count", len(repos)).Msg("repository catalog loaded")
	return slices.Clone(c.repos)
}

func (c *Catalog) read() ([]Repository, string, error) {
	for _, p := range c.paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("path", p).Msg("repository catalog not found")
			continue
		}
		if err != nil {
			return nil, p, err
		}
		var f File
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, p, err
		}
		if f.Repositories == nil {
			f.Repositories = []Repository{}
		}
		return f.Repositories, p, nil
	}
	return nil, "", errors.New("repository catalog not found at any configured path")
}

// Clear drops the cached list so the next call reloads the file.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.repos = nil
}

// FindByURL returns the repository whose normalised URL equals url's.
func (c *Catalog) FindByURL(url string) (Repository, bool) {
	want := NormalizeURL(url)
	for _, r := range c.All() {
		if NormalizeURL(r.GitHubURL) == want {
			return r, true
		}
	}
	log.Debug().Str("url", url).Str("normalized", want).Msg("repository not in catalog")
	return Repository{}, false
}

// FindByProjectKey returns the repository wired to a SonarCloud project.
func (c *Catalog) FindByProjectKey(key string) (Repository, bool) {
	for _, r := range c.All() {
		if r.SonarProjectKey == key {
			return r, true
		}
	}
	return Repository{}, false
}

var githubURLPattern = regexp.MustCompile(`(?i)^https?://(www\.)?github\.com/[\w-]+/[\w.-]+(\.git)?/?$`)

// IsValidGitHubURL reports whether url looks like a GitHub repository URL.
func IsValidGitHubURL(url string) bool {
	return githubURLPattern.MatchString(url)
}

var githubPathPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)/?$`)

// ParseGitHubURL extracts owner and repository name.
func ParseGitHubURL(url string) (owner, repo string, ok bool) {
	m := githubPathPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// NormalizeURL lowercases url and drops one trailing slash, then a trailing
// ".git".
func NormalizeURL(url string) string {
	u := strings.ToLower(url)
	u = strings.TrimSuffix(u, "/")
	return strings.TrimSuffix(u, ".git")
}
