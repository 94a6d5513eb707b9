// Package analysis implements the code-quality and performance operations
// shared by the HTTP routes and the assistant's tools.
package analysis

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/pagespeed"
	"github.com/geacyber/cyberbot/internal/repos"
	"github.com/geacyber/cyberbot/internal/sonar"
)

// CodeQuality produces a full SonarCloud analysis.
type CodeQuality interface {
	GetFullAnalysis(ctx context.Context, projectKey string, repo sonar.RepoRef) (*sonar.Analysis, error)
}

// Performance runs PageSpeed analyses.
type Performance interface {
	Analyze(ctx context.Context, target string, strategy pagespeed.Strategy) (*pagespeed.Result, error)
	Audit(ctx context.Context, target string, strategy pagespeed.Strategy) (*pagespeed.Report, error)
}

// RepoLister lists repositories, live or static.
type RepoLister interface {
	List(ctx context.Context) []repos.Repository
}

// Service wires the vendor clients to the repository catalog. Sonar is nil
// when SonarCloud credentials are missing.
type Service struct {
	Catalog   *repos.Catalog
	Repos     RepoLister
	Sonar     CodeQuality
	PageSpeed Performance
}

// ValidateResult answers whether a repository can be analysed.
type ValidateResult struct {
	Valid       bool   `json:"valid"`
	ProjectKey  string `json:"projectKey,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	LastSync    string `json:"lastSync,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ValidateRepo checks the URL shape and looks the repository up. An unknown
// repository is a valid:false result, not an error.
func (s *Service) ValidateRepo(_ context.Context, githubURL string) (*ValidateResult, error) {
	githubURL = strings.TrimSpace(githubURL)
	if githubURL == "" {
		return nil, badRequest("GitHub URL is required")
	}
	if !repos.IsValidGitHubURL(githubURL) {
		return nil, badRequest("Invalid GitHub URL format. Expected: https://github.com/owner/repo")
	}

	repo, ok := s.Catalog.FindByURL(githubURL)
	if !ok {
		return &ValidateResult{
			Valid:   false,
			Error:   "Repository not configured in SonarCloud",
			Message: "Please ensure this repository is added to your SonarCloud organization and configured in sonar-repos.json",
		}, nil
	}
	return &ValidateResult{
		Valid:       true,
		ProjectKey:  repo.SonarProjectKey,
		DisplayName: repo.DisplayName,
		LastSync:    repo.LastSync,
		Message:     "Repository is configured and ready for analysis",
	}, nil
}

// CodeAnalysis fetches the normalised SonarCloud report for a configured
// repository. With includeIssues false the issue lists are dropped and only
// their counts kept.
func (s *Service) CodeAnalysis(ctx context.Context, githubURL string, includeIssues bool) (*sonar.Analysis, error) {
	githubURL = strings.TrimSpace(githubURL)
	if githubURL == "" {
		return nil, badRequest("GitHub URL is required")
	}

	repo, ok := s.Catalog.FindByURL(githubURL)
	if !ok {
		return nil, &RequestError{
			Status:  http.StatusNotFound,
			Message: "Repository not configured",
			Detail:  "This repository is not configured in SonarCloud. Please add it to sonar-repos.json first.",
		}
	}
	if s.Sonar == nil {
		log.Error().Msg("sonarcloud credentials missing")
		return nil, &RequestError{
			Status:  http.StatusInternalServerError,
			Message: "SonarCloud not configured",
			Detail:  "Missing SONARCLOUD_TOKEN or SONARCLOUD_ORGANIZATION environment variables",
		}
	}

	log.Info().Str("project", repo.SonarProjectKey).Bool("include_issues", includeIssues).
		Msg("fetching code analysis")
	a, err := s.Sonar.GetFullAnalysis(ctx, repo.SonarProjectKey, sonar.RepoRef{
		GitHubURL:   repo.GitHubURL,
		DisplayName: repo.DisplayName,
	})
	if err != nil {
		log.Error().Err(err).Str("project", repo.SonarProjectKey).Msg("code analysis failed")
		return nil, fromVendor(err, "Failed to fetch analysis")
	}
	log.Info().Str("project", repo.SonarProjectKey).Float64("bugs", a.Summary.Bugs).
		Float64("vulnerabilities", a.Summary.Vulnerabilities).Msg("code analysis complete")

	if !includeIssues {
		a = a.WithoutIssueDetail()
	}
	return a, nil
}

// Performance runs the compact PageSpeed analysis.
func (s *Service) Performance(ctx context.Context, targetURL, strategy string) (*pagespeed.Result, error) {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return nil, badRequest("targetUrl is required")
	}
	if !pagespeed.ValidateURL(targetURL) {
		return nil, badRequest("Invalid URL format. Please provide a full URL (e.g., https://example.com)")
	}
	st, ok := pagespeed.ParseStrategy(strategy)
	if !ok {
		return nil, badRequest(`strategy must be "mobile" or "desktop"`)
	}

	res, err := s.PageSpeed.Analyze(ctx, targetURL, st)
	if err != nil {
		return nil, fromVendor(err, "Internal server error")
	}
	return res, nil
}

// Audit runs the detailed Lighthouse report.
func (s *Service) Audit(ctx context.Context, targetURL, strategy string) (*pagespeed.Report, error) {
	targetURL = strings.TrimSpace(targetURL)
	if targetURL == "" {
		return nil, badRequest("URL is required")
	}
	st, ok := pagespeed.ParseStrategy(strategy)
	if !ok {
		return nil, badRequest(`Strategy must be either "mobile" or "desktop"`)
	}

	rep, err := s.PageSpeed.Audit(ctx, targetURL, st)
	if err != nil {
		return nil, fromVendor(err, "Failed to analyze website")
	}
	log.Info().Str("url", targetURL).Str("strategy", string(st)).
		Int("performance", rep.Scores.Performance).Msg("website audit complete")
	return rep, nil
}

// RepoSummary is the listing shape of a repository.
type RepoSummary struct {
	GitHubURL       string `json:"githubUrl"`
	DisplayName     string `json:"displayName"`
	SonarProjectKey string `json:"sonarProjectKey"`
	Configured      bool   `json:"configured"`
}

// ListRepos returns the known repositories. It never fails.
func (s *Service) ListRepos(ctx context.Context) []RepoSummary {
	var list []repos.Repository
	if s.Repos != nil {
		list = s.Repos.List(ctx)
	} else {
		list = s.Catalog.All()
	}
	out := make([]RepoSummary, 0, len(list))
	for _, r := range list {
		out = append(out, RepoSummary{
			GitHubURL:       r.GitHubURL,
			DisplayName:     r.DisplayName,
			SonarProjectKey: r.SonarProjectKey,
			Configured:      r.Configured,
		})
	}
	return out
}
