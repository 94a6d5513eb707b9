package analysis

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geacyber/cyberbot/internal/pagespeed"
	"github.com/geacyber/cyberbot/internal/repos"
	"github.com/geacyber/cyberbot/internal/sonar"
	"github.com/geacyber/cyberbot/internal/vendor"
)

type fakeSonar struct {
	analysis *sonar.Analysis
	err      error
	gotKey   string
}

func (f *fakeSonar) GetFullAnalysis(_ context.Context, key string, repo sonar.RepoRef) (*sonar.Analysis, error) {
	f.gotKey = key
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return sonar.Normalize(key, repo, sonar.Project{Key: key},
		nil, []sonar.Issue{{Key: "i1", Severity: sonar.SeverityCritical}}), nil
}

type fakePageSpeed struct {
	err         error
	gotURL      string
	gotStrategy pagespeed.Strategy
}

func (f *fakePageSpeed) Analyze(_ context.Context, target string, st pagespeed.Strategy) (*pagespeed.Result, error) {
	f.gotURL, f.gotStrategy = target, st
	if f.err != nil {
		return nil, f.err
	}
	return &pagespeed.Result{URL: target, Strategy: st}, nil
}

func (f *fakePageSpeed) Audit(_ context.Context, target string, st pagespeed.Strategy) (*pagespeed.Report, error) {
	f.gotURL, f.gotStrategy = target, st
	if f.err != nil {
		return nil, f.err
	}
	return &pagespeed.Report{URL: target, Strategy: st}, nil
}

func newService(s CodeQuality, p Performance) *Service {
	return &Service{
		Catalog:   repos.NewCatalog(filepath.Join("testdata", "sonar-repos.json")),
		Sonar:     s,
		PageSpeed: p,
	}
}

func requireStatus(t *testing.T, err error, status int) *RequestError {
	t.Helper()
	re, ok := AsRequestError(err)
	require.True(t, ok, "expected RequestError, got %v", err)
	assert.Equal(t, status, re.Status)
	return re
}

func TestValidateRepo(t *testing.T) {
	svc := newService(nil, nil)
	ctx := context.Background()

	_, err := svc.ValidateRepo(ctx, "  ")
	re := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "GitHub URL is required", re.Message)

	_, err = svc.ValidateRepo(ctx, "https://gitlab.com/a/b")
	requireStatus(t, err, http.StatusBadRequest)

	res, err := svc.ValidateRepo(ctx, "https://github.com/acme/WEB.git")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "acme_web", res.ProjectKey)
	assert.Equal(t, "Repository is configured and ready for analysis", res.Message)

	res, err = svc.ValidateRepo(ctx, "https://github.com/acme/other")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Repository not configured in SonarCloud", res.Error)
}

func TestCodeAnalysis(t *testing.T) {
	fs := &fakeSonar{}
	svc := newService(fs, nil)

	a, err := svc.CodeAnalysis(context.Background(), "https://github.com/acme/web", true)
	require.NoError(t, err)
	assert.Equal(t, "acme_web", fs.gotKey)
	assert.Equal(t, "Acme Web", a.Repository.DisplayName)
	assert.Len(t, a.Issues.Critical, 1)

	a, err = svc.CodeAnalysis(context.Background(), "https://github.com/acme/web", false)
	require.NoError(t, err)
	assert.Empty(t, a.Issues.Critical)
	assert.Equal(t, 1, a.IssueCounts.Critical)
}

func TestCodeAnalysisErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newService(&fakeSonar{}, nil).CodeAnalysis(ctx, "", true)
	requireStatus(t, err, http.StatusBadRequest)

	_, err = newService(&fakeSonar{}, nil).CodeAnalysis(ctx, "https://github.com/acme/unknown", true)
	re := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Repository not configured", re.Body()["error"])

	_, err = newService(nil, nil).CodeAnalysis(ctx, "https://github.com/acme/web", true)
	re = requireStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "SonarCloud not configured", re.Message)
	assert.Contains(t, re.Detail, "SONARCLOUD_TOKEN")

	vendorErr := &vendor.Error{Kind: vendor.KindUnauthorized, StatusCode: 401,
		Message: "Authentication failed. Check your SonarCloud token.", Details: []byte(`{"errors":[]}`)}
	_, err = newService(&fakeSonar{err: vendorErr}, nil).CodeAnalysis(ctx, "https://github.com/acme/web", true)
	re = requireStatus(t, err, http.StatusUnauthorized)
	body := re.Body()
	assert.Equal(t, vendorErr.Message, body["error"])
	assert.Equal(t, 401, body["statusCode"])
	assert.NotNil(t, body["details"])

	_, err = newService(&fakeSonar{err: errors.New("boom")}, nil).CodeAnalysis(ctx, "https://github.com/acme/web", true)
	re = requireStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "Failed to fetch analysis", re.Message)
}

func TestPerformanceValidation(t *testing.T) {
	fp := &fakePageSpeed{}
	svc := newService(nil, fp)
	ctx := context.Background()

	for _, tc := range []struct{ url, strategy string }{
		{"", "mobile"},
		{"example.com", "mobile"},
		{"https://example.com", "tablet"},
	} {
		_, err := svc.Performance(ctx, tc.url, tc.strategy)
		requireStatus(t, err, http.StatusBadRequest)
	}
	assert.Empty(t, fp.gotURL, "vendor must not be called for invalid input")

	res, err := svc.Performance(ctx, "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, pagespeed.Mobile, res.Strategy)
}

func TestPerformanceVendorStatusCoerced(t *testing.T) {
	svc := newService(nil, &fakePageSpeed{err: &vendor.Error{StatusCode: 302, Message: "odd"}})
	_, err := svc.Performance(context.Background(), "https://example.com", "desktop")
	requireStatus(t, err, http.StatusInternalServerError)
}

func TestAudit(t *testing.T) {
	fp := &fakePageSpeed{}
	svc := newService(nil, fp)

	_, err := svc.Audit(context.Background(), "", "")
	re := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "URL is required", re.Message)

	rep, err := svc.Audit(context.Background(), "https://example.com", "desktop")
	require.NoError(t, err)
	assert.Equal(t, pagespeed.Desktop, rep.Strategy)
}

type staticLister []repos.Repository

func (s staticLister) List(context.Context) []repos.Repository { return s }

func TestListRepos(t *testing.T) {
	svc := newService(nil, nil)
	assert.Len(t, svc.ListRepos(context.Background()), 2)

	svc.Repos = staticLister{{GitHubURL: "https://github.com/x/y", SonarProjectKey: "x_y", Configured: true}}
	got := svc.ListRepos(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, RepoSummary{GitHubURL: "https://github.com/x/y", SonarProjectKey: "x_y", Configured: true}, got[0])
}
