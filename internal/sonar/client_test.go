package sonar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geacyber/cyberbot/internal/vendor"
)

// fakeSonar serves canned bodies per endpoint path.
type fakeSonar struct {
	t        *testing.T
	handlers map[string]http.HandlerFunc
}

func newFakeSonar(t *testing.T) *fakeSonar {
	return &fakeSonar{t: t, handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeSonar) json(path string, status int, body any) {
	f.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func (f *fakeSonar) start() (*Client, *httptest.Server) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			f.t.Errorf("Authorization = %q", got)
		}
		h, ok := f.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	f.t.Cleanup(srv.Close)
	return NewClient("tok", "acme", WithBaseURL(srv.URL), WithHTTPClient(srv.Client())), srv
}

func TestGetProject(t *testing.T) {
	f := newFakeSonar(t)
	f.handlers["/projects/search"] = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme_web", r.URL.Query().Get("projects"))
		assert.Equal(t, "acme", r.URL.Query().Get("organization"))
		w.Write([]byte(`{"components":[{"key":"acme_web","name":"Web","lastAnalysisDate":"2024-01-02T03:04:05+0000"}]}`))
	}
	c, _ := f.start()

	p, err := c.GetProject(context.Background(), "acme_web")
	require.NoError(t, err)
	assert.Equal(t, "Web", p.Name)
}

func TestGetProjectEmptyIsNotFound(t *testing.T) {
	f := newFakeSonar(t)
	f.json("/projects/search", 200, map[string]any{"components": []any{}})
	c, _ := f.start()

	_, err := c.GetProject(context.Background(), "ghost")
	ve, ok := vendor.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, ve.StatusCode)
	assert.Equal(t, "Project not found: ghost", ve.Message)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{429, "Rate limit exceeded. Please try again later."},
		{401, "Authentication failed. Check your SonarCloud token."},
		{404, "Resource not found. Check project key and organization."},
		{502, "SonarCloud server error. Please try again."},
		{403, "SonarCloud API request failed"},
	}
	for _, tt := range tests {
		f := newFakeSonar(t)
		f.json("/hotspots/search", tt.status, map[string]any{})
		c, _ := f.start()

		_, err := c.GetHotspots(context.Background(), "k")
		ve, ok := vendor.As(err)
		require.True(t, ok, "status %d", tt.status)
		assert.Equal(t, tt.want, ve.Message)
		assert.Equal(t, tt.status, ve.StatusCode)
	}
}

func TestGetIssuesFilters(t *testing.T) {
	f := newFakeSonar(t)
	f.handlers["/issues/search"] = func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "k", q.Get("componentKeys"))
		assert.Equal(t, "500", q.Get("ps"))
		assert.Equal(t, "BLOCKER,CRITICAL", q.Get("severities"))
		assert.Equal(t, "BUG", q.Get("types"))
		w.Write([]byte(`{"issues":[{"key":"i1","severity":"BLOCKER","type":"BUG","line":12}],"total":1}`))
	}
	c, _ := f.start()

	issues, err := c.GetIssues(context.Background(), "k", []string{"BLOCKER", "CRITICAL"}, []string{"BUG"})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 12, issues[0].Line)
}

func TestGetFullAnalysis(t *testing.T) {
	f := newFakeSonar(t)
	f.json("/projects/search", 200, map[string]any{
		"components": []map[string]any{{"key": "acme_web", "name": "Web", "lastAnalysisDate": "2024-05-01"}},
	})
	f.handlers["/measures/component"] = func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("metricKeys"), "sqale_rating")
		w.Write([]byte(`{"component":{"key":"acme_web","measures":[
			{"metric":"bugs","value":"2"},
			{"metric":"coverage","value":"90"},
			{"metric":"reliability_rating","value":"3"},
			{"metric":"security_rating","value":"1"}
		]}}`))
	}
	f.json("/issues/search", 200, map[string]any{
		"issues": []map[string]any{{"key": "i1", "severity": "MAJOR"}, {"key": "i2", "severity": "INFO"}},
	})
	c, _ := f.start()

	a, err := c.GetFullAnalysis(context.Background(), "acme_web",
		RepoRef{GitHubURL: "https://github.com/acme/web", DisplayName: "Acme Web"})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01", a.Repository.LastAnalysisDate)
	assert.Equal(t, "Acme Web", a.Repository.DisplayName)
	assert.Equal(t, 2.0, a.Summary.Bugs)
	assert.Equal(t, Ratings{Reliability: "C", Security: "A", Maintainability: NotReported}, a.Ratings)
	assert.Equal(t, 2, a.IssueCounts.Total)
	assert.Equal(t, []string{"Found 2 bugs. Prioritize fixing bugs to improve reliability."}, a.Recommendations)
}

func TestGetFullAnalysisFailsWithProjectNotFound(t *testing.T) {
	f := newFakeSonar(t)
	f.json("/projects/search", 404, map[string]any{"errors": []map[string]string{{"msg": "unknown"}}})
	f.json("/measures/component", 200, map[string]any{"component": map[string]any{"measures": []any{}}})
	f.json("/issues/search", 200, map[string]any{"issues": []any{}})
	c, _ := f.start()

	a, err := c.GetFullAnalysis(context.Background(), "acme_web", RepoRef{})
	assert.Nil(t, a)
	ve, ok := vendor.As(err)
	require.True(t, ok)
	assert.Equal(t, 404, ve.HTTPStatus())
	assert.Equal(t, "Resource not found. Check project key and organization.", ve.Message)
}

func TestSearchProjects(t *testing.T) {
	f := newFakeSonar(t)
	f.handlers["/projects/search"] = func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "500", r.URL.Query().Get("ps"))
		assert.Empty(t, r.URL.Query().Get("projects"))
		w.Write([]byte(`{"components":[{"key":"acme_web","name":"Web"},{"key":"acme_api","name":"API"}]}`))
	}
	c, _ := f.start()

	projects, err := c.SearchProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}
