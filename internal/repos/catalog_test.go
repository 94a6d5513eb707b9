package repos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLEquality(t *testing.T) {
	assert.Equal(t, NormalizeURL("https://github.com/owner/repo"), NormalizeURL("https://github.com/Owner/Repo.git/"))
	assert.Equal(t, "https://github.com/a/b", NormalizeURL("https://github.com/A/B/"))
	assert.NotEqual(t, NormalizeURL("https://github.com/a/b"), NormalizeURL("https://github.com/a/bc"))
}

func TestIsValidGitHubURL(t *testing.T) {
	valid := []string{
		"https://github.com/owner/repo",
		"http://www.github.com/owner/repo.git",
		"https://GitHub.com/my-org/my.repo/",
	}
	invalid := []string{
		"github.com/owner/repo",
		"https://gitlab.com/owner/repo",
		"https://github.com/owner",
		"https://github.com/owner/repo/tree/main",
		"https://github.com/own er/repo",
	}
	for _, u := range valid {
		assert.True(t, IsValidGitHubURL(u), u)
	}
	for _, u := range invalid {
		assert.False(t, IsValidGitHubURL(u), u)
	}
}

func TestParseGitHubURL(t *testing.T) {
	owner, repo, ok := ParseGitHubURL("https://github.com/acme/web.git/")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "web", repo)

	_, _, ok = ParseGitHubURL("https://example.com")
	assert.False(t, ok)
}

func TestCatalogFind(t *testing.T) {
	c := NewCatalog(filepath.Join("testdata", "missing.json"), filepath.Join("testdata", "sonar-repos.json"))

	r, ok := c.FindByURL("https://github.com/acme/web/")
	require.True(t, ok)
	assert.Equal(t, "acme_web", r.SonarProjectKey)

	r, ok = c.FindByURL("https://github.com/ACME/api")
	require.True(t, ok)
	assert.Equal(t, "Acme API", r.DisplayName)

	_, ok = c.FindByURL("https://github.com/acme/unknown")
	assert.False(t, ok)

	r, ok = c.FindByProjectKey("acme_api")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/acme/api.git", r.GitHubURL)
}

func TestCatalogCachesUntilClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.json")
	write := func(body string) {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	write(`{"repositories":[{"githubUrl":"https://github.com/a/one","sonarProjectKey":"a_one"}]}`)

	c := NewCatalog(path)
	assert.Len(t, c.All(), 1)

	write(`{"repositories":[{"githubUrl":"https://github.com/a/one"},{"githubUrl":"https://github.com/a/two"}]}`)
	assert.Len(t, c.All(), 1, "served from cache")

	c.Clear()
	assert.Len(t, c.All(), 2)
}

func TestCatalogMissingOrBrokenIsEmpty(t *testing.T) {
	assert.Empty(t, NewCatalog(filepath.Join(t.TempDir(), "nope.json")).All())

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	c := NewCatalog(path)
	assert.Empty(t, c.All())

	require.NoError(t, os.WriteFile(path, []byte(`{"repositories":[{"githubUrl":"https://github.com/a/b"}]}`), 0o644))
	assert.Len(t, c.All(), 1, "failed loads are not cached")
}

func TestCatalogAllReturnsCopy(t *testing.T) {
	c := NewCatalog(filepath.Join("testdata", "sonar-repos.json"))
	first := c.All()
	first[0].DisplayName = "changed"
	assert.Equal(t, "Acme Web", c.All()[0].DisplayName)
}
