package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/geacyber/cyberbot/internal/github"
	"github.com/geacyber/cyberbot/internal/sonar"
)

// ProjectSource lists the SonarCloud projects of the configured organization.
type ProjectSource interface {
	SearchProjects(ctx context.Context) ([]sonar.Project, error)
}

// RepoVerifier resolves a repository on GitHub.
type RepoVerifier interface {
	Repository(ctx context.Context, owner, repo string) (*github.Repo, error)
}

// verifyConcurrency bounds parallel GitHub lookups.
const verifyConcurrency = 4

// Live lists repositories from SonarCloud, falling back to the static catalog.
// Projects and Verifier may be nil.
type Live struct {
	Catalog  *Catalog
	Projects ProjectSource
	Verifier RepoVerifier
}

// List returns the repositories SonarCloud knows about. Entries present in the
// static catalog keep their configured URL and name; the rest get a URL rebuilt
// from an "owner_repo" project key. Without a project source, or when the call
// fails, the static catalog is returned.
func (l *Live) List(ctx context.Context) []Repository {
	if l.Projects == nil {
		return l.Catalog.All()
	}
	projects, err := l.Projects.SearchProjects(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("listing sonarcloud projects, using static catalog")
		return l.Catalog.All()
	}

	out := make([]Repository, len(projects))
	keep := make([]bool, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for i, p := range projects {
		if r, ok := l.Catalog.FindByProjectKey(p.Key); ok {
			r.Configured = true
			out[i], keep[i] = r, true
			continue
		}
		owner, name, ok := SplitProjectKey(p.Key)
		if !ok {
			log.Debug().Str("project", p.Key).Msg("project key does not encode a repository")
			continue
		}
		g.Go(func() error {
			out[i], keep[i] = l.reconstruct(gctx, p, owner, name)
			return nil
		})
	}
	_ = g.Wait()

	repos := []Repository{}
	for i := range out {
		if keep[i] {
			repos = append(repos, out[i])
		}
	}
	return repos
}

func (l *Live) reconstruct(ctx context.Context, p sonar.Project, owner, name string) (Repository, bool) {
	r := Repository{
		GitHubURL:       "https://github.com/" + owner + "/" + name,
		SonarProjectKey: p.Key,
		DisplayName:     p.Name,
		Configured:      true,
		LastSync:        p.LastAnalysisDate,
	}
	if r.DisplayName == "" {
		r.DisplayName = name
	}
	if l.Verifier == nil {
		return r, true
	}

	gh, err := l.Verifier.Repository(ctx, owner, name)
	switch {
	case errors.Is(err, github.ErrNotFound):
		log.Debug().Str("project", p.Key).Msg("rebuilt repository url does not exist on github")
		return Repository{}, false
	case err != nil:
		log.Warn().Err(err).Str("project", p.Key).Msg("verifying repository on github")
		return r, true
	}
	if gh.HTMLURL != "" {
		r.GitHubURL = gh.HTMLURL
	}
	r.Branch = gh.DefaultBranch
	return r, true
}

// SplitProjectKey splits a SonarCloud key of the form "owner_repo" on its
// first underscore.
func SplitProjectKey(key string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(key, "_")
	if !ok || owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
