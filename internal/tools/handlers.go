package tools

import (
	"context"
	"encoding/json"

	"github.com/geacyber/cyberbot/internal/analysis"
)

type repoArgs struct {
	GitHubURL     string `json:"githubUrl"`
	IncludeIssues *bool  `json:"includeIssues"`
}

type websiteArgs struct {
	TargetURL string `json:"targetUrl"`
	URL       string `json:"url"`
	Strategy  string `json:"strategy"`
}

func (a websiteArgs) target() string {
	if a.TargetURL != "" {
		return a.TargetURL
	}
	return a.URL
}

func validateRepo(svc *analysis.Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := decode[repoArgs](raw)
		if err != nil {
			return nil, err
		}
		return svc.ValidateRepo(ctx, args.GitHubURL)
	}
}

func codeAnalysis(svc *analysis.Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := decode[repoArgs](raw)
		if err != nil {
			return nil, err
		}
		include := args.IncludeIssues == nil || *args.IncludeIssues
		a, err := svc.CodeAnalysis(ctx, args.GitHubURL, include)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "data": a}, nil
	}
}

func websitePerformance(svc *analysis.Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := decode[websiteArgs](raw)
		if err != nil {
			return nil, err
		}
		res, err := svc.Performance(ctx, args.target(), args.Strategy)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "data": res}, nil
	}
}

func websiteAudit(svc *analysis.Service) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		args, err := decode[websiteArgs](raw)
		if err != nil {
			return nil, err
		}
		return svc.Audit(ctx, args.target(), args.Strategy)
	}
}

// RegisterAudit adds the detailed Lighthouse report as analyze_website.
func RegisterAudit(r *Registry, svc *analysis.Service) {
	r.Register(AnalyzeWebsite, websiteAudit(svc))
}
