package tools

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Definitions returns the function schemas the assistant must be configured
// with, in the order they are presented to it.
func Definitions() []openai.FunctionDefinition {
	return []openai.FunctionDefinition{
		{
			Name:        string(ValidateGitHubRepo),
			Description: "Validates if a GitHub repository URL is configured in SonarCloud for analysis. Call this first when user provides a GitHub URL.",
			Parameters: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"github_url": {
						Type:        jsonschema.String,
						Description: "Full GitHub repository URL (e.g., https://github.com/owner/repo)",
					},
				},
				Required: []string{"github_url"},
			},
		},
		{
			Name:        string(GetCodeAnalysis),
			Description: "Retrieves comprehensive code quality analysis from SonarCloud including bugs, vulnerabilities, code smells, test coverage, and actionable recommendations. Only call after validating the repository.",
			Parameters: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"github_url": {
						Type:        jsonschema.String,
						Description: "Full GitHub repository URL that was previously validated (e.g., https://github.com/owner/repo)",
					},
					"include_issues": {
						Type:        jsonschema.Boolean,
						Description: "Include detailed list of issues in the analysis (defaults to true)",
					},
				},
				Required: []string{"github_url"},
			},
		},
		{
			Name:        string(AnalyzeWebsitePerformance),
			Description: "Analyzes a website's performance using Google PageSpeed Insights. Returns Lighthouse scores (performance, accessibility, SEO, best practices), Core Web Vitals (LCP, FID, CLS, FCP, TTFB), and specific recommendations for improvement. Use this when users ask about website speed, performance, or Core Web Vitals.",
			Strict:      true,
			Parameters: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"target_url": {
						Type:        jsonschema.String,
						Description: "The full URL of the website to analyze (e.g., https://example.com)",
					},
					"strategy": {
						Type:        jsonschema.String,
						Enum:        []string{"mobile", "desktop"},
						Description: "Test as mobile or desktop device. Use 'mobile' for mobile device simulation, 'desktop' for desktop simulation.",
					},
				},
				Required:             []string{"target_url", "strategy"},
				AdditionalProperties: false,
			},
		},
	}
}

// AuditDefinition describes analyze_website, registered by RegisterAudit.
func AuditDefinition() openai.FunctionDefinition {
	return openai.FunctionDefinition{
		Name:        string(AnalyzeWebsite),
		Description: "Runs a detailed Lighthouse audit of a website: category scores, lab metrics with ratings, the largest improvement opportunities, diagnostics and prioritized recommendations. Use this when users want an in-depth performance report rather than a quick summary.",
		Parameters: &jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"url": {
					Type:        jsonschema.String,
					Description: "The full URL of the website to audit (e.g., https://example.com)",
				},
				"strategy": {
					Type:        jsonschema.String,
					Enum:        []string{"mobile", "desktop"},
					Description: "Device profile to emulate (defaults to mobile).",
				},
			},
			Required: []string{"url"},
		},
	}
}

// AssistantTools wraps function definitions for the assistants API. With
// audit set the analyze_website definition is appended.
func AssistantTools(audit bool) []openai.AssistantTool {
	defs := Definitions()
	if audit {
		defs = append(defs, AuditDefinition())
	}
	out := make([]openai.AssistantTool, len(defs))
	for i := range defs {
		out[i] = openai.AssistantTool{Type: openai.AssistantToolTypeFunction, Function: &defs[i]}
	}
	return out
}
