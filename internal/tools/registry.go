// Package tools dispatches the assistant's function calls to server-side
// handlers.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/analysis"
)

// Name identifies a callable function.
type Name string

const (
	ValidateGitHubRepo        Name = "validate_github_repo"
	GetCodeAnalysis           Name = "get_code_analysis"
	AnalyzeWebsitePerformance Name = "analyze_website_performance"
	// AnalyzeWebsite is the detailed Lighthouse report. It is not part of
	// the base set; see RegisterAudit.
	AnalyzeWebsite Name = "analyze_website"
)

// Handler executes one call. args holds the renamed argument object.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// argRenames maps the assistant's snake_case argument keys to the keys the
// handlers decode.
var argRenames = map[string]string{
	"github_url":     "githubUrl",
	"include_issues": "includeIssues",
	"target_url":     "targetUrl",
}

// Registry maps names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Name]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Name]Handler)}
}

// NewBase returns the registry with the three functions the assistant is
// configured with.
func NewBase(svc *analysis.Service) *Registry {
	r := NewRegistry()
	r.Register(ValidateGitHubRepo, validateRepo(svc))
	r.Register(GetCodeAnalysis, codeAnalysis(svc))
	r.Register(AnalyzeWebsitePerformance, websitePerformance(svc))
	return r
}

// Register adds or replaces a handler.
func (r *Registry) Register(name Name, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]Name, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[Name(name)]
	return ok
}

// Dispatch runs one call and returns its output object. It never fails:
// unknown names, malformed arguments and handler errors all become an
// {"error": ...} object the assistant can read.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) any {
	r.mu.RLock()
	h, ok := r.handlers[Name(name)]
	r.mu.RUnlock()
	if !ok {
		log.Warn().Str("function", name).Msg("unknown function requested")
		return map[string]any{"error": "Unknown function: " + name}
	}

	args, err := RenameArgs(rawArgs)
	if err != nil {
		log.Warn().Err(err).Str("function", name).Msg("malformed function arguments")
		return map[string]any{"error": err.Error()}
	}

	log.Info().Str("function", name).Msg("executing function call")
	out, err := h(ctx, args)
	if err != nil {
		log.Warn().Err(err).Str("function", name).Msg("function call failed")
		return ErrorOutput(err)
	}
	return out
}

// RenameArgs parses a JSON argument object and applies argRenames. Empty input
// is an empty object.
func RenameArgs(rawArgs string) (json.RawMessage, error) {
	if strings.TrimSpace(rawArgs) == "" {
		return json.RawMessage("{}"), nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawArgs), &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	for from, to := range argRenames {
		if v, ok := m[from]; ok {
			m[to] = v
			delete(m, from)
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return b, nil
}

// ErrorOutput renders a handler failure for the assistant.
func ErrorOutput(err error) map[string]any {
	if re, ok := analysis.AsRequestError(err); ok {
		return re.Body()
	}
	return map[string]any{"error": err.Error()}
}

func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("invalid arguments: %w", err)
	}
	return v, nil
}
