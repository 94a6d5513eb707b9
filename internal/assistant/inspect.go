package assistant

import (
	"context"
	"slices"

	"github.com/sashabaranov/go-openai"
)

// Info summarizes a hosted assistant and how its declared functions line up
// with the locally registered ones.
type Info struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Instructions string   `json:"instructions"`
	Functions    []string `json:"functions"`
	// Missing are registered locally but not declared on the assistant.
	Missing []string `json:"missing,omitempty"`
	// Undeclared are declared on the assistant but have no local handler.
	Undeclared []string `json:"undeclared,omitempty"`
}

// Describe fetches assistantID and compares its function tools with local.
func Describe(ctx context.Context, api AssistantGetter, assistantID string, local []string) (*Info, error) {
	a, err := api.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}

	info := &Info{ID: a.ID, Model: a.Model}
	if a.Name != nil {
		info.Name = *a.Name
	}
	if a.Instructions != nil {
		info.Instructions = *a.Instructions
	}
	for _, t := range a.Tools {
		if t.Type == openai.AssistantToolTypeFunction && t.Function != nil {
			info.Functions = append(info.Functions, t.Function.Name)
		}
	}
	slices.Sort(info.Functions)

	for _, name := range local {
		if !slices.Contains(info.Functions, name) {
			info.Missing = append(info.Missing, name)
		}
	}
	for _, name := range info.Functions {
		if !slices.Contains(local, name) {
			info.Undeclared = append(info.Undeclared, name)
		}
	}
	return info, nil
}
