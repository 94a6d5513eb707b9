package assistant

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/geacyber/cyberbot/internal/config"
)

// Backend is the slice of the assistants API a turn needs. *openai.Client
// satisfies it.
type Backend interface {
	CreateThread(ctx context.Context, req openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, req openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, req openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, req openai.SubmitToolOutputsRequest) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order, after, before, runID *string) (openai.MessagesList, error)
}

// AssistantGetter fetches an assistant's configuration.
type AssistantGetter interface {
	RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error)
}

var (
	_ Backend         = (*openai.Client)(nil)
	_ AssistantGetter = (*openai.Client)(nil)
)

// NewClient builds an assistants v2 client with bearer auth and the optional
// organization header.
func NewClient(cfg config.OpenAI) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	c.OrgID = cfg.Organization
	c.AssistantVersion = "v2"
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(c)
}
