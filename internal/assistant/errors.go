package assistant

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/geacyber/cyberbot/internal/vendor"
)

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("message is required")

// Stage names the step of a turn that failed.
type Stage string

const (
	StageThread  Stage = "create thread"
	StageMessage Stage = "add message"
	StageRun     Stage = "create run"
	StagePoll    Stage = "poll run"
	StageSubmit  Stage = "submit tool outputs"
)

var stageMessages = map[Stage]string{
	StageThread:  "Failed to create thread",
	StageMessage: "Failed to add message to thread",
	StageRun:     "Failed to create run",
	StageSubmit:  "Failed to submit tool outputs",
}

// TurnError is a failed turn. ThreadID is set once a thread exists so the
// caller does not lose it.
type TurnError struct {
	Stage    Stage
	ThreadID string
	RunID    string
	Err      error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// UserMessage turns a turn failure into text safe to show the user: the
// vendor's own message, else a status-specific hint, else the failed step,
// else a generic notice.
func UserMessage(err error) string {
	const generic = "Unable to reach assistant."
	if err == nil {
		return generic
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return apiErr.Message
		}
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		if msg := vendor.PayloadMessage(reqErr.Body); msg != "" {
			return msg
		}
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized:
		return "Invalid API key."
	case http.StatusNotFound:
		return "Assistant not found."
	}

	var te *TurnError
	if errors.As(err, &te) {
		if msg, ok := stageMessages[te.Stage]; ok {
			return msg
		}
	}
	return generic
}

// AsTurnError unwraps err to a *TurnError.
func AsTurnError(err error) (*TurnError, bool) {
	var te *TurnError
	ok := errors.As(err, &te)
	return te, ok
}
