// Package assistant drives one conversational turn against a hosted
// assistant: post the user's message, start a run, poll it, execute the
// functions it asks for, and return the reply.
package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Dispatcher executes one function call and returns its output object.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, rawArgs string) any
}

// PollPolicy bounds the wait for a run. The total wait is at most
// Interval * MaxAttempts; no status check happens after the last attempt.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollPolicy checks once a second, thirty times.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: time.Second, MaxAttempts: 30}
}

// Outcome is how a turn ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeTimeout   Outcome = "timeout"
	OutcomePollError Outcome = "poll_error"
)

// Turn is the result of one exchange.
type Turn struct {
	ThreadID  string           `json:"threadId"`
	RunID     string           `json:"runId"`
	Reply     string           `json:"reply"`
	Outcome   Outcome          `json:"outcome"`
	Status    openai.RunStatus `json:"status"`
	Polls     int              `json:"polls"`
	ToolCalls []ToolCall       `json:"toolCalls,omitempty"`
}

// ToolCall records one executed function call.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Output    string `json:"output"`
}

// Orchestrator runs turns for one assistant.
type Orchestrator struct {
	backend     Backend
	tools       Dispatcher
	assistantID string
	poll        PollPolicy
	observer    func(Event)
	wait        func(ctx context.Context, d time.Duration) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPollPolicy overrides DefaultPollPolicy.
func WithPollPolicy(p PollPolicy) Option {
	return func(o *Orchestrator) { o.poll = p }
}

// WithObserver receives progress events. It is called synchronously and must
// not block.
func WithObserver(fn func(Event)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New creates an Orchestrator.
func New(backend Backend, tools Dispatcher, assistantID string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:     backend,
		tools:       tools,
		assistantID: assistantID,
		poll:        DefaultPollPolicy(),
		wait:        sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.poll.MaxAttempts < 1 {
		o.poll.MaxAttempts = 1
	}
	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Orchestrator) emit(ev Event) {
	if o.observer == nil {
		return
	}
	ev.Time = time.Now().UTC()
	o.observer(ev)
}

func pending(s openai.RunStatus) bool {
	switch s {
	case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusRequiresAction:
		return true
	}
	return false
}

// Turn posts message to threadID (a new thread when empty) and waits for the
// assistant's reply. Run failure, timeout and an unreachable status endpoint
// are reported in the returned Turn with a fixed reply; only failures that
// leave the conversation unusable are errors, and those are *TurnError.
func (o *Orchestrator) Turn(ctx context.Context, message, threadID string) (*Turn, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	if threadID == "" {
		th, err := o.backend.CreateThread(ctx, openai.ThreadRequest{})
		if err != nil {
			return nil, &TurnError{Stage: StageThread, Err: err}
		}
		threadID = th.ID
		log.Info().Str("thread", threadID).Msg("thread created")
		o.emit(Event{Type: EventThreadCreated, ThreadID: threadID})
	}

	if _, err := o.backend.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: message,
	}); err != nil {
		return nil, &TurnError{Stage: StageMessage, ThreadID: threadID, Err: err}
	}
	o.emit(Event{Type: EventMessage, ThreadID: threadID, Data: message})

	run, err := o.backend.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: o.assistantID})
	if err != nil {
		return nil, &TurnError{Stage: StageRun, ThreadID: threadID, Err: err}
	}
	log.Info().Str("thread", threadID).Str("run", run.ID).Msg("run created")
	o.emit(Event{Type: EventRunCreated, ThreadID: threadID, RunID: run.ID, Data: string(run.Status)})

	turn := &Turn{ThreadID: threadID, RunID: run.ID, Status: run.Status}
	if err := o.pollRun(ctx, turn); err != nil {
		return turn, err
	}
	if turn.Outcome == "" {
		o.finish(ctx, turn)
	}

	log.Info().Str("thread", threadID).Str("run", run.ID).Str("outcome", string(turn.Outcome)).
		Int("polls", turn.Polls).Int("tool_calls", len(turn.ToolCalls)).Msg("turn finished")
	o.emit(Event{Type: EventReply, ThreadID: threadID, RunID: run.ID, Data: turn.Reply, Outcome: turn.Outcome})
	return turn, nil
}

// pollRun waits for the run to leave the pending states, servicing tool calls
// along the way. A failed status check sets OutcomePollError.
func (o *Orchestrator) pollRun(ctx context.Context, turn *Turn) error {
	for pending(turn.Status) && turn.Polls < o.poll.MaxAttempts {
		if err := o.wait(ctx, o.poll.Interval); err != nil {
			return &TurnError{Stage: StagePoll, ThreadID: turn.ThreadID, RunID: turn.RunID, Err: err}
		}
		turn.Polls++

		run, err := o.backend.RetrieveRun(ctx, turn.ThreadID, turn.RunID)
		if err != nil {
			log.Error().Err(err).Str("thread", turn.ThreadID).Str("run", turn.RunID).
				Int("poll", turn.Polls).Msg("checking run status")
			turn.Outcome = OutcomePollError
			turn.Reply = ReplyRunFailed
			o.emit(Event{Type: EventError, ThreadID: turn.ThreadID, RunID: turn.RunID, Data: err.Error()})
			return nil
		}
		if run.Status != turn.Status {
			o.emit(Event{Type: EventStatus, ThreadID: turn.ThreadID, RunID: turn.RunID, Data: string(run.Status)})
		}
		turn.Status = run.Status
		log.Debug().Str("run", turn.RunID).Str("status", string(run.Status)).Int("poll", turn.Polls).Msg("run status")

		if run.Status != openai.RunStatusRequiresAction {
			continue
		}
		if err := o.submitTools(ctx, turn, run); err != nil {
			return err
		}
		turn.Status = openai.RunStatusInProgress
	}
	return nil
}

// submitTools dispatches every requested call in order and submits all
// outputs in one batch.
func (o *Orchestrator) submitTools(ctx context.Context, turn *Turn, run openai.Run) error {
	var calls []openai.ToolCall
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		calls = run.RequiredAction.SubmitToolOutputs.ToolCalls
	}

	outputs := make([]openai.ToolOutput, 0, len(calls))
	for _, call := range calls {
		out := encodeOutput(o.tools.Dispatch(ctx, call.Function.Name, call.Function.Arguments))
		outputs = append(outputs, openai.ToolOutput{ToolCallID: call.ID, Output: out})

		rec := ToolCall{ID: call.ID, Name: call.Function.Name, Arguments: call.Function.Arguments, Output: out}
		turn.ToolCalls = append(turn.ToolCalls, rec)
		data, _ := json.Marshal(rec)
		o.emit(Event{Type: EventToolCall, ThreadID: turn.ThreadID, RunID: turn.RunID, Data: string(data)})
	}

	if _, err := o.backend.SubmitToolOutputs(ctx, turn.ThreadID, turn.RunID,
		openai.SubmitToolOutputsRequest{ToolOutputs: outputs}); err != nil {
		log.Error().Err(err).Str("run", turn.RunID).Int("outputs", len(outputs)).Msg("submitting tool outputs")
		return &TurnError{Stage: StageSubmit, ThreadID: turn.ThreadID, RunID: turn.RunID, Err: err}
	}
	log.Info().Str("run", turn.RunID).Int("outputs", len(outputs)).Msg("tool outputs submitted")
	return nil
}

func encodeOutput(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": "unencodable function output: " + err.Error()})
	}
	return string(b)
}

// finish sets the outcome and reply once polling has stopped.
func (o *Orchestrator) finish(ctx context.Context, turn *Turn) {
	switch {
	case turn.Status == openai.RunStatusCompleted:
		turn.Outcome = OutcomeCompleted
		turn.Reply = o.fetchReply(ctx, turn.ThreadID)
	case pending(turn.Status):
		turn.Outcome = OutcomeTimeout
		turn.Reply = ReplyTimedOut
	case turn.Status == openai.RunStatusFailed,
		turn.Status == openai.RunStatusCancelling,
		turn.Status == openai.RunStatusExpired,
		turn.Status == openai.RunStatusCancelled,
		turn.Status == openai.RunStatusIncomplete:
		turn.Outcome = OutcomeFailed
		turn.Reply = ReplyRunFailed
	default:
		turn.Outcome = OutcomeFailed
		turn.Reply = ReplyNone
	}
}

func (o *Orchestrator) fetchReply(ctx context.Context, threadID string) string {
	order := "desc"
	msgs, err := o.backend.ListMessage(ctx, threadID, nil, &order, nil, nil, nil)
	if err != nil {
		log.Error().Err(err).Str("thread", threadID).Msg("fetching assistant reply")
		return ReplyFetchFailed
	}
	text, ok := latestAssistantText(msgs.Messages)
	if !ok {
		return ReplyEmpty
	}
	if reply := StripCitations(text); reply != "" {
		return reply
	}
	return ReplyEmpty
}
