package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/assistant"
)

// Recorder writes orchestrator output to a Store and EventBus. Storage
// failures are logged and never surface to the turn.
type Recorder struct {
	Store *Store
	Bus   *EventBus
}

// NewRecorder creates a Recorder.
func NewRecorder(store *Store, bus *EventBus) *Recorder {
	return &Recorder{Store: store, Bus: bus}
}

// Observe persists and publishes one orchestrator event. It matches the
// assistant.WithObserver signature.
func (r *Recorder) Observe(ev assistant.Event) {
	if ev.ThreadID == "" {
		return
	}
	e := &Event{
		ThreadID:  ev.ThreadID,
		RunID:     ev.RunID,
		Type:      string(ev.Type),
		Data:      ev.Data,
		CreatedAt: ev.Time,
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := r.Store.AddEvent(e); err != nil {
		log.Warn().Err(err).Str("thread", ev.ThreadID).Str("type", e.Type).Msg("recording event")
	}
	if r.Bus != nil {
		r.Bus.Publish(ev.ThreadID, e)
	}
}

// RecordTurn stores the result of one exchange. turn may be nil when the
// exchange failed before a run existed; threadID is then taken from err.
func (r *Recorder) RecordTurn(channel, message string, turn *assistant.Turn, err error) *Turn {
	t := &Turn{
		ID:        uuid.NewString(),
		Channel:   channel,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if turn != nil {
		t.ThreadID = turn.ThreadID
		t.RunID = turn.RunID
		t.Reply = turn.Reply
		t.Outcome = string(turn.Outcome)
		t.Polls = turn.Polls
		t.ToolCalls = len(turn.ToolCalls)
	}
	if err != nil {
		t.Outcome = "error"
		t.Error = assistant.UserMessage(err)
		if te, ok := assistant.AsTurnError(err); ok && t.ThreadID == "" {
			t.ThreadID = te.ThreadID
		}
	}
	if t.ThreadID == "" {
		return nil
	}
	if err := r.Store.AddTurn(t); err != nil {
		log.Warn().Err(err).Str("thread", t.ThreadID).Msg("recording turn")
		return nil
	}
	return t
}
