package assistant

import "time"

// EventType labels a progress event.
type EventType string

const (
	EventThreadCreated EventType = "thread_created"
	EventMessage       EventType = "message"
	EventRunCreated    EventType = "run_created"
	EventStatus        EventType = "status"
	EventToolCall      EventType = "tool_call"
	EventReply         EventType = "reply"
	EventError         EventType = "error"
)

// Event is a progress notification emitted during a turn.
type Event struct {
	Type     EventType
	ThreadID string
	RunID    string
	Data     string
	Outcome  Outcome
	Time     time.Time
}
