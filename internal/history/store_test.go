package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geacyber/cyberbot/internal/assistant"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestTurns(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, store.AddTurn(&Turn{ID: "t1", ThreadID: "thread_a", Message: "first", Reply: "one", Outcome: "completed", CreatedAt: now}))
	require.NoError(t, store.AddTurn(&Turn{ID: "t2", ThreadID: "thread_a", Message: "second", Reply: "two", Outcome: "timeout", Polls: 30, CreatedAt: now.Add(time.Second)}))
	require.NoError(t, store.AddTurn(&Turn{ID: "t3", ThreadID: "thread_b", Message: "other", CreatedAt: now}))

	turns, err := store.ListTurns("thread_a")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Message)
	assert.Equal(t, "timeout", turns[1].Outcome)
	assert.Equal(t, 30, turns[1].Polls)

	none, err := store.ListTurns("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventsAfterID(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	for _, typ := range []string{"run_created", "status", "reply"} {
		e := &Event{ThreadID: "thread_a", RunID: "run_1", Type: typ, CreatedAt: now}
		require.NoError(t, store.AddEvent(e))
		assert.NotZero(t, e.ID)
	}

	all, err := store.ListEvents("thread_a", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	rest, err := store.ListEvents("thread_a", all[0].ID)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "status", rest[0].Type)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe("thread_a")
	other := bus.Subscribe("thread_b")

	bus.Publish("thread_a", &Event{Type: "status", Data: "in_progress"})

	select {
	case e := <-ch:
		assert.Equal(t, "in_progress", e.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	assert.Empty(t, other)

	bus.Unsubscribe("thread_a", ch)
	_, open := <-ch
	assert.False(t, open)
	bus.Unsubscribe("thread_b", other)
}

func TestRecorder(t *testing.T) {
	store := newTestStore(t)
	bus := NewEventBus()
	rec := NewRecorder(store, bus)

	ch := bus.Subscribe("thread_a")
	defer bus.Unsubscribe("thread_a", ch)

	rec.Observe(assistant.Event{Type: assistant.EventRunCreated, ThreadID: "thread_a", RunID: "run_1"})
	rec.Observe(assistant.Event{Type: assistant.EventStatus})

	events, err := store.ListEvents("thread_a", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "run_created", events[0].Type)
	assert.Len(t, ch, 1)

	got := rec.RecordTurn("http", "hello", &assistant.Turn{
		ThreadID: "thread_a", RunID: "run_1", Reply: "hi", Outcome: assistant.OutcomeCompleted, Polls: 2,
		ToolCalls: []assistant.ToolCall{{ID: "call_1"}},
	}, nil)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.ID)

	failed := rec.RecordTurn("slack", "again", nil, &assistant.TurnError{
		Stage: assistant.StageRun, ThreadID: "thread_a", Err: errors.New("boom"),
	})
	require.NotNil(t, failed)
	assert.Equal(t, "Failed to create run", failed.Error)

	assert.Nil(t, rec.RecordTurn("http", "x", nil, errors.New("no thread")))

	turns, err := store.ListTurns("thread_a")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, 1, turns[0].ToolCalls)
	assert.Equal(t, "error", turns[1].Outcome)
}
