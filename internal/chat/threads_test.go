package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geacyber/cyberbot/internal/assistant"
)

type stubChatter struct {
	turn *assistant.Turn
	err  error
	got  []string
}

func (s *stubChatter) Converse(_ context.Context, channel, message, threadID string) (*assistant.Turn, error) {
	s.got = append(s.got, channel+"|"+threadID)
	return s.turn, s.err
}

func TestThreadsRemembersThread(t *testing.T) {
	th := NewThreads()
	c := &stubChatter{turn: &assistant.Turn{ThreadID: "thread_1"}}

	_, err := th.Converse(context.Background(), c, "slack", "C1:123", "hi")
	require.NoError(t, err)
	_, err = th.Converse(context.Background(), c, "slack", "C1:123", "again")
	require.NoError(t, err)

	assert.Equal(t, []string{"slack|", "slack|thread_1"}, c.got)

	th.Forget("C1:123")
	_, ok := th.Get("C1:123")
	assert.False(t, ok)
}

func TestThreadsKeepsThreadOfFailedTurn(t *testing.T) {
	th := NewThreads()
	c := &stubChatter{err: &assistant.TurnError{Stage: assistant.StageRun, ThreadID: "thread_9", Err: errors.New("boom")}}

	_, err := th.Converse(context.Background(), c, "telegram", "42", "hi")
	require.Error(t, err)

	id, ok := th.Get("42")
	assert.True(t, ok)
	assert.Equal(t, "thread_9", id)
}
