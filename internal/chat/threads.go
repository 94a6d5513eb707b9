// Package chat holds what the chat front-ends share: the conversation entry
// point they call and the map from their own conversation keys to assistant
// threads.
package chat

import (
	"context"
	"sync"

	"github.com/geacyber/cyberbot/internal/assistant"
)

// Chatter runs one turn. channel labels the front-end in the history; an
// empty threadID starts a new conversation.
type Chatter interface {
	Converse(ctx context.Context, channel, message, threadID string) (*assistant.Turn, error)
}

// Threads maps front-end conversation keys (a Slack thread, a Telegram chat)
// to assistant thread ids. It lives in memory only.
type Threads struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewThreads creates an empty map.
func NewThreads() *Threads {
	return &Threads{ids: make(map[string]string)}
}

// Get returns the thread id for key.
func (t *Threads) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.ids[key]
	return id, ok
}

// Set records the thread id for key.
func (t *Threads) Set(key, threadID string) {
	if threadID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids[key] = threadID
}

// Forget drops key so its next message starts a new conversation.
func (t *Threads) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ids, key)
}

// Converse runs a turn for key and remembers the resulting thread, including
// a thread created by a turn that later failed.
func (t *Threads) Converse(ctx context.Context, c Chatter, channel, key, message string) (*assistant.Turn, error) {
	threadID, _ := t.Get(key)
	turn, err := c.Converse(ctx, channel, message, threadID)
	switch {
	case turn != nil:
		t.Set(key, turn.ThreadID)
	case err != nil:
		if te, ok := assistant.AsTurnError(err); ok {
			t.Set(key, te.ThreadID)
		}
	}
	return turn, err
}
