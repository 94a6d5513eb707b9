package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/chat"
)

type fakeChatter struct {
	threadIDs []string
	err       error
}

func (f *fakeChatter) Converse(_ context.Context, channel, message, threadID string) (*assistant.Turn, error) {
	f.threadIDs = append(f.threadIDs, threadID)
	if f.err != nil {
		return nil, f.err
	}
	return &assistant.Turn{ThreadID: "thread_1", Reply: "echo: " + message}, nil
}

func newTestBot(c chat.Chatter) *Bot {
	return &Bot{chat: c, threads: chat.NewThreads()}
}

func TestRespondKeepsConversationPerChat(t *testing.T) {
	fc := &fakeChatter{}
	b := newTestBot(fc)

	reply, md := b.respond(context.Background(), 42, " hello ")
	assert.Equal(t, "echo: hello", reply)
	assert.False(t, md)

	b.respond(context.Background(), 42, "again")
	b.respond(context.Background(), 7, "other chat")
	assert.Equal(t, []string{"", "thread_1", ""}, fc.threadIDs)
}

func TestRespondCommands(t *testing.T) {
	fc := &fakeChatter{}
	b := newTestBot(fc)

	reply, md := b.respond(context.Background(), 1, "/help")
	assert.Equal(t, helpText, reply)
	assert.True(t, md)

	b.respond(context.Background(), 1, "hi")
	b.respond(context.Background(), 1, "/new")
	b.respond(context.Background(), 1, "hi again")
	assert.Equal(t, []string{"", ""}, fc.threadIDs)

	reply, _ = b.respond(context.Background(), 1, "   ")
	assert.Empty(t, reply)
}

func TestRespondError(t *testing.T) {
	b := newTestBot(&fakeChatter{err: errors.New("dial tcp: refused")})
	reply, md := b.respond(context.Background(), 1, "hi")
	assert.True(t, md)
	assert.Equal(t, "❌ *Error:* Unable to reach assistant\\.", reply)
}

func TestEscapeAndStripMarkdown(t *testing.T) {
	in := "score: 92.5 (good) - see [docs]!"
	escaped := escapeMarkdown(in)
	assert.Equal(t, `score: 92\.5 \(good\) \- see \[docs\]\!`, escaped)
	assert.Equal(t, in, stripMarkdown(escaped))
}
