// Package slack provides a Slack front-end for the assistant using Socket
// Mode.
//
// Socket Mode connects to Slack via WebSocket, so no public URL is needed.
// The bot answers @mentions in a thread; each Slack thread maps to one
// assistant conversation.
package slack

import (
	"context"
	"fmt"
	stdlog "log"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/chat"
)

// Channel labels turns started from Slack in the history.
const Channel = "slack"

// Bot is the Slack Socket Mode bot.
type Bot struct {
	api          *slack.Client
	socketClient *socketmode.Client
	chat         chat.Chatter
	threads      *chat.Threads
}

// NewBot creates a new Slack Socket Mode bot.
func NewBot(botToken, appToken string, chatter chat.Chatter) *Bot {
	api := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		api,
		socketmode.OptionLog(stdlog.New(log.Logger.With().Str("component", "slack-socketmode").Logger(), "", 0)),
	)

	return &Bot{
		api:          api,
		socketClient: socketClient,
		chat:         chatter,
		threads:      chat.NewThreads(),
	}
}

// Run connects to Slack via Socket Mode and processes events.
// It blocks until the context is canceled or a fatal error occurs.
func (b *Bot) Run(ctx context.Context) error {
	go b.eventLoop(ctx)
	log.Info().Msg("slack bot connecting via socket mode")
	return b.socketClient.RunContext(ctx)
}

func (b *Bot) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.socketClient.Events:
			if !ok {
				return
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		log.Debug().Msg("slack: connecting")
	case socketmode.EventTypeConnected:
		log.Info().Msg("slack: connected")
	case socketmode.EventTypeConnectionError:
		log.Warn().Msg("slack: connection error, will retry")
	case socketmode.EventTypeEventsAPI:
		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		// Slack requires an ack within 3 seconds.
		b.socketClient.Ack(*evt.Request)

		if eventsAPIEvent.Type == slackevents.CallbackEvent {
			if ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
				go b.handleMention(ctx, ev)
			}
		}
	case socketmode.EventTypeInteractive:
		b.socketClient.Ack(*evt.Request)
	}
}

func (b *Bot) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	text := mentionText(ev.Text)

	// Reply in the thread of the original message.
	threadTS := ev.TimeStamp
	if ev.ThreadTimeStamp != "" {
		threadTS = ev.ThreadTimeStamp
	}

	if text == "" {
		b.postThread(ev.Channel, threadTS,
			"Ask me about a repository or a website. Example:\n`@cyberbot how is the code quality of https://github.com/owner/repo?`")
		return
	}

	key := ev.Channel + ":" + threadTS
	turn, err := b.threads.Converse(ctx, b.chat, Channel, key, text)
	if err != nil {
		b.postThread(ev.Channel, threadTS, ":x: "+assistant.UserMessage(err))
		return
	}
	b.postReply(ev.Channel, threadTS, turn)
}

// mentionText strips the leading bot mention (<@U12345>) from text.
func mentionText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "<@") {
		if idx := strings.Index(text, ">"); idx >= 0 {
			text = text[idx+1:]
		}
	}
	return strings.TrimSpace(text)
}

// toolSummary lists the functions a turn executed, deduplicated in call order.
func toolSummary(turn *assistant.Turn) string {
	var names []string
	seen := map[string]bool{}
	for _, c := range turn.ToolCalls {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, "`"+c.Name+"`")
		}
	}
	return strings.Join(names, ", ")
}

// postReply posts the assistant's reply, with a context line naming the tools
// it used.
func (b *Bot) postReply(channel, threadTS string, turn *assistant.Turn) {
	if len(turn.ToolCalls) == 0 {
		b.postThread(channel, threadTS, turn.Reply)
		return
	}

	body := slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, turn.Reply, false, false), nil, nil)
	ctxBlock := slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType,
		fmt.Sprintf("Used %s | %d status checks", toolSummary(turn), turn.Polls), false, false))

	_, _, err := b.api.PostMessage(channel,
		slack.MsgOptionText(turn.Reply, false),
		slack.MsgOptionBlocks(body, ctxBlock),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("slack: posting block reply")
		b.postThread(channel, threadTS, turn.Reply)
	}
}

// postThread sends a plain text message as a thread reply.
func (b *Bot) postThread(channel, threadTS, text string) {
	_, _, err := b.api.PostMessage(channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS),
	)
	if err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("slack: posting message")
	}
}
