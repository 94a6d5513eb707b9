// Package telegram provides a Telegram front-end for the assistant.
//
// Uses long polling, so no public URL or webhook is needed. Each chat maps to
// one assistant conversation until /new is sent.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/geacyber/cyberbot/internal/assistant"
	"github.com/geacyber/cyberbot/internal/chat"
)

// Channel labels turns started from Telegram in the history.
const Channel = "telegram"

const helpText = "*Cyberbot* \\- code quality and web performance assistant\\.\n\n" +
	"*Ask things like:*\n" +
	"`How is the code quality of https://github.com/owner/repo?`\n" +
	"`How fast is https://example.com on mobile?`\n\n" +
	"Send /new to start a fresh conversation\\."

// Bot is the Telegram bot.
type Bot struct {
	api     *tgbotapi.BotAPI
	chat    chat.Chatter
	threads *chat.Threads
}

// NewBot creates a new Telegram bot.
func NewBot(token string, chatter chat.Chatter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating Telegram bot: %w", err)
	}

	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")

	return &Bot{
		api:     api,
		chat:    chatter,
		threads: chat.NewThreads(),
	}, nil
}

// Run starts the long-polling loop. Blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	log.Info().Msg("telegram bot listening for messages")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	reply, markdown := b.respond(ctx, chatID, msg.Text)
	if reply == "" {
		return
	}
	if markdown {
		b.sendReply(chatID, msg.MessageID, reply)
		return
	}
	b.sendPlain(chatID, msg.MessageID, reply)
}

// respond computes the answer to one incoming message. markdown reports
// whether the text is already MarkdownV2.
func (b *Bot) respond(ctx context.Context, chatID int64, text string) (reply string, markdown bool) {
	text = strings.TrimSpace(text)
	key := strconv.FormatInt(chatID, 10)

	switch text {
	case "":
		return "", false
	case "/start", "/help":
		return helpText, true
	case "/new":
		b.threads.Forget(key)
		return "Started a new conversation\\.", true
	}

	turn, err := b.threads.Converse(ctx, b.chat, Channel, key, text)
	if err != nil {
		return "❌ *Error:* " + escapeMarkdown(assistant.UserMessage(err)), true
	}
	return turn.Reply, false
}

// sendReply sends a MarkdownV2 message as a reply.
func (b *Bot) sendReply(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	msg.ParseMode = "MarkdownV2"

	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("telegram: sending markdown message")
		// Retry without markdown in case of parse errors.
		b.sendPlain(chatID, replyTo, stripMarkdown(text))
	}
}

// sendPlain sends a plain text reply. Assistant replies go out this way since
// their markdown dialect is not Telegram's.
func (b *Bot) sendPlain(chatID int64, replyTo int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyTo
	if _, err := b.api.Send(msg); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("telegram: sending message")
	}
}

// escapeMarkdown escapes special characters for Telegram MarkdownV2.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}

// stripMarkdown removes MarkdownV2 escape sequences for plain text fallback.
func stripMarkdown(s string) string {
	r := strings.NewReplacer(
		"\\*", "*",
		"\\_", "_",
		"\\[", "[",
		"\\]", "]",
		"\\(", "(",
		"\\)", ")",
		"\\~", "~",
		"\\`", "`",
		"\\>", ">",
		"\\#", "#",
		"\\+", "+",
		"\\-", "-",
		"\\=", "=",
		"\\|", "|",
		"\\{", "{",
		"\\}", "}",
		"\\.", ".",
		"\\!", "!",
	)
	return r.Replace(s)
}
