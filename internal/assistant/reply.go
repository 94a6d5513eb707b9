package assistant

import (
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Fixed replies for turns that end without assistant text.
const (
	ReplyNone        = "No response received."
	ReplyEmpty       = "No valid response."
	ReplyFetchFailed = "Failed to fetch response."
	ReplyRunFailed   = "The assistant run failed. Please try again."
	ReplyTimedOut    = "The assistant is taking too long to respond. Please try again."
)

// citationPattern matches file-search citation markers such as 【4:0†source】.
var citationPattern = regexp.MustCompile(`【[^】]*†[^】]*】`)

// StripCitations removes citation markers and trims the result.
func StripCitations(s string) string {
	return strings.TrimSpace(citationPattern.ReplaceAllString(s, ""))
}

// latestAssistantText returns the first text block of the first assistant
// message in msgs (newest first).
func latestAssistantText(msgs []openai.Message) (string, bool) {
	for _, m := range msgs {
		if m.Role != string(openai.ChatMessageRoleAssistant) {
			continue
		}
		for _, c := range m.Content {
			if c.Text != nil {
				return c.Text.Value, true
			}
		}
		return "", false
	}
	return "", false
}
