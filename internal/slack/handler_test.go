package slack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geacyber/cyberbot/internal/assistant"
)

func TestMentionText(t *testing.T) {
	assert.Equal(t, "how fast is example.com?", mentionText("<@U12345> how fast is example.com? "))
	assert.Equal(t, "", mentionText("<@U12345>"))
	assert.Equal(t, "no mention", mentionText("no mention"))
}

func TestToolSummary(t *testing.T) {
	turn := &assistant.Turn{ToolCalls: []assistant.ToolCall{
		{Name: "validate_github_repo"},
		{Name: "get_code_analysis"},
		{Name: "validate_github_repo"},
	}}
	assert.Equal(t, "`validate_github_repo`, `get_code_analysis`", toolSummary(turn))
}
