package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "debug", "json")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Debug().Str("component", "test").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigureUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "chatty", "json")

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
}

func TestConsoleFormatIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "info", "console")

	log.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
