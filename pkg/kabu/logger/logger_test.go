package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Out: &buf})

	log.Info().Str("symbol", "8194.T").Msg("fetched")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "8194.T", line["symbol"])
	assert.Equal(t, "fetched", line["message"])
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "WARN", Out: &buf})

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	log := New(Config{Level: "chatty", Out: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log = New(Config{Out: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Pretty: true, Out: &buf})

	log.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
