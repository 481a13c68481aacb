package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "debug")

	l.Info().Str("book_id", "b-1").Msg("aggregate recomputed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "b-1", entry["book_id"])
	assert.Equal(t, "aggregate recomputed", entry["message"])
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "warn")

	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
}

func TestNewWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "loud")

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
