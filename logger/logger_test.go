package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New(Config{Level: tt.level, Format: FormatJSON, Output: &bytes.Buffer{}})
			assert.Equal(t, tt.expected, l.GetLevel())
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: FormatJSON, Output: &buf})
	l.Info().Str("book", "A Title").Int("chapter", 3).Msg("completed chapter")
	l.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "A Title", entry["book"])
	assert.Equal(t, float64(3), entry["chapter"])
	assert.Equal(t, "completed chapter", entry["message"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	l.Info().Str("url", "http://example/book/1").Msg("book already downloaded")

	assert.Contains(t, buf.String(), "book already downloaded")
	assert.Contains(t, buf.String(), "url=")
}

func TestSetupReplacesGlobal(t *testing.T) {
	prev := Get()
	t.Cleanup(func() {
		mu.Lock()
		global = prev
		mu.Unlock()
	})

	var buf bytes.Buffer
	Setup(Config{Level: "warn", Format: FormatJSON, Output: &buf})
	l := Get()
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatConsole, ParseFormat("console"))
	assert.Equal(t, FormatConsole, ParseFormat(""))
}
