package logger

import (
	"bytes"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
}

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info().Msg("hidden")
	l.Warn().Str("ticker", "005930").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, `"ticker":"005930"`)
}

func TestTrade_TagsEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf)

	Trade(l).Str("action", "enter").Msg("position opened")

	assert.Contains(t, buf.String(), `"event":"trade"`)
	assert.Contains(t, buf.String(), `"action":"enter"`)
}
