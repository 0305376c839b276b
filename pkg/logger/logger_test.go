package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLogger(t *testing.T) {
	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewStdLoggerWithOutput(&buf, false, NoticeLevel)

		l.Debug("debug %d", 1)
		l.Info("info %d", 2)
		assert.Empty(t, buf.String())

		l.Notice("notice %d", 3)
		l.Error("error %d", 4)
		assert.Contains(t, buf.String(), "[NOTICE] notice 3")
		assert.Contains(t, buf.String(), "[ERROR]  error 4")
	})

	t.Run("chain prefix", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewStdLoggerWithOutput(&buf, false, DebugLevel)

		l.InfoWithChain(11155111, "block %d", 42)
		assert.Contains(t, buf.String(), "[INFO]   [SEPOLIA]  block 42")

		buf.Reset()
		l.DebugWithChain(999, "unknown chain")
		assert.Contains(t, buf.String(), "[DEBUG]  unknown chain")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":  DebugLevel,
		"INFO":   InfoLevel,
		"":       InfoLevel,
		"notice": NoticeLevel,
		"error":  ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
