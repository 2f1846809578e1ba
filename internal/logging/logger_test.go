package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("test", &buf)
	logger.SetLevel(LevelWarn)

	logger.Info("hidden %d", 1)
	logger.Debug("hidden %d", 2)
	assert.Empty(t, buf.String())

	logger.Warn("shown %d", 3)
	assert.Contains(t, buf.String(), "shown 3")
}

func TestWithPrefixSharesLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	root := NewLoggerWithOutput("root", &buf)
	child := root.WithPrefix("child")

	child.Debug("before")
	assert.Empty(t, buf.String())

	root.SetLevel(LevelDebug)
	child.Debug("after %s", "level change")
	assert.Contains(t, buf.String(), "after level change")
	assert.Contains(t, buf.String(), "child")

	var other bytes.Buffer
	root.SetOutput(&other)
	child.Info("redirected")
	assert.Contains(t, other.String(), "redirected")
	assert.NotContains(t, buf.String(), "redirected")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected LogLevel
		ok       bool
	}{
		{name: "error", input: "ERROR", expected: LevelError, ok: true},
		{name: "trace", input: "TRACE", expected: LevelTrace, ok: true},
		{name: "unknown defaults to info", input: "LOUD", expected: LevelInfo, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.input)
			assert.Equal(t, tt.expected, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestTraceRequiresTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("", &buf)
	logger.SetLevel(LevelDebug)

	logger.Trace("quiet")
	assert.Empty(t, buf.String())

	logger.SetLevel(LevelTrace)
	logger.Trace("loud")
	assert.Contains(t, buf.String(), "trace: loud")
}
