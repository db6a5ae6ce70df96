package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsUnknownLevelToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "not-a-level")
	logger.Info("hello", nil)

	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("should be dropped", nil)
	logger.Warn("should appear", nil)

	out := buf.String()
	assert.False(t, strings.Contains(out, "should be dropped"))
	assert.True(t, strings.Contains(out, "should appear"))
}

func TestErrorAttachesErrField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Error("failed", errors.New("boom"), map[string]any{"node": "x"})

	out := buf.String()
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, `"node":"x"`)
}

func TestWithComponentTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info").WithComponent("transport")

	logger.Info("started", nil)
	assert.Contains(t, buf.String(), `"component":"transport"`)
}

func TestNopDiscardsOutput(t *testing.T) {
	logger := Nop()
	// Must not panic, and has nowhere to assert output since it is discarded.
	logger.Info("anything", map[string]any{"k": "v"})
}
