package emit

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogEmitterTextMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogEmitter(&buf, false)

	l.Emit(context.Background(), Event{
		Type: EventNodeError, TraceID: "t1", NodeName: "n1",
		Attempt: 2, Latency: 15 * time.Millisecond, ErrorMsg: "boom",
	})

	out := buf.String()
	assert.Contains(t, out, "trace_id=t1")
	assert.Contains(t, out, "node=n1")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, `error="boom"`)
}

func TestLogEmitterJSONMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogEmitter(&buf, true)

	l.Emit(context.Background(), Event{Type: EventNodeSuccess, TraceID: "t1"})

	assert.Contains(t, buf.String(), `"TraceID":"t1"`)
}

func TestLogEmitterFlushNoop(t *testing.T) {
	l := NewLogEmitter(&bytes.Buffer{}, false)
	assert.NoError(t, l.Flush(context.Background()))
}
