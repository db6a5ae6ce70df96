package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes events as structured log lines, ported from
// dshills-langgraph-go's graph/emit.LogEmitter (text or JSONL mode).
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter constructs a LogEmitter. writer defaults to os.Stdout when
// nil.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes event in the configured mode.
func (l *LogEmitter) Emit(_ context.Context, event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] trace_id=%s node=%s", event.Type, event.TraceID, event.NodeName)
	if event.Attempt > 0 {
		_, _ = fmt.Fprintf(l.writer, " attempt=%d", event.Attempt)
	}
	if event.Latency > 0 {
		_, _ = fmt.Fprintf(l.writer, " latency=%s", event.Latency)
	}
	if event.ErrorMsg != "" {
		_, _ = fmt.Fprintf(l.writer, " error=%q", event.ErrorMsg)
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// Flush is a no-op: LogEmitter writes synchronously with no internal
// buffering.
func (l *LogEmitter) Flush(context.Context) error { return nil }
