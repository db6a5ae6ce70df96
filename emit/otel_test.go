package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelEmitterRecordsSpanAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(context.Background(), Event{
		Type:     EventNodeError,
		TraceID:  "t1",
		NodeName: "n1",
		ErrorMsg: "boom",
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, string(EventNodeError), spans[0].Name)

	var sawErr bool
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "error.class" {
			sawErr = true
		}
	}
	assert.True(t, sawErr) // attached whenever ErrorMsg is non-empty
}

func TestOTelEmitterFlushNoop(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	assert.NoError(t, emitter.Flush(context.Background()))
}
