package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter records each event as an immediate OpenTelemetry span, ported
// from dshills-langgraph-go's graph/emit.OTelEmitter. Events represent
// points in time rather than durations, so spans are started and ended in
// the same call; Latency (when present) is recorded as an attribute rather
// than stretched across the span's start/end.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter constructs an OTelEmitter using tracer for span creation.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span named after event.Type, with the
// event's fields attached as attributes.
func (o *OTelEmitter) Emit(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, string(event.Type))
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("trace_id", event.TraceID),
	}
	if event.NodeName != "" {
		attrs = append(attrs, attribute.String("node.name", event.NodeName))
	}
	if event.NodeID != "" {
		attrs = append(attrs, attribute.String("node.id", event.NodeID))
	}
	if event.Attempt > 0 {
		attrs = append(attrs, attribute.Int("attempt", event.Attempt))
	}
	if event.Latency > 0 {
		attrs = append(attrs, attribute.Int64("latency_ms", event.Latency.Milliseconds()))
	}
	if event.QueueDepth > 0 {
		attrs = append(attrs, attribute.Int("queue_depth", event.QueueDepth))
	}
	if event.ParentTrace != "" {
		attrs = append(attrs, attribute.String("parent_trace", event.ParentTrace))
	}
	if event.Chunk != nil {
		attrs = append(attrs,
			attribute.String("chunk.stream_id", event.Chunk.StreamID),
			attribute.Int("chunk.seq", event.Chunk.Seq),
			attribute.Bool("chunk.done", event.Chunk.Done),
		)
	}
	for k, v := range event.Extra {
		attrs = append(attrs, attribute.String("extra."+k, toAttrString(v)))
	}
	span.SetAttributes(attrs...)

	if event.ErrorMsg != "" {
		span.SetStatus(codes.Error, event.ErrorMsg)
		span.SetAttributes(attribute.String("error.class", event.ErrorClass))
		if event.ErrorTrace != "" {
			span.SetAttributes(attribute.String("error.trace", event.ErrorTrace))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// Flush is a no-op: span export is the configured SpanProcessor's
// responsibility, not the emitter's.
func (o *OTelEmitter) Flush(context.Context) error { return nil }

func toAttrString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
