package emit

import "context"

// NullEmitter discards every event. Ports dshills-langgraph-go's
// graph/emit.NullEmitter verbatim in spirit: zero overhead, safe default
// for environments where observability is unwanted.
type NullEmitter struct{}

// NewNullEmitter constructs a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit discards event.
func (*NullEmitter) Emit(context.Context, Event) {}

// Flush is a no-op.
func (*NullEmitter) Flush(context.Context) error { return nil }
