package flow

import (
	"context"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
	"github.com/hurtener/penguiflow-go/message"
)

// Context is the handle a node function receives (spec §4.2's "the node
// function receives the validated input and a context handle"). It exposes
// emission, streaming, cancellation, and introspection without giving the
// node direct access to the graph's internals.
type Context struct {
	ctx      context.Context
	graph    *Graph
	nodeName string
	traceID  string
	headers  message.Headers
	meta     map[string]any

	pending []Emission
}

func newContext(ctx context.Context, g *Graph, nodeName string, frame Frame) *Context {
	return &Context{
		ctx:      ctx,
		graph:    g,
		nodeName: nodeName,
		traceID:  frame.TraceID,
		headers:  frame.Headers,
		meta:     map[string]any{},
	}
}

// NewRemoteContext builds a Context for a node invoked outside of any
// Graph — the shape a transport bridge hands to a node it hosts on behalf
// of a remote caller. Graph-backed features (Emit's delivery, CancelTrace,
// QueueDepth, streaming) are unavailable in this mode and no-op or return
// zero values rather than panicking, since a bridged node has no local
// successors or floes to act on.
func NewRemoteContext(ctx context.Context, nodeName, traceID string, headers message.Headers) *Context {
	return &Context{
		ctx:      ctx,
		nodeName: nodeName,
		traceID:  traceID,
		headers:  headers,
		meta:     map[string]any{},
	}
}

// Context returns the underlying context.Context for passing to I/O calls
// (HTTP clients, DB queries, LLM calls) that accept one.
func (c *Context) Context() context.Context { return c.ctx }

// TraceID returns the current message's trace_id.
func (c *Context) TraceID() string { return c.traceID }

// Headers returns the current message's headers.
func (c *Context) Headers() message.Headers { return c.headers }

// Meta returns this invocation's meta map. It starts empty for every
// invocation; frames do not carry meta between nodes.
func (c *Context) Meta() map[string]any { return c.meta }

// WithMeta sets a key/value pair in this invocation's meta map, visible
// through Meta for the rest of the invocation. The value is not copied
// into emitted frames or events, so downstream nodes do not see it.
func (c *Context) WithMeta(key string, value any) { c.meta[key] = value }

// Emit performs explicit selective emission (spec §4.2's
// "emit(value, to=?)"), queuing value for delivery to targets (or every
// successor, if targets is empty) once the node function returns. Multiple
// Emit calls accumulate; a node that also returns a non-nil value from
// Invoke gets that value delivered in addition to any explicit Emit calls.
func (c *Context) Emit(value any, targets ...string) {
	c.pending = append(c.pending, Emission{Value: value, Targets: targets})
}

// EmitChunk publishes an ordered streaming fragment on streamID (spec
// §4.5). seq must start at 0 and increase by exactly one per (trace_id,
// streamID); a gap or repeat returns an error without being delivered. done=true marks the
// stream terminated; later chunks on the same stream are rejected.
func (c *Context) EmitChunk(streamID string, seq int, text string, done bool) error {
	return c.emitChunkArtifact(streamID, seq, text, done, "", nil)
}

// EmitArtifact publishes a structured (non-text) chunk, e.g. a UI
// component payload, per spec §6's "artifact_type=ui_component indicates a
// structured UI payload in chunk".
func (c *Context) EmitArtifact(streamID string, seq int, artifactType string, chunk any, done bool) error {
	return c.emitChunkArtifact(streamID, seq, "", done, artifactType, chunk)
}

func (c *Context) emitChunkArtifact(streamID string, seq int, text string, done bool, artifactType string, chunk any) error {
	if c.graph == nil {
		return nil
	}
	if err := c.graph.streams.Accept(c.traceID, streamID, seq, done); err != nil {
		return err
	}
	ev := chunkEvent(c.traceID, c.nodeName, streamID, seq, text, done, artifactType, chunk)
	c.graph.dispatch(c.ctx, ev)
	if c.graph.metrics != nil {
		c.graph.metrics.IncrementChunks(c.nodeName, done)
	}
	return nil
}

// CancelTrace cancels every message sharing the current invocation's
// trace_id, or an explicit traceID if given (spec §4.6).
func (c *Context) CancelTrace(traceID ...string) {
	if c.graph == nil {
		return
	}
	id := c.traceID
	if len(traceID) > 0 && traceID[0] != "" {
		id = traceID[0]
	}
	c.graph.Cancel(id)
}

// Cancelled reports whether the current trace has been cancelled, a
// cooperative checkpoint a long-running node can poll between steps.
func (c *Context) Cancelled() bool {
	if c.graph == nil {
		return false
	}
	return c.graph.cancel.IsCancelled(c.traceID)
}

// QueueDepth returns the number of frames buffered on the named successor
// edge from the current node, the runtime's read-only `queue_depth(edge)`
// observable (spec §5).
func (c *Context) QueueDepth(successor string) int {
	if c.graph == nil {
		return 0
	}
	floe := c.graph.floe(c.nodeName, successor)
	if floe == nil {
		return 0
	}
	return floe.Depth()
}

// Deadline returns the invocation's effective deadline, if any (derived
// from the node's timeout policy).
func (c *Context) Deadline() (time.Time, bool) {
	return c.ctx.Deadline()
}

// emitEvent pushes a non-chunk event (node_start, node_success, ...)
// through the graph's dispatch path; a no-op when the Context has no graph.
// worker.go calls Graph.dispatch directly rather than going through it.
func (c *Context) emitEvent(ev emit.Event) {
	if c.graph == nil {
		return
	}
	c.graph.dispatch(c.ctx, ev)
}
