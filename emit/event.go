// Package emit provides the pluggable, async middleware/event pipeline
// (spec §4.7) that structured observers subscribe to: node lifecycle
// events, streaming chunks, and planner trajectory events all flow through
// the same Emitter interface.
package emit

import "time"

// EventKind enumerates the structured event types emitted by the runtime
// and the planner.
type EventKind string

const (
	// EventNodeStart fires when a node invocation begins.
	EventNodeStart EventKind = "node_start"
	// EventNodeSuccess fires when a node invocation completes without error.
	EventNodeSuccess EventKind = "node_success"
	// EventNodeError fires when a node invocation fails (validation, user
	// error, or timeout).
	EventNodeError EventKind = "node_error"
	// EventNodeRetry fires when a failed invocation is retried.
	EventNodeRetry EventKind = "node_retry"
	// EventChunk fires for each ordered streaming fragment (spec §4.5).
	EventChunk EventKind = "chunk"
	// EventCancelled fires when a trace is cancelled.
	EventCancelled EventKind = "cancelled"
	// EventObserverShed fires when a slow observer is dropped from dispatch.
	EventObserverShed EventKind = "observer_shed"
)

// ChunkPayload carries the streaming fields for EventChunk events (spec
// §4.5, §6).
type ChunkPayload struct {
	StreamID     string `json:"stream_id"`
	Seq          int    `json:"seq"`
	Text         string `json:"text,omitempty"`
	Done         bool   `json:"done"`
	ArtifactType string `json:"artifact_type,omitempty"`
	Chunk        any    `json:"chunk,omitempty"`
}

// Event is a structured observability record, the typed version of spec
// §4.7's `{type, trace_id, node?, timestamp, attempt?, latency?,
// queue_depth?, error?, payload?}`.
type Event struct {
	Type        EventKind
	TraceID     string
	NodeName    string
	NodeID      string
	Timestamp   time.Time
	Attempt     int
	Latency     time.Duration
	QueueDepth  int
	ErrorClass  string
	ErrorMsg    string
	ErrorTrace  string
	Chunk       *ChunkPayload
	Payload     any
	ParentTrace string // set on playbook/subflow child events (spec §4.4)
	Extra       map[string]any
}
