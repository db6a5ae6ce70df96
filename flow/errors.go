package flow

import "errors"

// Sentinel errors returned by the graph builder and runtime. Ported from
// dshills-langgraph-go/graph/errors.go's top-level var-errors style.
var (
	// ErrDuplicateNode is returned by Graph.AddNode when a node name is
	// registered twice.
	ErrDuplicateNode = errors.New("flow: duplicate node name")

	// ErrUnknownNode is returned when Connect (or ConnectIngress/
	// ConnectEgress) references a node name that was never added.
	ErrUnknownNode = errors.New("flow: unknown node name")

	// ErrCycle is returned by Graph.Validate when the topology contains a
	// cycle not explicitly allowed via AllowCycle.
	ErrCycle = errors.New("flow: graph contains a cycle not marked allow_cycle")

	// ErrUnreachableEgress is returned by Graph.Validate when no path
	// exists from ingress to any egress node.
	ErrUnreachableEgress = errors.New("flow: no path from ingress to an egress node")

	// ErrFloeClosed is returned by Floe.Send once Floe.Close has been
	// called. Floe.Recv reports a closed floe with ok=false instead.
	ErrFloeClosed = errors.New("flow: floe is closed")

	// ErrTraceCancelled is returned to any node worker that observes its
	// trace's cancellation flag set (spec §4.6).
	ErrTraceCancelled = errors.New("flow: trace cancelled")

	// ErrInvalidRetryPolicy mirrors the teacher's RetryPolicy.Validate
	// error: MaxAttempts < 1, or MaxDelay < BaseDelay when both are set.
	ErrInvalidRetryPolicy = errors.New("flow: invalid retry policy")

	// ErrSeqNotMonotonic is returned when a node attempts to emit a stream
	// chunk whose seq is not exactly one more than the previous chunk's
	// for the same (trace_id, stream_id), or a first chunk whose seq is
	// not 0; gaps are rejected as well as repeats (spec §4.5).
	ErrSeqNotMonotonic = errors.New("flow: stream chunk seq is not strictly increasing")

	// ErrStreamAlreadyDone is returned when a node attempts to emit a
	// chunk for a (trace_id, stream_id) pair that already received a
	// terminal chunk.
	ErrStreamAlreadyDone = errors.New("flow: stream already terminated")
)

// Error is the structured error type returned by node invocation and graph
// construction, mirroring dshills-langgraph-go's *EngineError/*NodeError
// split collapsed into a single type: this runtime's nodes and graph
// building share the same "Message/Code/NodeName/Cause" shape.
type Error struct {
	Message  string
	Code     string
	NodeName string
	Cause    error
}

func (e *Error) Error() string {
	prefix := ""
	if e.NodeName != "" {
		prefix = "node " + e.NodeName + ": "
	}
	if e.Code != "" {
		return prefix + e.Code + ": " + e.Message
	}
	return prefix + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }
