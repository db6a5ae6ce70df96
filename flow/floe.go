package flow

import (
	"context"
	"sync"

	"github.com/hurtener/penguiflow-go/message"
)

// Frame is the unit of transport on a floe: a payload plus the envelope
// metadata (trace_id, headers) a worker needs to validate, route, and
// cancel on.
type Frame struct {
	TraceID string
	Headers message.Headers
	Payload any
}

// Floe is the bounded-capacity, single-producer-per-edge, single-consumer
// FIFO queue connecting one node's output to another's input (spec §4.1's
// "bounded queues", §5's "within one edge, messages preserve FIFO order").
//
// Ported from dshills-langgraph-go's Frontier[S] bounded-channel-plus-
// backpressure mechanism, but narrowed from one shared multi-producer
// frontier serving the whole engine down to one channel per graph edge:
// this runtime's edges are not a deterministic-replay-ordered heap of
// work items, they are independent FIFO pipes, so the teacher's OrderKey/
// heap machinery has no equivalent here (see SPEC_FULL.md's flow.Floe
// entry).
type Floe struct {
	From, To string
	ch       chan Frame

	mu     sync.Mutex
	closed bool
}

// NewFloe constructs a Floe of the given capacity connecting from->to.
func NewFloe(from, to string, capacity int) *Floe {
	if capacity <= 0 {
		capacity = 1
	}
	return &Floe{From: from, To: to, ch: make(chan Frame, capacity)}
}

// Send enqueues frame, blocking if the floe is full (backpressure) until
// space frees up, ctx is done, or the trace is cancelled. Returns
// ErrTraceCancelled if cancel fires first, ctx.Err() if ctx is done first,
// and ErrFloeClosed if the floe was closed concurrently.
func (f *Floe) Send(ctx context.Context, frame Frame, cancel *TraceCancelRegistry) (err error) {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrFloeClosed
	}
	defer func() {
		if recover() != nil {
			err = ErrFloeClosed
		}
	}()
	if cancel != nil && cancel.IsCancelled(frame.TraceID) {
		return ErrTraceCancelled
	}
	var cancelCh <-chan struct{}
	if cancel != nil {
		cancelCh = cancel.Watch(frame.TraceID)
	}
	select {
	case f.ch <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-cancelCh:
		return ErrTraceCancelled
	}
}

// Recv dequeues the next frame, racing the read against ctx and the
// trace-cancellation signal per spec §4.1's "awaits either a message from
// its inbound edge or a trace-cancellation signal; whichever fires first
// wins." Recv does not know which trace the next frame belongs to until it
// arrives, so cancellation here is checked per-frame by the caller (worker
// loop), not blocked on up front.
func (f *Floe) Recv(ctx context.Context) (Frame, bool, error) {
	select {
	case frame, ok := <-f.ch:
		if !ok {
			return Frame{}, false, nil
		}
		return frame, true, nil
	case <-ctx.Done():
		return Frame{}, false, ctx.Err()
	}
}

// Depth reports the number of frames currently buffered, the runtime's
// `queue_depth(edge)` read-only observable (spec §5).
func (f *Floe) Depth() int { return len(f.ch) }

// Close closes the underlying channel. Subsequent Send calls return
// ErrFloeClosed; Recv drains any buffered frames before reporting closed.
func (f *Floe) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.ch)
}

// DrainTrace discards any buffered frames belonging to traceID, re-queuing
// everything else in arrival order. Used when a trace is cancelled (spec
// §4.6's "pending messages for a cancelled trace are drained from all edge
// queues").
func (f *Floe) DrainTrace(traceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pending := len(f.ch)
	kept := make([]Frame, 0, pending)
	for i := 0; i < pending; i++ {
		frame := <-f.ch
		if frame.TraceID != traceID {
			kept = append(kept, frame)
		}
	}
	for _, frame := range kept {
		f.ch <- frame
	}
}
