package flow

import "sync"

// TraceCancelRegistry tracks which trace_ids are cancelled and lets workers
// race a blocking queue read against cancellation (spec §4.6). Cancel is
// idempotent and asynchronous: Cancel just flips a flag and closes a
// per-trace channel; it does not itself abort in-flight work — workers
// observe the flag at their own suspension points.
//
// Grounded on dshills-langgraph-go's context-cancellation-per-run pattern
// (the teacher cancels via context.Context passed into Run), generalized
// to per-trace rather than per-engine-run cancellation since a single
// graph instance here serves many concurrent traces at once.
type TraceCancelRegistry struct {
	mu        sync.Mutex
	cancelled map[string]bool
	watchers  map[string]chan struct{}
}

// NewTraceCancelRegistry constructs an empty registry.
func NewTraceCancelRegistry() *TraceCancelRegistry {
	return &TraceCancelRegistry{
		cancelled: make(map[string]bool),
		watchers:  make(map[string]chan struct{}),
	}
}

// Cancel marks traceID cancelled and closes its watch channel, waking any
// sender blocked in Floe.Send for that trace (Floe.Recv does not watch
// cancellation). Safe to call more than once for the same traceID.
func (r *TraceCancelRegistry) Cancel(traceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled[traceID] {
		return
	}
	r.cancelled[traceID] = true
	if ch, ok := r.watchers[traceID]; ok {
		close(ch)
	}
}

// IsCancelled reports whether traceID has been cancelled.
func (r *TraceCancelRegistry) IsCancelled(traceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled[traceID]
}

// Watch returns a channel that closes when traceID is cancelled. Callers
// select on it alongside a queue read, per spec §4.6's "races it against
// queue reads".
func (r *TraceCancelRegistry) Watch(traceID string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled[traceID] {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	if ch, ok := r.watchers[traceID]; ok {
		return ch
	}
	ch := make(chan struct{})
	r.watchers[traceID] = ch
	return ch
}

// Forget releases bookkeeping for traceID once its trace has fully
// completed or been drained, preventing unbounded growth of the cancelled/
// watchers maps across long-lived graph instances.
func (r *TraceCancelRegistry) Forget(traceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancelled, traceID)
	delete(r.watchers, traceID)
}
