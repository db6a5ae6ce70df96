package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores events in memory, indexed by trace_id, for
// post-execution inspection and tests. Ported from
// dshills-langgraph-go's graph/emit.BufferedEmitter, re-keyed from runID to
// trace_id (this spec's unit of cancellation and correlation).
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // trace_id -> events
}

// NewBufferedEmitter constructs an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit appends event under its trace_id.
func (b *BufferedEmitter) Emit(_ context.Context, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.TraceID] = append(b.events[event.TraceID], event)
}

// Flush is a no-op: BufferedEmitter never defers delivery.
func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of the events recorded for traceID, in emission
// order.
func (b *BufferedEmitter) History(traceID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	src := b.events[traceID]
	out := make([]Event, len(src))
	copy(out, src)
	return out
}

// Clear discards recorded events for traceID, or all traces if traceID is
// empty.
func (b *BufferedEmitter) Clear(traceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if traceID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, traceID)
}

// BudgetedEmitter wraps an Emitter and enforces a per-event dispatch budget
// (spec §4.7: "Observers cannot block node progress beyond a configurable
// per-event budget; slow observers are shed with a warning event"). Emit
// runs the inner emitter's Emit in its own goroutine and gives up waiting
// for it once the budget elapses; the goroutine is left to finish on its
// own so the inner emitter is never interrupted mid-write.
type BudgetedEmitter struct {
	inner  Emitter
	onShed Emitter // receives EventObserverShed when a dispatch times out; may be nil
}

// NewBudgetedEmitter wraps inner with a per-event shedding policy. onShed
// may be nil to silently drop shed-notification events.
func NewBudgetedEmitter(inner Emitter, onShed Emitter) *BudgetedEmitter {
	return &BudgetedEmitter{inner: inner, onShed: onShed}
}

// Emit dispatches to inner, respecting ctx's deadline as the per-event
// budget. Callers that want a fixed per-event budget independent of the
// node's own context should derive ctx with context.WithTimeout before
// calling Emit.
func (b *BudgetedEmitter) Emit(ctx context.Context, event Event) {
	done := make(chan struct{})
	go func() {
		b.inner.Emit(ctx, event)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if b.onShed != nil {
			b.onShed.Emit(context.Background(), Event{
				Type:      EventObserverShed,
				TraceID:   event.TraceID,
				NodeName:  event.NodeName,
				Timestamp: event.Timestamp,
				Extra:     map[string]any{"shed_event_type": string(event.Type)},
			})
		}
	}
}

// Flush delegates to the inner emitter.
func (b *BudgetedEmitter) Flush(ctx context.Context) error {
	return b.inner.Flush(ctx)
}
