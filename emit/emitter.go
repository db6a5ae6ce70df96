package emit

import "context"

// Emitter receives structured events from the graph runtime and the
// planner. Implementations must be non-blocking with respect to node
// progress beyond a configurable per-event budget (spec §4.7) — slow
// observers are the runtime's problem to shed, not the node's problem to
// wait on.
type Emitter interface {
	// Emit sends a single event. Must not block node progress and must
	// never panic.
	Emit(ctx context.Context, event Event)

	// Flush blocks until any buffered events have been delivered, or ctx is
	// done. Safe to call multiple times.
	Flush(ctx context.Context) error
}

// Chain fans one event stream out to multiple emitters, in order. A panic
// or block in one emitter's Emit must not be allowed to affect siblings;
// chain itself does not add isolation (use BudgetedEmitter for that), it
// only composes.
type Chain []Emitter

// Emit dispatches to every emitter in the chain.
func (c Chain) Emit(ctx context.Context, event Event) {
	for _, e := range c {
		e.Emit(ctx, event)
	}
}

// Flush flushes every emitter in the chain, returning the first error
// encountered (after attempting all of them).
func (c Chain) Flush(ctx context.Context) error {
	var first error
	for _, e := range c {
		if err := e.Flush(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
