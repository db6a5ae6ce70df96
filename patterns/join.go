package patterns

import (
	"sync"

	"github.com/hurtener/penguiflow-go/flow"
)

// JoinK aggregates exactly k messages sharing a trace_id into one output
// (spec §4.4's join_k). Out-of-order arrivals are buffered per trace_id;
// once k arrive, Accept returns the ordered aggregation (in arrival order)
// and clears the trace's buffer. Cancelled traces are discarded via
// Discard rather than aggregated (spec §4.4's "if the trace is cancelled
// before k arrive, buffered entries are discarded").
//
// Grounded on dshills-langgraph-go's checkpoint/state-merge bookkeeping
// pattern (a mutex-protected map keyed by run identifier), narrowed here
// to per-trace buffered slices rather than merged shared state since each
// join input is an independent branch output, not a state delta.
type JoinK struct {
	k int

	mu      sync.Mutex
	pending map[string][]any
}

// NewJoinK constructs a JoinK requiring k arrivals per trace before
// emitting.
func NewJoinK(k int) *JoinK {
	return &JoinK{k: k, pending: make(map[string][]any)}
}

// Accept buffers value under traceID. When the k-th value for traceID
// arrives, Accept returns (aggregated, true) with aggregated holding every
// buffered value for that trace in arrival order, and clears the buffer.
func (j *JoinK) Accept(traceID string, value any) ([]any, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.pending[traceID] = append(j.pending[traceID], value)
	if len(j.pending[traceID]) < j.k {
		return nil, false
	}
	out := j.pending[traceID]
	delete(j.pending, traceID)
	return out, true
}

// Discard drops any buffered entries for traceID without aggregating,
// called when traceID is cancelled before k arrivals complete.
func (j *JoinK) Discard(traceID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.pending, traceID)
}

// RegisterWith subscribes j's Discard to g's cancellation sweep, so a
// trace cancelled externally (flow.Graph.Cancel) or from inside a node
// (flow.Context.CancelTrace) before k arrivals complete discards j's
// buffered entries for it — the path a cancelled-trace frame never
// reaches Node() to trigger on its own, since flow's worker loop filters
// cancelled-trace frames before Invoke runs.
func (j *JoinK) RegisterWith(g *flow.Graph) {
	g.OnCancel(j.Discard)
}

// Node adapts JoinK to flow.Node: each invocation buffers payload under the
// current trace and, once k arrivals complete, emits the aggregation
// downstream; earlier arrivals emit nothing (a nil Invoke result, which
// flow's worker treats as "no delivery").
func (j *JoinK) Node() flow.Node {
	return flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		if ctx.Cancelled() {
			j.Discard(ctx.TraceID())
			return nil, flow.ErrTraceCancelled
		}
		aggregated, ready := j.Accept(ctx.TraceID(), payload)
		if !ready {
			return nil, nil
		}
		return aggregated, nil
	})
}
