package flow

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
	"github.com/hurtener/penguiflow-go/message"
)

// Start validates the topology and spawns one cooperative worker per node
// (spec §4.1's "each node has exactly one cooperative worker"), plus one
// fan-in goroutine per inbound Floe merging it into that node's inbox. ctx
// governs the lifetime of every spawned goroutine; cancelling it is
// equivalent to an immediate Stop without drain.
func (g *Graph) Start(ctx context.Context) error {
	if err := g.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return &Error{Message: "graph already started", Code: "ALREADY_STARTED"}
	}
	g.started = true

	for name := range g.nodes {
		if name == ingressNode {
			continue
		}
		inbox := make(chan Frame, g.opts.queueDepth)
		g.inboxes[name] = inbox
	}
	nodeNames := g.nodeNamesLocked()
	g.mu.Unlock()

	for _, name := range nodeNames {
		if name == ingressNode {
			continue
		}
		for _, pred := range g.predecessorsOf(name) {
			g.wg.Add(1)
			go g.fanIn(ctx, g.floe(pred, name), g.inboxes[name])
		}
	}

	for _, name := range nodeNames {
		if name == ingressNode || name == egressNode {
			continue
		}
		entry := g.nodeEntry(name)
		g.wg.Add(1)
		go g.runWorker(ctx, entry)
	}

	return nil
}

func (g *Graph) predecessorsOf(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.predecessors[name]))
	copy(out, g.predecessors[name])
	return out
}

func (g *Graph) nodeEntry(name string) *nodeEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[name]
}

// fanIn forwards every frame from floe into inbox until the floe closes,
// ctx is done, or the graph stops.
func (g *Graph) fanIn(ctx context.Context, floe *Floe, inbox chan Frame) {
	defer g.wg.Done()
	for {
		select {
		case frame, ok := <-floe.ch:
			if !ok {
				return
			}
			select {
			case inbox <- frame:
			case <-ctx.Done():
				return
			case <-g.stopCh:
				return
			}
		case <-ctx.Done():
			return
		case <-g.stopCh:
			return
		}
	}
}

// Submit enqueues payload on the ingress pseudo-node, fanning it out to
// every node directly connected via ConnectIngress. Blocks under
// backpressure exactly like an internal emission (spec §4.1's "both
// operations are backpressure-aware").
func (g *Graph) Submit(ctx context.Context, headers message.Headers, payload any) (string, error) {
	return g.submitFrame(ctx, message.NewTraceID(), headers, payload)
}

// SubmitWithTrace is Submit with a caller-supplied trace_id instead of a
// freshly minted one — the entry point a playbook/subflow child graph uses
// so the parent's trace_id stays immutable across the subflow boundary
// (spec §3's "trace_id is immutable once assigned and propagates through
// every downstream message", §4.4's "forwards the caller's trace_id").
func (g *Graph) SubmitWithTrace(ctx context.Context, traceID string, headers message.Headers, payload any) (string, error) {
	g.markChildTrace(traceID)
	return g.submitFrame(ctx, traceID, headers, payload)
}

func (g *Graph) submitFrame(ctx context.Context, traceID string, headers message.Headers, payload any) (string, error) {
	select {
	case <-g.stopCh:
		return "", &Error{Message: "graph stopped", Code: "STOPPED"}
	default:
	}
	successors := g.successorsOf(ingressNode)
	if len(successors) == 0 {
		return "", &Error{Message: "no node connected to ingress", Code: "NO_INGRESS_TARGET"}
	}
	frame := Frame{TraceID: traceID, Headers: headers, Payload: payload}
	for _, succ := range successors {
		floe := g.floe(ingressNode, succ)
		if err := floe.Send(ctx, frame, g.cancel); err != nil {
			return traceID, err
		}
	}
	return traceID, nil
}

func (g *Graph) successorsOf(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.successors[name]))
	copy(out, g.successors[name])
	return out
}

// Fetch reads the next frame delivered to egress, racing against ctx.
func (g *Graph) Fetch(ctx context.Context) (Frame, bool, error) {
	g.mu.RLock()
	inbox := g.inboxes[egressNode]
	g.mu.RUnlock()
	select {
	case frame, ok := <-inbox:
		return frame, ok, nil
	case <-ctx.Done():
		return Frame{}, false, ctx.Err()
	}
}

// Stop signals every worker and fan-in goroutine to exit after its current
// iteration and makes Submit/SubmitWithTrace refuse new ingress messages,
// then waits up to grace for them to exit. Frames still buffered on floes
// or inboxes are not drained to egress. Stop returns nil once every
// goroutine has exited; if grace elapses first it returns a STOP_TIMEOUT
// error and any goroutine still blocked (for example a worker sending to a
// full floe) keeps running after Stop returns.
func (g *Graph) Stop(grace time.Duration) error {
	close(g.stopCh)

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return &Error{Message: "graph stop exceeded grace period", Code: "STOP_TIMEOUT"}
	}
}

// runWorker is the per-node cooperative loop: read from inbox (racing
// cancellation), validate input, invoke with timeout/retry, validate
// output, then emit to successors (spec §4.1 steps 1-5).
func (g *Graph) runWorker(ctx context.Context, entry *nodeEntry) {
	defer g.wg.Done()

	inbox := g.inboxes[entry.name]
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		var frame Frame
		select {
		case f, ok := <-inbox:
			if !ok {
				return
			}
			frame = f
		case <-ctx.Done():
			return
		case <-g.stopCh:
			return
		}

		if g.cancel.IsCancelled(frame.TraceID) {
			g.dispatch(ctx, emit.Event{Type: emit.EventCancelled, TraceID: frame.TraceID, NodeName: entry.name, Timestamp: time.Now()})
			continue
		}

		g.processFrame(ctx, entry, frame, rng)
	}
}

func (g *Graph) processFrame(ctx context.Context, entry *nodeEntry, frame Frame, rng *rand.Rand) {
	policy := PolicyOf(entry.node)

	if err := g.validate(entry.name, "input", frame.Payload); err != nil {
		g.emitNodeError(ctx, frame, entry.name, 0, err)
		return
	}

	g.dispatch(ctx, emit.Event{Type: emit.EventNodeStart, TraceID: frame.TraceID, NodeName: entry.name, Timestamp: time.Now()})

	maxAttempts := 1
	if policy != nil && policy.Retry != nil {
		maxAttempts = policy.Retry.MaxAttempts
	}

	var result any
	var invokeErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, invokeErr = g.invokeWithTimeout(ctx, entry, frame, policy)
		if invokeErr == nil {
			break
		}
		if invokeErr == context.Canceled || g.cancel.IsCancelled(frame.TraceID) {
			return
		}
		if !classify(policy, invokeErr) || attempt == maxAttempts {
			break
		}
		if g.metrics != nil {
			g.metrics.IncrementRetries(entry.name, "error")
		}
		g.dispatch(ctx, emit.Event{
			Type: emit.EventNodeRetry, TraceID: frame.TraceID, NodeName: entry.name,
			Attempt: attempt, Timestamp: time.Now(), ErrorMsg: invokeErr.Error(),
		})
		if policy != nil && policy.Retry != nil {
			delay := computeBackoff(attempt-1, policy.Retry.BaseDelay, policy.Retry.MaxDelay, rng)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			case <-g.stopCh:
				return
			}
		}
	}

	if invokeErr != nil {
		g.emitNodeError(ctx, frame, entry.name, maxAttempts, invokeErr)
		return
	}

	if err := g.validate(entry.name, "output", result); err != nil {
		g.emitNodeError(ctx, frame, entry.name, maxAttempts, err)
		return
	}

	g.dispatch(ctx, emit.Event{Type: emit.EventNodeSuccess, TraceID: frame.TraceID, NodeName: entry.name, Timestamp: time.Now()})
	g.deliver(ctx, entry.name, frame, result)
}

func (g *Graph) invokeWithTimeout(ctx context.Context, entry *nodeEntry, frame Frame, policy *Policy) (any, error) {
	timeout := getTimeout(policy, g.opts.defaultNodeTimeout)
	invokeCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		invokeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	nodeCtx := newContext(invokeCtx, g, entry.name, frame)
	result, err := entry.node.Invoke(nodeCtx, frame.Payload)
	if err == nil && len(nodeCtx.pending) > 0 {
		pending := append([]Emission{}, nodeCtx.pending...)
		if result != nil {
			pending = append(pending, Emission{Value: result})
		}
		result = any(pending)
	}

	if err != nil {
		return nil, err
	}
	if invokeCtx.Err() == context.DeadlineExceeded {
		return result, &Error{Message: fmt.Sprintf("node %s exceeded timeout of %s", entry.name, timeout), Code: "NODE_TIMEOUT", NodeName: entry.name}
	}
	return result, nil
}

func (g *Graph) validate(nodeName, kind string, payload any) error {
	schema := g.schemas.Lookup(nodeName, kind)
	if schema == nil {
		return nil
	}
	return schema.Validate(payload)
}

func (g *Graph) emitNodeError(ctx context.Context, frame Frame, nodeName string, attempt int, err error) {
	g.dispatch(ctx, emit.Event{
		Type: emit.EventNodeError, TraceID: frame.TraceID, NodeName: nodeName,
		Attempt: attempt, Timestamp: time.Now(), ErrorMsg: err.Error(),
	})
}

// deliver resolves the node's returned value into per-successor payloads
// and blocks (under backpressure) delivering each to its target Floe.
func (g *Graph) deliver(ctx context.Context, nodeName string, frame Frame, value any) {
	successors := g.successorsOf(nodeName)
	if value == nil {
		return
	}
	targets := resolveEmission(value, successors)
	for _, t := range targets {
		floe := g.floe(nodeName, t.target)
		if floe == nil {
			continue
		}
		out := Frame{TraceID: frame.TraceID, Headers: frame.Headers, Payload: t.payload}
		if err := floe.Send(ctx, out, g.cancel); err != nil {
			if g.metrics != nil {
				g.metrics.IncrementBackpressure(nodeName, t.target, "dropped")
			}
		}
	}
}
