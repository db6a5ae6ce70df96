package patterns

import (
	"time"

	"github.com/hurtener/penguiflow-go/flow"
)

// Playbook wraps a fully-built child flow.Graph so a caller node can run it
// to completion for a single input and return its first egress payload
// (spec §4.4's call_playbook subflow). The caller's trace_id and headers
// are forwarded to the child unchanged via Graph.SubmitWithTrace (spec
// §3's "trace_id is immutable once assigned and propagates through every
// downstream message"), and every event the child graph emits for that
// trace_id is tagged with ParentTrace so an observer can tell a playbook
// child's events apart from a standalone invocation under the same
// trace_id.
//
// Grounded on dshills-langgraph-go's nested-engine composition idea
// (engine.Run called recursively from within a node body) combined with
// this runtime's Graph.Submit/Fetch/Start/Stop lifecycle rather than a
// shared-state Run call, since child and parent here are independent
// Floe-routed graphs, not one shared-state engine.
type Playbook struct {
	Graph       *flow.Graph
	StopGrace   time.Duration
	SanitizeKey func(key string) bool // not consulted: Node forwards no meta to the child, only trace_id and headers
}

// Node adapts the Playbook to flow.Node: each invocation starts the child
// graph (if not already started), submits payload as the child's ingress
// message under the caller's own trace_id and headers, waits for the
// child's first egress frame, and returns its payload.
func (p *Playbook) Node() flow.Node {
	return flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		if err := p.Graph.Start(ctx.Context()); err != nil {
			if ferr, ok := err.(*flow.Error); !ok || ferr.Code != "ALREADY_STARTED" {
				return nil, err
			}
		}

		childCtx := ctx.Context()
		if _, err := p.Graph.SubmitWithTrace(childCtx, ctx.TraceID(), ctx.Headers(), payload); err != nil {
			return nil, err
		}

		frame, ok, err := p.Graph.Fetch(childCtx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &flow.Error{Message: "playbook child graph egress closed without a result", Code: "PLAYBOOK_NO_RESULT"}
		}

		return frame.Payload, nil
	})
}

// Stop stops the child graph, waiting up to StopGrace (10s when unset) for
// its goroutines to exit; frames still buffered in the child are not
// drained.
func (p *Playbook) Stop() error {
	grace := p.StopGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return p.Graph.Stop(grace)
}
