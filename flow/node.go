package flow

import "encoding/json"

// Node is the runtime-facing shape every graph participant implements.
// Payloads cross node boundaries as `any` because, unlike a shared-state
// graph, each edge in this runtime can carry a distinct payload type; the
// registry (spec §4.3) is the source of truth for what each node's input
// and output actually look like, not the Go type system. Use Typed to
// write nodes against a concrete Go type and let the adapter round-trip
// through JSON at the boundary.
//
// Grounded on dshills-langgraph-go/graph.Node[S], generalized from a
// single shared state type S to per-node input/output types, and on
// goadesign-goa-ai/runtime/agent/tools' json.RawMessage-carrying tool
// calls, which face the same heterogeneous-payload problem.
type Node interface {
	// Invoke runs the node's logic against payload (already validated
	// against the registry's input schema, if one is registered) and
	// returns the node's output value. The returned value is either a
	// plain value (emit to every successor), an Emission (selective
	// emission to named successors), or a []Emission (distinct payload
	// per successor) — see emission.go.
	Invoke(ctx *Context, payload any) (any, error)
}

// Func adapts a plain function to Node, mirroring
// dshills-langgraph-go/graph.NodeFunc.
type Func func(ctx *Context, payload any) (any, error)

// Invoke implements Node.
func (f Func) Invoke(ctx *Context, payload any) (any, error) { return f(ctx, payload) }

// policyProvider is an optional interface a Node may implement to attach a
// Policy, detected the way the teacher's engine.Run detects
// `interface{ Policy() NodePolicy }` on a registered node rather than
// threading policy through every constructor.
type policyProvider interface {
	Policy() *Policy
}

// PolicyOf returns node's attached policy, or nil if it doesn't implement
// policyProvider.
func PolicyOf(node Node) *Policy {
	if p, ok := node.(policyProvider); ok {
		return p.Policy()
	}
	return nil
}

// WithPolicy wraps node so it reports policy via policyProvider, for nodes
// built with Typed or Func that don't want to implement Policy()
// themselves.
func WithPolicy(node Node, policy *Policy) Node {
	return &policyNode{Node: node, policy: policy}
}

type policyNode struct {
	Node
	policy *Policy
}

func (p *policyNode) Policy() *Policy { return p.policy }

// Typed adapts a Go-typed node function to Node by round-tripping payload
// through JSON when it isn't already assignable to In. This keeps node
// authors in typed Go while letting the graph, registry, and patterns
// packages treat every node uniformly.
func Typed[In, Out any](fn func(ctx *Context, in In) (Out, error)) Func {
	return func(ctx *Context, payload any) (any, error) {
		in, err := convert[In](payload)
		if err != nil {
			return nil, &Error{Message: "input conversion failed", Code: "INVALID_INPUT", Cause: err}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func convert[T any](payload any) (T, error) {
	var zero T
	if v, ok := payload.(T); ok {
		return v, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, err
	}
	return out, nil
}
