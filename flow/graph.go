package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/hurtener/penguiflow-go/emit"
	"github.com/hurtener/penguiflow-go/metrics"
	"github.com/hurtener/penguiflow-go/registry"
)

// ingressNode and egressNode are the pseudo-node names spec §4.1's
// "ingress accepts messages from external callers; egress is a
// consumer-facing queue" binds to. They're ordinary entries in the
// successors graph so Validate's reachability check treats them uniformly.
const (
	ingressNode = "__ingress__"
	egressNode  = "__egress__"
)

type nodeEntry struct {
	name       string
	node       Node
	allowCycle bool
}

// Graph owns node registration, edge topology, the per-edge Floes, and the
// shared runtime services (cancellation registry, stream guard, emitter,
// metrics, schema registry) every worker invocation needs. Grounded on
// dshills-langgraph-go/graph.Engine[S], generalized from a single shared
// state S routed by a heap-ordered Frontier to independent per-edge Floes
// with per-node workers (spec §4.1).
type Graph struct {
	mu           sync.RWMutex
	nodes        map[string]*nodeEntry
	successors   map[string][]string
	predecessors map[string][]string
	floes        map[string]*Floe
	inboxes      map[string]chan Frame
	childTraces  map[string]struct{}

	cancel         *TraceCancelRegistry
	cancelSweepers []func(traceID string)
	streams        *StreamGuard
	emitter        emit.Emitter
	metrics        *metrics.Collector
	schemas        *registry.Registry

	opts graphOptions

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New constructs an empty Graph. Apply Option values to configure queue
// depth, default timeout, the emitter, metrics, and schema registry before
// calling AddNode/Connect/Start.
func New(opts ...Option) (*Graph, error) {
	cfg := defaultGraphOptions()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	g := &Graph{
		nodes:        make(map[string]*nodeEntry),
		successors:   make(map[string][]string),
		predecessors: make(map[string][]string),
		floes:        make(map[string]*Floe),
		inboxes:      make(map[string]chan Frame),
		childTraces:  make(map[string]struct{}),
		cancel:       NewTraceCancelRegistry(),
		streams:      NewStreamGuard(),
		emitter:      cfg.emitter,
		metrics:      cfg.metrics,
		schemas:      cfg.registry,
		opts:         cfg,
		stopCh:       make(chan struct{}),
	}
	g.nodes[ingressNode] = &nodeEntry{name: ingressNode, node: passthroughNode{}}
	g.nodes[egressNode] = &nodeEntry{name: egressNode, node: passthroughNode{}}
	return g, nil
}

// passthroughNode is the implicit behavior of ingress/egress: they never
// run node logic, they only exist as topology anchors and Floe endpoints.
type passthroughNode struct{}

func (passthroughNode) Invoke(_ *Context, payload any) (any, error) { return payload, nil }

// AddNode registers node under name. allowCycle, if true, exempts this
// node's participation in a strongly-connected component from Validate's
// cycle rejection (spec §4.1's "reject any cycle whose nodes do not all
// carry allow_cycle").
func (g *Graph) AddNode(name string, node Node, allowCycle bool) error {
	if name == "" {
		return &Error{Message: "node name cannot be empty", Code: "INVALID_NODE"}
	}
	if node == nil {
		return &Error{Message: "node cannot be nil", NodeName: name, Code: "INVALID_NODE"}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = &nodeEntry{name: name, node: node, allowCycle: allowCycle}
	return nil
}

// Connect adds a directed edge from->to, creating the backing Floe with the
// graph's configured queue depth. from and to must already be registered
// (or be the ingress/egress pseudo-nodes).
func (g *Graph) Connect(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	key := floeKey(from, to)
	if _, exists := g.floes[key]; exists {
		return nil
	}
	g.floes[key] = NewFloe(from, to, g.opts.queueDepth)
	g.successors[from] = append(g.successors[from], to)
	g.predecessors[to] = append(g.predecessors[to], from)
	return nil
}

// ConnectIngress wires the ingress pseudo-node to name, the entry point
// external callers submit messages to.
func (g *Graph) ConnectIngress(name string) error { return g.Connect(ingressNode, name) }

// ConnectEgress wires name to the egress pseudo-node, marking name's output
// as consumer-visible.
func (g *Graph) ConnectEgress(name string) error { return g.Connect(name, egressNode) }

func floeKey(from, to string) string { return from + "\x00" + to }

func (g *Graph) floe(from, to string) *Floe {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.floes[floeKey(from, to)]
}

// Cancel marks traceID cancelled and sweeps every edge queue and
// registered cancellation sweeper for it — the externally-triggered
// counterpart to Context.CancelTrace, for callers outside any running
// node (spec §4.6/§8's "after first failure, cancel(trace_id)... within
// bounded time, all its edge queues are empty"). Safe to call more than
// once for the same traceID.
func (g *Graph) Cancel(traceID string) {
	g.cancel.Cancel(traceID)

	g.mu.RLock()
	floes := make([]*Floe, 0, len(g.floes))
	for _, f := range g.floes {
		floes = append(floes, f)
	}
	sweepers := make([]func(string), len(g.cancelSweepers))
	copy(sweepers, g.cancelSweepers)
	g.mu.RUnlock()

	for _, f := range floes {
		f.DrainTrace(traceID)
	}
	for _, sweep := range sweepers {
		sweep(traceID)
	}
}

// OnCancel registers fn to run with the trace_id whenever Cancel sweeps a
// trace, so node-local buffers with no edge-queue representation of their
// own — patterns.JoinK's partial aggregations, most notably — can discard
// state for a trace that will never complete (spec §4.4's "if the trace is
// cancelled before k arrive, buffered entries are discarded").
func (g *Graph) OnCancel(fn func(traceID string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelSweepers = append(g.cancelSweepers, fn)
}

func (g *Graph) markChildTrace(traceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.childTraces[traceID] = struct{}{}
}

func (g *Graph) isChildTrace(traceID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.childTraces[traceID]
	return ok
}

// Validate computes strongly connected components and rejects any cycle
// whose member nodes don't all carry allow_cycle, then checks that the
// egress pseudo-node is reachable from ingress (spec §4.1's topology
// validation). Called automatically by Start.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sccs := tarjanSCC(g.successors, g.nodeNamesLocked())
	for _, scc := range sccs {
		if len(scc) == 1 && !hasSelfLoop(g.successors, scc[0]) {
			continue
		}
		for _, n := range scc {
			if !g.nodes[n].allowCycle {
				return fmt.Errorf("%w: cycle includes %s", ErrCycle, n)
			}
		}
	}

	if !g.reachableLocked(ingressNode, egressNode) {
		return ErrUnreachableEgress
	}
	return nil
}

func (g *Graph) nodeNamesLocked() []string {
	names := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		names = append(names, n)
	}
	return names
}

func hasSelfLoop(successors map[string][]string, n string) bool {
	for _, s := range successors[n] {
		if s == n {
			return true
		}
	}
	return false
}

func (g *Graph) reachableLocked(from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, next := range g.successors[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// tarjanSCC computes strongly connected components of the successors
// adjacency over nodes, using Tarjan's algorithm. Returned in no
// particular order.
func tarjanSCC(successors map[string][]string, nodes []string) [][]string {
	index := 0
	indices := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range successors[v] {
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, seen := indices[n]; !seen {
			strongconnect(n)
		}
	}
	return sccs
}

// dispatch pushes an event through the configured emitter, bounding ctx by
// the graph's observer budget (WithObserverBudget). Shedding a slow
// observer (spec §4.7) is the emitter's concern — wrap the configured
// Emitter in an emit.BudgetedEmitter, which sheds once that deadline passes.
func (g *Graph) dispatch(ctx context.Context, ev emit.Event) {
	if g.emitter == nil {
		return
	}
	if g.opts.observerBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.observerBudget)
		defer cancel()
	}
	if ev.ParentTrace == "" && g.isChildTrace(ev.TraceID) {
		ev.ParentTrace = ev.TraceID
	}
	g.emitter.Emit(ctx, ev)
}
