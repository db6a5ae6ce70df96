package flow

import (
	"time"

	"github.com/hurtener/penguiflow-go/emit"
	"github.com/hurtener/penguiflow-go/metrics"
	"github.com/hurtener/penguiflow-go/registry"
)

// Option configures a Graph at construction time. Ported from
// dshills-langgraph-go/graph.Option's `func(*engineConfig) error` shape.
type Option func(*graphOptions) error

type graphOptions struct {
	queueDepth         int
	defaultNodeTimeout time.Duration
	observerBudget     time.Duration
	maxSteps           int
	emitter            emit.Emitter
	metrics            *metrics.Collector
	registry           *registry.Registry
}

func defaultGraphOptions() graphOptions {
	return graphOptions{
		queueDepth:         64,
		defaultNodeTimeout: 30 * time.Second,
		observerBudget:     2 * time.Second,
		emitter:            emit.NewNullEmitter(),
		metrics:            metrics.Noop(),
		registry:           registry.New(),
	}
}

// WithQueueDepth sets the per-edge Floe capacity (spec §4.1's "bounded
// queues"). Default: 64.
func WithQueueDepth(n int) Option {
	return func(cfg *graphOptions) error {
		if n <= 0 {
			return &Error{Message: "queue depth must be positive", Code: "INVALID_OPTION"}
		}
		cfg.queueDepth = n
		return nil
	}
}

// WithDefaultNodeTimeout sets the per-invocation timeout applied to nodes
// without an explicit Policy().Timeout. Default: 30s. Zero disables the
// default (unlimited unless a node sets its own).
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *graphOptions) error {
		cfg.defaultNodeTimeout = d
		return nil
	}
}

// WithObserverBudget bounds how long the event pipeline waits for a single
// observer dispatch before shedding it (spec §4.7): every event is handed
// to the emitter with a context carrying this deadline, and an
// emit.BudgetedEmitter sheds an observer that outlasts it. Zero passes the
// caller's context unchanged. Default: 2s.
func WithObserverBudget(d time.Duration) Option {
	return func(cfg *graphOptions) error {
		cfg.observerBudget = d
		return nil
	}
}

// WithMaxSteps records n as the graph's per-trace step limit, mirroring the
// shape of dshills-langgraph-go's WithMaxSteps option. The worker loop does
// not read it: no limit on how many messages a trace may traverse is
// enforced, whatever n is.
func WithMaxSteps(n int) Option {
	return func(cfg *graphOptions) error {
		cfg.maxSteps = n
		return nil
	}
}

// WithEmitter sets the Emitter every node_start/node_success/node_error/
// chunk/cancelled event is dispatched to. Default: emit.NewNullEmitter().
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *graphOptions) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics.Collector. Default: a disabled
// no-op collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(cfg *graphOptions) error {
		cfg.metrics = m
		return nil
	}
}

// WithRegistry attaches the schema registry used for input/output
// validation (spec §4.3). Default: an empty Registry (nodes without a
// registered schema skip validation).
func WithRegistry(r *registry.Registry) Option {
	return func(cfg *graphOptions) error {
		cfg.registry = r
		return nil
	}
}
