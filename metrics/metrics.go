// Package metrics exposes the runtime and planner's Prometheus-compatible
// instrumentation surface (spec §4.7's "observability hooks" and the
// planner's budget/hop accounting).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records counts, gauges, and histograms for node execution,
// floe backpressure, streaming, and planner budget consumption. All label
// sets use node_name/graph identifiers rather than trace_id, which is
// unbounded cardinality and belongs in the emit pipeline (spec §4.7), not
// in metric labels.
//
// Ported from dshills-langgraph-go's graph.PrometheusMetrics: same gauge/
// histogram/counter split and the same nil-registry-means-disabled
// convention, generalized from a single shared-state engine's run_id labels
// to this runtime's per-node, per-floe, per-trace-class surface.
type Collector struct {
	inflightNodes prometheus.Gauge
	floeDepth     *prometheus.GaugeVec

	stepLatency *prometheus.HistogramVec

	retries      *prometheus.CounterVec
	backpressure *prometheus.CounterVec
	chunksEmitted *prometheus.CounterVec
	observerShed prometheus.Counter

	plannerHops   prometheus.Histogram
	plannerTokens *prometheus.CounterVec

	enabled bool
}

// New creates and registers every metric with registry. A nil registry
// disables collection entirely (Collector methods become no-ops), which is
// the default when no operator opts into Prometheus.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		return &Collector{enabled: false}
	}

	factory := promauto.With(registry)
	c := &Collector{enabled: true}

	c.inflightNodes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "penguiflow",
		Name:      "inflight_nodes",
		Help:      "Number of node workers currently executing a frame",
	})

	c.floeDepth = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "penguiflow",
		Name:      "floe_queue_depth",
		Help:      "Number of envelopes buffered on a floe awaiting its consumer",
	}, []string{"from_node", "to_node"})

	c.stepLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "penguiflow",
		Name:      "node_latency_ms",
		Help:      "Node invocation duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000},
	}, []string{"node_name", "status"}) // status: success, error, timeout

	c.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "penguiflow",
		Name:      "node_retries_total",
		Help:      "Cumulative retry attempts per node",
	}, []string{"node_name", "reason"})

	c.backpressure = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "penguiflow",
		Name:      "backpressure_events_total",
		Help:      "Times a node's send blocked or dropped because a downstream floe was full",
	}, []string{"from_node", "to_node", "outcome"}) // outcome: blocked, dropped

	c.chunksEmitted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "penguiflow",
		Name:      "stream_chunks_total",
		Help:      "Streaming chunks emitted, labeled by terminal status",
	}, []string{"node_name", "terminal"})

	c.observerShed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "penguiflow",
		Name:      "observer_shed_total",
		Help:      "Events dropped because an observer exceeded its dispatch budget",
	})

	c.plannerHops = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "penguiflow",
		Name:      "planner_hops",
		Help:      "Number of plan/act/observe hops consumed per trajectory",
		Buckets:   prometheus.LinearBuckets(1, 1, 16),
	})

	c.plannerTokens = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "penguiflow",
		Name:      "planner_tokens_total",
		Help:      "Tokens consumed by the planner, labeled by estimator",
	}, []string{"estimator"})

	return c
}

// Noop returns a disabled Collector, for call sites that want an
// unconditional metrics.Collector without a nil check.
func Noop() *Collector { return &Collector{enabled: false} }

func (c *Collector) RecordNodeLatency(nodeName string, latency time.Duration, status string) {
	if !c.enabled {
		return
	}
	c.stepLatency.WithLabelValues(nodeName, status).Observe(float64(latency.Milliseconds()))
}

func (c *Collector) IncrementRetries(nodeName, reason string) {
	if !c.enabled {
		return
	}
	c.retries.WithLabelValues(nodeName, reason).Inc()
}

func (c *Collector) SetFloeDepth(fromNode, toNode string, depth int) {
	if !c.enabled {
		return
	}
	c.floeDepth.WithLabelValues(fromNode, toNode).Set(float64(depth))
}

func (c *Collector) SetInflightNodes(count int) {
	if !c.enabled {
		return
	}
	c.inflightNodes.Set(float64(count))
}

func (c *Collector) IncrementBackpressure(fromNode, toNode, outcome string) {
	if !c.enabled {
		return
	}
	c.backpressure.WithLabelValues(fromNode, toNode, outcome).Inc()
}

func (c *Collector) IncrementChunks(nodeName string, terminal bool) {
	if !c.enabled {
		return
	}
	status := "false"
	if terminal {
		status = "true"
	}
	c.chunksEmitted.WithLabelValues(nodeName, status).Inc()
}

func (c *Collector) IncrementObserverShed() {
	if !c.enabled {
		return
	}
	c.observerShed.Inc()
}

func (c *Collector) ObservePlannerHops(hops int) {
	if !c.enabled {
		return
	}
	c.plannerHops.Observe(float64(hops))
}

func (c *Collector) AddPlannerTokens(estimator string, tokens int) {
	if !c.enabled {
		return
	}
	c.plannerTokens.WithLabelValues(estimator).Add(float64(tokens))
}
