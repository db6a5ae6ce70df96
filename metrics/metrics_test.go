package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopCollectorMethodsDoNotPanic(t *testing.T) {
	c := Noop()
	c.RecordNodeLatency("n", time.Millisecond, "success")
	c.IncrementRetries("n", "timeout")
	c.SetFloeDepth("a", "b", 3)
	c.SetInflightNodes(2)
	c.IncrementBackpressure("a", "b", "dropped")
	c.IncrementChunks("n", true)
	c.IncrementObserverShed()
	c.ObservePlannerHops(5)
	c.AddPlannerTokens("char", 100)
}

func TestNewWithNilRegistryBehavesAsNoop(t *testing.T) {
	c := New(nil)
	c.SetInflightNodes(1)
}

func TestCollectorRecordsAgainstRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncrementRetries("worker", "timeout")
	c.IncrementRetries("worker", "timeout")

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() != "penguiflow_node_retries_total" {
			continue
		}
		for _, m := range mf.Metric {
			if labelsMatch(m, map[string]string{"node_name": "worker", "reason": "timeout"}) {
				found = true
				assert.Equal(t, float64(2), m.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found, "expected penguiflow_node_retries_total{node_name=worker,reason=timeout} to be recorded")
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.Label))
	for _, l := range m.Label {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
