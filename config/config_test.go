package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "memory", c.StoreBackend)
	assert.Equal(t, "anthropic", c.LLMProvider)
	assert.Equal(t, 25, c.PlannerMaxIters)
	assert.Equal(t, 24*time.Hour, c.PauseTTL)
}

func TestNewAppliesOptionsOverDefaults(t *testing.T) {
	c := New(
		WithLogLevel("debug"),
		WithMetricsEnabled(false),
		WithStoreBackend("sqlite"),
		WithBusBackend("redis"),
		WithLLMProvider("openai", "key-123", "gpt-4o-mini"),
		WithPlannerBudget(10, 5, 10000, 2*time.Minute),
	)

	assert.Equal(t, "debug", c.LogLevel)
	assert.False(t, c.MetricsEnabled)
	assert.Equal(t, "sqlite", c.StoreBackend)
	assert.Equal(t, "redis", c.BusBackend)
	assert.Equal(t, "openai", c.LLMProvider)
	assert.Equal(t, "key-123", c.LLMAPIKey)
	assert.Equal(t, "gpt-4o-mini", c.LLMModel)
	assert.Equal(t, 10, c.PlannerMaxIters)
	assert.Equal(t, 5, c.PlannerHopBudget)
	assert.Equal(t, 10000, c.PlannerTokenBudget)
	assert.Equal(t, 2*time.Minute, c.PlannerDeadline)
}

func TestLoadUsesDefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "anthropic", c.LLMProvider)
	assert.Equal(t, "test-key", c.LLMAPIKey)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("PENGUIFLOW_LOG_LEVEL", "warn")
	t.Setenv("PENGUIFLOW_STORE_BACKEND", "redis")
	t.Setenv("PENGUIFLOW_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PENGUIFLOW_PLANNER_MAX_ITERS", "7")
	t.Setenv("PENGUIFLOW_TEMPERATURE", "0.9")
	t.Setenv("PENGUIFLOW_PLANNER_DEADLINE", "90s")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "redis", c.StoreBackend)
	assert.Equal(t, "openai", c.LLMProvider)
	assert.Equal(t, "sk-test", c.LLMAPIKey)
	assert.Equal(t, 7, c.PlannerMaxIters)
	assert.Equal(t, 0.9, c.Temperature)
	assert.Equal(t, 90*time.Second, c.PlannerDeadline)
}

func TestLoadRejectsUnknownLLMProvider(t *testing.T) {
	t.Setenv("PENGUIFLOW_LLM_PROVIDER", "not-a-real-provider")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedIntEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("PENGUIFLOW_PLANNER_MAX_ITERS", "not-an-int")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedDurationEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("PENGUIFLOW_PLANNER_DEADLINE", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadTreatsEmptyEnvVarAsUnset(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("PENGUIFLOW_LOG_LEVEL", "")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", c.LogLevel, "an empty env var must fall back to the default, not override with blank")
}
