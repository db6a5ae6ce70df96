// Package config assembles the ambient knobs every other package takes
// as constructor arguments: log level, metrics enablement, store/bus
// backend selection, transport addresses, LLM provider choice, and
// planner budgets. Load reads them from the environment (optionally
// populated from a .env file); New builds the same Config
// programmatically via functional options, the same pattern
// flow.Option/planner.Option use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	// autoload populates the process environment from a .env file in the
	// working directory, if one exists, before Load reads os.Getenv.
	_ "github.com/joho/godotenv/autoload"
)

// Config bundles the settings Load/New resolve into concrete values the
// rest of the module's constructors (logging.New, metrics.New,
// store.New*, bus.New*, llm.New*Client, planner.New) consume directly.
type Config struct {
	LogLevel  string
	LogOutput string // "stdout" or "stderr"

	MetricsEnabled bool

	// StoreBackend is one of "memory", "sqlite", "redis".
	StoreBackend  string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// BusBackend is one of "memory", "redis".
	BusBackend string
	BusGroup   string

	TransportListenAddr string
	TransportBaseURL    string

	// LLMProvider is one of "anthropic", "openai".
	LLMProvider string
	LLMAPIKey   string
	LLMModel    string
	Temperature float64
	MaxTokens   int

	PlannerMaxIters     int
	PlannerHopBudget    int
	PlannerTokenBudget  int
	PlannerDeadline     time.Duration
	PauseTTL            time.Duration
	StreamFinalResponse bool
}

// Option mutates a Config at construction time.
type Option func(*Config)

func WithLogLevel(level string) Option       { return func(c *Config) { c.LogLevel = level } }
func WithMetricsEnabled(enabled bool) Option { return func(c *Config) { c.MetricsEnabled = enabled } }
func WithStoreBackend(backend string) Option { return func(c *Config) { c.StoreBackend = backend } }
func WithBusBackend(backend string) Option   { return func(c *Config) { c.BusBackend = backend } }
func WithLLMProvider(provider, apiKey, model string) Option {
	return func(c *Config) {
		c.LLMProvider = provider
		c.LLMAPIKey = apiKey
		c.LLMModel = model
	}
}
func WithPlannerBudget(maxIters, hopBudget, tokenBudget int, deadline time.Duration) Option {
	return func(c *Config) {
		c.PlannerMaxIters = maxIters
		c.PlannerHopBudget = hopBudget
		c.PlannerTokenBudget = tokenBudget
		c.PlannerDeadline = deadline
	}
}

// New returns a Config with defaults applied, then opts in order.
func New(opts ...Option) *Config {
	c := &Config{
		LogLevel:            "info",
		LogOutput:           "stdout",
		MetricsEnabled:      true,
		StoreBackend:        "memory",
		SQLitePath:          "penguiflow.db",
		RedisAddr:           "localhost:6379",
		BusBackend:          "memory",
		BusGroup:            "penguiflow",
		TransportListenAddr: ":8088",
		TransportBaseURL:    "http://localhost:8088",
		LLMProvider:         "anthropic",
		Temperature:         0.2,
		MaxTokens:           4096,
		PlannerMaxIters:     25,
		PlannerHopBudget:    25,
		PlannerTokenBudget:  0,
		PauseTTL:            24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load builds a Config from defaults overridden by environment
// variables (PENGUIFLOW_*), the way the teacher's example binaries read
// os.Getenv directly for their LLM API keys and model names, generalized
// into one loader every ambient concern shares.
func Load() (*Config, error) {
	c := New()

	c.LogLevel = getenv("PENGUIFLOW_LOG_LEVEL", c.LogLevel)
	c.LogOutput = getenv("PENGUIFLOW_LOG_OUTPUT", c.LogOutput)
	c.MetricsEnabled = getenvBool("PENGUIFLOW_METRICS_ENABLED", c.MetricsEnabled)

	c.StoreBackend = getenv("PENGUIFLOW_STORE_BACKEND", c.StoreBackend)
	c.SQLitePath = getenv("PENGUIFLOW_SQLITE_PATH", c.SQLitePath)
	c.RedisAddr = getenv("PENGUIFLOW_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getenv("PENGUIFLOW_REDIS_PASSWORD", c.RedisPassword)
	redisDB, err := getenvInt("PENGUIFLOW_REDIS_DB", c.RedisDB)
	if err != nil {
		return nil, err
	}
	c.RedisDB = redisDB

	c.BusBackend = getenv("PENGUIFLOW_BUS_BACKEND", c.BusBackend)
	c.BusGroup = getenv("PENGUIFLOW_BUS_GROUP", c.BusGroup)

	c.TransportListenAddr = getenv("PENGUIFLOW_TRANSPORT_LISTEN_ADDR", c.TransportListenAddr)
	c.TransportBaseURL = getenv("PENGUIFLOW_TRANSPORT_BASE_URL", c.TransportBaseURL)

	c.LLMProvider = getenv("PENGUIFLOW_LLM_PROVIDER", c.LLMProvider)
	c.LLMModel = getenv("PENGUIFLOW_LLM_MODEL", c.LLMModel)
	switch c.LLMProvider {
	case "anthropic":
		c.LLMAPIKey = getenv("ANTHROPIC_API_KEY", "")
	case "openai":
		c.LLMAPIKey = getenv("OPENAI_API_KEY", "")
	default:
		return nil, fmt.Errorf("config: unknown llm provider %q", c.LLMProvider)
	}

	temp, err := getenvFloat("PENGUIFLOW_TEMPERATURE", c.Temperature)
	if err != nil {
		return nil, err
	}
	c.Temperature = temp

	maxTokens, err := getenvInt("PENGUIFLOW_MAX_TOKENS", c.MaxTokens)
	if err != nil {
		return nil, err
	}
	c.MaxTokens = maxTokens

	maxIters, err := getenvInt("PENGUIFLOW_PLANNER_MAX_ITERS", c.PlannerMaxIters)
	if err != nil {
		return nil, err
	}
	c.PlannerMaxIters = maxIters

	hopBudget, err := getenvInt("PENGUIFLOW_PLANNER_HOP_BUDGET", c.PlannerHopBudget)
	if err != nil {
		return nil, err
	}
	c.PlannerHopBudget = hopBudget

	tokenBudget, err := getenvInt("PENGUIFLOW_PLANNER_TOKEN_BUDGET", c.PlannerTokenBudget)
	if err != nil {
		return nil, err
	}
	c.PlannerTokenBudget = tokenBudget

	deadline, err := getenvDuration("PENGUIFLOW_PLANNER_DEADLINE", c.PlannerDeadline)
	if err != nil {
		return nil, err
	}
	c.PlannerDeadline = deadline

	pauseTTL, err := getenvDuration("PENGUIFLOW_PAUSE_TTL", c.PauseTTL)
	if err != nil {
		return nil, err
	}
	c.PauseTTL = pauseTTL

	c.StreamFinalResponse = getenvBool("PENGUIFLOW_STREAM_FINAL_RESPONSE", c.StreamFinalResponse)

	return c, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
