package llm

import (
	"context"
	"sync"
)

// MockClient is a test Client: configurable canned Results, call history
// tracking, and error injection, without making a real provider call.
type MockClient struct {
	// Results contains the sequence of results to return. Each Call
	// returns the next one in order; once exhausted, the last result
	// repeats.
	Results []Result

	// Err, if set, is returned by every Call instead of a Result.
	Err error

	// Calls records every invocation, for asserting what the planner sent.
	Calls []MockCall

	mu        sync.Mutex
	callIndex int
}

// MockCall records a single Call invocation.
type MockCall struct {
	Messages []Message
	Opts     CallOptions
}

func (m *MockClient) Call(ctx context.Context, messages []Message, opts CallOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Messages: messages, Opts: opts})

	if m.Err != nil {
		return Result{}, m.Err
	}
	if len(m.Results) == 0 {
		return Result{FinishReason: FinishStop}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Results) {
		idx = len(m.Results) - 1
	} else {
		m.callIndex++
	}

	result := m.Results[idx]
	if opts.Stream && opts.OnChunk != nil && result.Content != "" {
		opts.OnChunk(result.Content)
	}
	return result, nil
}

// Reset clears call history and rewinds the response index.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Call has been invoked.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ Client = (*MockClient)(nil)
