package message

import "time"

// Fact is a single piece of append-only evidence gathered by a cyclic
// controller node over the course of a run.
type Fact struct {
	Source     string `json:"source"`
	Content    string `json:"content"`
	Confidence float64 `json:"confidence,omitempty"`
}

// WorkingMemory is the domain-agnostic record cyclic controller nodes pass
// to themselves on each hop. The graph runtime treats it as an opaque
// payload, and the planner does not read it (planner budgets come from
// planner.Budget); callers check HopsExhausted and DeadlineExceeded
// themselves.
type WorkingMemory struct {
	Query        string     `json:"query"`
	Facts        []Fact     `json:"facts"`
	Hops         int        `json:"hops"`
	BudgetHops   int        `json:"budget_hops"`
	BudgetTokens int        `json:"budget_tokens"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Confidence   float64    `json:"confidence"`
}

// WithFact returns a copy of m with fact appended and Hops incremented.
func (m WorkingMemory) WithFact(fact Fact) WorkingMemory {
	next := m
	next.Facts = append(append([]Fact(nil), m.Facts...), fact)
	next.Hops = m.Hops + 1
	return next
}

// HopsExhausted reports whether the hop budget has been reached.
func (m WorkingMemory) HopsExhausted() bool {
	return m.BudgetHops > 0 && m.Hops >= m.BudgetHops
}

// DeadlineExceeded reports whether the wall-clock deadline has passed.
func (m WorkingMemory) DeadlineExceeded(now time.Time) bool {
	return m.Deadline != nil && now.After(*m.Deadline)
}
