package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithFactAppendsAndIncrementsHops(t *testing.T) {
	original := WorkingMemory{Query: "q", Hops: 2}
	next := original.WithFact(Fact{Source: "search", Content: "result"})

	assert.Equal(t, 0, len(original.Facts))
	assert.Len(t, next.Facts, 1)
	assert.Equal(t, 3, next.Hops)
	assert.Equal(t, 2, original.Hops)
}

func TestHopsExhausted(t *testing.T) {
	m := WorkingMemory{Hops: 3, BudgetHops: 3}
	assert.True(t, m.HopsExhausted())

	m.BudgetHops = 0
	assert.False(t, m.HopsExhausted())
}

func TestDeadlineExceeded(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	m := WorkingMemory{Deadline: &past}
	assert.True(t, m.DeadlineExceeded(time.Now()))

	m.Deadline = nil
	assert.False(t, m.DeadlineExceeded(time.Now()))
}
