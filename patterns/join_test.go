package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/flow"
)

func TestJoinKAggregatesOnceKArrive(t *testing.T) {
	j := NewJoinK(3)

	_, ready := j.Accept("t1", "a")
	assert.False(t, ready)
	_, ready = j.Accept("t1", "b")
	assert.False(t, ready)

	out, ready := j.Accept("t1", "c")
	assert.True(t, ready)
	assert.Equal(t, []any{"a", "b", "c"}, out)
}

func TestJoinKClearsBufferAfterAggregation(t *testing.T) {
	j := NewJoinK(2)
	j.Accept("t1", "a")
	j.Accept("t1", "b")

	_, ready := j.Accept("t1", "c")
	assert.False(t, ready, "buffer should have been cleared after the previous aggregation")
}

func TestJoinKTracksTracesIndependently(t *testing.T) {
	j := NewJoinK(2)
	j.Accept("t1", "a")
	j.Accept("t2", "x")

	out, ready := j.Accept("t1", "b")
	assert.True(t, ready)
	assert.Equal(t, []any{"a", "b"}, out)

	_, ready = j.Accept("t2", "y")
	assert.True(t, ready)
}

func TestJoinKDiscardDropsBufferedEntries(t *testing.T) {
	j := NewJoinK(3)
	j.Accept("t1", "a")
	j.Discard("t1")

	j.Accept("t1", "b")
	_, ready := j.Accept("t1", "c")
	assert.False(t, ready, "discard should have reset the buffer so only 2 of 3 have arrived")
}

func TestJoinKRegisterWithDiscardsOnGraphCancel(t *testing.T) {
	g, err := flow.New()
	require.NoError(t, err)

	j := NewJoinK(2)
	j.RegisterWith(g)

	_, ready := j.Accept("trace-x", "a")
	require.False(t, ready)

	g.Cancel("trace-x")

	_, ready = j.Accept("trace-x", "b")
	assert.False(t, ready, "Graph.Cancel must have discarded the buffered entry via the registered sweep")
}
