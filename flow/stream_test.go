package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamGuardAcceptsMonotonicSeq(t *testing.T) {
	g := NewStreamGuard()

	assert.NoError(t, g.Accept("t1", "s1", 0, false))
	assert.NoError(t, g.Accept("t1", "s1", 1, false))
	assert.NoError(t, g.Accept("t1", "s1", 2, true))
}

func TestStreamGuardRejectsNonZeroStart(t *testing.T) {
	g := NewStreamGuard()
	assert.ErrorIs(t, g.Accept("t1", "s1", 1, false), ErrSeqNotMonotonic)
}

func TestStreamGuardRejectsOutOfOrderSeq(t *testing.T) {
	g := NewStreamGuard()
	require := assert.New(t)
	require.NoError(g.Accept("t1", "s1", 0, false))
	require.ErrorIs(g.Accept("t1", "s1", 2, false), ErrSeqNotMonotonic)
}

func TestStreamGuardRejectsChunkAfterDone(t *testing.T) {
	g := NewStreamGuard()
	assert.NoError(t, g.Accept("t1", "s1", 0, true))
	assert.ErrorIs(t, g.Accept("t1", "s1", 1, false), ErrStreamAlreadyDone)
}

func TestStreamGuardTracksStreamsIndependently(t *testing.T) {
	g := NewStreamGuard()
	assert.NoError(t, g.Accept("t1", "s1", 0, false))
	assert.NoError(t, g.Accept("t1", "s2", 0, false))
	assert.NoError(t, g.Accept("t2", "s1", 0, false))
}

func TestStreamGuardForgetClearsTraceState(t *testing.T) {
	g := NewStreamGuard()
	assert.NoError(t, g.Accept("t1", "s1", 0, false))

	g.Forget("t1")

	assert.NoError(t, g.Accept("t1", "s1", 0, false))
}
