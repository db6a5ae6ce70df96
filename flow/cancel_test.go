package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/message"
)

func TestTraceCancelRegistryCancelIsIdempotent(t *testing.T) {
	r := NewTraceCancelRegistry()
	assert.False(t, r.IsCancelled("t1"))

	r.Cancel("t1")
	r.Cancel("t1")
	assert.True(t, r.IsCancelled("t1"))
}

func TestTraceCancelRegistryWatchClosesOnCancel(t *testing.T) {
	r := NewTraceCancelRegistry()
	ch := r.Watch("t1")

	select {
	case <-ch:
		t.Fatal("watch channel closed before cancel")
	default:
	}

	r.Cancel("t1")

	select {
	case <-ch:
	default:
		t.Fatal("watch channel did not close after cancel")
	}
}

func TestTraceCancelRegistryWatchAfterCancelReturnsClosedChannel(t *testing.T) {
	r := NewTraceCancelRegistry()
	r.Cancel("t1")

	ch := r.Watch("t1")
	select {
	case <-ch:
	default:
		t.Fatal("watch should return an already-closed channel once cancelled")
	}
}

func TestTraceCancelRegistryForgetClearsState(t *testing.T) {
	r := NewTraceCancelRegistry()
	r.Cancel("t1")
	r.Forget("t1")

	assert.False(t, r.IsCancelled("t1"))
}

// TestGraphCancelDrainsAllFloesForTrace exercises an externally-triggered
// cancel end-to-end: a trace's frames pile up on a downstream edge while a
// node is busy, Cancel is called from outside any running node, and every
// buffered frame for that trace is gone from the edge queue within bounded
// time (spec §8's "after first failure, cancel(trace_id)... within bounded
// time, all its edge queues are empty").
func TestGraphCancelDrainsAllFloesForTrace(t *testing.T) {
	g, err := New(WithQueueDepth(4))
	require.NoError(t, err)

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	sink := Func(func(ctx *Context, payload any) (any, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return payload, nil
	})
	gate := Func(func(ctx *Context, payload any) (any, error) { return payload, nil })

	require.NoError(t, g.AddNode("gate", gate, false))
	require.NoError(t, g.AddNode("sink", sink, false))
	require.NoError(t, g.ConnectIngress("gate"))
	require.NoError(t, g.Connect("gate", "sink"))
	require.NoError(t, g.ConnectEgress("sink"))

	ctx := context.Background()
	require.NoError(t, g.Start(ctx))
	defer func() {
		close(release)
		_ = g.Stop(time.Second)
	}()

	headers, err := message.NewHeaders("tenant", "", 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := g.SubmitWithTrace(ctx, "trace-cancel", headers, i)
		require.NoError(t, err)
	}

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("sink never started processing the first frame")
	}

	require.Eventually(t, func() bool {
		return g.floe("gate", "sink").Depth() == 2
	}, time.Second, 10*time.Millisecond, "expected the two remaining frames queued on gate->sink")

	g.Cancel("trace-cancel")

	assert.Equal(t, 0, g.floe("gate", "sink").Depth(), "Cancel must drain every buffered frame for the trace from every edge queue")
}
