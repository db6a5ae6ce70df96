package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/message"
)

func newTestHeaders(t *testing.T) message.Headers {
	t.Helper()
	h, err := message.NewHeaders("tenant-1", "", 0)
	require.NoError(t, err)
	return h
}

func TestSubmitFetchRoundTripThroughLinearGraph(t *testing.T) {
	g, err := New(WithQueueDepth(4))
	require.NoError(t, err)

	upper := Func(func(ctx *Context, payload any) (any, error) {
		s, _ := payload.(string)
		return s + "!", nil
	})
	require.NoError(t, g.AddNode("upper", upper, false))
	require.NoError(t, g.ConnectIngress("upper"))
	require.NoError(t, g.ConnectEgress("upper"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Start(ctx))
	defer func() { _ = g.Stop(time.Second) }()

	traceID, err := g.Submit(ctx, newTestHeaders(t), "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, traceID)

	frame, ok, err := g.Fetch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hi!", frame.Payload)
	assert.Equal(t, traceID, frame.TraceID)
}

type retryPolicyNode struct {
	attempts int32
	failN    int32
	policy   *Policy
}

func (n *retryPolicyNode) Invoke(ctx *Context, payload any) (any, error) {
	attempt := atomic.AddInt32(&n.attempts, 1)
	if attempt <= n.failN {
		return nil, errors.New("transient failure")
	}
	return payload, nil
}

func (n *retryPolicyNode) Policy() *Policy { return n.policy }

func TestWorkerRetriesTransientFailureThenSucceeds(t *testing.T) {
	node := &retryPolicyNode{
		failN: 2,
		policy: &Policy{
			Retry: &RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		},
	}

	g, err := New(WithQueueDepth(4))
	require.NoError(t, err)
	require.NoError(t, g.AddNode("flaky", node, false))
	require.NoError(t, g.ConnectIngress("flaky"))
	require.NoError(t, g.ConnectEgress("flaky"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Start(ctx))
	defer func() { _ = g.Stop(time.Second) }()

	_, err = g.Submit(ctx, newTestHeaders(t), "payload")
	require.NoError(t, err)

	frame, ok, err := g.Fetch(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", frame.Payload)
	assert.Equal(t, int32(3), atomic.LoadInt32(&node.attempts))
}

type slowNode struct {
	delay time.Duration
}

func (s *slowNode) Invoke(ctx *Context, payload any) (any, error) {
	select {
	case <-time.After(s.delay):
		return payload, nil
	case <-ctx.Context().Done():
		return nil, ctx.Context().Err()
	}
}

func (s *slowNode) Policy() *Policy {
	return &Policy{Timeout: 10 * time.Millisecond}
}

func TestWorkerEnforcesNodeTimeout(t *testing.T) {
	node := &slowNode{delay: 100 * time.Millisecond}

	g, err := New(WithQueueDepth(4))
	require.NoError(t, err)
	require.NoError(t, g.AddNode("slow", node, false))
	require.NoError(t, g.ConnectIngress("slow"))
	require.NoError(t, g.ConnectEgress("slow"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, g.Start(ctx))
	defer func() { _ = g.Stop(time.Second) }()

	_, err = g.Submit(ctx, newTestHeaders(t), "payload")
	require.NoError(t, err)

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer fetchCancel()
	_, _, err = g.Fetch(fetchCtx)
	assert.Error(t, err, "node timeout should prevent any frame reaching egress")
}
