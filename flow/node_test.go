package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetIn struct {
	Name string `json:"name"`
}

type greetOut struct {
	Greeting string `json:"greeting"`
}

func TestTypedConvertsJSONPayload(t *testing.T) {
	node := Typed(func(ctx *Context, in greetIn) (greetOut, error) {
		return greetOut{Greeting: "hello " + in.Name}, nil
	})

	out, err := node.Invoke(nil, map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, greetOut{Greeting: "hello ada"}, out)
}

func TestTypedPassesThroughAlreadyAssignableValue(t *testing.T) {
	node := Typed(func(ctx *Context, in greetIn) (greetOut, error) {
		return greetOut{Greeting: "hi " + in.Name}, nil
	})

	out, err := node.Invoke(nil, greetIn{Name: "grace"})
	require.NoError(t, err)
	assert.Equal(t, greetOut{Greeting: "hi grace"}, out)
}

func TestTypedReturnsErrorOnInvalidInput(t *testing.T) {
	node := Typed(func(ctx *Context, in greetIn) (greetOut, error) {
		return greetOut{}, nil
	})

	_, err := node.Invoke(nil, func() {})
	assert.Error(t, err)
}

func TestPolicyOfReturnsNilForPlainNode(t *testing.T) {
	plain := Func(func(ctx *Context, payload any) (any, error) { return payload, nil })
	assert.Nil(t, PolicyOf(plain))
}

func TestWithPolicyAttachesPolicy(t *testing.T) {
	plain := Func(func(ctx *Context, payload any) (any, error) { return payload, nil })
	policy := &Policy{Retry: &RetryPolicy{MaxAttempts: 2}}
	wrapped := WithPolicy(plain, policy)

	assert.Same(t, policy, PolicyOf(wrapped))

	out, err := wrapped.Invoke(nil, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}
