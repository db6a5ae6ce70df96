package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoNode() Node {
	return Func(func(ctx *Context, payload any) (any, error) { return payload, nil })
}

func TestAddNodeRejectsEmptyNameAndNilNode(t *testing.T) {
	g, err := New()
	require.NoError(t, err)

	err = g.AddNode("", echoNode(), false)
	assert.Error(t, err)

	err = g.AddNode("n1", nil, false)
	assert.Error(t, err)
}

func TestAddNodeRejectsDuplicateName(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("n1", echoNode(), false))

	err = g.AddNode("n1", echoNode(), false)
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestConnectRejectsUnknownNodes(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("n1", echoNode(), false))

	err = g.Connect("n1", "ghost")
	assert.ErrorIs(t, err, ErrUnknownNode)

	err = g.Connect("ghost", "n1")
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestValidateRejectsUnmarkedCycle(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("a", echoNode(), false))
	require.NoError(t, g.AddNode("b", echoNode(), false))
	require.NoError(t, g.ConnectIngress("a"))
	require.NoError(t, g.Connect("a", "b"))
	require.NoError(t, g.Connect("b", "a"))
	require.NoError(t, g.ConnectEgress("b"))

	err = g.Validate()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestValidateAllowsMarkedCycle(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("a", echoNode(), true))
	require.NoError(t, g.AddNode("b", echoNode(), true))
	require.NoError(t, g.ConnectIngress("a"))
	require.NoError(t, g.Connect("a", "b"))
	require.NoError(t, g.Connect("b", "a"))
	require.NoError(t, g.ConnectEgress("b"))

	assert.NoError(t, g.Validate())
}

func TestValidateRejectsUnreachableEgress(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("a", echoNode(), false))
	require.NoError(t, g.AddNode("dead", echoNode(), false))
	require.NoError(t, g.ConnectIngress("a"))
	require.NoError(t, g.ConnectEgress("dead"))

	err = g.Validate()
	assert.ErrorIs(t, err, ErrUnreachableEgress)
}

func TestValidatePassesLinearGraph(t *testing.T) {
	g, err := New()
	require.NoError(t, err)
	require.NoError(t, g.AddNode("a", echoNode(), false))
	require.NoError(t, g.AddNode("b", echoNode(), false))
	require.NoError(t, g.ConnectIngress("a"))
	require.NoError(t, g.Connect("a", "b"))
	require.NoError(t, g.ConnectEgress("b"))

	assert.NoError(t, g.Validate())
}
