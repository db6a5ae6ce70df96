package transport

import (
	"github.com/hurtener/penguiflow-go/flow"
)

// RemoteNode adapts a Transport into a flow.Node, so a remote-backed node
// can be added to a graph via Graph.AddNode exactly like a local one.
// remoteName is sent as the remote node_name, whatever name the node is
// registered under with AddNode.
func RemoteNode(t Transport, remoteName string) flow.Node {
	return flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		deadline, _ := ctx.Deadline()
		return t.Invoke(ctx.Context(), remoteName, payload, ctx.Headers(), ctx.TraceID(), deadline)
	})
}
