// Package transport implements the RemoteTransport protocol: the
// contract a graph uses to invoke a node that lives in another process.
package transport

import (
	"context"
	"time"

	"github.com/hurtener/penguiflow-go/message"
)

// Transport invokes a named remote node with the given input and headers,
// propagating trace_id and deadline so the remote side can honor the same
// per-trace cancellation and timeout semantics as a local node. Invoke
// must return promptly once ctx is cancelled or deadline passes.
type Transport interface {
	Invoke(ctx context.Context, nodeName string, input any, headers message.Headers, traceID string, deadline time.Time) (any, error)
}
