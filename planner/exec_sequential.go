package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/hurtener/penguiflow-go/flow"
	"github.com/hurtener/penguiflow-go/message"
)

// invokeTool runs one catalog tool directly (no graph floes involved): a
// graph-less flow.Context is built per invocation via
// flow.NewRemoteContext — the same Context type serves flow workers and
// planner tool calls, with graph-only features (Emit delivery, QueueDepth,
// CancelTrace) no-op'd rather than duck-typed into a second interface.
// The Context carries no mode tag; only its nil graph differs. meta, if given, is
// merged into the built Context before Invoke runs, so a caller (e.g. the
// join-node invocation in executeParallel) can seed ctx.Meta() with
// fields the node expects to read.
func invokeTool(ctx context.Context, catalog *Catalog, traceID string, headers message.Headers, nodeName string, args map[string]any, meta ...map[string]any) (any, error) {
	node, ok := catalog.Node(nodeName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, nodeName)
	}

	toolCtx := flow.NewRemoteContext(ctx, nodeName, traceID, headers)
	for _, m := range meta {
		for k, v := range m {
			toolCtx.WithMeta(k, v)
		}
	}
	var payload any = args
	output, err := node.Invoke(toolCtx, payload)

	var pause *pauseSignal
	if errors.As(err, &pause) {
		return nil, pause
	}
	return output, err
}
