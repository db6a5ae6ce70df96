package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hurtener/penguiflow-go/flow"
	"github.com/hurtener/penguiflow-go/logging"
)

// Bridge exposes a fixed set of local flow.Node values over HTTP so a
// remote HTTPTransport can invoke them. It is the server-side counterpart
// to HTTPTransport: a node mounted in one process's graph can live behind
// a Bridge in another.
type Bridge struct {
	nodes  map[string]flow.Node
	logger *logging.Logger
}

// NewBridge constructs an empty Bridge. Register nodes with Register
// before calling Handler.
func NewBridge(logger *logging.Logger) *Bridge {
	return &Bridge{nodes: make(map[string]flow.Node), logger: logger}
}

// Register exposes node under name; subsequent Invoke requests naming it
// are dispatched to node.Invoke.
func (b *Bridge) Register(name string, node flow.Node) {
	b.nodes[name] = node
}

// Handler returns an http.Handler implementing the "/invoke" endpoint
// HTTPTransport posts to, instrumented with otelhttp so the incoming
// trace context from the caller's span is honored.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/invoke", b.handleInvoke)
	return otelhttp.NewHandler(mux, "penguiflow.transport.bridge")
}

func (b *Bridge) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	node, ok := b.nodes[req.NodeName]
	if !ok {
		writeInvokeResponse(w, http.StatusNotFound, invokeResponse{Error: "unknown node: " + req.NodeName})
		return
	}

	ctx := r.Context()
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	var input any
	if err := json.Unmarshal(req.Input, &input); err != nil {
		writeInvokeResponse(w, http.StatusBadRequest, invokeResponse{Error: "invalid input payload: " + err.Error()})
		return
	}

	flowCtx := flow.NewRemoteContext(ctx, req.NodeName, req.TraceID, req.Headers)
	output, err := node.Invoke(flowCtx, input)
	if err != nil {
		if b.logger != nil {
			b.logger.Error("bridge node invocation failed", map[string]any{
				"node_name": req.NodeName,
				"trace_id":  req.TraceID,
				"error":     err.Error(),
			})
		}
		writeInvokeResponse(w, http.StatusOK, invokeResponse{Error: err.Error()})
		return
	}

	outputJSON, err := json.Marshal(output)
	if err != nil {
		writeInvokeResponse(w, http.StatusInternalServerError, invokeResponse{Error: "marshal output: " + err.Error()})
		return
	}
	writeInvokeResponse(w, http.StatusOK, invokeResponse{Output: outputJSON})
}

func writeInvokeResponse(w http.ResponseWriter, status int, resp invokeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
