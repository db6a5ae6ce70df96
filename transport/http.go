package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hurtener/penguiflow-go/message"
)

// invokeRequest is the wire body sent to a remote node bridge.
type invokeRequest struct {
	NodeName string          `json:"node_name"`
	Input    json.RawMessage `json:"input"`
	Headers  message.Headers `json:"headers"`
	TraceID  string          `json:"trace_id"`
	Deadline time.Time       `json:"deadline"`
}

type invokeResponse struct {
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
}

// HTTPTransport invokes remote nodes over HTTP POST, one request per
// Invoke call. The request carries trace_id and deadline as ordinary JSON
// fields (the bridge on the other side is expected to derive its own
// context deadline and cancellation watch from them); ctx cancellation on
// this side aborts the in-flight HTTP request via http.Client's context
// support.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport builds an HTTPTransport posting to baseURL+"/invoke".
// The client is wrapped with otelhttp so trace context propagates to the
// remote bridge the same way a local node's span would.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (t *HTTPTransport) Invoke(ctx context.Context, nodeName string, input any, headers message.Headers, traceID string, deadline time.Time) (any, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal input: %w", err)
	}

	body, err := json.Marshal(invokeRequest{
		NodeName: nodeName,
		Input:    inputJSON,
		Headers:  headers,
		TraceID:  traceID,
		Deadline: deadline,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: marshal request: %w", err)
	}

	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace-Id", traceID)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: invoke %s: %w", nodeName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: remote node %s returned status %d: %s", nodeName, resp.StatusCode, respBody)
	}

	var decoded invokeResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("transport: unmarshal response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("transport: remote node %s error: %s", nodeName, decoded.Error)
	}

	var output any
	if err := json.Unmarshal(decoded.Output, &output); err != nil {
		return nil, fmt.Errorf("transport: unmarshal output: %w", err)
	}
	return output, nil
}

var _ Transport = (*HTTPTransport)(nil)
