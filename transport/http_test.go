package transport

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurtener/penguiflow-go/flow"
	"github.com/hurtener/penguiflow-go/logging"
	"github.com/hurtener/penguiflow-go/message"
)

func TestHTTPTransportInvokesBridgedNode(t *testing.T) {
	logger := logging.Nop()
	bridge := NewBridge(&logger)
	bridge.Register("double", flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		n, _ := payload.(float64)
		return n * 2, nil
	}))

	srv := httptest.NewServer(bridge.Handler())
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	headers, err := message.NewHeaders("tenant-1", "", 0)
	require.NoError(t, err)

	out, err := tr.Invoke(context.Background(), "double", float64(21), headers, "trace-1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, float64(42), out)
}

func TestHTTPTransportSurfacesRemoteNodeError(t *testing.T) {
	logger := logging.Nop()
	bridge := NewBridge(&logger)
	bridge.Register("fail", flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		return nil, errors.New("boom")
	}))

	srv := httptest.NewServer(bridge.Handler())
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	headers, err := message.NewHeaders("tenant-1", "", 0)
	require.NoError(t, err)

	_, err = tr.Invoke(context.Background(), "fail", "x", headers, "trace-1", time.Time{})
	assert.Error(t, err)
}

func TestHTTPTransportUnknownNodeReturnsError(t *testing.T) {
	logger := logging.Nop()
	bridge := NewBridge(&logger)

	srv := httptest.NewServer(bridge.Handler())
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	headers, err := message.NewHeaders("tenant-1", "", 0)
	require.NoError(t, err)

	_, err = tr.Invoke(context.Background(), "ghost", "x", headers, "trace-1", time.Time{})
	assert.Error(t, err)
}

func TestRemoteNodeAdaptsTransportToFlowNode(t *testing.T) {
	logger := logging.Nop()
	bridge := NewBridge(&logger)
	bridge.Register("upper", flow.Func(func(ctx *flow.Context, payload any) (any, error) {
		s, _ := payload.(string)
		return s + "!", nil
	}))

	srv := httptest.NewServer(bridge.Handler())
	defer srv.Close()

	tr := NewHTTPTransport(srv.URL)
	node := RemoteNode(tr, "upper")

	headers, err := message.NewHeaders("tenant-1", "", 0)
	require.NoError(t, err)
	remoteCtx := flow.NewRemoteContext(context.Background(), "caller", "trace-1", headers)

	out, err := node.Invoke(remoteCtx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}
