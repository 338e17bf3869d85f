package gateway

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func startGateway(t *testing.T, h fasthttp.RequestHandler, timeout time.Duration) *Client {
	t.Helper()
	logger.NewNop()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: h}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown(); _ = ln.Close() })

	c, err := NewClient(Config{
		BaseURL:  "http://gateway.test/",
		APIKey:   "secret",
		SenderID: "PORTAL",
		Timeout:  timeout,
		Dial:     func(string) (net.Conn, error) { return ln.Dial() },
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{APIKey: "k"})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "http://x"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://x/", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Equal(t, "http://x", c.config.BaseURL)
}

func TestClient_GetBalance(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, balancePath, string(ctx.Path()))
		assert.Equal(t, fasthttp.MethodGet, string(ctx.Method()))
		assert.Equal(t, "Bearer secret", string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
		ctx.SetBodyString(`{"status":true,"credits":120,"message":""}`)
	}, time.Second)

	credits, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, credits)
	assert.Equal(t, int64(1), c.Stats().SuccessfulReqs)
}

func TestClient_GetBalance_Rejected(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"status":false,"message":"account suspended"}`)
	}, time.Second)

	_, err := c.GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "account suspended")
}

func TestClient_GetBalance_ErrorStatus(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		ctx.SetBodyString(`{"status":false,"message":"bad token"}`)
	}, time.Second)

	_, err := c.GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "bad token")
	assert.Equal(t, int64(1), c.Stats().FailedReqs)
}

func TestClient_Send(t *testing.T) {
	var got sendRequest
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		assert.Equal(t, sendPath, string(ctx.Path()))
		assert.Equal(t, fasthttp.MethodPost, string(ctx.Method()))
		assert.NoError(t, json.Unmarshal(ctx.PostBody(), &got))
		ctx.SetBodyString(`{"status":true,"message":"queued"}`)
	}, time.Second)

	resp, err := c.Send(context.Background(), []string{"+233241234567", "+2348031234567"}, "hello")
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.Equal(t, "queued", resp.Message)
	assert.Equal(t, "PORTAL", got.Sender)
	assert.Equal(t, []string{"+233241234567", "+2348031234567"}, got.Recipients)
	assert.Equal(t, "hello", got.Message)
}

func TestClient_Send_StructuredFailure(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`{"status":false,"message":"invalid sender"}`)
	}, time.Second)

	resp, err := c.Send(context.Background(), []string{"+233241234567"}, "hi")
	require.NoError(t, err)
	assert.False(t, resp.Accepted)
	assert.Equal(t, "invalid sender", resp.Message)
}

func TestClient_Send_BadJSON(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString(`<html>oops</html>`)
	}, time.Second)

	_, err := c.Send(context.Background(), []string{"+233241234567"}, "hi")
	assert.ErrorIs(t, err, ErrResponse)
}

func TestClient_Timeout(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		time.Sleep(300 * time.Millisecond)
		ctx.SetBodyString(`{"status":true,"credits":1}`)
	}, 50*time.Millisecond)

	_, err := c.GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrRequest)
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
	}, time.Second)

	_, err := c.Send(context.Background(), []string{"+233241234567"}, "hi")
	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	c := startGateway(t, func(ctx *fasthttp.RequestCtx) {
		t.Error("request must not reach the gateway")
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetBalance(ctx)
	assert.ErrorIs(t, err, ErrRequest)
}

func TestClientMetrics(t *testing.T) {
	m := NewClientMetrics()
	m.RecordSuccess(100)
	m.RecordSuccess(200)
	m.RecordFailure(300)

	s := m.Snapshot()
	assert.Equal(t, int64(3), s.TotalRequests)
	assert.Equal(t, int64(2), s.SuccessfulReqs)
	assert.Equal(t, int64(200), s.AvgLatencyMs)
	assert.InDelta(t, 0.666, s.SuccessRate, 0.01)
	assert.Equal(t, int32(1), s.ConsecutiveFails)

	for i := int64(0); i < 100; i++ {
		m.RecordSuccess(i * 10)
	}
	assert.GreaterOrEqual(t, m.P95LatencyMs(), int64(900))
}
