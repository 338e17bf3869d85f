package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/nimasrn/sms-portal/pkg/prom"
	"github.com/valyala/fasthttp"
)

const (
	DefaultTimeout = 30 * time.Second

	balancePath = "/api/v1/balance"
	sendPath    = "/api/v1/sms/send"
)

var (
	ErrRequest  = errors.New("gateway request failed")
	ErrStatus   = errors.New("gateway returned an error status")
	ErrResponse = errors.New("gateway response could not be decoded")
	ErrRejected = errors.New("gateway rejected the request")
)

type Config struct {
	BaseURL  string
	APIKey   string
	SenderID string
	Timeout  time.Duration
	MaxConns int
	// Dial overrides how connections are opened. Nil uses TCP.
	Dial func(addr string) (net.Conn, error)
}

type sendRequest struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
}

type apiResponse struct {
	Status  bool   `json:"status"`
	Credits *int   `json:"credits,omitempty"`
	Message string `json:"message"`
}

// SendResponse is the gateway's verdict for one send call. Accepted applies
// to every recipient of the call.
type SendResponse struct {
	Accepted bool
	Message  string
}

// Client talks to the third-party SMS gateway. It never retries; each method
// performs exactly one HTTP request.
type Client struct {
	config  Config
	client  *fasthttp.Client
	metrics *ClientMetrics
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("gateway base url is required")
	}
	if config.APIKey == "" {
		return nil, errors.New("gateway api key is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 64
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	hc := &fasthttp.Client{
		Name:                "sms-portal",
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		Dial:                config.Dial,
	}

	logger.Info("sms gateway client initialized", "url", config.BaseURL, "timeout", config.Timeout)
	return &Client{config: config, client: hc, metrics: NewClientMetrics()}, nil
}

// GetBalance returns the account's remaining credits.
func (c *Client) GetBalance(ctx context.Context) (int, error) {
	body, err := c.do(ctx, "balance", fasthttp.MethodGet, balancePath, nil)
	if err != nil {
		return 0, err
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResponse, err)
	}
	if !resp.Status {
		return 0, fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}
	if resp.Credits == nil {
		return 0, fmt.Errorf("%w: missing credits", ErrResponse)
	}
	return *resp.Credits, nil
}

// Send submits one message to all phones in a single call. A structured
// rejection is returned as a response, not an error.
func (c *Client) Send(ctx context.Context, phones []string, message string) (*SendResponse, error) {
	payload, err := json.Marshal(sendRequest{
		Sender:     c.config.SenderID,
		Recipients: phones,
		Message:    message,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}
	body, err := c.do(ctx, "send", fasthttp.MethodPost, sendPath, payload)
	if err != nil {
		return nil, err
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponse, err)
	}
	return &SendResponse{Accepted: resp.Status, Message: resp.Message}, nil
}

func (c *Client) Stats() Stats {
	return c.metrics.Snapshot()
}

func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.config.APIKey)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	latency := time.Since(start)

	if err != nil {
		c.fail(op, latency)
		logger.Warn("gateway request failed", "op", op, "error", err, "latency_ms", latency.Milliseconds())
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}

	code := resp.StatusCode()
	if code < 200 || code > 299 {
		c.fail(op, latency)
		msg := strings.TrimSpace(string(resp.Body()))
		var ar apiResponse
		if json.Unmarshal(resp.Body(), &ar) == nil && ar.Message != "" {
			msg = ar.Message
		}
		logger.Warn("gateway returned error status", "op", op, "status", code, "message", msg)
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, code, msg)
	}

	c.metrics.RecordSuccess(latency.Milliseconds())
	prom.ObserveGatewayRequest(op, "ok", latency.Seconds())

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

func (c *Client) fail(op string, latency time.Duration) {
	c.metrics.RecordFailure(latency.Milliseconds())
	prom.ObserveGatewayRequest(op, "error", latency.Seconds())
}
