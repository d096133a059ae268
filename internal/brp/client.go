package brp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"brpbridge/internal/logging"
)

// DefaultPort is the port Bevy's RemotePlugin listens on by default.
const DefaultPort = 15702

// DefaultHost is where the Bevy app is expected to run.
const DefaultHost = "localhost"

// DefaultTimeout bounds a single request/response round trip.
const DefaultTimeout = 30 * time.Second

// Client executes BRP methods against a local Bevy application.
// The zero value is not usable; construct with NewClient. Safe for
// concurrent use; the underlying http.Client pools connections.
type Client struct {
	httpClient *http.Client
	host       string
	timeout    time.Duration
	nextID     atomic.Uint64
}

// NewClient creates a BRP client with the given per-request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	return NewClientWithHost(DefaultHost, timeout)
}

// NewClientWithHost creates a BRP client targeting a non-default host.
func NewClientWithHost(host string, timeout time.Duration) *Client {
	if host == "" {
		host = DefaultHost
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       host,
		timeout:    timeout,
	}
}

// Execute sends a single JSON-RPC request and returns the structured
// result. A port of 0 selects DefaultPort. Remote errors come back
// inside the Result; a non-nil Go error always means the call never
// completed at the protocol level (transport or decode failure).
func (c *Client) Execute(ctx context.Context, method string, params any, port int) (*Result, error) {
	if port == 0 {
		port = DefaultPort
	}
	url := fmt.Sprintf("http://%s:%d/jsonrpc", c.host, port)

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode BRP request for %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build BRP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send BRP request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("BRP server returned HTTP %d for %s", resp.StatusCode, method)
	}

	var wire response
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to parse BRP response for %s: %w", method, err)
	}

	if wire.Error != nil {
		logging.Get(logging.CategoryBridge).Debugw("BRP remote error",
			"method", method, "code", wire.Error.Code, "message", wire.Error.Message)
		return &Result{Err: &Error{
			Code:    wire.Error.Code,
			Message: wire.Error.Message,
			Data:    wire.Error.Data,
		}}, nil
	}

	var data any
	if len(wire.Result) > 0 {
		if err := json.Unmarshal(wire.Result, &data); err != nil {
			return nil, fmt.Errorf("failed to decode BRP result payload for %s: %w", method, err)
		}
	}
	return &Result{Data: data}, nil
}

// CheckConnection probes the app with rpc.discover and reports whether
// a BRP server is answering on the port.
func (c *Client) CheckConnection(ctx context.Context, port int) error {
	res, err := c.Execute(ctx, MethodRPCDiscover, nil, port)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("BRP server rejected rpc.discover: %w", res.Err)
	}
	return nil
}
