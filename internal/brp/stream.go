package brp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StreamUpdate is one entry from a watch stream: either a decoded result
// payload or a remote error.
type StreamUpdate struct {
	Data any
	Err  *Error
}

// ExecuteStream issues a watch method (bevy/get+watch, bevy/list+watch)
// and delivers each streamed JSON-RPC frame to onUpdate until the stream
// ends or ctx is canceled. Watch streams stay open as long as the remote
// keeps sending, so the per-request timeout does not apply; cancellation
// is the caller's job.
func (c *Client) ExecuteStream(ctx context.Context, method string, params any, port int, onUpdate func(StreamUpdate)) error {
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
		return fmt.Errorf("failed to encode BRP watch request for %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build BRP watch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// A dedicated client without the round-trip timeout; the stream is
	// bounded by ctx instead.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open BRP watch stream to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("BRP server returned HTTP %d for %s", resp.StatusCode, method)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var wire response
		if err := json.Unmarshal(line, &wire); err != nil {
			// Skip frames that are not JSON-RPC envelopes.
			continue
		}
		if wire.Error != nil {
			onUpdate(StreamUpdate{Err: &Error{
				Code:    wire.Error.Code,
				Message: wire.Error.Message,
				Data:    wire.Error.Data,
			}})
			continue
		}
		var data any
		if len(wire.Result) > 0 {
			if err := json.Unmarshal(wire.Result, &data); err != nil {
				continue
			}
		}
		onUpdate(StreamUpdate{Data: data})
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("BRP watch stream for %s failed: %w", method, err)
	}
	return ctx.Err()
}
