// Package brp provides a low-level client for the Bevy Remote Protocol,
// a JSON-RPC 2.0 API exposed over HTTP by a running Bevy application.
// It handles raw protocol communication and returns structured results;
// higher layers decide how to present or repair them.
package brp

import (
	"encoding/json"
	"fmt"
)

// Error is a remote error returned inside a JSON-RPC response envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("brp error %d: %s", e.Code, e.Message)
}

// Result is the outcome of a single BRP call: either success with
// optional data, or a structured remote error. Transport and decode
// failures are reported separately as Go errors, never as a Result.
type Result struct {
	Data any    // payload on success, may be nil
	Err  *Error // non-nil iff the remote returned an error
}

// IsError reports whether the remote returned an error for this call.
func (r *Result) IsError() bool {
	return r != nil && r.Err != nil
}

// request is the JSON-RPC 2.0 request envelope.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// response is the JSON-RPC 2.0 response envelope.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
