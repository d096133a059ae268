// Package server implements the MCP (Model Context Protocol) server side
// of the bridge: a newline-delimited JSON-RPC 2.0 loop over stdio that
// exposes the Bevy Remote Protocol as MCP tools.
package server

import "encoding/json"

const (
	// protocolVersion is the MCP revision this server speaks.
	protocolVersion = "2024-11-05"

	serverName = "brpbridge"
)

// JSON-RPC 2.0 error codes used by the loop.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// request is an incoming JSON-RPC message. ID is kept raw so numeric and
// string ids echo back unchanged; a missing ID marks a notification.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// response is an outgoing JSON-RPC message.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Tool is one entry of the tools/list response.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// toolContent is one content block of a tool result. The bridge only
// emits text blocks carrying JSON payloads.
type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// toolResult is the result of a tools/call request. Tool-level failures
// travel here with IsError set; protocol failures use rpcError instead.
type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// callParams is the parameter shape of tools/call.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
