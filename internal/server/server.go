package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"brpbridge/internal/config"
	"brpbridge/internal/discovery"
	"brpbridge/internal/logging"
	"brpbridge/internal/watch"
)

// BRPClient is what the server needs from the BRP layer: single-shot
// execution plus the connection probe. Satisfied by *brp.Client.
type BRPClient interface {
	discovery.Executor
	CheckConnection(ctx context.Context, port int) error
}

// Server runs the MCP loop: it reads newline-delimited JSON-RPC requests
// from in and writes responses to out. Tool calls are served from the
// declarative tool table.
type Server struct {
	cfg     *config.Config
	client  BRPClient
	engine  *discovery.Engine
	watches *watch.Manager

	in  io.Reader
	out io.Writer
	wmu sync.Mutex

	tools []toolDef
}

// New assembles a server over the given streams. For production use in
// and out are stdin and stdout; stdout carries only protocol frames, all
// logging goes to stderr.
func New(cfg *config.Config, client BRPClient, engine *discovery.Engine, watches *watch.Manager, in io.Reader, out io.Writer) *Server {
	return &Server{
		cfg:     cfg,
		client:  client,
		engine:  engine,
		watches: watches,
		in:      in,
		out:     out,
		tools:   toolTable,
	}
}

// Run processes requests until in is exhausted or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := logging.Get(logging.CategoryServer)
	log.Infow("MCP server started", "tools", len(s.tools))

	// Reading happens on its own goroutine so cancellation stops the
	// loop even while a read is blocked on an open stdin pipe. After
	// cancel the reader stays parked in Scan until the process exits.
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("reading MCP input: %w", err)
			}
			log.Infow("MCP input closed, shutting down")
			return nil
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			var req request
			if err := json.Unmarshal(line, &req); err != nil {
				log.Warnw("unparseable request", "error", err)
				s.writeError(nil, codeParseError, "parse error")
				continue
			}
			s.handle(ctx, &req)
		}
	}
}

// handle dispatches one request. Notifications get no response.
func (s *Server) handle(ctx context.Context, req *request) {
	log := logging.Get(logging.CategoryServer)

	switch req.Method {
	case "initialize":
		s.write(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": s.cfg.Version,
			},
		}})

	case "notifications/initialized":
		// Notification, nothing to send.

	case "ping":
		s.write(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}})

	case "tools/list":
		s.write(response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"tools": s.listTools(),
		}})

	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.writeError(req.ID, codeInvalidParams, "invalid tools/call params")
			return
		}
		s.callTool(ctx, req.ID, params)

	default:
		if req.ID == nil {
			// Unknown notification, ignore.
			log.Debugw("ignoring notification", "method", req.Method)
			return
		}
		s.writeError(req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method))
	}
}

func (s *Server) listTools() []Tool {
	out := make([]Tool, 0, len(s.tools))
	for _, def := range s.tools {
		out = append(out, Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: inputSchema(def.Params),
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, id json.RawMessage, params callParams) {
	log := logging.Get(logging.CategoryServer)

	def, ok := s.findTool(params.Name)
	if !ok {
		s.writeError(id, codeInvalidParams, fmt.Sprintf("unknown tool %s", params.Name))
		return
	}
	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}

	var payload any
	var err error
	if def.Handler != nil {
		payload, err = def.Handler(ctx, s, args)
	} else {
		payload, err = s.callBRP(ctx, def, args)
	}
	if err != nil {
		// Tool failures are results, not protocol errors, so the caller
		// sees them as tool output.
		log.Warnw("tool call failed", "tool", params.Name, "error", err)
		s.write(response{JSONRPC: "2.0", ID: id, Result: toolResult{
			Content: []toolContent{{Type: "text", Text: err.Error()}},
			IsError: true,
		}})
		return
	}

	text, err := json.Marshal(payload)
	if err != nil {
		s.writeError(id, codeInternalError, "failed to encode tool result")
		return
	}
	s.write(response{JSONRPC: "2.0", ID: id, Result: toolResult{
		Content: []toolContent{{Type: "text", Text: string(text)}},
	}})
}

func (s *Server) findTool(name string) (toolDef, bool) {
	for _, def := range s.tools {
		if def.Name == name {
			return def, true
		}
	}
	return toolDef{}, false
}

func (s *Server) write(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Get(logging.CategoryServer).Errorw("failed to encode response", "error", err)
		return
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.out.Write(append(data, '\n'))
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	s.write(response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}
