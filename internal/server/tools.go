package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"brpbridge/internal/brp"
	"brpbridge/internal/discovery"
	"brpbridge/internal/logs"
)

// handlerFunc executes one tool call and returns a JSON-encodable payload.
type handlerFunc func(ctx context.Context, s *Server, args map[string]any) (any, error)

// toolDef is one row of the declarative tool table. Tools with a Method
// are generic BRP passthroughs; tools with a Handler do their own work.
type toolDef struct {
	Name        string
	Description string
	Params      []param
	Method      string
	Mutation    bool
	Handler     handlerFunc
}

// toolTable is the fixed set of tools the bridge serves. One tool per
// BRP method, plus watch, log, and status tooling.
var toolTable = []toolDef{
	{
		Name:        "bevy_query",
		Description: "Query entities by component filters",
		Method:      brp.MethodQuery,
		Params: []param{
			{Name: "data", Type: "object", Description: "components/option/has selectors", Required: true},
			{Name: "filter", Type: "object", Description: "with/without component filters"},
			{Name: "strict", Type: "boolean", Description: "fail on unknown component types"},
			portParam,
		},
	},
	{
		Name:        "bevy_get",
		Description: "Get component values from an entity",
		Method:      brp.MethodGet,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			{Name: "components", Type: "array", Description: "fully-qualified component type names", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_list",
		Description: "List registered component types, or the components on one entity",
		Method:      brp.MethodList,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id (omit for the registry-wide list)"},
			portParam,
		},
	},
	{
		Name:        "bevy_spawn",
		Description: "Spawn an entity with the given components",
		Method:      brp.MethodSpawn,
		Mutation:    true,
		Params: []param{
			{Name: "components", Type: "object", Description: "map of component type name to value", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_destroy",
		Description: "Destroy an entity",
		Method:      brp.MethodDestroy,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_insert",
		Description: "Insert components into an existing entity",
		Method:      brp.MethodInsert,
		Mutation:    true,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			{Name: "components", Type: "object", Description: "map of component type name to value", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_remove",
		Description: "Remove components from an entity",
		Method:      brp.MethodRemove,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			{Name: "components", Type: "array", Description: "component type names to remove", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_reparent",
		Description: "Change the parent of one or more entities",
		Method:      brp.MethodReparent,
		Params: []param{
			{Name: "entities", Type: "array", Description: "entity ids to reparent", Required: true},
			{Name: "parent", Type: "number", Description: "new parent entity id (omit to remove the parent)"},
			portParam,
		},
	},
	{
		Name:        "bevy_get_resource",
		Description: "Get a resource value",
		Method:      brp.MethodGetResource,
		Params: []param{
			{Name: "resource", Type: "string", Description: "fully-qualified resource type name", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_insert_resource",
		Description: "Insert or overwrite a resource",
		Method:      brp.MethodInsertResource,
		Mutation:    true,
		Params: []param{
			{Name: "resource", Type: "string", Description: "fully-qualified resource type name", Required: true},
			{Name: "value", Description: "resource value (any JSON)", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_remove_resource",
		Description: "Remove a resource",
		Method:      brp.MethodRemoveResource,
		Params: []param{
			{Name: "resource", Type: "string", Description: "fully-qualified resource type name", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_mutate_component",
		Description: "Mutate a field of a component on an entity",
		Method:      brp.MethodMutateComponent,
		Mutation:    true,
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			{Name: "component", Type: "string", Description: "fully-qualified component type name", Required: true},
			{Name: "path", Type: "string", Description: "field path, e.g. .translation.x", Required: true},
			{Name: "value", Description: "new value (any JSON)", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_mutate_resource",
		Description: "Mutate a field of a resource",
		Method:      brp.MethodMutateResource,
		Mutation:    true,
		Params: []param{
			{Name: "resource", Type: "string", Description: "fully-qualified resource type name", Required: true},
			{Name: "path", Type: "string", Description: "field path", Required: true},
			{Name: "value", Description: "new value (any JSON)", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_list_resources",
		Description: "List registered resource types",
		Method:      brp.MethodListResources,
		Params:      []param{portParam},
	},
	{
		Name:        "bevy_registry_schema",
		Description: "Fetch JSON schemas for registered types",
		Method:      brp.MethodRegistrySchema,
		Params: []param{
			{Name: "with_crates", Type: "array", Description: "only include these crates"},
			{Name: "without_crates", Type: "array", Description: "exclude these crates"},
			portParam,
		},
	},
	{
		Name:        "bevy_screenshot",
		Description: "Capture a screenshot to a file (requires bevy_brp_extras in the app)",
		Method:      brp.MethodExtrasScreenshot,
		Params: []param{
			{Name: "path", Type: "string", Description: "file path for the captured image", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_shutdown",
		Description: "Ask the app to shut down gracefully (requires bevy_brp_extras in the app)",
		Method:      brp.MethodExtrasShutdown,
		Params:      []param{portParam},
	},
	{
		Name:        "brp_execute",
		Description: "Execute an arbitrary BRP method",
		Handler:     handleExecute,
		Params: []param{
			{Name: "method", Type: "string", Description: "BRP method name, e.g. bevy/query", Required: true},
			{Name: "params", Description: "method parameters (any JSON)"},
			portParam,
		},
	},
	{
		Name:        "brp_status",
		Description: "Check whether a BRP server is responding",
		Handler:     handleStatus,
		Params:      []param{portParam},
	},
	{
		Name:        "bevy_start_entity_watch",
		Description: "Stream component changes of an entity to a log file",
		Handler:     handleStartWatch(brp.MethodGetWatch),
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			{Name: "components", Type: "array", Description: "component type names to watch", Required: true},
			portParam,
		},
	},
	{
		Name:        "bevy_start_list_watch",
		Description: "Stream component list changes of an entity to a log file",
		Handler:     handleStartWatch(brp.MethodListWatch),
		Params: []param{
			{Name: "entity", Type: "number", Description: "entity id", Required: true},
			portParam,
		},
	},
	{
		Name:        "brp_list_active_watches",
		Description: "List active watch streams",
		Handler:     handleListWatches,
	},
	{
		Name:        "brp_stop_watch",
		Description: "Stop an active watch stream",
		Handler:     handleStopWatch,
		Params: []param{
			{Name: "watch_id", Type: "string", Description: "id returned by a start watch tool", Required: true},
		},
	},
	{
		Name:        "brp_list_logs",
		Description: "List the bridge's log files",
		Handler:     handleListLogs,
	},
	{
		Name:        "brp_read_log",
		Description: "Read lines from a bridge log file",
		Handler:     handleReadLog,
		Params: []param{
			{Name: "filename", Type: "string", Description: "log file name from brp_list_logs", Required: true},
			{Name: "offset", Type: "number", Description: "zero-based first line to return"},
			{Name: "limit", Type: "number", Description: "maximum lines to return (0 for all)"},
		},
	},
	{
		Name:        "brp_cleanup_logs",
		Description: "Delete bridge log files older than a duration",
		Handler:     handleCleanupLogs,
		Params: []param{
			{Name: "older_than", Type: "string", Description: "age cutoff, e.g. 24h (default from config)"},
		},
	},
}

// argPort resolves the port argument, falling back to the configured one.
func (s *Server) argPort(args map[string]any) int {
	if v, ok := args["port"]; ok {
		if n, ok := v.(float64); ok && n > 0 {
			return int(n)
		}
	}
	return s.cfg.BRP.Port
}

// brpParams strips tool-level arguments so the rest passes straight to
// the remote method.
func brpParams(args map[string]any) any {
	params := make(map[string]any, len(args))
	for k, v := range args {
		if k == "port" {
			continue
		}
		params[k] = v
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

// callBRP runs one BRP-backed tool: mutations go through the discovery
// engine, queries go straight to the client. Disabling discovery in the
// config turns mutations into plain calls with no repair retry.
func (s *Server) callBRP(ctx context.Context, def toolDef, args map[string]any) (any, error) {
	port := s.argPort(args)
	params := brpParams(args)

	if def.Mutation && s.cfg.Discovery.Enabled {
		enhanced, err := s.engine.ExecuteWithFormatDiscovery(ctx, def.Method, params, port, s.cfg.Discovery.Debug)
		if err != nil {
			return nil, err
		}
		return enhancedPayload(enhanced), nil
	}

	result, err := s.client.Execute(ctx, def.Method, params, port)
	if err != nil {
		return nil, err
	}
	return resultPayload(result), nil
}

// resultPayload renders a plain BRP result for a tool response.
func resultPayload(result *brp.Result) map[string]any {
	if result.IsError() {
		return map[string]any{
			"status": "error",
			"code":   result.Err.Code,
			"error":  result.Err.Message,
		}
	}
	payload := map[string]any{"status": "success"}
	if result.Data != nil {
		payload["result"] = result.Data
	}
	return payload
}

// enhancedPayload renders a discovery-wrapped result, attaching applied
// corrections and the debug trail when present.
func enhancedPayload(enhanced *discovery.EnhancedResult) map[string]any {
	payload := resultPayload(enhanced.Result)
	if len(enhanced.FormatCorrections) > 0 {
		corrections := make([]map[string]any, 0, len(enhanced.FormatCorrections))
		for _, c := range enhanced.FormatCorrections {
			corrections = append(corrections, map[string]any{
				"item":             c.ItemName,
				"original_format":  c.OriginalFormat,
				"corrected_format": c.CorrectedFormat,
				"hint":             c.Hint,
			})
		}
		payload["format_corrections"] = corrections
	}
	if len(enhanced.DebugInfo) > 0 {
		payload["debug_info"] = enhanced.DebugInfo
	}
	return payload
}

func handleExecute(ctx context.Context, s *Server, args map[string]any) (any, error) {
	method, ok := args["method"].(string)
	if !ok || method == "" {
		return nil, fmt.Errorf("method argument is required")
	}
	if !s.cfg.Discovery.Enabled {
		result, err := s.client.Execute(ctx, method, args["params"], s.argPort(args))
		if err != nil {
			return nil, err
		}
		return resultPayload(result), nil
	}
	// The engine only engages for eligible methods, so routing every raw
	// call through it is safe for queries too.
	enhanced, err := s.engine.ExecuteWithFormatDiscovery(ctx, method, args["params"], s.argPort(args), s.cfg.Discovery.Debug)
	if err != nil {
		return nil, err
	}
	return enhancedPayload(enhanced), nil
}

func handleStatus(ctx context.Context, s *Server, args map[string]any) (any, error) {
	port := s.argPort(args)
	if err := s.client.CheckConnection(ctx, port); err != nil {
		return map[string]any{
			"status": "disconnected",
			"port":   port,
			"error":  err.Error(),
		}, nil
	}
	return map[string]any{"status": "connected", "port": port}, nil
}

func handleStartWatch(method string) handlerFunc {
	return func(ctx context.Context, s *Server, args map[string]any) (any, error) {
		if _, ok := args["entity"].(float64); !ok {
			return nil, fmt.Errorf("entity argument is required")
		}
		info, err := s.watches.Start(method, brpParams(args), s.argPort(args))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"status":   "success",
			"watch_id": info.ID,
			"log_path": info.LogPath,
		}, nil
	}
}

func handleListWatches(ctx context.Context, s *Server, args map[string]any) (any, error) {
	return map[string]any{
		"status":  "success",
		"watches": s.watches.List(),
	}, nil
}

func handleStopWatch(ctx context.Context, s *Server, args map[string]any) (any, error) {
	id, ok := args["watch_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("watch_id argument is required")
	}
	if !s.watches.Stop(id) {
		return nil, fmt.Errorf("no active watch with id %s", id)
	}
	return map[string]any{"status": "success"}, nil
}

func handleListLogs(ctx context.Context, s *Server, args map[string]any) (any, error) {
	files, err := logs.List(s.cfg.Logs.Dir)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "files": files}, nil
}

func handleReadLog(ctx context.Context, s *Server, args map[string]any) (any, error) {
	filename, ok := args["filename"].(string)
	if !ok || filename == "" {
		return nil, fmt.Errorf("filename argument is required")
	}
	offset, _ := args["offset"].(float64)
	limit, _ := args["limit"].(float64)

	// Base() confines reads to the log directory.
	path := filepath.Join(s.cfg.Logs.Dir, filepath.Base(filename))
	res, err := logs.Read(path, int(offset), int(limit))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"status":      "success",
		"lines":       res.Lines,
		"total_lines": res.TotalLines,
		"offset":      res.Offset,
	}, nil
}

func handleCleanupLogs(ctx context.Context, s *Server, args map[string]any) (any, error) {
	maxAge := s.cfg.GetLogMaxAge()
	if raw, ok := args["older_than"].(string); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid older_than duration: %w", err)
		}
		maxAge = d
	}
	removed, err := logs.Cleanup(s.cfg.Logs.Dir, maxAge)
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": "success", "removed": removed}, nil
}
