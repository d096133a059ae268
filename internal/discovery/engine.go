package discovery

import (
	"context"
	"fmt"

	"brpbridge/internal/brp"
	"brpbridge/internal/logging"
)

// Executor issues BRP calls on behalf of the engine. Transport and
// protocol failures come back as the error return; remote errors travel
// inside the Result.
type Executor interface {
	Execute(ctx context.Context, method string, params any, port int) (*brp.Result, error)
}

// EnhancedResult is the outcome of a discovery-wrapped call: the final
// Result (original or retried), the corrections that were applied, and
// the debug trail when requested.
type EnhancedResult struct {
	Result            *brp.Result
	FormatCorrections []FormatCorrection
	DebugInfo         []string
}

// Engine wraps an Executor with automatic format discovery. The zero
// value is not usable; construct with NewEngine.
type Engine struct {
	exec      Executor
	registry  *TransformerRegistry
	probes    []Strategy
	fallbacks []Strategy
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithRegistry replaces the default transformer registry.
func WithRegistry(r *TransformerRegistry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithProbes replaces the probing-tier strategies.
func WithProbes(probes []Strategy) Option {
	return func(e *Engine) { e.probes = probes }
}

// WithFallbacks replaces the fallback-tier strategies.
func WithFallbacks(fallbacks []Strategy) Option {
	return func(e *Engine) { e.fallbacks = fallbacks }
}

// NewEngine builds an Engine around exec with the default transformers,
// probes, and fallbacks unless options override them.
func NewEngine(exec Executor, opts ...Option) *Engine {
	e := &Engine{
		exec:      exec,
		registry:  DefaultRegistry(),
		probes:    defaultProbes(),
		fallbacks: defaultFallbacks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteWithFormatDiscovery issues the call and, when it fails with a
// recoverable type-format error on an eligible method, attempts to repair
// the payload and retries exactly once. At most two network round trips
// ever happen. Transport failures propagate as errors at any stage; a
// remote error with no applicable correction is returned as-is, with the
// discovery trail attached when debug is set.
func (e *Engine) ExecuteWithFormatDiscovery(ctx context.Context, method string, params any, port int, debug bool) (*EnhancedResult, error) {
	log := logging.Get(logging.CategoryDiscovery)

	dctx := newContext(method, params, port, []string{
		fmt.Sprintf("format discovery: executing %s", method),
	})

	result, err := e.exec.Execute(ctx, method, params, port)
	if err != nil {
		return nil, err
	}

	initialErr := NeedsFormatDiscovery(result, method)
	if initialErr == nil {
		return e.finish(dctx, result, nil, debug), nil
	}
	dctx.SetError(initialErr)
	dctx.AddDebug("format discovery: triggered by error code %d: %s", initialErr.Code, initialErr.Message)
	log.Debugw("format discovery triggered",
		"method", method,
		"code", initialErr.Code,
	)

	data := e.runDiscoveryTiers(dctx)
	for _, line := range tierInfoDebugStrings(data.AllTierInfo) {
		dctx.AddDebug("%s", line)
	}

	if len(data.FormatCorrections) == 0 {
		dctx.AddDebug("format discovery: no corrections applicable, returning original error")
		return e.finish(dctx, result, nil, debug), nil
	}

	location := GetParameterLocation(method)
	correctedParams := ApplyCorrections(params, location, data.CorrectedItems)
	dctx.AddDebug("format discovery: retrying with %d corrected items", len(data.FormatCorrections))

	retried, err := e.exec.Execute(ctx, method, correctedParams, port)
	if err != nil {
		return nil, err
	}
	if retried.IsError() {
		dctx.AddDebug("format discovery: retry failed with code %d: %s", retried.Err.Code, retried.Err.Message)
	} else {
		dctx.AddDebug("format discovery: retry succeeded")
		log.Infow("format discovery repaired call",
			"method", method,
			"corrections", len(data.FormatCorrections),
		)
	}
	return e.finish(dctx, retried, data.FormatCorrections, debug), nil
}

// finish assembles the EnhancedResult. The debug trail is included only
// when the caller asked for it; corrections are always reported so
// callers can see what was rewritten.
func (e *Engine) finish(dctx *Context, result *brp.Result, corrections []FormatCorrection, debug bool) *EnhancedResult {
	enhanced := &EnhancedResult{
		Result:            result,
		FormatCorrections: corrections,
	}
	if debug {
		enhanced.DebugInfo = dctx.DebugInfo
	}
	return enhanced
}
