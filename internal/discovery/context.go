// Package discovery implements automatic format discovery for BRP
// mutation calls. When a call fails with a recognized type-format error,
// the engine classifies the failure, heuristically repairs the offending
// payload items, and retries the call exactly once. Absence of a repair
// is a normal outcome: the original error is returned, annotated with a
// diagnostic trail.
package discovery

import (
	"fmt"

	"brpbridge/internal/brp"
)

// Context carries state through the phases of a single discovery run.
// It is created by the orchestrator, owned exclusively by that call, and
// discarded when the call returns. Never shared across invocations.
type Context struct {
	Method         string
	OriginalParams any
	Port           int
	DebugInfo      []string
	InitialError   *brp.Error
}

func newContext(method string, params any, port int, initialDebug []string) *Context {
	return &Context{
		Method:         method,
		OriginalParams: params,
		Port:           port,
		DebugInfo:      initialDebug,
	}
}

// AddDebug appends one entry to the debug trail. The trail is append-only
// and ordered by phase.
func (c *Context) AddDebug(format string, args ...any) {
	c.DebugInfo = append(c.DebugInfo, fmt.Sprintf(format, args...))
}

// SetError records the error from the initial attempt. Set at most once.
func (c *Context) SetError(err *brp.Error) {
	c.InitialError = err
}
