// Package logging provides categorized structured logging for the bridge.
// Every subsystem logs through a named category so a single run can be
// filtered per concern. Output goes to stderr: stdout belongs to the MCP
// protocol stream and must never receive log lines.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBridge    Category = "bridge"    // BRP client traffic
	CategoryDiscovery Category = "discovery" // format discovery engine
	CategoryServer    Category = "server"    // MCP stdio server
	CategoryWatch     Category = "watch"     // entity watch manager
	CategoryLogs      Category = "logs"      // log file tooling
)

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.SugaredLogger)
)

// Init installs the process logger. debug enables Debug-level output;
// a non-empty file path duplicates output there. Called once from the
// CLI before any subsystem starts; until then all categories are
// no-ops, which keeps tests quiet by default.
func Init(debug bool, file string) error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the sugared logger for a category.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat)).Sugar()
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Safe to call with a no-op root.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
