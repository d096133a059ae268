// Package watch runs long-lived BRP watch streams and records their
// updates as NDJSON log files. Each active watch has a uuid, a dedicated
// file, and a cancelable goroutine; the manager owns their lifecycle.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"brpbridge/internal/brp"
	"brpbridge/internal/logging"
)

// FilePrefix names watch log files so the logs tooling can find them.
const FilePrefix = "brp-watch-"

// Streamer opens a BRP watch stream. Satisfied by *brp.Client.
type Streamer interface {
	ExecuteStream(ctx context.Context, method string, params any, port int, onUpdate func(brp.StreamUpdate)) error
}

// Info describes one active watch.
type Info struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Port      int       `json:"port"`
	LogPath   string    `json:"log_path"`
	StartedAt time.Time `json:"started_at"`
}

type activeWatch struct {
	info   Info
	cancel context.CancelFunc
}

// Manager starts, lists, and stops watch streams.
type Manager struct {
	client Streamer
	logDir string

	mu      sync.Mutex
	watches map[string]*activeWatch
	group   *errgroup.Group
	gctx    context.Context
}

// NewManager creates a manager writing watch logs under logDir. The
// manager is bound to ctx: canceling it stops every watch.
func NewManager(ctx context.Context, client Streamer, logDir string) *Manager {
	group, gctx := errgroup.WithContext(ctx)
	return &Manager{
		client:  client,
		logDir:  logDir,
		watches: make(map[string]*activeWatch),
		group:   group,
		gctx:    gctx,
	}
}

// record is one NDJSON line in a watch log.
type record struct {
	Timestamp time.Time  `json:"timestamp"`
	Data      any        `json:"data,omitempty"`
	Error     *brp.Error `json:"error,omitempty"`
}

// Start opens a watch stream for method and returns its descriptor. The
// stream runs until Stop, manager shutdown, or the remote closes it.
func (m *Manager) Start(method string, params any, port int) (Info, error) {
	if method != brp.MethodGetWatch && method != brp.MethodListWatch {
		return Info{}, fmt.Errorf("method %s is not a watch method", method)
	}
	if err := os.MkdirAll(m.logDir, 0755); err != nil {
		return Info{}, fmt.Errorf("failed to create watch log directory: %w", err)
	}

	id := uuid.NewString()
	info := Info{
		ID:        id,
		Method:    method,
		Port:      port,
		LogPath:   filepath.Join(m.logDir, FilePrefix+id+".ndjson"),
		StartedAt: time.Now().UTC(),
	}

	f, err := os.OpenFile(info.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return Info{}, fmt.Errorf("failed to create watch log file: %w", err)
	}

	ctx, cancel := context.WithCancel(m.gctx)

	m.mu.Lock()
	m.watches[id] = &activeWatch{info: info, cancel: cancel}
	m.mu.Unlock()

	log := logging.Get(logging.CategoryWatch)
	log.Infow("watch started", "id", id, "method", method, "log", info.LogPath)

	m.group.Go(func() error {
		defer f.Close()
		defer m.remove(id)

		var fileMu sync.Mutex
		enc := json.NewEncoder(f)
		err := m.client.ExecuteStream(ctx, method, params, port, func(u brp.StreamUpdate) {
			fileMu.Lock()
			defer fileMu.Unlock()
			rec := record{Timestamp: time.Now().UTC(), Data: u.Data, Error: u.Err}
			if err := enc.Encode(rec); err != nil {
				log.Warnw("failed to append watch record", "id", id, "error", err)
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Warnw("watch stream ended with error", "id", id, "error", err)
		} else {
			log.Infow("watch stream closed", "id", id)
		}
		// Stream failures end the watch, not the manager.
		return nil
	})

	return info, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.watches[id]; ok {
		w.cancel()
		delete(m.watches, id)
	}
}

// Stop cancels an active watch. Returns false if the id is unknown.
func (m *Manager) Stop(id string) bool {
	m.mu.Lock()
	w, ok := m.watches[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	w.cancel()
	logging.Get(logging.CategoryWatch).Infow("watch stopped", "id", id)
	return true
}

// List returns the active watches sorted by start time.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]Info, 0, len(m.watches))
	for _, w := range m.watches {
		infos = append(infos, w.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// Shutdown cancels every watch and waits for their goroutines to drain.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	for _, w := range m.watches {
		w.cancel()
	}
	m.mu.Unlock()
	return m.group.Wait()
}
