package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"brpbridge/internal/brp"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStreamer emits a fixed set of updates, then blocks until canceled.
type fakeStreamer struct {
	updates []brp.StreamUpdate
	started chan struct{}
}

func (f *fakeStreamer) ExecuteStream(ctx context.Context, method string, params any, port int, onUpdate func(brp.StreamUpdate)) error {
	for _, u := range f.updates {
		onUpdate(u)
	}
	if f.started != nil {
		close(f.started)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestStartWritesNDJSON(t *testing.T) {
	started := make(chan struct{})
	streamer := &fakeStreamer{
		updates: []brp.StreamUpdate{
			{Data: map[string]any{"components": map[string]any{"game::Position": []any{1.0, 2.0, 3.0}}}},
			{Err: &brp.Error{Code: -23402, Message: "format"}},
		},
		started: started,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, streamer, t.TempDir())

	info, err := m.Start(brp.MethodGetWatch, map[string]any{"entity": 1.0}, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if info.ID == "" || info.Method != brp.MethodGetWatch {
		t.Errorf("info = %+v", info)
	}
	if !strings.Contains(info.LogPath, FilePrefix) {
		t.Errorf("log path %q missing prefix %q", info.LogPath, FilePrefix)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never delivered its updates")
	}

	if err := m.Shutdown(); err != nil && err != context.Canceled {
		t.Fatalf("Shutdown: %v", err)
	}

	f, err := os.Open(info.LogPath)
	if err != nil {
		t.Fatalf("opening watch log: %v", err)
	}
	defer f.Close()

	var records []record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Data == nil || records[0].Error != nil {
		t.Errorf("first record = %+v, want data", records[0])
	}
	if records[1].Error == nil || records[1].Error.Code != -23402 {
		t.Errorf("second record = %+v, want error -23402", records[1])
	}
	if records[0].Timestamp.IsZero() {
		t.Error("record timestamp not set")
	}
}

func TestStartRejectsNonWatchMethod(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, &fakeStreamer{}, t.TempDir())

	if _, err := m.Start(brp.MethodSpawn, nil, 0); err == nil {
		t.Fatal("expected an error for a non-watch method")
	}
	if err := m.Shutdown(); err != nil && err != context.Canceled {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestListAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, &fakeStreamer{}, t.TempDir())

	first, err := m.Start(brp.MethodGetWatch, nil, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := m.Start(brp.MethodListWatch, nil, 0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	infos := m.List()
	if len(infos) != 2 {
		t.Fatalf("List = %d watches, want 2", len(infos))
	}

	if !m.Stop(first.ID) {
		t.Error("Stop returned false for an active watch")
	}
	if m.Stop("no-such-id") {
		t.Error("Stop returned true for an unknown id")
	}

	// The stopped watch drains off the list.
	deadline := time.After(5 * time.Second)
	for {
		infos = m.List()
		if len(infos) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("watch %s never drained, list = %+v", first.ID, infos)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if infos[0].ID != second.ID {
		t.Errorf("remaining watch = %s, want %s", infos[0].ID, second.ID)
	}

	if err := m.Shutdown(); err != nil && err != context.Canceled {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestShutdownStopsEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewManager(ctx, &fakeStreamer{}, t.TempDir())

	for i := 0; i < 3; i++ {
		if _, err := m.Start(brp.MethodGetWatch, nil, 0); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}
	if err := m.Shutdown(); err != nil && err != context.Canceled {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := m.List(); len(got) != 0 {
		t.Errorf("List after shutdown = %+v, want empty", got)
	}
}
