package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"brpbridge/internal/brp"
)

type recordedCall struct {
	Method string
	Params any
	Port   int
}

// fakeExecutor replays scripted responses and records every call.
type fakeExecutor struct {
	calls     []recordedCall
	responses []fakeResponse
}

type fakeResponse struct {
	result *brp.Result
	err    error
}

func (f *fakeExecutor) Execute(ctx context.Context, method string, params any, port int) (*brp.Result, error) {
	f.calls = append(f.calls, recordedCall{Method: method, Params: params, Port: port})
	if len(f.responses) == 0 {
		return nil, errors.New("fakeExecutor: no response scripted")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.result, next.err
}

func formatError(code int, message string) *brp.Result {
	return &brp.Result{Err: &brp.Error{Code: code, Message: message}}
}

func successResult(data any) *brp.Result {
	return &brp.Result{Data: data}
}

func TestEngineSuccessPassthrough(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: successResult(map[string]any{"entity": 123.0})},
	}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn,
		map[string]any{"components": map[string]any{}}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Result.IsError() {
		t.Fatalf("result is an error: %+v", got.Result.Err)
	}
	if len(got.FormatCorrections) != 0 {
		t.Errorf("corrections = %+v, want none", got.FormatCorrections)
	}
	if len(exec.calls) != 1 {
		t.Errorf("network calls = %d, want 1", len(exec.calls))
	}
}

func TestEngineRepairAndRetry(t *testing.T) {
	params := map[string]any{
		"components": map[string]any{
			"game::Velocity": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		},
	}
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode,
			"Component `game::Velocity` Vec3 expects array format")},
		{result: successResult(map[string]any{"entity": 55.0})},
	}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn, params, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Result.IsError() {
		t.Fatalf("retry result is an error: %+v", got.Result.Err)
	}

	if len(got.FormatCorrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(got.FormatCorrections))
	}
	correction := got.FormatCorrections[0]
	if correction.ItemName != "game::Velocity" {
		t.Errorf("corrected item = %s", correction.ItemName)
	}
	if diff := cmp.Diff([]any{1.0, 2.0, 3.0}, correction.CorrectedFormat); diff != "" {
		t.Errorf("corrected format (-want +got):\n%s", diff)
	}

	if len(exec.calls) != 2 {
		t.Fatalf("network calls = %d, want 2", len(exec.calls))
	}
	retryParams := exec.calls[1].Params.(map[string]any)
	wantComponents := map[string]any{"game::Velocity": []any{1.0, 2.0, 3.0}}
	if diff := cmp.Diff(wantComponents, retryParams["components"]); diff != "" {
		t.Errorf("retry params (-want +got):\n%s", diff)
	}

	// The original params object is untouched.
	orig := params["components"].(map[string]any)["game::Velocity"]
	if diff := cmp.Diff(map[string]any{"x": 1.0, "y": 2.0, "z": 3.0}, orig); diff != "" {
		t.Errorf("original params mutated (-want +got):\n%s", diff)
	}

	if len(got.DebugInfo) == 0 {
		t.Error("expected a debug trail with debug enabled")
	}
}

func TestEngineUncorrectableReturnsOriginalError(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode, "completely unrecognized failure")},
	}}
	e := NewEngine(exec)

	params := map[string]any{
		"components": map[string]any{
			"game::Flags": map[string]any{"a": true, "b": false},
		},
	}
	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn, params, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Result.IsError() || got.Result.Err.Code != ComponentFormatErrorCode {
		t.Fatalf("result = %+v, want original error", got.Result)
	}
	if len(got.FormatCorrections) != 0 {
		t.Errorf("corrections = %+v, want none", got.FormatCorrections)
	}
	// No retry without a correction.
	if len(exec.calls) != 1 {
		t.Errorf("network calls = %d, want 1", len(exec.calls))
	}

	var sawNoCorrections bool
	for _, line := range got.DebugInfo {
		if strings.Contains(line, "no corrections applicable") {
			sawNoCorrections = true
		}
	}
	if !sawNoCorrections {
		t.Errorf("debug trail missing terminal note: %v", got.DebugInfo)
	}
}

func TestEngineIneligibleMethodSkipsDiscovery(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode, "Vec3 expects array format")},
	}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodQuery,
		map[string]any{}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Result.IsError() {
		t.Fatal("expected the error to pass through")
	}
	if len(exec.calls) != 1 {
		t.Errorf("network calls = %d, want 1", len(exec.calls))
	}
}

func TestEngineNonFormatErrorSkipsDiscovery(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(-32602, "Invalid params")},
	}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn,
		map[string]any{"components": map[string]any{}}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Result.IsError() || got.Result.Err.Code != -32602 {
		t.Fatalf("result = %+v, want untouched -32602", got.Result)
	}
	if len(exec.calls) != 1 {
		t.Errorf("network calls = %d, want 1", len(exec.calls))
	}
}

func TestEngineTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection refused")
	exec := &fakeExecutor{responses: []fakeResponse{{err: transportErr}}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn,
		map[string]any{}, 0, false)
	if !errors.Is(err, transportErr) {
		t.Fatalf("err = %v, want %v", err, transportErr)
	}
	if got != nil {
		t.Errorf("result = %+v, want nil", got)
	}
}

func TestEngineRetryTransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection reset")
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode,
			"Component `game::Velocity` Vec3 expects array format")},
		{err: transportErr},
	}}
	e := NewEngine(exec)

	params := map[string]any{
		"components": map[string]any{
			"game::Velocity": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		},
	}
	_, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn, params, 0, false)
	if !errors.Is(err, transportErr) {
		t.Fatalf("err = %v, want %v", err, transportErr)
	}
}

func TestEngineRetryFailureReportedWithCorrections(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode,
			"Component `game::Velocity` Vec3 expects array format")},
		{result: formatError(ComponentFormatErrorCode, "still wrong")},
	}}
	e := NewEngine(exec)

	params := map[string]any{
		"components": map[string]any{
			"game::Velocity": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		},
	}
	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn, params, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Result.IsError() {
		t.Fatal("expected the retry error to surface")
	}
	if len(got.FormatCorrections) != 1 {
		t.Errorf("corrections = %d, want 1", len(got.FormatCorrections))
	}
	// Exactly one retry, never more.
	if len(exec.calls) != 2 {
		t.Errorf("network calls = %d, want 2", len(exec.calls))
	}
}

func TestEngineSingleValueCorrection(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode,
			"Component `game::Position` Vec3 expects array format")},
		{result: successResult(nil)},
	}}
	e := NewEngine(exec)

	params := map[string]any{
		"entity":    9.0,
		"component": "game::Position",
		"path":      "",
		"value":     map[string]any{"x": 4.0, "y": 5.0, "z": 6.0},
	}
	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodMutateComponent, params, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Result.IsError() {
		t.Fatalf("retry result is an error: %+v", got.Result.Err)
	}

	retryParams := exec.calls[1].Params.(map[string]any)
	if diff := cmp.Diff([]any{4.0, 5.0, 6.0}, retryParams["value"]); diff != "" {
		t.Errorf("retry value (-want +got):\n%s", diff)
	}
	if retryParams["entity"] != 9.0 || retryParams["component"] != "game::Position" {
		t.Errorf("sibling fields changed: %+v", retryParams)
	}
}

func TestEngineDebugFlagOff(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: formatError(ComponentFormatErrorCode, "completely unrecognized failure")},
	}}
	e := NewEngine(exec)

	got, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn,
		map[string]any{"components": map[string]any{}}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DebugInfo != nil {
		t.Errorf("debug trail present with debug disabled: %v", got.DebugInfo)
	}
}

func TestEnginePortForwarded(t *testing.T) {
	exec := &fakeExecutor{responses: []fakeResponse{
		{result: successResult(nil)},
	}}
	e := NewEngine(exec)

	_, err := e.ExecuteWithFormatDiscovery(context.Background(), brp.MethodSpawn,
		map[string]any{}, 20222, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.calls[0].Port != 20222 {
		t.Errorf("port = %d, want 20222", exec.calls[0].Port)
	}
}
