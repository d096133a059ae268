package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"brpbridge/internal/brp"
)

func TestProbeMathShape(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
		ok    bool
	}{
		{"vec2", map[string]any{"x": 1.0, "y": 2.0}, []any{1.0, 2.0}, true},
		{"vec3", map[string]any{"x": 1.0, "y": 2.0, "z": 3.0}, []any{1.0, 2.0, 3.0}, true},
		{"vec4", map[string]any{"x": 1.0, "y": 2.0, "z": 3.0, "w": 4.0}, []any{1.0, 2.0, 3.0, 4.0}, true},
		{"extra field", map[string]any{"x": 1.0, "y": 2.0, "q": 3.0}, nil, false},
		{"non numeric", map[string]any{"x": "a", "y": 2.0}, nil, false},
		{"not an object", []any{1.0, 2.0}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := probeMathShape(tt.value)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("probe result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProbeTransformShape(t *testing.T) {
	value := map[string]any{
		"translation": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		"scale":       map[string]any{"x": 1.0, "y": 1.0, "z": 1.0},
	}
	got, _, ok := probeTransformShape(value)
	if !ok {
		t.Fatal("probe failed")
	}
	want := map[string]any{
		"translation": []any{1.0, 2.0, 3.0},
		"scale":       []any{1.0, 1.0, 1.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("probe result (-want +got):\n%s", diff)
	}

	// A single transform-ish key is not enough evidence.
	if _, _, ok := probeTransformShape(map[string]any{"scale": 2.0}); ok {
		t.Error("single key accepted, want rejection")
	}
}

func TestProbeWrappedString(t *testing.T) {
	got, _, ok := probeWrappedString(map[string]any{"name": "hero"})
	if !ok || got != "hero" {
		t.Errorf("probe = %v, %v; want hero, true", got, ok)
	}
	if _, _, ok := probeWrappedString("bare"); ok {
		t.Error("bare string accepted, want rejection")
	}
}

func TestFallbacks(t *testing.T) {
	got, _, ok := fallbackUnwrapObject(map[string]any{"inner": 5.0})
	if !ok || got != 5.0 {
		t.Errorf("fallbackUnwrapObject = %v, %v", got, ok)
	}
	if _, _, ok := fallbackUnwrapObject(map[string]any{"a": 1.0, "b": 2.0}); ok {
		t.Error("multi-field object unwrapped, want rejection")
	}

	got, _, ok = fallbackUnwrapArray([]any{"only"})
	if !ok || got != "only" {
		t.Errorf("fallbackUnwrapArray = %v, %v", got, ok)
	}
	if _, _, ok := fallbackUnwrapArray([]any{1.0, 2.0}); ok {
		t.Error("two-element array unwrapped, want rejection")
	}
}

func TestRunDiscoveryTiersRecordsEveryItem(t *testing.T) {
	e := NewEngine(nil)
	ctx := newContext(brp.MethodSpawn, map[string]any{
		"components": map[string]any{
			// Correctable at tier 2: a Vec3-shaped object.
			"game::Position": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
			// Not correctable by any tier.
			"game::Flags": map[string]any{"a": true, "b": false},
		},
	}, 0, nil)
	ctx.SetError(&brp.Error{Code: ComponentFormatErrorCode, Message: "unrecognized wording"})

	data := e.runDiscoveryTiers(ctx)

	if len(data.FormatCorrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(data.FormatCorrections))
	}
	if data.FormatCorrections[0].ItemName != "game::Position" {
		t.Errorf("corrected item = %s", data.FormatCorrections[0].ItemName)
	}

	// CorrectedItems carries the full set, uncorrectable items unchanged.
	if len(data.CorrectedItems) != 2 {
		t.Fatalf("corrected items = %d, want 2", len(data.CorrectedItems))
	}
	byName := map[string]any{}
	for _, item := range data.CorrectedItems {
		byName[item.Name] = item.Value
	}
	if diff := cmp.Diff([]any{1.0, 2.0, 3.0}, byName["game::Position"]); diff != "" {
		t.Errorf("game::Position (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": true, "b": false}, byName["game::Flags"]); diff != "" {
		t.Errorf("game::Flags changed (-want +got):\n%s", diff)
	}

	// The uncorrectable item exhausted all three tiers; the corrected one
	// stopped at tier 2.
	var flagsTiers, positionTiers []int
	for _, info := range data.AllTierInfo {
		switch info.Item {
		case "game::Flags":
			flagsTiers = append(flagsTiers, info.Tier)
		case "game::Position":
			positionTiers = append(positionTiers, info.Tier)
		}
	}
	if diff := cmp.Diff([]int{TierDeterministic, TierProbing, TierFallback}, flagsTiers); diff != "" {
		t.Errorf("game::Flags tier attempts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{TierDeterministic, TierProbing}, positionTiers); diff != "" {
		t.Errorf("game::Position tier attempts (-want +got):\n%s", diff)
	}
}

func TestRunDiscoveryTiersTierOneWins(t *testing.T) {
	e := NewEngine(nil)
	ctx := newContext(brp.MethodMutateComponent, map[string]any{
		"entity":    1.0,
		"component": "game::Velocity",
		"value":     map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
		"path":      "",
	}, 0, nil)
	ctx.SetError(&brp.Error{
		Code:    ComponentFormatErrorCode,
		Message: "Component `game::Velocity` Vec3 expects array format",
	})

	data := e.runDiscoveryTiers(ctx)
	if len(data.FormatCorrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(data.FormatCorrections))
	}
	if len(data.AllTierInfo) != 1 {
		t.Fatalf("tier attempts = %d, want 1", len(data.AllTierInfo))
	}
	info := data.AllTierInfo[0]
	if info.Tier != TierDeterministic || !info.Success {
		t.Errorf("tier info = %+v, want successful tier 1", info)
	}
}

func TestRunDiscoveryTiersNoItems(t *testing.T) {
	e := NewEngine(nil)
	ctx := newContext(brp.MethodSpawn, map[string]any{"entity": 1.0}, 0, nil)
	ctx.SetError(&brp.Error{Code: ComponentFormatErrorCode, Message: "whatever"})

	data := e.runDiscoveryTiers(ctx)
	if len(data.FormatCorrections) != 0 || len(data.CorrectedItems) != 0 {
		t.Errorf("expected empty result, got %+v", data)
	}
}
