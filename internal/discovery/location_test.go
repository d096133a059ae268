package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"brpbridge/internal/brp"
)

func TestGetParameterLocation(t *testing.T) {
	tests := []struct {
		method string
		want   ParameterLocation
	}{
		{brp.MethodSpawn, ParameterLocation{Kind: LocationBatchMap}},
		{brp.MethodInsert, ParameterLocation{Kind: LocationBatchMap}},
		{brp.MethodMutateComponent, ParameterLocation{Kind: LocationSingleValue, Of: ValueComponent}},
		{brp.MethodInsertResource, ParameterLocation{Kind: LocationSingleValue, Of: ValueResource}},
		{brp.MethodMutateResource, ParameterLocation{Kind: LocationSingleValue, Of: ValueResource}},
	}
	for _, tt := range tests {
		if got := GetParameterLocation(tt.method); got != tt.want {
			t.Errorf("GetParameterLocation(%q) = %+v, want %+v", tt.method, got, tt.want)
		}
		// Repeated resolution is stable.
		if again := GetParameterLocation(tt.method); again != tt.want {
			t.Errorf("GetParameterLocation(%q) second call = %+v, want %+v", tt.method, again, tt.want)
		}
	}
}

func TestExtractTypeItemsBatchMap(t *testing.T) {
	params := map[string]any{
		"components": map[string]any{
			"game::Velocity": map[string]any{"x": 1.0, "y": 2.0},
			"game::Health":   100.0,
		},
	}
	items := ExtractTypeItems(params, ParameterLocation{Kind: LocationBatchMap})
	want := []TypeItem{
		{Name: "game::Health", Value: 100.0},
		{Name: "game::Velocity", Value: map[string]any{"x": 1.0, "y": 2.0}},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("ExtractTypeItems mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractTypeItemsSingleValue(t *testing.T) {
	params := map[string]any{
		"entity":    42.0,
		"component": "game::Position",
		"value":     map[string]any{"x": 1.0},
		"path":      ".x",
	}
	loc := ParameterLocation{Kind: LocationSingleValue, Of: ValueComponent}
	items := ExtractTypeItems(params, loc)
	want := []TypeItem{{Name: "game::Position", Value: map[string]any{"x": 1.0}}}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("ExtractTypeItems mismatch (-want +got):\n%s", diff)
	}

	resLoc := ParameterLocation{Kind: LocationSingleValue, Of: ValueResource}
	resParams := map[string]any{"resource": "game::Settings", "value": true}
	resItems := ExtractTypeItems(resParams, resLoc)
	if len(resItems) != 1 || resItems[0].Name != "game::Settings" {
		t.Errorf("resource extraction = %+v", resItems)
	}
}

func TestExtractTypeItemsMissingFields(t *testing.T) {
	loc := ParameterLocation{Kind: LocationBatchMap}
	cases := []any{
		nil,
		"not an object",
		map[string]any{},
		map[string]any{"components": []any{"wrong shape"}},
	}
	for _, params := range cases {
		if items := ExtractTypeItems(params, loc); len(items) != 0 {
			t.Errorf("ExtractTypeItems(%v) = %+v, want empty", params, items)
		}
	}

	single := ParameterLocation{Kind: LocationSingleValue, Of: ValueComponent}
	if items := ExtractTypeItems(map[string]any{"component": "game::X"}, single); len(items) != 0 {
		t.Errorf("missing value field: got %+v, want empty", items)
	}
	if items := ExtractTypeItems(map[string]any{"value": 1.0}, single); len(items) != 0 {
		t.Errorf("missing component field: got %+v, want empty", items)
	}
}

func TestApplyCorrectionsBatchMap(t *testing.T) {
	params := map[string]any{
		"entity": 7.0,
		"components": map[string]any{
			"game::Position": map[string]any{"x": 1.0, "y": 2.0, "z": 3.0},
			"game::Name":     map[string]any{"name": "hero"},
		},
	}
	loc := ParameterLocation{Kind: LocationBatchMap}

	corrected := []TypeItem{
		{Name: "game::Position", Value: []any{1.0, 2.0, 3.0}},
		{Name: "game::Name", Value: "hero"},
	}
	got := ApplyCorrections(params, loc, corrected)
	want := map[string]any{
		"entity": 7.0,
		"components": map[string]any{
			"game::Position": []any{1.0, 2.0, 3.0},
			"game::Name":     "hero",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyCorrections mismatch (-want +got):\n%s", diff)
	}

	// The original params are untouched.
	orig := params["components"].(map[string]any)["game::Name"]
	if diff := cmp.Diff(map[string]any{"name": "hero"}, orig); diff != "" {
		t.Errorf("input params mutated (-want +got):\n%s", diff)
	}
}

// The batch map is replaced wholesale: an incomplete corrected set drops
// the items it omits. Callers must always pass every extracted item.
func TestApplyCorrectionsBatchMapReplacesWholeMap(t *testing.T) {
	params := map[string]any{
		"components": map[string]any{
			"game::A": 1.0,
			"game::B": 2.0,
		},
	}
	loc := ParameterLocation{Kind: LocationBatchMap}
	got := ApplyCorrections(params, loc, []TypeItem{{Name: "game::A", Value: 10.0}})

	components := got.(map[string]any)["components"].(map[string]any)
	if _, ok := components["game::B"]; ok {
		t.Fatalf("expected game::B to be dropped by whole-map replacement, got %+v", components)
	}
	if components["game::A"] != 10.0 {
		t.Errorf("game::A = %v, want 10", components["game::A"])
	}
}

func TestApplyCorrectionsSingleValue(t *testing.T) {
	params := map[string]any{
		"entity":    42.0,
		"component": "game::Position",
		"path":      ".x",
		"value":     map[string]any{"x": 5.0},
	}
	loc := ParameterLocation{Kind: LocationSingleValue, Of: ValueComponent}
	got := ApplyCorrections(params, loc, []TypeItem{{Name: "game::Position", Value: 5.0}})

	obj := got.(map[string]any)
	if obj["value"] != 5.0 {
		t.Errorf("value = %v, want 5", obj["value"])
	}
	// Sibling fields survive.
	if obj["entity"] != 42.0 || obj["component"] != "game::Position" || obj["path"] != ".x" {
		t.Errorf("sibling fields changed: %+v", obj)
	}
}

func TestApplyCorrectionsRoundTrip(t *testing.T) {
	// Extracting items and reapplying them unchanged reproduces the
	// original params.
	params := map[string]any{
		"entity": 3.0,
		"components": map[string]any{
			"game::A": map[string]any{"x": 1.0},
			"game::B": []any{2.0},
		},
	}
	loc := GetParameterLocation(brp.MethodSpawn)
	items := ExtractTypeItems(params, loc)
	got := ApplyCorrections(params, loc, items)
	if diff := cmp.Diff(params, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyCorrectionsNonObjectParams(t *testing.T) {
	loc := ParameterLocation{Kind: LocationBatchMap}
	if got := ApplyCorrections("scalar", loc, nil); got != "scalar" {
		t.Errorf("non-object params = %v, want passthrough", got)
	}
}
