package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"brpbridge/internal/brp"
)

func TestTupleStructUnwrapSingleField(t *testing.T) {
	tr := &TupleStructTransformer{}
	err := &brp.Error{
		Code:    ComponentFormatErrorCode,
		Message: "Component `game::Score` tuple struct access failed at path `.points`",
	}
	value := map[string]any{"points": 99.0}

	got, hint, ok := tr.TransformWithError(value, err)
	if !ok {
		t.Fatal("TransformWithError failed")
	}
	if got != 99.0 {
		t.Errorf("got %v, want 99", got)
	}
	if hint == "" {
		t.Error("expected a non-empty hint")
	}
}

func TestTupleStructArrayElementByPath(t *testing.T) {
	tr := &TupleStructTransformer{}
	err := &brp.Error{
		Code:    ComponentFormatErrorCode,
		Message: "Component `game::Wrapper` tuple struct error at path `.y`",
	}
	value := []any{10.0, 20.0, 30.0}

	got, _, ok := tr.TransformWithError(value, err)
	if !ok {
		t.Fatal("TransformWithError failed")
	}
	// ".y" rewrites to ".1".
	if got != 20.0 {
		t.Errorf("got %v, want 20", got)
	}
}

func TestTupleStructMissingFieldAccess(t *testing.T) {
	tr := &TupleStructTransformer{}
	err := &brp.Error{
		Code:    ComponentFormatErrorCode,
		Message: "AccessError: MissingField on `game::Point`: no 'x' present",
	}
	value := []any{5.0, 6.0}

	got, _, ok := tr.TransformWithError(value, err)
	if !ok {
		t.Fatal("TransformWithError failed")
	}
	if got != 5.0 {
		t.Errorf("got %v, want 5", got)
	}
}

func TestTupleStructFallbackTransform(t *testing.T) {
	tr := &TupleStructTransformer{}

	got, _, ok := tr.Transform(map[string]any{"only": "field"})
	if !ok || got != "field" {
		t.Errorf("Transform(single-field object) = %v, %v", got, ok)
	}

	got, _, ok = tr.Transform([]any{1.0, 2.0})
	if !ok || got != 1.0 {
		t.Errorf("Transform(array) = %v, %v", got, ok)
	}

	if _, _, ok := tr.Transform(map[string]any{"a": 1.0, "b": 2.0}); ok {
		t.Error("Transform(multi-field object) succeeded, want failure")
	}
	if _, _, ok := tr.Transform("scalar"); ok {
		t.Error("Transform(scalar) succeeded, want failure")
	}
}

func TestTupleStructCanHandle(t *testing.T) {
	tr := &TupleStructTransformer{}
	tests := []struct {
		pattern *ErrorPattern
		want    bool
	}{
		{&ErrorPattern{Kind: PatternTupleStructPath, FieldPath: ".x"}, true},
		{&ErrorPattern{Kind: PatternAccessError, Access: ".x"}, true},
		{&ErrorPattern{Kind: PatternMissingField, FieldName: "red"}, true},
		{&ErrorPattern{Kind: PatternMissingField, FieldName: "Srgba"}, false},
		{&ErrorPattern{Kind: PatternMathTypeArray}, false},
	}
	for _, tt := range tests {
		if got := tr.CanHandle(tt.pattern); got != tt.want {
			t.Errorf("CanHandle(%+v) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestTupleStructPreservesComplexElement(t *testing.T) {
	tr := &TupleStructTransformer{}
	err := &brp.Error{
		Message: "Component `game::Holder` tuple struct error at path `.0`",
	}
	inner := map[string]any{"nested": []any{1.0, 2.0}}
	value := []any{inner}

	got, _, ok := tr.TransformWithError(value, err)
	if !ok {
		t.Fatal("TransformWithError failed")
	}
	if diff := cmp.Diff(inner, got); diff != "" {
		t.Errorf("extracted element (-want +got):\n%s", diff)
	}
}
