package discovery

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"brpbridge/internal/brp"
)

// stubTransformer handles everything and returns a fixed value.
type stubTransformer struct {
	name string
	out  any
}

func (s *stubTransformer) Name() string { return s.name }

func (s *stubTransformer) CanHandle(p *ErrorPattern) bool { return true }

func (s *stubTransformer) Transform(v any) (any, string, bool) {
	return s.out, "stub", true
}
func (s *stubTransformer) TransformWithError(v any, e *brp.Error) (any, string, bool) {
	return s.out, "stub", true
}

func TestRegistryFirstMatchWins(t *testing.T) {
	r := NewTransformerRegistry()
	r.Add(&stubTransformer{name: "first", out: "a"})
	r.Add(&stubTransformer{name: "second", out: "b"})

	pattern := &ErrorPattern{Kind: PatternExpectedType}
	got := r.FindTransformer(pattern)
	if got == nil || got.Name() != "first" {
		t.Fatalf("FindTransformer = %v, want first", got)
	}

	out, _, ok := r.Transform(nil, pattern, &brp.Error{})
	if !ok || out != "a" {
		t.Errorf("Transform = %v, %v; want a, true", out, ok)
	}
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewTransformerRegistry()
	r.Add(&MathTypeTransformer{})

	pattern := &ErrorPattern{Kind: PatternUnknownType}
	if got := r.FindTransformer(pattern); got != nil {
		t.Fatalf("FindTransformer = %v, want nil", got)
	}
	if _, _, ok := r.Transform(nil, pattern, &brp.Error{}); ok {
		t.Error("Transform succeeded with no matching transformer")
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry()
	want := []string{"math_type", "string_type", "tuple_struct", "enum_variant"}
	if diff := cmp.Diff(want, r.Names()); diff != "" {
		t.Errorf("default registry order (-want +got):\n%s", diff)
	}
	if r.Len() != len(want) {
		t.Errorf("Len = %d, want %d", r.Len(), len(want))
	}
}

func TestDefaultRegistryDispatch(t *testing.T) {
	r := DefaultRegistry()
	tests := []struct {
		name    string
		pattern *ErrorPattern
		want    string
	}{
		{"math array", &ErrorPattern{Kind: PatternMathTypeArray, MathType: "Vec3"}, "math_type"},
		{"transform sequence", &ErrorPattern{Kind: PatternTransformSequence, ExpectedCount: 12}, "math_type"},
		{"name component", &ErrorPattern{Kind: PatternExpectedType, ExpectedType: "bevy_ecs::name::Name"}, "string_type"},
		{"string", &ErrorPattern{Kind: PatternExpectedType, ExpectedType: "alloc::string::String"}, "string_type"},
		{"tuple path", &ErrorPattern{Kind: PatternTupleStructPath, FieldPath: ".x"}, "tuple_struct"},
		{"access error", &ErrorPattern{Kind: PatternAccessError, Access: ".x"}, "tuple_struct"},
		{"lowercase missing field", &ErrorPattern{Kind: PatternMissingField, FieldName: "red"}, "tuple_struct"},
		{"variant mismatch", &ErrorPattern{Kind: PatternTypeMismatch, IsVariant: true}, "enum_variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.FindTransformer(tt.pattern)
			if got == nil {
				t.Fatalf("no transformer for %+v", tt.pattern)
			}
			if got.Name() != tt.want {
				t.Errorf("dispatched to %s, want %s", got.Name(), tt.want)
			}
		})
	}

	// Uppercase missing fields look like enum variant names and must
	// skip tuple_struct despite it registering first.
	got := r.FindTransformer(&ErrorPattern{Kind: PatternMissingField, FieldName: "Srgba"})
	if got == nil || got.Name() != "enum_variant" {
		t.Errorf("uppercase missing field dispatched to %v, want enum_variant", got)
	}
}
