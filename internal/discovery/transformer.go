package discovery

import (
	"brpbridge/internal/brp"
)

// Transformer is one correction strategy. Each transformer declares which
// error patterns it handles and attempts to repair a payload value.
type Transformer interface {
	// Name identifies the transformer in diagnostics.
	Name() string

	// CanHandle reports whether this transformer addresses the pattern.
	CanHandle(pattern *ErrorPattern) bool

	// Transform repairs the value without error context. Returns the
	// corrected value, a human-readable hint, and whether it succeeded.
	Transform(value any) (any, string, bool)

	// TransformWithError repairs the value using the original error for
	// context. Implementations fall back to Transform.
	TransformWithError(value any, err *brp.Error) (any, string, bool)
}

// TransformerRegistry is an ordered collection of transformers. Lookup is
// first-match-wins in registration order; order is the tie-break rule and
// must be preserved.
type TransformerRegistry struct {
	transformers []Transformer
}

// NewTransformerRegistry creates an empty registry.
func NewTransformerRegistry() *TransformerRegistry {
	return &TransformerRegistry{}
}

// DefaultRegistry returns a registry with the four stock transformers in
// their canonical order.
func DefaultRegistry() *TransformerRegistry {
	r := NewTransformerRegistry()
	r.Add(&MathTypeTransformer{})
	r.Add(&StringTypeTransformer{})
	r.Add(&TupleStructTransformer{})
	r.Add(&EnumVariantTransformer{})
	return r
}

// Add appends a transformer. Registration order is significant.
func (r *TransformerRegistry) Add(t Transformer) {
	r.transformers = append(r.transformers, t)
}

// Len returns the number of registered transformers.
func (r *TransformerRegistry) Len() int {
	return len(r.transformers)
}

// Names lists transformer names in registration order.
func (r *TransformerRegistry) Names() []string {
	names := make([]string, 0, len(r.transformers))
	for _, t := range r.transformers {
		names = append(names, t.Name())
	}
	return names
}

// FindTransformer returns the first transformer that can handle the
// pattern, or nil.
func (r *TransformerRegistry) FindTransformer(pattern *ErrorPattern) Transformer {
	for _, t := range r.transformers {
		if t.CanHandle(pattern) {
			return t
		}
	}
	return nil
}

// Transform finds a matching transformer and applies it with error
// context. Returns ok=false when no transformer matches or the match
// fails to produce a value.
func (r *TransformerRegistry) Transform(value any, pattern *ErrorPattern, err *brp.Error) (any, string, bool) {
	t := r.FindTransformer(pattern)
	if t == nil {
		return nil, "", false
	}
	return t.TransformWithError(value, err)
}
