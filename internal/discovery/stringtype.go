package discovery

import (
	"fmt"
	"strings"

	"brpbridge/internal/brp"
)

// Fields commonly wrapping a bare string payload.
var stringWrapperFields = []string{"name", "value", "text", "label"}

// StringTypeTransformer repairs values serialized as wrapped single-field
// objects (or one-element arrays) when the remote expects a bare string,
// most commonly the Name component.
type StringTypeTransformer struct{}

func (t *StringTypeTransformer) Name() string { return "string_type" }

func (t *StringTypeTransformer) CanHandle(pattern *ErrorPattern) bool {
	if pattern.Kind != PatternExpectedType {
		return false
	}
	expected := pattern.ExpectedType
	return strings.Contains(expected, "String") || strings.Contains(expected, "::Name")
}

// extractStringValue pulls a string out of the supported wrapper shapes.
// Returns the string and a description of where it came from.
func extractStringValue(value any) (string, string, bool) {
	switch v := value.(type) {
	case map[string]any:
		for _, field := range stringWrapperFields {
			if s, ok := asString(v[field]); ok {
				return s, fmt.Sprintf("from `%s` field", field), true
			}
		}
		if field, inner, ok := singleField(v); ok {
			if s, ok := asString(inner); ok {
				return s, fmt.Sprintf("from `%s` field", field), true
			}
		}
	case []any:
		if len(v) == 1 {
			if s, ok := asString(v[0]); ok {
				return s, "from single-element array", true
			}
		}
	case string:
		return v, "already string format", true
	}
	return "", "", false
}

func convertToStringFormat(typeName string, value any) (any, string, bool) {
	s, source, ok := extractStringValue(value)
	if !ok {
		return nil, "", false
	}
	return s, fmt.Sprintf("`%s` expects string format, extracted %s", typeName, source), true
}

func isStringExpectationError(err *brp.Error) bool {
	msg := err.Message
	return strings.Contains(msg, "expected string") ||
		strings.Contains(msg, "String") ||
		strings.Contains(msg, "Name")
}

func (t *StringTypeTransformer) Transform(value any) (any, string, bool) {
	s, source, ok := extractStringValue(value)
	if !ok {
		return nil, "", false
	}
	return s, fmt.Sprintf("string extracted %s", source), true
}

func (t *StringTypeTransformer) TransformWithError(value any, err *brp.Error) (any, string, bool) {
	typeName := extractTypeNameFromError(err)
	if typeName == "" {
		typeName = "unknown"
	}
	if isStringExpectationError(err) {
		return convertToStringFormat(typeName, value)
	}
	return t.Transform(value)
}
