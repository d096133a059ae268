package discovery

import (
	"fmt"
	"strings"

	"brpbridge/internal/brp"
)

// EnumVariantTransformer repairs shape mismatches between externally
// tagged and internally tagged enum encodings: a {"Variant": payload}
// wrapper is unwrapped when the remote wants the payload directly, and
// array/object variant payloads are converted between each other.
type EnumVariantTransformer struct{}

func (t *EnumVariantTransformer) Name() string { return "enum_variant" }

func (t *EnumVariantTransformer) CanHandle(pattern *ErrorPattern) bool {
	switch pattern.Kind {
	case PatternTypeMismatch:
		return pattern.IsVariant
	case PatternMissingField:
		// Missing fields that look like variant names (leading uppercase).
		return isEnumVariantName(pattern.FieldName)
	default:
		return false
	}
}

func unwrapVariantObject(typeName string, obj map[string]any, context string) (any, string, bool) {
	field, inner, ok := singleField(obj)
	if !ok {
		return nil, "", false
	}
	hint := fmt.Sprintf("`%s` %s: converted field '%s' to variant access", typeName, context, field)
	return inner, hint, true
}

func firstVariantElement(typeName string, arr []any, context string) (any, string, bool) {
	if len(arr) == 0 {
		return nil, "", false
	}
	hint := fmt.Sprintf("`%s` %s: using first array element", typeName, context)
	return arr[0], hint, true
}

// variantShapeMismatch converts between tuple-variant and struct-variant
// payload encodings based on which shape was expected.
func variantShapeMismatch(typeName string, value any, expected, actual string) (any, string, bool) {
	context := fmt.Sprintf("variant mismatch: expected %s variant access to access a %s variant",
		expected, actual)
	switch strings.ToLower(expected) {
	case "tuple":
		if obj, ok := asObject(value); ok {
			return unwrapVariantObject(typeName, obj, context)
		}
	case "struct":
		if arr, ok := asArray(value); ok {
			return firstVariantElement(typeName, arr, context)
		}
	}
	return nil, "", false
}

// variantMissingField extracts the payload of the named variant from an
// externally tagged encoding.
func variantMissingField(typeName string, value any, fieldName string) (any, string, bool) {
	if obj, ok := asObject(value); ok {
		if inner, found := obj[fieldName]; found {
			hint := fmt.Sprintf("`%s` missing field '%s': extracted enum variant value",
				typeName, fieldName)
			return inner, hint, true
		}
		if actual, inner, ok := singleField(obj); ok {
			hint := fmt.Sprintf("`%s` missing field '%s': used field '%s' instead",
				typeName, fieldName, actual)
			return inner, hint, true
		}
	}
	if arr, ok := asArray(value); ok && len(arr) > 0 {
		hint := fmt.Sprintf("`%s` missing field '%s': using first array element", typeName, fieldName)
		return arr[0], hint, true
	}
	return nil, "", false
}

func isEnumVariantError(err *brp.Error) bool {
	msg := err.Message
	return strings.Contains(msg, "variant") ||
		strings.Contains(msg, "Variant") ||
		strings.Contains(msg, "enum") ||
		strings.Contains(msg, "Enum")
}

func (t *EnumVariantTransformer) Transform(value any) (any, string, bool) {
	if obj, ok := asObject(value); ok {
		if field, inner, ok := singleField(obj); ok {
			return inner, fmt.Sprintf("converted enum variant field '%s' to variant access", field), true
		}
		return nil, "", false
	}
	if arr, ok := asArray(value); ok && len(arr) > 0 {
		return arr[0], "using first array element for enum variant access", true
	}
	return nil, "", false
}

func (t *EnumVariantTransformer) TransformWithError(value any, err *brp.Error) (any, string, bool) {
	typeName := extractTypeNameFromError(err)
	if typeName == "" {
		typeName = "unknown"
	}

	if isEnumVariantError(err) {
		msg := err.Message

		if pattern := ClassifyError(err); pattern != nil {
			if pattern.Kind == PatternTypeMismatch && pattern.IsVariant {
				if out, hint, ok := variantShapeMismatch(typeName, value, pattern.Expected, pattern.Actual); ok {
					return out, hint, true
				}
			}
			if pattern.Kind == PatternMissingField {
				return variantMissingField(typeName, value, pattern.FieldName)
			}
		}

		// Looser phrasing without the structured templates.
		if strings.Contains(msg, "Expected tuple") && strings.Contains(msg, "struct") {
			if out, hint, ok := variantShapeMismatch(typeName, value, "tuple", "struct"); ok {
				return out, hint, true
			}
		}
		if strings.Contains(msg, "Expected struct") && strings.Contains(msg, "tuple") {
			if out, hint, ok := variantShapeMismatch(typeName, value, "struct", "tuple"); ok {
				return out, hint, true
			}
		}
	}
	return t.Transform(value)
}
