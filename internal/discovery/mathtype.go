package discovery

import (
	"fmt"
	"strings"

	"brpbridge/internal/brp"
)

// transformSequenceCount is how many f32 values the composite transform
// encoding carries: translation Vec3 + rotation Quat + scale Vec3, with
// padding, as reported by the remote reflection error.
const transformSequenceCount = 12

var mathFieldNames = map[string][]string{
	"Vec2": {"x", "y"},
	"Vec3": {"x", "y", "z"},
	"Vec4": {"x", "y", "z", "w"},
	"Quat": {"x", "y", "z", "w"},
}

// MathTypeTransformer converts math values between keyed-object form
// ({x, y, z}) and the flat array form the remote expects, including the
// composite transform (translation+rotation+scale) special case.
type MathTypeTransformer struct{}

func (t *MathTypeTransformer) Name() string { return "math_type" }

func (t *MathTypeTransformer) CanHandle(pattern *ErrorPattern) bool {
	return pattern.Kind == PatternMathTypeArray || pattern.Kind == PatternTransformSequence
}

// convertToArray turns a keyed object into an ordered numeric array. An
// array already in the right shape passes through unchanged.
func convertToArray(value any, fields []string) (any, bool) {
	if obj, ok := asObject(value); ok {
		arr := make([]any, 0, len(fields))
		for _, field := range fields {
			n, ok := asNumber(obj[field])
			if !ok {
				return nil, false
			}
			arr = append(arr, n)
		}
		return arr, true
	}
	if arr, ok := asArray(value); ok && len(arr) == len(fields) {
		for _, v := range arr {
			if !isNumber(v) {
				return nil, false
			}
		}
		return value, true
	}
	return nil, false
}

func convertToMathArray(value any, mathType string) (any, bool) {
	fields, ok := mathFieldNames[mathType]
	if !ok {
		return nil, false
	}
	return convertToArray(value, fields)
}

func mathArrayFix(typeName string, value any, mathType string) (any, string, bool) {
	arr, ok := convertToMathArray(value, mathType)
	if !ok {
		return nil, "", false
	}
	fields := mathFieldNames[mathType]
	hint := fmt.Sprintf("`%s` %s expects array format [%s]",
		typeName, mathType, strings.Join(fields, ", "))
	return arr, hint, true
}

// transformSequenceFix rewrites a transform object's translation/scale to
// Vec3 arrays and rotation to a Quat array.
func transformSequenceFix(typeName string, value any, expectedCount int) (any, string, bool) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", false
	}

	corrected := make(map[string]any)
	var hintParts []string

	for _, field := range []string{"translation", "scale"} {
		fieldValue, ok := obj[field]
		if !ok {
			continue
		}
		if arr, ok := convertToMathArray(fieldValue, "Vec3"); ok {
			corrected[field] = arr
			hintParts = append(hintParts, fmt.Sprintf("`%s` converted to Vec3 array format", field))
		} else {
			corrected[field] = fieldValue
		}
	}
	if rotation, ok := obj["rotation"]; ok {
		if arr, ok := convertToMathArray(rotation, "Quat"); ok {
			corrected["rotation"] = arr
			hintParts = append(hintParts, "`rotation` converted to Quat array format")
		} else {
			corrected["rotation"] = rotation
		}
	}

	if len(corrected) == 0 {
		return nil, "", false
	}
	hint := fmt.Sprintf("`%s` transform expected %d f32 values in sequence - %s",
		typeName, expectedCount, strings.Join(hintParts, ", "))
	return corrected, hint, true
}

func (t *MathTypeTransformer) Transform(value any) (any, string, bool) {
	for _, mathType := range []string{"Vec2", "Vec3", "Vec4", "Quat"} {
		if arr, ok := convertToMathArray(value, mathType); ok {
			return arr, fmt.Sprintf("converted to %s array format", mathType), true
		}
	}
	return nil, "", false
}

func (t *MathTypeTransformer) TransformWithError(value any, err *brp.Error) (any, string, bool) {
	typeName := extractTypeNameFromError(err)
	if typeName == "" {
		typeName = "unknown"
	}

	msg := err.Message
	for _, mathType := range []string{"Vec2", "Vec3", "Vec4", "Quat"} {
		if strings.Contains(msg, mathType) {
			return mathArrayFix(typeName, value, mathType)
		}
	}
	if strings.Contains(msg, "Transform") || strings.Contains(msg, "sequence of") {
		return transformSequenceFix(typeName, value, transformSequenceCount)
	}
	return t.Transform(value)
}
