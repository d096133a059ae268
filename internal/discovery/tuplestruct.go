package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"brpbridge/internal/brp"
)

// TupleStructTransformer repairs path-addressed field-access errors
// against tuple-style (positionally indexed) structures: named fields are
// rewritten to numeric indices and wrapped values are unwrapped to the
// element the path points at.
type TupleStructTransformer struct{}

func (t *TupleStructTransformer) Name() string { return "tuple_struct" }

func (t *TupleStructTransformer) CanHandle(pattern *ErrorPattern) bool {
	switch pattern.Kind {
	case PatternTupleStructPath, PatternAccessError:
		return true
	case PatternMissingField:
		// Uppercase field names are enum variants, not tuple fields.
		return !isEnumVariantName(pattern.FieldName)
	default:
		return false
	}
}

// fixTupleStructFormat repairs a value given the offending field path.
func fixTupleStructFormat(typeName string, value any, fieldPath string) (any, string, bool) {
	fixedPath := fixTupleStructPath(fieldPath)

	if obj, ok := asObject(value); ok {
		if _, inner, ok := singleField(obj); ok {
			hint := fmt.Sprintf(
				"`%s` is a tuple struct, use numeric indices like .0 instead of named fields",
				typeName)
			return inner, hint, true
		}
	}
	if arr, ok := asArray(value); ok {
		if index, err := strconv.Atoi(strings.TrimPrefix(fixedPath, ".")); err == nil {
			if index >= 0 && index < len(arr) {
				var hint string
				if fixedPath == fieldPath {
					hint = fmt.Sprintf("`%s` tuple struct element at index %d extracted", typeName, index)
				} else {
					hint = fmt.Sprintf("`%s` tuple struct: converted '%s' to '%s' for element access",
						typeName, fieldPath, fixedPath)
				}
				return arr[index], hint, true
			}
		}
	}
	return nil, "", false
}

// tupleStructFieldAccess converts a missing named field to a tuple index
// and extracts the matching element.
func tupleStructFieldAccess(typeName, fieldName string, value any) (any, string, bool) {
	path := "." + fieldName
	fixedPath := fixTupleStructPath(path)
	if fixedPath == path {
		return nil, "", false
	}

	if arr, ok := asArray(value); ok {
		if index, err := strconv.Atoi(strings.TrimPrefix(fixedPath, ".")); err == nil {
			if index >= 0 && index < len(arr) {
				hint := fmt.Sprintf("`%s` missing field '%s': converted to tuple struct index %d",
					typeName, fieldName, index)
				return arr[index], hint, true
			}
		}
	}
	if obj, ok := asObject(value); ok {
		if actual, inner, ok := singleField(obj); ok {
			hint := fmt.Sprintf("`%s` missing field '%s': converted object field '%s' to tuple struct access",
				typeName, fieldName, actual)
			return inner, hint, true
		}
	}
	return nil, "", false
}

// tupleMissingField handles missing-field errors believed to target a
// tuple struct.
func tupleMissingField(typeName string, value any, fieldName string) (any, string, bool) {
	if fieldName != "" && fieldName[0] >= 'a' && fieldName[0] <= 'z' {
		if out, hint, ok := tupleStructFieldAccess(typeName, fieldName, value); ok {
			return out, hint, true
		}
	}

	// Last resort: extract whatever single value is available.
	if obj, ok := asObject(value); ok {
		if actual, inner, ok := singleField(obj); ok {
			hint := fmt.Sprintf("`%s` missing field '%s': used available field '%s'",
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

func isTupleStructError(err *brp.Error) bool {
	msg := err.Message
	return strings.Contains(msg, "tuple struct") ||
		strings.Contains(msg, "tuple_struct") ||
		strings.Contains(msg, "TupleIndex") ||
		strings.Contains(msg, "AccessError")
}

// quotedField extracts the first single-quoted token from a message.
func quotedField(msg string) (string, bool) {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return "", false
	}
	return msg[start+1 : start+1+end], true
}

// backtickedPath extracts a path written as "path `...`".
func backtickedPath(msg string) (string, bool) {
	idx := strings.Index(msg, "path ")
	if idx < 0 {
		return "", false
	}
	rest := msg[idx:]
	open := strings.IndexByte(rest, '`')
	if open < 0 {
		return "", false
	}
	rest = rest[open+1:]
	end := strings.IndexByte(rest, '`')
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func (t *TupleStructTransformer) Transform(value any) (any, string, bool) {
	if obj, ok := asObject(value); ok {
		if field, inner, ok := singleField(obj); ok {
			return inner, fmt.Sprintf("converted field '%s' to tuple struct access", field), true
		}
		return nil, "", false
	}
	if arr, ok := asArray(value); ok && len(arr) > 0 {
		return arr[0], "using first array element for tuple struct access", true
	}
	return nil, "", false
}

func (t *TupleStructTransformer) TransformWithError(value any, err *brp.Error) (any, string, bool) {
	typeName := extractTypeNameFromError(err)
	if typeName == "" {
		typeName = "unknown"
	}

	if isTupleStructError(err) {
		if path, ok := backtickedPath(err.Message); ok {
			return fixTupleStructFormat(typeName, value, path)
		}
		if strings.Contains(err.Message, "MissingField") {
			if field, ok := quotedField(err.Message); ok {
				return tupleMissingField(typeName, value, field)
			}
		}
	}
	return t.Transform(value)
}
