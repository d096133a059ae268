package discovery

import (
	"regexp"
	"strconv"
	"strings"

	"brpbridge/internal/brp"
)

// PatternKind identifies one class of payload shape mismatch. The set is
// closed: classification comes from fixed matching against the error
// message text, never from the error code.
type PatternKind int

const (
	// PatternTransformSequence: value expected as a flat sequence of N
	// f32 values (composite transform encoding).
	PatternTransformSequence PatternKind = iota
	// PatternExpectedType: the message names the concrete type it wanted.
	PatternExpectedType
	// PatternAccessError: generic reflection access failure.
	PatternAccessError
	// PatternTypeMismatch: expected one access kind, found another.
	// IsVariant marks the enum-variant flavor of the same message.
	PatternTypeMismatch
	// PatternMissingField: a struct/tuple access named a field that does
	// not exist on the value.
	PatternMissingField
	// PatternUnknownType: the component or resource type is not
	// registered with the remote app.
	PatternUnknownType
	// PatternTupleStructPath: a path addressed a tuple struct with named
	// fields instead of numeric indices.
	PatternTupleStructPath
	// PatternMathTypeArray: a math type (Vec2/Vec3/Vec4/Quat) wants the
	// array literal encoding.
	PatternMathTypeArray
)

// ErrorPattern is the classified form of a remote error message. Only
// the fields relevant to Kind are populated.
type ErrorPattern struct {
	Kind PatternKind

	ExpectedCount int    // TransformSequence
	ExpectedType  string // ExpectedType
	Access        string // AccessError, TypeMismatch
	ErrorDetail   string // AccessError
	Expected      string // TypeMismatch
	Actual        string // TypeMismatch
	IsVariant     bool   // TypeMismatch
	FieldName     string // MissingField
	TypeName      string // MissingField, UnknownType
	FieldPath     string // TupleStructPath
	MathType      string // MathTypeArray
}

// Message templates observed from the remote app's reflection errors.
// Matching is best effort: if the upstream wording drifts, classification
// falls through to the later tiers instead of failing.
var (
	transformSequenceRe = regexp.MustCompile(`expected a sequence of (\d+) f32 values`)
	expectedTypeRe      = regexp.MustCompile("expected `([a-zA-Z_:]+(?::[a-zA-Z_:]+)*)`")
	accessErrorRe       = regexp.MustCompile("Error accessing element with `([^`]+)` access(?:\\s*\\(offset \\d+\\))?: (.+)")
	typeMismatchRe      = regexp.MustCompile(`Expected ([a-zA-Z0-9_\[\]]+) access to access a ([a-zA-Z0-9_]+), found a ([a-zA-Z0-9_]+) instead\.`)
	variantMismatchRe   = regexp.MustCompile(`Expected variant ([a-zA-Z0-9_\[\]]+) access to access a ([a-zA-Z0-9_]+) variant, found a ([a-zA-Z0-9_]+) variant instead\.`)
	missingFieldRe      = regexp.MustCompile("The ([a-zA-Z0-9_]+) accessed doesn't have (?:an? )?[`\"]([^`\"]+)[`\"] field")
	unknownTypeRe       = regexp.MustCompile("Unknown component type: `([^`]+)`")
	unknownTypeBareRe   = regexp.MustCompile(`Unknown (?:component|resource) type(?::\s*)?[` + "`" + `']?([^` + "`" + `'\s]+)[` + "`" + `']?`)
	tupleStructPathRe   = regexp.MustCompile(`(?:at path|path)\s+[` + "`" + `"]?([^` + "`" + `"\s]+)[` + "`" + `"]?`)
	mathTypeArrayRe     = regexp.MustCompile(`(Vec2|Vec3|Vec4|Quat)\s+(?:expects?|requires?|needs?)\s+array`)
)

// ClassifyError matches the message against the fixed, ordered pattern
// set and returns the first classification, or nil if nothing matched.
func ClassifyError(err *brp.Error) *ErrorPattern {
	if err == nil {
		return nil
	}
	msg := err.Message

	if m := transformSequenceRe.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return &ErrorPattern{Kind: PatternTransformSequence, ExpectedCount: n}
		}
	}
	if m := expectedTypeRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternExpectedType, ExpectedType: m[1]}
	}
	if m := accessErrorRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternAccessError, Access: m[1], ErrorDetail: m[2]}
	}
	if m := typeMismatchRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{
			Kind: PatternTypeMismatch, Access: m[1], Expected: m[2], Actual: m[3],
		}
	}
	if m := variantMismatchRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{
			Kind: PatternTypeMismatch, Access: m[1], Expected: m[2], Actual: m[3],
			IsVariant: true,
		}
	}
	if m := missingFieldRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternMissingField, TypeName: m[1], FieldName: m[2]}
	}
	if m := unknownTypeRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternUnknownType, TypeName: m[1]}
	}
	if m := tupleStructPathRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternTupleStructPath, FieldPath: m[1]}
	}
	if m := mathTypeArrayRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternMathTypeArray, MathType: m[1]}
	}
	if m := unknownTypeBareRe.FindStringSubmatch(msg); m != nil {
		return &ErrorPattern{Kind: PatternUnknownType, TypeName: m[1]}
	}
	return nil
}

// extractTypeNameFromError pulls the first backtick-quoted token out of
// an error message, which is where the remote app places type names.
func extractTypeNameFromError(err *brp.Error) string {
	msg := err.Message
	start := strings.IndexByte(msg, '`')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '`')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// extractPathFromErrorContext finds "at path .foo" / "path '.foo'" style
// fragments in free-form error text.
func extractPathFromErrorContext(msg string) string {
	var rest string
	for _, marker := range []string{"at path ", "path '", `path "`} {
		if idx := strings.Index(msg, marker); idx >= 0 {
			rest = msg[idx+len(marker):]
			break
		}
	}
	if rest == "" {
		return ""
	}
	if end := strings.IndexAny(rest, " '\"\n"); end >= 0 {
		rest = rest[:end]
	}
	if strings.Contains(rest, ".") {
		return rest
	}
	return ""
}
