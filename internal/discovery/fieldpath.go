package discovery

import (
	"strings"
)

// Path repair for tuple-style structures. Reflection paths written with
// named fields (".LinearRgba.red", ".x") are rewritten to the numeric
// tuple indices the remote actually exposes. Color and math variants are
// wrapped in a tuple variant, so their fields sit one level down (".0.N").

// simpleTupleIndex maps bare field accesses on unwrapped tuple structs.
var simpleTupleIndex = map[string]string{
	".x": ".0",
	".y": ".1",
	".z": ".2",
}

// variantFieldIndex maps variant field names to their in-variant index.
// Covers the color spaces (rgb, hsl, hsv, hwb, lab, lch, xyz) and the
// math vector fields.
var variantFieldIndex = map[string]string{
	"red": ".0.0", "r": ".0.0", "hue": ".0.0", "h": ".0.0",
	"lightness": ".0.0", "l": ".0.0", "x": ".0.0",
	"green": ".0.1", "g": ".0.1", "saturation": ".0.1", "s": ".0.1",
	"y": ".0.1", "whiteness": ".0.1", "chroma": ".0.1", "c": ".0.1",
	"blue": ".0.2", "b": ".0.2", "value": ".0.2", "v": ".0.2",
	"z": ".0.2", "blackness": ".0.2",
	"alpha": ".0.3", "w": ".0.3",
}

// isEnumVariantName reports whether a path segment looks like an enum
// variant (leading uppercase).
func isEnumVariantName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// parseEnumFieldAccess rewrites ".Variant.field" paths to tuple indices.
// Unknown fields keep their name below the variant's tuple slot.
func parseEnumFieldAccess(path string) (string, bool) {
	parts := strings.Split(path, ".")
	if len(parts) < 3 || parts[0] != "" || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	variant, field := parts[1], parts[2]
	if !isEnumVariantName(variant) {
		return "", false
	}

	// "a" is the Lab a-axis on Lab-based spaces (Laba, Oklaba), alpha
	// everywhere else.
	if field == "a" {
		if strings.Contains(strings.ToLower(variant), "lab") {
			return ".0.1", true
		}
		return ".0.3", true
	}
	if idx, ok := variantFieldIndex[field]; ok {
		return idx, true
	}
	return ".0." + strings.Join(parts[2:], "."), true
}

// fixTupleStructPath rewrites a named-field path to tuple index form.
// Paths it cannot interpret come back unchanged.
func fixTupleStructPath(path string) string {
	if idx, ok := simpleTupleIndex[path]; ok {
		return idx
	}
	if fixed, ok := parseEnumFieldAccess(path); ok {
		return fixed
	}
	return path
}
