package discovery

import (
	"brpbridge/internal/brp"
)

// TypeItem is one type-keyed payload entry extracted from method params.
type TypeItem struct {
	Name  string
	Value any
}

// LocationKind says where the type-keyed items live in a method's params.
type LocationKind int

const (
	// LocationBatchMap: items are entries of a nested "components" map
	// (spawn, insert).
	LocationBatchMap LocationKind = iota
	// LocationSingleValue: a type-name field plus a sibling "value" field
	// (mutate_component, insert_resource, mutate_resource).
	LocationSingleValue
)

// ValueKind distinguishes the type-name field for single-value locations.
type ValueKind int

const (
	ValueComponent ValueKind = iota
	ValueResource
)

// ParameterLocation resolves where payload items live for a method.
// Pure function of the method name, fixed for the process lifetime.
type ParameterLocation struct {
	Kind LocationKind
	Of   ValueKind
}

func (l ParameterLocation) String() string {
	switch {
	case l.Kind == LocationBatchMap:
		return "components map"
	case l.Of == ValueComponent:
		return "component value"
	default:
		return "resource value"
	}
}

// nameField returns the params field holding the type name for
// single-value locations.
func (l ParameterLocation) nameField() string {
	if l.Of == ValueComponent {
		return "component"
	}
	return "resource"
}

// GetParameterLocation maps a method name to its payload location.
// Deterministic: repeated calls always return the same location.
func GetParameterLocation(method string) ParameterLocation {
	switch method {
	case brp.MethodMutateComponent:
		return ParameterLocation{Kind: LocationSingleValue, Of: ValueComponent}
	case brp.MethodInsertResource, brp.MethodMutateResource:
		return ParameterLocation{Kind: LocationSingleValue, Of: ValueResource}
	default:
		return ParameterLocation{Kind: LocationBatchMap}
	}
}

// ExtractTypeItems reads the type-keyed items out of params. Missing or
// misshapen fields yield an empty slice, never an error.
func ExtractTypeItems(params any, location ParameterLocation) []TypeItem {
	obj, ok := asObject(params)
	if !ok {
		return nil
	}

	if location.Kind == LocationBatchMap {
		components, ok := asObject(obj["components"])
		if !ok {
			return nil
		}
		items := make([]TypeItem, 0, len(components))
		for _, name := range sortedKeys(components) {
			items = append(items, TypeItem{Name: name, Value: components[name]})
		}
		return items
	}

	name, ok := asString(obj[location.nameField()])
	if !ok {
		return nil
	}
	value, ok := obj["value"]
	if !ok {
		return nil
	}
	return []TypeItem{{Name: name, Value: value}}
}

// ApplyCorrections builds new params with the corrected items in place.
// For a batch map the nested map is replaced with exactly correctedItems;
// callers must pass the complete set, including unmodified items, or the
// missing entries are dropped. For a single value only the "value" field
// is replaced, from the first corrected item. The input is not mutated.
func ApplyCorrections(params any, location ParameterLocation, correctedItems []TypeItem) any {
	obj, ok := asObject(params)
	if !ok {
		return params
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	if location.Kind == LocationBatchMap {
		components := make(map[string]any, len(correctedItems))
		for _, item := range correctedItems {
			components[item.Name] = item.Value
		}
		out["components"] = components
		return out
	}

	if len(correctedItems) > 0 {
		out["value"] = correctedItems[0].Value
	}
	return out
}
