package discovery

import (
	"fmt"

	"brpbridge/internal/brp"
)

// Tier ordinals, most to least specific. Per item the executor stops at
// the first tier that yields a correction.
const (
	TierDeterministic = 1 // message classification + transformer registry
	TierProbing       = 2 // structural introspection of the value itself
	TierFallback      = 3 // last-resort generic heuristics
)

var tierNames = map[int]string{
	TierDeterministic: "deterministic",
	TierProbing:       "serialization probing",
	TierFallback:      "generic fallback",
}

// TierInfo records one tier attempt for one item, successful or not.
type TierInfo struct {
	Tier    int
	Item    string
	Success bool
	Message string
}

// Strategy is one pluggable heuristic used by the probing and fallback
// tiers. Strategies are independent and tried in order.
type Strategy struct {
	Name  string
	Apply func(value any) (corrected any, hint string, ok bool)
}

// FormatCorrection describes one successfully repaired payload item.
type FormatCorrection struct {
	ItemName        string
	OriginalFormat  any
	CorrectedFormat any
	Hint            string
}

// DiscoveryResultData aggregates the output of a full tier run.
// CorrectedItems always carries every extracted item: repaired values for
// corrected items and the original value for the rest, so batch-map
// rewrites keep the complete set.
type DiscoveryResultData struct {
	FormatCorrections []FormatCorrection
	CorrectedItems    []TypeItem
	AllTierInfo       []TierInfo
}

// defaultProbes returns the stock probing-tier strategies. They inspect
// only the value's own shape, never the error message.
func defaultProbes() []Strategy {
	return []Strategy{
		{Name: "math_shape", Apply: probeMathShape},
		{Name: "transform_shape", Apply: probeTransformShape},
		{Name: "wrapped_string", Apply: probeWrappedString},
	}
}

// defaultFallbacks returns the stock fallback-tier strategies.
func defaultFallbacks() []Strategy {
	return []Strategy{
		{Name: "unwrap_object", Apply: fallbackUnwrapObject},
		{Name: "unwrap_array", Apply: fallbackUnwrapArray},
	}
}

// probeMathShape recognizes objects keyed exactly like a math type and
// reencodes them as arrays. Checked widest first so {x,y,z,w} is not
// mistaken for a Vec2.
func probeMathShape(value any) (any, string, bool) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", false
	}
	for _, mathType := range []string{"Vec4", "Vec3", "Vec2"} {
		fields := mathFieldNames[mathType]
		if len(obj) != len(fields) {
			continue
		}
		if arr, ok := convertToArray(obj, fields); ok {
			hint := fmt.Sprintf("value shaped like %s, reencoded as array", mathType)
			return arr, hint, true
		}
	}
	return nil, "", false
}

// probeTransformShape recognizes composite transform objects by their
// translation/rotation/scale keys.
func probeTransformShape(value any) (any, string, bool) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", false
	}
	present := 0
	for _, field := range []string{"translation", "rotation", "scale"} {
		if _, ok := obj[field]; ok {
			present++
		}
	}
	if present < 2 {
		return nil, "", false
	}
	return transformSequenceFix("transform", value, transformSequenceCount)
}

// probeWrappedString unwraps string payloads hidden in wrapper objects.
func probeWrappedString(value any) (any, string, bool) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", false
	}
	s, source, ok := extractStringValue(obj)
	if !ok {
		return nil, "", false
	}
	return s, fmt.Sprintf("string payload unwrapped %s", source), true
}

func fallbackUnwrapObject(value any) (any, string, bool) {
	obj, ok := asObject(value)
	if !ok {
		return nil, "", false
	}
	field, inner, ok := singleField(obj)
	if !ok {
		return nil, "", false
	}
	return inner, fmt.Sprintf("unwrapped single-field object '%s' to bare value", field), true
}

func fallbackUnwrapArray(value any) (any, string, bool) {
	arr, ok := asArray(value)
	if !ok || len(arr) != 1 {
		return nil, "", false
	}
	return arr[0], "unwrapped single-element array to bare value", true
}

// runDiscoveryTiers drives the three ordered tiers over every extracted
// item. Tiers run strictly sequentially, items strictly sequentially, so
// the debug trail is deterministic for a given input.
func (e *Engine) runDiscoveryTiers(ctx *Context) *DiscoveryResultData {
	initialErr := ctx.InitialError
	data := &DiscoveryResultData{}

	location := GetParameterLocation(ctx.Method)
	ctx.AddDebug("format discovery: attempting discovery for method '%s' (%s)", ctx.Method, location)

	items := ExtractTypeItems(ctx.OriginalParams, location)
	if len(items) == 0 {
		ctx.AddDebug("format discovery: no type items found in params")
		return data
	}
	ctx.AddDebug("format discovery: found %d type items to check", len(items))

	for _, item := range items {
		corrected, hint, tierInfo := e.discoverItemFormat(item, initialErr)
		data.AllTierInfo = append(data.AllTierInfo, tierInfo...)

		if hint == "" {
			ctx.AddDebug("format discovery: no alternative found for '%s'", item.Name)
			data.CorrectedItems = append(data.CorrectedItems, item)
			continue
		}
		ctx.AddDebug("format discovery: found alternative for '%s'", item.Name)
		data.FormatCorrections = append(data.FormatCorrections, FormatCorrection{
			ItemName:        item.Name,
			OriginalFormat:  item.Value,
			CorrectedFormat: corrected,
			Hint:            hint,
		})
		data.CorrectedItems = append(data.CorrectedItems, TypeItem{Name: item.Name, Value: corrected})
	}
	return data
}

// discoverItemFormat runs the tiers for a single item. The returned hint
// is empty when every tier was exhausted without a correction.
func (e *Engine) discoverItemFormat(item TypeItem, initialErr *brp.Error) (any, string, []TierInfo) {
	var infos []TierInfo

	// Tier 1: deterministic classification against the error message.
	if pattern := ClassifyError(initialErr); pattern != nil {
		if corrected, hint, ok := e.registry.Transform(item.Value, pattern, initialErr); ok {
			infos = append(infos, TierInfo{
				Tier: TierDeterministic, Item: item.Name, Success: true,
				Message: fmt.Sprintf("applied pattern fix: %s", hint),
			})
			return corrected, hint, infos
		}
		infos = append(infos, TierInfo{
			Tier: TierDeterministic, Item: item.Name,
			Message: "pattern matched but no transformer produced a value",
		})
	} else {
		infos = append(infos, TierInfo{
			Tier: TierDeterministic, Item: item.Name,
			Message: "no known error pattern matched",
		})
	}

	// Tier 2: probe the value's own shape.
	if corrected, hint, ok, name := applyStrategies(e.probes, item.Value); ok {
		infos = append(infos, TierInfo{
			Tier: TierProbing, Item: item.Name, Success: true,
			Message: fmt.Sprintf("%s: %s", name, hint),
		})
		return corrected, hint, infos
	}
	infos = append(infos, TierInfo{
		Tier: TierProbing, Item: item.Name,
		Message: "no probing strategy recognized the value shape",
	})

	// Tier 3: generic fallbacks.
	if corrected, hint, ok, name := applyStrategies(e.fallbacks, item.Value); ok {
		infos = append(infos, TierInfo{
			Tier: TierFallback, Item: item.Name, Success: true,
			Message: fmt.Sprintf("%s: %s", name, hint),
		})
		return corrected, hint, infos
	}
	infos = append(infos, TierInfo{
		Tier: TierFallback, Item: item.Name,
		Message: "no generic alternative found",
	})
	return nil, "", infos
}

func applyStrategies(strategies []Strategy, value any) (any, string, bool, string) {
	for _, s := range strategies {
		if corrected, hint, ok := s.Apply(value); ok {
			return corrected, hint, true, s.Name
		}
	}
	return nil, "", false, ""
}

// tierInfoDebugStrings renders tier attempts for the debug trail.
func tierInfoDebugStrings(infos []TierInfo) []string {
	if len(infos) == 0 {
		return nil
	}
	out := make([]string, 0, len(infos)+1)
	out = append(out, "tiered format discovery results:")
	for _, info := range infos {
		status := "FAILED"
		if info.Success {
			status = "SUCCESS"
		}
		out = append(out, fmt.Sprintf("  %s tier %d (%s): [%s] %s",
			status, info.Tier, tierNames[info.Tier], info.Item, info.Message))
	}
	return out
}
