package discovery

import (
	"brpbridge/internal/brp"
)

// Error codes the BRP server uses for payload shape mismatches. Only
// these two codes are ever treated as recoverable; everything else is
// passed through untouched.
const (
	ComponentFormatErrorCode = -23402
	ResourceFormatErrorCode  = -23501
)

// formatDiscoveryMethods is the fixed allowlist of methods whose payloads
// the engine knows how to repair.
var formatDiscoveryMethods = map[string]bool{
	brp.MethodSpawn:           true,
	brp.MethodInsert:          true,
	brp.MethodMutateComponent: true,
	brp.MethodInsertResource:  true,
	brp.MethodMutateResource:  true,
}

// IsTypeFormatError reports whether the error carries one of the two
// recognized type-format error codes.
func IsTypeFormatError(err *brp.Error) bool {
	return err != nil &&
		(err.Code == ComponentFormatErrorCode || err.Code == ResourceFormatErrorCode)
}

// NeedsFormatDiscovery returns the error iff the result is a type-format
// error on an eligible method. Pure predicate, no side effects.
func NeedsFormatDiscovery(result *brp.Result, method string) *brp.Error {
	if result == nil || !result.IsError() {
		return nil
	}
	if formatDiscoveryMethods[method] && IsTypeFormatError(result.Err) {
		return result.Err
	}
	return nil
}
