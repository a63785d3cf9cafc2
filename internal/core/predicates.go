package core

// predicates.go holds the built-in validations registered by DefaultRegistry.
//
// Integer checks are strict: only Go integer kinds and json.Number values
// written as base-10 integers qualify. 39.0, "39" and true are not integers.

import (
	"encoding/json"
	"math/big"
	"strings"
)

// NotEmpty passes non-blank strings.
func NotEmpty(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// NotNull passes any present, non-null value.
func NotNull(v any) bool {
	return v != nil
}

// IsInteger passes integral values.
func IsInteger(v any) bool {
	_, ok := toBigInt(v)
	return ok
}

// Positive passes integral values greater than zero.
func Positive(v any) bool {
	n, ok := toBigInt(v)
	return ok && n.Sign() > 0
}

// toBigInt converts integral values to *big.Int so that arbitrarily large
// JSON integers are handled without overflow.
func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case json.Number:
		return new(big.Int).SetString(n.String(), 10)
	default:
		return nil, false
	}
}
