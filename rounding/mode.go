// Package rounding converts exact values to IEEE 754 binary64 and binary32
// and to integral types under a directed rounding mode.
//
// Every decision is made with exact rational arithmetic. A Value wraps one
// source (a rational or a continued fraction) and caches every conversion
// it has performed, deriving other results from them where the rounding
// rules allow it.
package rounding

import (
	"strings"

	"github.com/lattice-substrate/exactcf/cferr"
)

// Mode is a rounding direction.
type Mode int

// Rounding modes.
const (
	Floor   Mode = iota // toward -inf
	Nearest             // to nearest, ties to even
	Ceiling             // toward +inf
)

var modeNames = [...]string{Floor: "floor", Nearest: "nearest", Ceiling: "ceiling"}

// Modes lists every rounding mode.
var Modes = []Mode{Floor, Nearest, Ceiling}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "Mode(?)"
	}
	return modeNames[m]
}

// ParseMode parses a mode name. "ceil", "half-even" and "even" are accepted
// as aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor":
		return Floor, nil
	case "nearest", "half-even", "even":
		return Nearest, nil
	case "ceiling", "ceil":
		return Ceiling, nil
	}
	return 0, cferr.Newf(cferr.Domain, "unknown rounding mode %q", s)
}

// Kind is a target type.
type Kind int

// Target kinds. Int64 through Int8 saturate at the bounds of their range.
const (
	Float64 Kind = iota
	Float32
	Int64
	Int32
	Int16
	Int8
	BigInt
)

const numKinds = int(BigInt) + 1

var kindNames = [numKinds]string{"float64", "float32", "int64", "int32", "int16", "int8", "bigint"}

// Kinds lists every target kind.
var Kinds = []Kind{Float64, Float32, Int64, Int32, Int16, Int8, BigInt}

func (k Kind) String() string {
	if k < 0 || int(k) >= numKinds {
		return "Kind(?)"
	}
	return kindNames[k]
}

// IsFloat reports whether k is a floating-point kind.
func (k Kind) IsFloat() bool {
	return k == Float64 || k == Float32
}

// ParseKind parses a kind name. The C-style names double, float, long, int,
// short and byte are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float64", "double":
		return Float64, nil
	case "float32", "float":
		return Float32, nil
	case "int64", "long":
		return Int64, nil
	case "int32", "int":
		return Int32, nil
	case "int16", "short":
		return Int16, nil
	case "int8", "byte":
		return Int8, nil
	case "bigint":
		return BigInt, nil
	}
	return 0, cferr.Newf(cferr.Domain, "unknown target kind %q", s)
}
