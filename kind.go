package flatdict

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/hupe1980/flatdict/internal/arena"
)

// Key is a dictionary key. Keys are expected to be dense and small enough
// that direct array indexing by key is cheaper than hashing.
type Key = uint64

// ValueKind identifies the concrete element type stored by an attribute.
type ValueKind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid ValueKind = iota
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
)

var kindNames = [...]string{
	KindInvalid: "Invalid",
	KindUInt8:   "UInt8",
	KindUInt16:  "UInt16",
	KindUInt32:  "UInt32",
	KindUInt64:  "UInt64",
	KindInt8:    "Int8",
	KindInt16:   "Int16",
	KindInt32:   "Int32",
	KindInt64:   "Int64",
	KindFloat32: "Float32",
	KindFloat64: "Float64",
	KindString:  "String",
}

// String returns the string representation of the ValueKind.
func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseValueKind parses a kind name such as "UInt64" or "float32".
// Matching is case-insensitive.
func ParseValueKind(s string) (ValueKind, error) {
	for k := KindUInt8; k <= KindString; k++ {
		if strings.EqualFold(s, kindNames[k]) {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", s)
}

// Valid reports whether k is one of the supported kinds.
func (k ValueKind) Valid() bool {
	return k >= KindUInt8 && k <= KindString
}

// IsUnsigned reports whether k is an unsigned integer kind.
func (k ValueKind) IsUnsigned() bool {
	return k >= KindUInt8 && k <= KindUInt64
}

// IsSigned reports whether k is a signed integer kind.
func (k ValueKind) IsSigned() bool {
	return k >= KindInt8 && k <= KindInt64
}

// IsFloat reports whether k is a floating-point kind.
func (k ValueKind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// IsNumeric reports whether k is any scalar kind.
func (k ValueKind) IsNumeric() bool {
	return k >= KindUInt8 && k <= KindFloat64
}

// Size returns the size in bytes of one stored element of kind k.
// For strings this is the size of the arena reference.
func (k ValueKind) Size() int {
	switch k {
	case KindUInt8, KindInt8:
		return 1
	case KindUInt16, KindInt16:
		return 2
	case KindUInt32, KindInt32, KindFloat32:
		return 4
	case KindUInt64, KindInt64, KindFloat64:
		return 8
	case KindString:
		return int(unsafe.Sizeof(arena.Ref{}))
	default:
		return 0
	}
}

// Number is the set of Go types that back the scalar value kinds.
type Number interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64 | float32 | float64
}

// KindOf returns the ValueKind backed by T.
func KindOf[T Number]() ValueKind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUInt8
	case uint16:
		return KindUInt16
	case uint32:
		return KindUInt32
	case uint64:
		return KindUInt64
	case int8:
		return KindInt8
	case int16:
		return KindInt16
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	}
	return KindInvalid
}
