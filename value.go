package flatdict

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a small tagged scalar. It carries declared null values,
// defaults and source rows.
//
// The zero Value has KindInvalid. Absent() is the explicit "use the declared
// null value" marker a source emits for a missing attribute.
type Value struct {
	kind   ValueKind
	absent bool
	bits   uint64
	str    string
}

func UInt8(v uint8) Value     { return Value{kind: KindUInt8, bits: uint64(v)} }
func UInt16(v uint16) Value   { return Value{kind: KindUInt16, bits: uint64(v)} }
func UInt32(v uint32) Value   { return Value{kind: KindUInt32, bits: uint64(v)} }
func UInt64(v uint64) Value   { return Value{kind: KindUInt64, bits: v} }
func Int8(v int8) Value       { return Value{kind: KindInt8, bits: uint64(int64(v))} }
func Int16(v int16) Value     { return Value{kind: KindInt16, bits: uint64(int64(v))} }
func Int32(v int32) Value     { return Value{kind: KindInt32, bits: uint64(int64(v))} }
func Int64(v int64) Value     { return Value{kind: KindInt64, bits: uint64(v)} }
func Float32(v float32) Value { return Value{kind: KindFloat32, bits: uint64(math.Float32bits(v))} }
func Float64(v float64) Value { return Value{kind: KindFloat64, bits: math.Float64bits(v)} }
func String(s string) Value   { return Value{kind: KindString, str: s} }

// Absent returns the marker for an attribute a source row does not supply.
func Absent() Value { return Value{absent: true} }

// ValueOf wraps a typed scalar.
func ValueOf[T Number](v T) Value {
	switch x := any(v).(type) {
	case uint8:
		return UInt8(x)
	case uint16:
		return UInt16(x)
	case uint32:
		return UInt32(x)
	case uint64:
		return UInt64(x)
	case int8:
		return Int8(x)
	case int16:
		return Int16(x)
	case int32:
		return Int32(x)
	case int64:
		return Int64(x)
	case float32:
		return Float32(x)
	case float64:
		return Float64(x)
	}
	return Value{}
}

// zeroValue returns the zero value of kind k.
func zeroValue(k ValueKind) Value { return Value{kind: k} }

// Kind returns the kind of v. Absent values report KindInvalid.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether v is the Absent marker.
func (v Value) IsAbsent() bool { return v.absent }

// AsUint64 returns v as uint64 if it holds an unsigned integer.
func (v Value) AsUint64() (uint64, bool) {
	if !v.kind.IsUnsigned() {
		return 0, false
	}
	return v.bits, true
}

// AsInt64 returns v as int64 if it holds a signed integer.
func (v Value) AsInt64() (int64, bool) {
	if !v.kind.IsSigned() {
		return 0, false
	}
	return int64(v.bits), true
}

// AsFloat64 returns v as float64 if it holds a float.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindFloat32:
		return float64(math.Float32frombits(uint32(v.bits))), true
	case KindFloat64:
		return math.Float64frombits(v.bits), true
	default:
		return 0, false
	}
}

// AsString returns the string value if v holds a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Interface returns v as the Go type backing its kind, or nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindUInt8:
		return uint8(v.bits)
	case KindUInt16:
		return uint16(v.bits)
	case KindUInt32:
		return uint32(v.bits)
	case KindUInt64:
		return v.bits
	case KindInt8:
		return int8(v.bits)
	case KindInt16:
		return int16(v.bits)
	case KindInt32:
		return int32(v.bits)
	case KindInt64:
		return int64(v.bits)
	case KindFloat32:
		return math.Float32frombits(uint32(v.bits))
	case KindFloat64:
		return math.Float64frombits(v.bits)
	case KindString:
		return v.str
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch {
	case v.absent:
		return "<absent>"
	case v.kind == KindString:
		return strconv.Quote(v.str)
	case v.kind.Valid():
		return fmt.Sprint(v.Interface())
	default:
		return "<invalid>"
	}
}

// valueAs converts v to T. The caller guarantees v.Kind() == KindOf[T]().
func valueAs[T Number](v Value) T {
	switch {
	case v.kind == KindFloat32:
		return T(math.Float32frombits(uint32(v.bits)))
	case v.kind == KindFloat64:
		return T(math.Float64frombits(v.bits))
	case v.kind.IsSigned():
		return T(int64(v.bits))
	default:
		return T(v.bits)
	}
}

// ParseValue parses s as a value of kind k. An empty string is not a valid
// number; for KindString s is taken verbatim.
func ParseValue(k ValueKind, s string) (Value, error) {
	switch {
	case k == KindString:
		return String(s), nil
	case k.IsUnsigned():
		u, err := strconv.ParseUint(s, 10, k.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Value{kind: k, bits: u}, nil
	case k.IsSigned():
		i, err := strconv.ParseInt(s, 10, k.Size()*8)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Value{kind: k, bits: uint64(i)}, nil
	case k == KindFloat32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Float32(float32(f)), nil
	case k == KindFloat64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse %s: %w", k, err)
		}
		return Float64(f), nil
	default:
		return Value{}, fmt.Errorf("parse: unsupported kind %s", k)
	}
}
