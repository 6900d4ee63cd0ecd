package flatdict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKind(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "UInt8", KindUInt8.String())
		assert.Equal(t, "Float64", KindFloat64.String())
		assert.Equal(t, "String", KindString.String())
		assert.Equal(t, "Unknown", ValueKind(200).String())
	})

	t.Run("Parse", func(t *testing.T) {
		k, err := ParseValueKind("uint16")
		require.NoError(t, err)
		assert.Equal(t, KindUInt16, k)

		k, err = ParseValueKind("String")
		require.NoError(t, err)
		assert.Equal(t, KindString, k)

		_, err = ParseValueKind("Decimal")
		assert.Error(t, err)
		_, err = ParseValueKind("Invalid")
		assert.Error(t, err)
	})

	t.Run("Classes", func(t *testing.T) {
		assert.True(t, KindUInt64.IsUnsigned())
		assert.False(t, KindInt64.IsUnsigned())
		assert.True(t, KindInt8.IsSigned())
		assert.True(t, KindFloat32.IsFloat())
		assert.True(t, KindFloat32.IsNumeric())
		assert.False(t, KindString.IsNumeric())
		assert.False(t, KindInvalid.Valid())
	})

	t.Run("Size", func(t *testing.T) {
		assert.Equal(t, 1, KindInt8.Size())
		assert.Equal(t, 2, KindUInt16.Size())
		assert.Equal(t, 4, KindFloat32.Size())
		assert.Equal(t, 8, KindInt64.Size())
		assert.Equal(t, 12, KindString.Size())
	})

	t.Run("KindOf", func(t *testing.T) {
		assert.Equal(t, KindUInt8, KindOf[uint8]())
		assert.Equal(t, KindInt32, KindOf[int32]())
		assert.Equal(t, KindFloat64, KindOf[float64]())
	})
}

func TestValue(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		assert.Equal(t, uint8(200), valueAs[uint8](UInt8(200)))
		assert.Equal(t, uint64(math.MaxUint64), valueAs[uint64](UInt64(math.MaxUint64)))
		assert.Equal(t, int8(-5), valueAs[int8](Int8(-5)))
		assert.Equal(t, int64(math.MinInt64), valueAs[int64](Int64(math.MinInt64)))
		assert.Equal(t, float32(1.25), valueAs[float32](Float32(1.25)))
		assert.Equal(t, -2.5, valueAs[float64](Float64(-2.5)))
	})

	t.Run("ValueOf", func(t *testing.T) {
		assert.Equal(t, Int16(-7), ValueOf(int16(-7)))
		assert.Equal(t, Float64(3.5), ValueOf(3.5))
		assert.Equal(t, UInt32(9), ValueOf(uint32(9)))
	})

	t.Run("Accessors", func(t *testing.T) {
		u, ok := UInt16(7).AsUint64()
		assert.True(t, ok)
		assert.Equal(t, uint64(7), u)

		_, ok = Int16(7).AsUint64()
		assert.False(t, ok)

		i, ok := Int32(-3).AsInt64()
		assert.True(t, ok)
		assert.Equal(t, int64(-3), i)

		f, ok := Float32(0.5).AsFloat64()
		assert.True(t, ok)
		assert.Equal(t, 0.5, f)

		s, ok := String("x").AsString()
		assert.True(t, ok)
		assert.Equal(t, "x", s)
	})

	t.Run("Absent", func(t *testing.T) {
		v := Absent()
		assert.True(t, v.IsAbsent())
		assert.Equal(t, KindInvalid, v.Kind())
		assert.Nil(t, v.Interface())
		assert.Equal(t, "<absent>", v.String())
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "1.5", Float64(1.5).String())
		assert.Equal(t, "-3", Int8(-3).String())
		assert.Equal(t, `"a b"`, String("a b").String())
		assert.Equal(t, "<invalid>", Value{}.String())
	})
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		kind  ValueKind
		input string
		want  Value
	}{
		{KindUInt8, "255", UInt8(255)},
		{KindUInt64, "18446744073709551615", UInt64(math.MaxUint64)},
		{KindInt16, "-32768", Int16(math.MinInt16)},
		{KindInt64, "42", Int64(42)},
		{KindFloat32, "0.25", Float32(0.25)},
		{KindFloat64, "1e3", Float64(1000)},
		{KindString, "hello", String("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Errors", func(t *testing.T) {
		_, err := ParseValue(KindUInt8, "256")
		assert.Error(t, err)
		_, err = ParseValue(KindUInt32, "-1")
		assert.Error(t, err)
		_, err = ParseValue(KindInt8, "x")
		assert.Error(t, err)
		_, err = ParseValue(KindFloat64, "")
		assert.Error(t, err)
		_, err = ParseValue(KindInvalid, "1")
		assert.Error(t, err)
	})
}
