package flatdict

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructure(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s, err := NewStructure("",
			AttributeDescriptor{Name: "parent", Kind: KindUInt64, Hierarchical: true},
			AttributeDescriptor{Name: "name", Kind: KindString, NullValue: String("unknown"), Injective: true},
			AttributeDescriptor{Name: "weight", Kind: KindFloat64},
		)
		require.NoError(t, err)

		assert.Equal(t, "id", s.Key())
		assert.Equal(t, 3, s.Len())

		h, ok := s.Hierarchical()
		require.True(t, ok)
		assert.Equal(t, "parent", h.Name)

		w, err := s.Attribute("weight")
		require.NoError(t, err)
		assert.Equal(t, Float64(0), w.NullValue)

		i, ok := s.Index("name")
		assert.True(t, ok)
		assert.Equal(t, 1, i)

		attrs := s.Attributes()
		attrs[0].Name = "changed"
		a, err := s.Attribute("parent")
		require.NoError(t, err)
		assert.Equal(t, "parent", a.Name)
	})

	t.Run("ExactLookup", func(t *testing.T) {
		s, err := NewStructure("id", AttributeDescriptor{Name: "weight", Kind: KindFloat64})
		require.NoError(t, err)

		for _, name := range []string{"Weight", " weight", "weight ", "WEIGHT"} {
			_, err := s.Attribute(name)
			assert.ErrorIs(t, err, ErrAttributeNotFound, name)
		}
	})

	t.Run("NoHierarchy", func(t *testing.T) {
		s, err := NewStructure("id", AttributeDescriptor{Name: "a", Kind: KindInt32})
		require.NoError(t, err)
		_, ok := s.Hierarchical()
		assert.False(t, ok)
	})

	invalid := []struct {
		name  string
		attrs []AttributeDescriptor
	}{
		{"Empty", nil},
		{"NoName", []AttributeDescriptor{{Kind: KindUInt8}}},
		{"Duplicate", []AttributeDescriptor{
			{Name: "a", Kind: KindUInt8},
			{Name: "a", Kind: KindUInt16},
		}},
		{"InvalidKind", []AttributeDescriptor{{Name: "a"}}},
		{"TwoHierarchical", []AttributeDescriptor{
			{Name: "p1", Kind: KindUInt64, Hierarchical: true},
			{Name: "p2", Kind: KindUInt64, Hierarchical: true},
		}},
		{"SignedHierarchical", []AttributeDescriptor{{Name: "p", Kind: KindInt64, Hierarchical: true}}},
		{"StringHierarchical", []AttributeDescriptor{{Name: "p", Kind: KindString, Hierarchical: true}}},
		{"NullKindMismatch", []AttributeDescriptor{{Name: "a", Kind: KindFloat64, NullValue: Float32(1)}}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStructure("id", tt.attrs...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidStructure)

			var se *StructureError
			assert.True(t, errors.As(err, &se))
		})
	}
}
