package flatdict

import "fmt"

// AttributeDescriptor declares one dictionary attribute.
type AttributeDescriptor struct {
	Name string
	Kind ValueKind
	// NullValue is returned for keys that were never written. The zero Value
	// (or Absent) means the zero value of Kind.
	NullValue Value
	// Hierarchical marks the attribute holding each key's parent key.
	Hierarchical bool
	// Injective marks an attribute whose values are unique per key.
	Injective bool
}

// Structure is the immutable schema of a dictionary.
type Structure struct {
	key          string
	attrs        []AttributeDescriptor
	index        map[string]int
	hierarchical int
}

// NewStructure validates attrs and returns a Structure. key names the key
// column and defaults to "id".
//
// It returns a *StructureError when names are empty or duplicated, more than
// one attribute is hierarchical, the hierarchical attribute is not an unsigned
// integer, or a NullValue does not match its attribute's kind.
func NewStructure(key string, attrs ...AttributeDescriptor) (*Structure, error) {
	if key == "" {
		key = "id"
	}
	if len(attrs) == 0 {
		return nil, &StructureError{Reason: "no attributes"}
	}

	s := &Structure{
		key:          key,
		attrs:        make([]AttributeDescriptor, len(attrs)),
		index:        make(map[string]int, len(attrs)),
		hierarchical: -1,
	}

	for i, a := range attrs {
		if a.Name == "" {
			return nil, &StructureError{Reason: fmt.Sprintf("attribute %d has no name", i)}
		}
		if _, dup := s.index[a.Name]; dup {
			return nil, &StructureError{Attribute: a.Name, Reason: "duplicate name"}
		}
		if !a.Kind.Valid() {
			return nil, &StructureError{Attribute: a.Name, Reason: fmt.Sprintf("invalid kind %s", a.Kind)}
		}

		switch {
		case a.NullValue.IsAbsent() || a.NullValue.Kind() == KindInvalid:
			a.NullValue = zeroValue(a.Kind)
		case a.NullValue.Kind() != a.Kind:
			return nil, &StructureError{
				Attribute: a.Name,
				Reason:    fmt.Sprintf("null value kind %s does not match %s", a.NullValue.Kind(), a.Kind),
			}
		}

		if a.Hierarchical {
			if s.hierarchical >= 0 {
				return nil, &StructureError{
					Attribute: a.Name,
					Reason:    fmt.Sprintf("%q is already hierarchical", attrs[s.hierarchical].Name),
				}
			}
			if !a.Kind.IsUnsigned() {
				return nil, &StructureError{Attribute: a.Name, Reason: "hierarchical attribute must be an unsigned integer"}
			}
			s.hierarchical = i
		}

		s.attrs[i] = a
		s.index[a.Name] = i
	}

	return s, nil
}

// Key returns the key column name.
func (s *Structure) Key() string { return s.key }

// Len returns the number of attributes.
func (s *Structure) Len() int { return len(s.attrs) }

// Attributes returns a copy of the attribute descriptors in declaration order.
func (s *Structure) Attributes() []AttributeDescriptor {
	out := make([]AttributeDescriptor, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Attribute looks up an attribute by exact name.
func (s *Structure) Attribute(name string) (AttributeDescriptor, error) {
	i, ok := s.index[name]
	if !ok {
		return AttributeDescriptor{}, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
	}
	return s.attrs[i], nil
}

// Index returns the position of the named attribute.
func (s *Structure) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Hierarchical returns the hierarchical attribute, if any.
func (s *Structure) Hierarchical() (AttributeDescriptor, bool) {
	if s.hierarchical < 0 {
		return AttributeDescriptor{}, false
	}
	return s.attrs[s.hierarchical], true
}
