package flatdict

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Accessors resolve each key the same way: a key below the bucket count
// returns the stored value (the declared null value if the bucket was never
// written); any other key returns the call's fallback. Unknown keys are never
// an error.

func (d *Dictionary) column(name string) (column, error) {
	if d.structure != nil {
		if i, ok := d.structure.index[name]; ok && i < len(d.columns) {
			return d.columns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
}

func scalarColumnOf[T Number](d *Dictionary, name string) (*scalarColumn[T], error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	c, ok := col.(*scalarColumn[T])
	if !ok {
		return nil, &TypeMismatchError{Attribute: name, Declared: col.kind(), Requested: KindOf[T]()}
	}
	return c, nil
}

func (d *Dictionary) stringColumnOf(name string) (*stringColumn, error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	c, ok := col.(*stringColumn)
	if !ok {
		return nil, &TypeMismatchError{Attribute: name, Declared: col.kind(), Requested: KindString}
	}
	return c, nil
}

func checkLen(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d elements, want %d", ErrLengthMismatch, what, got, want)
	}
	return nil
}

func (d *Dictionary) recordQuery(keys int) {
	d.queries.Add(1)
	d.opts.metricsCollector.RecordQuery(keys)
}

// Get returns the values of the named attribute for keys, falling back to the
// attribute's declared null value.
func Get[T Number](d *Dictionary, name string, keys []Key) ([]T, error) {
	out := make([]T, len(keys))
	if err := GetInto(d, name, keys, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetInto is Get writing into out, which must be as long as keys.
func GetInto[T Number](d *Dictionary, name string, keys []Key, out []T) error {
	c, err := scalarColumnOf[T](d, name)
	if err != nil {
		return err
	}
	if err := checkLen("output", len(out), len(keys)); err != nil {
		return err
	}
	d.recordQuery(len(keys))

	data, null := c.data, c.null
	n := Key(len(data))
	for i, k := range keys {
		if k < n {
			out[i] = data[k]
		} else {
			out[i] = null
		}
	}
	return nil
}

// GetOrDefault is Get with def as the fallback.
func GetOrDefault[T Number](d *Dictionary, name string, keys []Key, def T) ([]T, error) {
	out := make([]T, len(keys))
	if err := GetOrDefaultInto(d, name, keys, def, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrDefaultInto is GetOrDefault writing into out.
func GetOrDefaultInto[T Number](d *Dictionary, name string, keys []Key, def T, out []T) error {
	c, err := scalarColumnOf[T](d, name)
	if err != nil {
		return err
	}
	if err := checkLen("output", len(out), len(keys)); err != nil {
		return err
	}
	d.recordQuery(len(keys))

	data := c.data
	n := Key(len(data))
	for i, k := range keys {
		if k < n {
			out[i] = data[k]
		} else {
			out[i] = def
		}
	}
	return nil
}

// GetWithDefaults is Get with defaults[i] as the fallback for keys[i].
func GetWithDefaults[T Number](d *Dictionary, name string, keys []Key, defaults []T) ([]T, error) {
	out := make([]T, len(keys))
	if err := GetWithDefaultsInto(d, name, keys, defaults, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWithDefaultsInto is GetWithDefaults writing into out.
func GetWithDefaultsInto[T Number](d *Dictionary, name string, keys []Key, defaults, out []T) error {
	c, err := scalarColumnOf[T](d, name)
	if err != nil {
		return err
	}
	if err := checkLen("defaults", len(defaults), len(keys)); err != nil {
		return err
	}
	if err := checkLen("output", len(out), len(keys)); err != nil {
		return err
	}
	d.recordQuery(len(keys))

	data := c.data
	n := Key(len(data))
	for i, k := range keys {
		if k < n {
			out[i] = data[k]
		} else {
			out[i] = defaults[i]
		}
	}
	return nil
}

// GetStrings returns the values of a String attribute for keys, falling back
// to the declared null value. The strings reference the dictionary's arena
// and stay valid as long as the caller holds the dictionary.
func (d *Dictionary) GetStrings(name string, keys []Key) ([]string, error) {
	c, err := d.stringColumnOf(name)
	if err != nil {
		return nil, err
	}
	d.recordQuery(len(keys))

	out := make([]string, len(keys))
	n := Key(len(c.refs))
	for i, k := range keys {
		if k < n {
			out[i] = c.get(k)
		} else {
			out[i] = c.nullStr
		}
	}
	return out, nil
}

// GetStringsOrDefault is GetStrings with def as the fallback.
func (d *Dictionary) GetStringsOrDefault(name string, keys []Key, def string) ([]string, error) {
	c, err := d.stringColumnOf(name)
	if err != nil {
		return nil, err
	}
	d.recordQuery(len(keys))

	out := make([]string, len(keys))
	n := Key(len(c.refs))
	for i, k := range keys {
		if k < n {
			out[i] = c.get(k)
		} else {
			out[i] = def
		}
	}
	return out, nil
}

// GetStringsWithDefaults is GetStrings with defaults[i] as the fallback for keys[i].
func (d *Dictionary) GetStringsWithDefaults(name string, keys []Key, defaults []string) ([]string, error) {
	c, err := d.stringColumnOf(name)
	if err != nil {
		return nil, err
	}
	if err := checkLen("defaults", len(defaults), len(keys)); err != nil {
		return nil, err
	}
	d.recordQuery(len(keys))

	out := make([]string, len(keys))
	n := Key(len(c.refs))
	for i, k := range keys {
		if k < n {
			out[i] = c.get(k)
		} else {
			out[i] = defaults[i]
		}
	}
	return out, nil
}

// Has reports, per key, whether the key is below the bucket count.
//
// A bucket that was never written holds the null value and still reports
// true: the flat layout cannot tell an explicit null from an absent key.
func (d *Dictionary) Has(keys []Key) []bool {
	d.recordQuery(len(keys))

	out := make([]bool, len(keys))
	n := Key(d.bucketCount)
	for i, k := range keys {
		out[i] = k < n
	}
	return out
}

// HasBitmap is Has returning the positions i for which Has is true.
func (d *Dictionary) HasBitmap(keys []Key) *roaring.Bitmap {
	d.recordQuery(len(keys))

	bm := roaring.New()
	n := Key(d.bucketCount)
	for i, k := range keys {
		if k < n {
			bm.Add(uint32(i))
		}
	}
	return bm
}

type unsigned interface {
	uint8 | uint16 | uint32 | uint64
}

func parentsInto[T unsigned](c *scalarColumn[T], keys, out []Key) {
	data, null := c.data, Key(c.null)
	n := Key(len(data))
	for i, k := range keys {
		if k < n {
			out[i] = Key(data[k])
		} else {
			out[i] = null
		}
	}
}

// ToParent returns the parent key of every key, falling back to the
// hierarchical attribute's null value. It does not walk the chain.
func (d *Dictionary) ToParent(keys []Key) ([]Key, error) {
	out := make([]Key, len(keys))
	if err := d.ToParentInto(keys, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToParentInto is ToParent writing into out.
func (d *Dictionary) ToParentInto(keys, out []Key) error {
	if d.hierarchy < 0 || d.hierarchy >= len(d.columns) {
		return ErrNoHierarchy
	}
	if err := checkLen("output", len(out), len(keys)); err != nil {
		return err
	}
	d.recordQuery(len(keys))

	switch c := d.columns[d.hierarchy].(type) {
	case *scalarColumn[uint8]:
		parentsInto(c, keys, out)
	case *scalarColumn[uint16]:
		parentsInto(c, keys, out)
	case *scalarColumn[uint32]:
		parentsInto(c, keys, out)
	case *scalarColumn[uint64]:
		parentsInto(c, keys, out)
	default:
		return &TypeMismatchError{Attribute: d.structure.attrs[d.hierarchy].Name, Declared: c.kind(), Requested: KindUInt64}
	}
	return nil
}

func parentFunc[T unsigned](c *scalarColumn[T]) func(Key) Key {
	data, null := c.data, Key(c.null)
	return func(k Key) Key {
		if k < Key(len(data)) {
			return Key(data[k])
		}
		return null
	}
}

// Ancestors walks the parent chain of id and returns the ancestors nearest
// first. The walk stops at a self-parent or at the null parent. A chain
// longer than maxDepth returns the ancestors found so far and
// ErrHierarchyTooDeep.
func (d *Dictionary) Ancestors(id Key, maxDepth int) ([]Key, error) {
	if d.hierarchy < 0 || d.hierarchy >= len(d.columns) {
		return nil, ErrNoHierarchy
	}
	d.recordQuery(1)

	var (
		parent func(Key) Key
		null   Key
	)
	switch c := d.columns[d.hierarchy].(type) {
	case *scalarColumn[uint8]:
		parent, null = parentFunc(c), Key(c.null)
	case *scalarColumn[uint16]:
		parent, null = parentFunc(c), Key(c.null)
	case *scalarColumn[uint32]:
		parent, null = parentFunc(c), Key(c.null)
	case *scalarColumn[uint64]:
		parent, null = parentFunc(c), c.null
	default:
		return nil, ErrNoHierarchy
	}

	var chain []Key
	for cur := id; ; {
		p := parent(cur)
		if p == cur || p == null {
			return chain, nil
		}
		if len(chain) >= maxDepth {
			return chain, fmt.Errorf("%w: key %d exceeds depth %d", ErrHierarchyTooDeep, id, maxDepth)
		}
		chain = append(chain, p)
		cur = p
	}
}
