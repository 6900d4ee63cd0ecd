package flatdict

import (
	"errors"
	"fmt"

	"github.com/hupe1980/flatdict/internal/arena"
	"github.com/hupe1980/flatdict/resource"
)

// column is the storage of one attribute: a dense array indexed by key.
//
// Exactly two implementations exist: *scalarColumn[T] for the numeric kinds
// and *stringColumn. Accessors type-assert once per call and then loop over
// the concrete slice.
type column interface {
	kind() ValueKind
	len() int
	// extend grows the column to at least n buckets, filling new buckets
	// with the null value.
	extend(n int) error
	set(key Key, v Value) error
	// finish sets the final bucket count and releases spare capacity.
	finish(n int) error
	bytesAllocated() int64
	clone(rc *resource.Controller) (column, error)
	free()
}

// memoryAccount tracks bytes reserved from a resource.Controller.
type memoryAccount struct {
	rc       *resource.Controller
	reserved int64
}

func (m *memoryAccount) reserve(n int64) error {
	if n <= 0 {
		return nil
	}
	if !m.rc.TryAcquireMemory(n) {
		return fmt.Errorf("%w: reserving %d bytes", ErrMemoryLimitExceeded, n)
	}
	m.reserved += n
	return nil
}

func (m *memoryAccount) release(n int64) {
	if n <= 0 {
		return
	}
	m.rc.ReleaseMemory(n)
	m.reserved -= n
}

func (m *memoryAccount) releaseAll() { m.release(m.reserved) }

// growCap returns the capacity for a slice that must hold n elements.
func growCap(cur, n, initial int) int {
	c := max(cur*2, initial)
	return max(c, n)
}

type scalarColumn[T Number] struct {
	k       ValueKind
	null    T
	data    []T
	initial int
	mem     memoryAccount
}

func newScalarColumn[T Number](d AttributeDescriptor, initial int, rc *resource.Controller) *scalarColumn[T] {
	return &scalarColumn[T]{
		k:       d.Kind,
		null:    valueAs[T](d.NullValue),
		initial: initial,
		mem:     memoryAccount{rc: rc},
	}
}

func (c *scalarColumn[T]) kind() ValueKind { return c.k }
func (c *scalarColumn[T]) len() int        { return len(c.data) }

func (c *scalarColumn[T]) extend(n int) error {
	old := len(c.data)
	if n <= old {
		return nil
	}
	if n > cap(c.data) {
		newCap := growCap(cap(c.data), n, c.initial)
		if err := c.mem.reserve(int64(newCap-cap(c.data)) * int64(c.k.Size())); err != nil {
			return err
		}
		grown := make([]T, n, newCap)
		copy(grown, c.data)
		c.data = grown
	} else {
		c.data = c.data[:n]
	}
	for i := old; i < n; i++ {
		c.data[i] = c.null
	}
	return nil
}

func (c *scalarColumn[T]) set(key Key, v Value) error {
	if v.IsAbsent() {
		c.data[key] = c.null
		return nil
	}
	c.data[key] = valueAs[T](v)
	return nil
}

func (c *scalarColumn[T]) finish(n int) error {
	if n > len(c.data) {
		if err := c.extend(n); err != nil {
			return err
		}
	}
	c.data = c.data[:n]
	if spare := cap(c.data) - n; spare > 0 {
		tight := make([]T, n)
		copy(tight, c.data)
		c.data = tight
		c.mem.release(int64(spare) * int64(c.k.Size()))
	}
	return nil
}

func (c *scalarColumn[T]) bytesAllocated() int64 {
	return int64(len(c.data)) * int64(c.k.Size())
}

func (c *scalarColumn[T]) clone(rc *resource.Controller) (column, error) {
	dup := &scalarColumn[T]{
		k:       c.k,
		null:    c.null,
		initial: c.initial,
		mem:     memoryAccount{rc: rc},
	}
	if err := dup.mem.reserve(int64(len(c.data)) * int64(c.k.Size())); err != nil {
		return nil, err
	}
	dup.data = make([]T, len(c.data))
	copy(dup.data, c.data)
	return dup, nil
}

func (c *scalarColumn[T]) free() {
	c.data = nil
	c.mem.releaseAll()
}

// stringColumn stores references into a private arena. Unwritten buckets
// reference the null value, which is appended to the arena first.
type stringColumn struct {
	nullStr string
	null    arena.Ref
	hasNull bool
	refs    []arena.Ref
	arena   *arena.Arena
	initial int
	mem     memoryAccount
}

var refSize = int64(KindString.Size())

func newStringColumn(d AttributeDescriptor, initial, chunkSize int, rc *resource.Controller) *stringColumn {
	var opts []arena.Option
	if rc != nil {
		opts = append(opts, arena.WithMemoryAcquirer(rc))
	}
	s, _ := d.NullValue.AsString()
	return &stringColumn{
		nullStr: s,
		arena:   arena.New(chunkSize, opts...),
		initial: initial,
		mem:     memoryAccount{rc: rc},
	}
}

func arenaErr(err error) error {
	if errors.Is(err, arena.ErrAllocationFailed) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	return err
}

func (c *stringColumn) kind() ValueKind { return KindString }
func (c *stringColumn) len() int        { return len(c.refs) }

func (c *stringColumn) extend(n int) error {
	old := len(c.refs)
	if n <= old {
		return nil
	}
	if !c.hasNull {
		ref, err := c.arena.AppendString(c.nullStr)
		if err != nil {
			return arenaErr(err)
		}
		c.null, c.hasNull = ref, true
	}
	if n > cap(c.refs) {
		newCap := growCap(cap(c.refs), n, c.initial)
		if err := c.mem.reserve(int64(newCap-cap(c.refs)) * refSize); err != nil {
			return err
		}
		grown := make([]arena.Ref, n, newCap)
		copy(grown, c.refs)
		c.refs = grown
	} else {
		c.refs = c.refs[:n]
	}
	for i := old; i < n; i++ {
		c.refs[i] = c.null
	}
	return nil
}

func (c *stringColumn) set(key Key, v Value) error {
	if v.IsAbsent() {
		c.refs[key] = c.null
		return nil
	}
	ref, err := c.arena.AppendString(v.str)
	if err != nil {
		return arenaErr(err)
	}
	c.refs[key] = ref
	return nil
}

func (c *stringColumn) finish(n int) error {
	if n > len(c.refs) {
		if err := c.extend(n); err != nil {
			return err
		}
	}
	c.refs = c.refs[:n]
	if spare := cap(c.refs) - n; spare > 0 {
		tight := make([]arena.Ref, n)
		copy(tight, c.refs)
		c.refs = tight
		c.mem.release(int64(spare) * refSize)
	}
	return nil
}

// bytesAllocated reports the arena payload bytes.
func (c *stringColumn) bytesAllocated() int64 { return c.arena.Size() }

func (c *stringColumn) clone(rc *resource.Controller) (column, error) {
	dup := &stringColumn{
		nullStr: c.nullStr,
		null:    c.null,
		hasNull: c.hasNull,
		initial: c.initial,
		mem:     memoryAccount{rc: rc},
	}
	if err := dup.mem.reserve(int64(len(c.refs)) * refSize); err != nil {
		return nil, err
	}
	a, err := c.arena.Clone()
	if err != nil {
		dup.mem.releaseAll()
		return nil, arenaErr(err)
	}
	dup.arena = a
	dup.refs = make([]arena.Ref, len(c.refs))
	copy(dup.refs, c.refs)
	return dup, nil
}

func (c *stringColumn) free() {
	c.refs = nil
	c.arena.Free()
	c.mem.releaseAll()
}

// get returns the string stored for key without copying.
func (c *stringColumn) get(key Key) string { return c.arena.String(c.refs[key]) }

// newColumn builds the empty column for d. d has been validated by NewStructure.
func newColumn(d AttributeDescriptor, o *options) column {
	rc := o.resourceController
	n := o.initialBuckets
	switch d.Kind {
	case KindUInt8:
		return newScalarColumn[uint8](d, n, rc)
	case KindUInt16:
		return newScalarColumn[uint16](d, n, rc)
	case KindUInt32:
		return newScalarColumn[uint32](d, n, rc)
	case KindUInt64:
		return newScalarColumn[uint64](d, n, rc)
	case KindInt8:
		return newScalarColumn[int8](d, n, rc)
	case KindInt16:
		return newScalarColumn[int16](d, n, rc)
	case KindInt32:
		return newScalarColumn[int32](d, n, rc)
	case KindInt64:
		return newScalarColumn[int64](d, n, rc)
	case KindFloat32:
		return newScalarColumn[float32](d, n, rc)
	case KindFloat64:
		return newScalarColumn[float64](d, n, rc)
	case KindString:
		return newStringColumn(d, n, o.arenaChunkSize, rc)
	default:
		panic(fmt.Sprintf("flatdict: unsupported kind %s", d.Kind))
	}
}
