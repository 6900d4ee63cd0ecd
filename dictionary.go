package flatdict

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// TypeName is the layout name reported by Dictionary.TypeName.
const TypeName = "Flat"

// State is the terminal state of a dictionary after construction.
type State uint8

const (
	// StateReady means the load completed without error.
	StateReady State = iota + 1
	// StateBroken means construction failed; CreationErr holds the cause.
	StateBroken
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Dictionary is one fully materialized generation of a flat dictionary.
//
// A Dictionary is populated once by New and is immutable afterwards. All
// accessors are safe for concurrent use and never block.
type Dictionary struct {
	name      string
	structure *Structure
	source    Source
	opts      options
	optFns    []Option

	columns   []column
	hierarchy int

	elementCount   int
	bucketCount    int
	bytesAllocated int64
	creationTime   time.Time
	loadDuration   time.Duration

	state State
	err   error

	queries atomic.Uint64
	freed   atomic.Bool
}

// New builds a dictionary by draining src once.
//
// New never fails. A structure, source or resource failure is captured and
// reported by CreationErr; the dictionary is then StateBroken but still
// answers queries against whatever was loaded before the failure.
func New(ctx context.Context, name string, structure *Structure, src Source, opts ...Option) *Dictionary {
	d := &Dictionary{
		name:         name,
		structure:    structure,
		source:       src,
		opts:         applyOptions(opts),
		optFns:       opts,
		hierarchy:    -1,
		creationTime: time.Now(),
	}

	start := time.Now()
	err := d.load(ctx)
	d.loadDuration = time.Since(start)

	if err != nil {
		d.state, d.err = StateBroken, err
	} else {
		d.state = StateReady
	}

	d.opts.logger.LogLoad(ctx, name, d.elementCount, d.bucketCount, d.bytesAllocated, d.loadDuration, err)
	d.opts.metricsCollector.RecordLoad(name, d.elementCount, d.loadDuration, err)

	return d
}

// Name returns the dictionary name.
func (d *Dictionary) Name() string { return d.name }

// TypeName returns the layout name.
func (d *Dictionary) TypeName() string { return TypeName }

// Structure returns the schema. It is nil only if New was given a nil structure.
func (d *Dictionary) Structure() *Structure { return d.structure }

// Source returns the source the dictionary was loaded from.
func (d *Dictionary) Source() Source { return d.source }

// Lifetime returns the configured reload window.
func (d *Dictionary) Lifetime() Lifetime { return d.opts.lifetime }

// State returns StateReady or StateBroken.
func (d *Dictionary) State() State { return d.state }

// CreationErr returns the failure captured during construction, if any.
func (d *Dictionary) CreationErr() error { return d.err }

// CreationTime returns the time construction started.
func (d *Dictionary) CreationTime() time.Time { return d.creationTime }

// ElementCount returns the number of rows loaded.
func (d *Dictionary) ElementCount() int { return d.elementCount }

// BucketCount returns the length of every attribute column.
func (d *Dictionary) BucketCount() int { return d.bucketCount }

// BytesAllocated returns bucketCount times the element size for scalar
// attributes plus the arena bytes of string attributes.
func (d *Dictionary) BytesAllocated() int64 { return d.bytesAllocated }

// LoadFactor returns ElementCount / BucketCount, or 0 for an empty dictionary.
func (d *Dictionary) LoadFactor() float64 {
	if d.bucketCount == 0 {
		return 0
	}
	return float64(d.elementCount) / float64(d.bucketCount)
}

// HitRate is always 1: direct indexing never misses.
func (d *Dictionary) HitRate() float64 { return 1.0 }

// QueryCount returns the number of batched accessor calls served.
func (d *Dictionary) QueryCount() uint64 { return d.queries.Load() }

// IsInjective reports whether the named attribute is declared injective.
func (d *Dictionary) IsInjective(name string) (bool, error) {
	if d.structure == nil {
		return false, fmt.Errorf("%w: %q", ErrAttributeNotFound, name)
	}
	a, err := d.structure.Attribute(name)
	if err != nil {
		return false, err
	}
	return a.Injective, nil
}

// HasHierarchy reports whether the dictionary has a hierarchical attribute.
func (d *Dictionary) HasHierarchy() bool { return d.hierarchy >= 0 }

// Stats is a point-in-time summary of a dictionary.
type Stats struct {
	Name           string
	Type           string
	State          State
	ElementCount   int
	BucketCount    int
	BytesAllocated int64
	LoadFactor     float64
	HitRate        float64
	QueryCount     uint64
	CreationTime   time.Time
	LoadDuration   time.Duration
	Err            error
}

// Stats returns the reporting values in one struct.
func (d *Dictionary) Stats() Stats {
	return Stats{
		Name:           d.name,
		Type:           TypeName,
		State:          d.state,
		ElementCount:   d.elementCount,
		BucketCount:    d.bucketCount,
		BytesAllocated: d.bytesAllocated,
		LoadFactor:     d.LoadFactor(),
		HitRate:        d.HitRate(),
		QueryCount:     d.QueryCount(),
		CreationTime:   d.creationTime,
		LoadDuration:   d.loadDuration,
		Err:            d.err,
	}
}

// Clone returns a deep copy with independently owned columns and arenas.
// The copy keeps the state, statistics and captured error of d; its query
// counter starts at zero.
func (d *Dictionary) Clone() (*Dictionary, error) {
	if d.freed.Load() {
		return nil, ErrFreed
	}

	c := &Dictionary{
		name:           d.name,
		structure:      d.structure,
		source:         d.source,
		opts:           d.opts,
		optFns:         d.optFns,
		hierarchy:      d.hierarchy,
		columns:        make([]column, 0, len(d.columns)),
		elementCount:   d.elementCount,
		bucketCount:    d.bucketCount,
		bytesAllocated: d.bytesAllocated,
		creationTime:   d.creationTime,
		loadDuration:   d.loadDuration,
		state:          d.state,
		err:            d.err,
	}

	for _, col := range d.columns {
		dup, err := col.clone(d.opts.resourceController)
		if err != nil {
			c.Free()
			d.opts.logger.LogClone(context.Background(), d.name, 0, err)
			return nil, fmt.Errorf("clone %q: %w", d.name, err)
		}
		c.columns = append(c.columns, dup)
	}

	d.opts.logger.LogClone(context.Background(), d.name, c.bytesAllocated, nil)
	return c, nil
}

// Reload builds a fresh generation from the same structure, source and
// options. d is left untouched.
func (d *Dictionary) Reload(ctx context.Context) *Dictionary {
	return New(ctx, d.name, d.structure, d.source, d.optFns...)
}

// Free releases columns and arenas and returns their memory to the resource
// controller. The dictionary must not be queried afterwards. Free is idempotent.
func (d *Dictionary) Free() {
	if !d.freed.CompareAndSwap(false, true) {
		return
	}
	for _, col := range d.columns {
		col.free()
	}
	d.bucketCount = 0
	d.opts.logger.LogRetire(context.Background(), d.name, d.bytesAllocated)
}

// load drains the source into freshly built columns.
func (d *Dictionary) load(ctx context.Context) error {
	if d.structure == nil {
		return &StructureError{Reason: "nil structure"}
	}

	attrs := d.structure.attrs
	d.columns = make([]column, len(attrs))
	for i, a := range attrs {
		d.columns[i] = newColumn(a, &d.opts)
	}
	d.hierarchy = d.structure.hierarchical

	if d.source == nil {
		return &SourceError{Dictionary: d.name, cause: errors.New("nil source")}
	}

	rc := d.opts.resourceController
	if err := rc.AcquireLoad(ctx); err != nil {
		return &SourceError{Dictionary: d.name, cause: err}
	}
	defer rc.ReleaseLoad()

	var (
		rows    int
		buckets int
		loadErr error
	)

	for row, err := range d.source.Rows(ctx) {
		if err != nil {
			loadErr = err
			break
		}
		if err := d.insert(row, &buckets); err != nil {
			loadErr = err
			break
		}
		rows++
	}

	if loadErr != nil {
		loadErr = &SourceError{Dictionary: d.name, Rows: rows, cause: loadErr}
	}

	// Partial data stays queryable, so columns are finished on failure too.
	// Every column is at least buckets long here.
	var size int64
	for _, col := range d.columns {
		if err := col.finish(buckets); err != nil && loadErr == nil {
			loadErr = &SourceError{Dictionary: d.name, Rows: rows, cause: err}
		}
		size += col.bytesAllocated()
	}

	d.elementCount = rows
	d.bucketCount = buckets
	d.bytesAllocated = size

	if loadErr == nil && rows == 0 && d.opts.requireNonempty {
		return fmt.Errorf("dictionary %q: %w", d.name, ErrEmptySource)
	}
	return loadErr
}

// insert writes one row. buckets is the current column length.
func (d *Dictionary) insert(row Row, buckets *int) error {
	attrs := d.structure.attrs
	if len(row.Values) != len(attrs) {
		return &RowError{
			ID:     row.ID,
			Reason: fmt.Sprintf("got %d values for %d attributes", len(row.Values), len(attrs)),
		}
	}
	if row.ID >= uint64(d.opts.maxBuckets) {
		return fmt.Errorf("%w: key %d, max buckets %d", ErrKeyTooLarge, row.ID, d.opts.maxBuckets)
	}
	for i, v := range row.Values {
		if !v.IsAbsent() && v.Kind() != attrs[i].Kind {
			return &RowError{
				ID:        row.ID,
				Attribute: attrs[i].Name,
				Reason:    fmt.Sprintf("value kind %s does not match %s", v.Kind(), attrs[i].Kind),
			}
		}
	}

	if n := int(row.ID) + 1; n > *buckets {
		for _, col := range d.columns {
			if err := col.extend(n); err != nil {
				return err
			}
		}
		*buckets = n
	}

	for i, v := range row.Values {
		if err := d.columns[i].set(row.ID, v); err != nil {
			return err
		}
	}
	return nil
}
