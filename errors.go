package flatdict

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStructure is wrapped by every *StructureError.
	ErrInvalidStructure = errors.New("invalid dictionary structure")

	// ErrAttributeNotFound is returned when an accessor names an unknown attribute.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrTypeMismatch is wrapped by every *TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEmptySource is captured when a source yields no rows and the
	// dictionary requires a non-empty source.
	ErrEmptySource = errors.New("dictionary source is empty")

	// ErrLengthMismatch is returned when a per-key defaults slice or output
	// buffer is not aligned with the keys.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNoHierarchy is returned by hierarchy accessors on a dictionary
	// without a hierarchical attribute.
	ErrNoHierarchy = errors.New("dictionary has no hierarchical attribute")

	// ErrHierarchyTooDeep is returned by Ancestors when the chain is longer
	// than the requested depth, which usually indicates a cycle.
	ErrHierarchyTooDeep = errors.New("hierarchy too deep")

	// ErrKeyTooLarge is captured when a source yields a key beyond the
	// configured maximum bucket count.
	ErrKeyTooLarge = errors.New("key too large for flat layout")

	// ErrMemoryLimitExceeded is captured when column or arena memory cannot
	// be reserved from the resource controller.
	ErrMemoryLimitExceeded = errors.New("dictionary memory limit exceeded")

	// ErrFreed is returned when cloning or reloading a freed dictionary.
	ErrFreed = errors.New("dictionary freed")

	// ErrClosed is returned when acquiring from a closed handle.
	ErrClosed = errors.New("handle closed")

	// ErrNotReady is returned when a handle has no published generation.
	ErrNotReady = errors.New("no generation published")
)

// StructureError describes why a structure was rejected.
//
// errors.Is(err, ErrInvalidStructure) holds for every StructureError.
type StructureError struct {
	Attribute string
	Reason    string
}

func (e *StructureError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("invalid dictionary structure: %s", e.Reason)
	}
	return fmt.Sprintf("invalid dictionary structure: attribute %q: %s", e.Attribute, e.Reason)
}

func (e *StructureError) Unwrap() error { return ErrInvalidStructure }

// TypeMismatchError indicates that an accessor requested an attribute through
// a type that does not match its declared kind.
type TypeMismatchError struct {
	Attribute string
	Declared  ValueKind
	Requested ValueKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: attribute %q is %s, requested %s", e.Attribute, e.Declared, e.Requested)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// SourceError wraps a failure raised while draining a source.
//
// The underlying error can be accessed via errors.Unwrap.
type SourceError struct {
	Dictionary string
	Rows       int // rows loaded before the failure
	cause      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("dictionary %q: source failed after %d rows: %v", e.Dictionary, e.Rows, e.cause)
}

func (e *SourceError) Unwrap() error { return e.cause }

// RowError indicates a source row that does not match the structure.
type RowError struct {
	ID        Key
	Attribute string
	Reason    string
}

func (e *RowError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("row %d: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("row %d: attribute %q: %s", e.ID, e.Attribute, e.Reason)
}
