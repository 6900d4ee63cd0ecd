package arena

import (
	"errors"
	"math"
	"unsafe"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	TryAcquireMemory(amount int64) bool
	ReleaseMemory(amount int64)
}

var (
	// ErrAllocationFailed is returned when the memory acquirer rejects a chunk.
	ErrAllocationFailed = errors.New("arena: allocation failed")
	// ErrTooLarge is returned when a single payload does not fit into a Ref.
	ErrTooLarge = errors.New("arena: payload too large")
	// ErrFreed is returned when appending to a freed arena.
	ErrFreed = errors.New("arena: freed")
)

const (
	// DefaultChunkSize is the default size of a chunk (64KB).
	DefaultChunkSize = 64 * 1024
	// MaxChunks limits the number of chunks addressable by a Ref.
	MaxChunks = math.MaxUint32
)

// Stats tracks arena memory usage metrics.
type Stats struct {
	ChunksAllocated uint64 // chunks currently held
	BytesReserved   uint64 // capacity of all chunks
	BytesUsed       uint64 // bytes appended
	TotalAllocs     uint64 // non-empty appends
}

// Ref addresses a payload stored in an Arena.
// The zero Ref is the empty payload.
type Ref struct {
	Chunk  uint32
	Offset uint32
	Len    uint32
}

// IsEmpty reports whether r addresses zero bytes.
func (r Ref) IsEmpty() bool { return r.Len == 0 }

// Arena is an append-only byte arena.
type Arena struct {
	chunkSize int
	chunks    [][]byte
	reserved  int64
	used      int64
	allocs    uint64
	freed     bool
	acquirer  MemoryAcquirer
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithMemoryAcquirer sets the memory acquirer for the arena.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// New creates a new Arena with the given chunk size.
// No memory is reserved until the first non-empty Append.
func New(chunkSize int, opts ...Option) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	a := &Arena{
		chunkSize: chunkSize,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Append copies b into the arena and returns its Ref.
func (a *Arena) Append(b []byte) (Ref, error) {
	idx, err := a.reserve(len(b))
	if err != nil || idx < 0 {
		return Ref{}, err
	}
	off := len(a.chunks[idx])
	// reserve guarantees capacity; append never reallocates the chunk.
	a.chunks[idx] = append(a.chunks[idx], b...)
	return a.commit(idx, off, len(b)), nil
}

// AppendString copies s into the arena and returns its Ref.
func (a *Arena) AppendString(s string) (Ref, error) {
	idx, err := a.reserve(len(s))
	if err != nil || idx < 0 {
		return Ref{}, err
	}
	off := len(a.chunks[idx])
	a.chunks[idx] = append(a.chunks[idx], s...)
	return a.commit(idx, off, len(s)), nil
}

// reserve returns the index of a chunk with room for size bytes,
// or -1 for an empty payload.
func (a *Arena) reserve(size int) (int, error) {
	if a.freed {
		return -1, ErrFreed
	}
	if size == 0 {
		return -1, nil
	}
	if uint64(size) > math.MaxUint32 {
		return -1, ErrTooLarge
	}

	idx := len(a.chunks) - 1
	if idx < 0 || cap(a.chunks[idx])-len(a.chunks[idx]) < size {
		if err := a.allocateChunk(size); err != nil {
			return -1, err
		}
		idx = len(a.chunks) - 1
	}
	return idx, nil
}

func (a *Arena) commit(idx, off, size int) Ref {
	a.used += int64(size)
	a.allocs++
	return Ref{Chunk: uint32(idx), Offset: uint32(off), Len: uint32(size)}
}

func (a *Arena) allocateChunk(minSize int) error {
	if uint64(len(a.chunks)) >= MaxChunks {
		return ErrAllocationFailed
	}

	size := a.chunkSize
	if minSize > size {
		// Oversized payloads get a dedicated chunk.
		size = minSize
	}

	if a.acquirer != nil && !a.acquirer.TryAcquireMemory(int64(size)) {
		return ErrAllocationFailed
	}

	a.chunks = append(a.chunks, make([]byte, 0, size))
	a.reserved += int64(size)
	return nil
}

// Bytes returns the payload addressed by r.
// The returned slice must not be modified.
func (a *Arena) Bytes(r Ref) []byte {
	if r.Len == 0 || int(r.Chunk) >= len(a.chunks) {
		return nil
	}
	end := r.Offset + r.Len
	return a.chunks[r.Chunk][r.Offset:end:end]
}

// String returns the payload addressed by r as a string without copying.
// Arena bytes are never mutated after they are appended, so the string stays
// valid even after Free.
func (a *Arena) String(r Ref) string {
	b := a.Bytes(r)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Size returns the number of payload bytes appended.
func (a *Arena) Size() int64 {
	return a.used
}

// Reserved returns the capacity of all chunks in bytes.
func (a *Arena) Reserved() int64 {
	return a.reserved
}

// Stats returns the current memory usage statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		ChunksAllocated: uint64(len(a.chunks)),
		BytesReserved:   uint64(a.reserved),
		BytesUsed:       uint64(a.used),
		TotalAllocs:     a.allocs,
	}
}

// Clone returns an independent copy of the arena. Every Ref valid for a is
// valid for the clone. Chunks are copied tightly, so the clone cannot be
// appended to without allocating a new chunk.
func (a *Arena) Clone() (*Arena, error) {
	if a.freed {
		return nil, ErrFreed
	}

	c := &Arena{
		chunkSize: a.chunkSize,
		chunks:    make([][]byte, 0, len(a.chunks)),
		acquirer:  a.acquirer,
		used:      a.used,
		allocs:    a.allocs,
	}

	if c.acquirer != nil && !c.acquirer.TryAcquireMemory(a.used) {
		return nil, ErrAllocationFailed
	}
	c.reserved = a.used

	for _, chunk := range a.chunks {
		dup := make([]byte, len(chunk))
		copy(dup, chunk)
		c.chunks = append(c.chunks, dup)
	}

	return c, nil
}

// Free drops all chunks and returns the reservation to the memory acquirer.
// It is idempotent.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	a.freed = true
	if a.acquirer != nil {
		a.acquirer.ReleaseMemory(a.reserved)
	}
	a.chunks = nil
	a.reserved = 0
}
