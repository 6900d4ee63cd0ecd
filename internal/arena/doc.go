// Package arena provides append-only byte storage for dictionary string payloads.
//
// Bytes are appended into large chunks and addressed by a compact Ref
// (chunk, offset, length). A chunk is never reallocated once created, so a
// Ref stays valid for the lifetime of the arena and strings returned by
// String are zero-copy views into arena memory.
//
// # Concurrency Model
//
// An Arena has a single writer: Append must not run concurrently with any
// other method. Once loading is complete the arena is read-only and Bytes,
// String, Size and Stats may be called from any number of goroutines.
//
// # Ownership
//
// An arena belongs to exactly one dictionary generation. Clone produces an
// independent copy with identical Refs; Free releases the memory reservation
// taken from the MemoryAcquirer.
package arena
