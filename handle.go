package flatdict

import (
	"context"
	"sync"
	"sync/atomic"
)

// generation is one published Dictionary with a reference count. The handle
// holds one reference while the generation is current; every Lease holds
// another. The dictionary is freed when the count reaches zero.
type generation struct {
	dict *Dictionary
	refs int64
}

func newGeneration(d *Dictionary) *generation {
	return &generation{dict: d, refs: 1}
}

// tryIncRef fails once the generation has been retired.
func (g *generation) tryIncRef() bool {
	for {
		refs := atomic.LoadInt64(&g.refs)
		if refs <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt64(&g.refs, refs, refs+1) {
			return true
		}
	}
}

func (g *generation) decRef() {
	if atomic.AddInt64(&g.refs, -1) == 0 {
		g.dict.Free()
	}
}

// Lease pins one generation. Release it when the query is done.
type Lease struct {
	gen  *generation
	once sync.Once
}

// Dictionary returns the pinned generation.
func (l *Lease) Dictionary() *Dictionary { return l.gen.dict }

// Release drops the lease. It is idempotent.
func (l *Lease) Release() {
	l.once.Do(l.gen.decRef)
}

// Handle publishes successive generations of one dictionary. Readers never
// observe a partially loaded generation, and a superseded generation is freed
// only after its last lease is released.
type Handle struct {
	name    string
	current atomic.Pointer[generation]
	closed  atomic.Bool
	mu      sync.Mutex // serializes Publish and Close
	logger  *Logger
}

// NewHandle returns an empty handle.
func NewHandle(name string, logger *Logger) *Handle {
	if logger == nil {
		logger = NoopLogger()
	}
	return &Handle{name: name, logger: logger}
}

// Name returns the handle name.
func (h *Handle) Name() string { return h.name }

// Acquire pins the current generation.
func (h *Handle) Acquire() (*Lease, error) {
	for {
		if h.closed.Load() {
			return nil, ErrClosed
		}

		g := h.current.Load()
		if g == nil {
			if h.closed.Load() {
				return nil, ErrClosed
			}
			return nil, ErrNotReady
		}

		if g.tryIncRef() {
			return &Lease{gen: g}, nil
		}
		// Retired concurrently by Publish; reload the pointer.
	}
}

// Current returns the current generation without pinning it, or nil.
// The result may be freed at any time by a concurrent Publish; use Acquire
// for queries.
func (h *Handle) Current() *Dictionary {
	if g := h.current.Load(); g != nil {
		return g.dict
	}
	return nil
}

// Publish makes d the current generation and drops the handle's reference on
// the previous one.
func (h *Handle) Publish(d *Dictionary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed.Load() {
		return ErrClosed
	}

	old := h.current.Swap(newGeneration(d))
	if old != nil {
		old.decRef()
	}
	return nil
}

// Close unpublishes the current generation. Outstanding leases stay valid.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if old := h.current.Swap(nil); old != nil {
		old.decRef()
	}
	h.logger.DebugContext(context.Background(), "dictionary handle closed", "dictionary", h.name)
	return nil
}
