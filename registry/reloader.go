package registry

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/flatdict"
)

// NextInterval returns a uniformly random duration in [l.Min, l.Max], or 0
// when reloading is disabled.
func NextInterval(l flatdict.Lifetime) time.Duration {
	if l.IsZero() {
		return 0
	}
	if l.Max <= l.Min {
		return l.Min
	}
	return l.Min + time.Duration(rand.Int64N(int64(l.Max-l.Min)+1))
}

// Reloader calls a reload function after each lifetime interval until stopped.
type Reloader struct {
	name     string
	lifetime flatdict.Lifetime
	reload   func(context.Context) error
	logger   *flatdict.Logger
	next     func(flatdict.Lifetime) time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewReloader creates a stopped reloader. Call Start to run it.
func NewReloader(name string, lifetime flatdict.Lifetime, reload func(context.Context) error, logger *flatdict.Logger) *Reloader {
	if logger == nil {
		logger = flatdict.NoopLogger()
	}
	return &Reloader{
		name:     name,
		lifetime: lifetime,
		reload:   reload,
		logger:   logger,
		next:     NextInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the reload loop in a goroutine. It returns immediately when
// the lifetime disables reloading.
func (r *Reloader) Start(ctx context.Context) {
	if r.lifetime.IsZero() {
		close(r.done)
		return
	}
	go r.run(ctx)
}

func (r *Reloader) run(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(r.next(r.lifetime))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-timer.C:
		}

		if err := r.reload(ctx); err != nil {
			r.logger.WarnContext(ctx, "scheduled reload failed", "dictionary", r.name, "error", err)
		}
		timer.Reset(r.next(r.lifetime))
	}
}

// Stop ends the loop and waits for an in-flight reload to finish.
// Stop must not be called before Start.
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}
