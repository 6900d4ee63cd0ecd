package flatdict

import (
	"log/slog"
	"time"

	"github.com/hupe1980/flatdict/resource"
)

const (
	// DefaultMaxBuckets bounds the key range of the flat layout.
	DefaultMaxBuckets = 500_000
	// DefaultInitialBuckets is the initial column capacity.
	DefaultInitialBuckets = 1024
)

// Lifetime is the window in which a reload scheduler refreshes a dictionary.
// The zero Lifetime disables periodic reload.
type Lifetime struct {
	Min time.Duration
	Max time.Duration
}

// IsZero reports whether periodic reload is disabled.
func (l Lifetime) IsZero() bool { return l.Min <= 0 && l.Max <= 0 }

type options struct {
	logger             *Logger
	metricsCollector   MetricsCollector
	requireNonempty    bool
	lifetime           Lifetime
	resourceController *resource.Controller
	initialBuckets     int
	arenaChunkSize     int
	maxBuckets         int
}

// Option configures dictionary construction.
type Option func(*options)

// WithLogger configures structured logging for load, clone and reload.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := flatdict.NewJSONLogger(slog.LevelInfo)
//	d := flatdict.New(ctx, "regions", structure, src, flatdict.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for loads and queries.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithRequireNonempty makes a load that yields no rows fail with ErrEmptySource.
func WithRequireNonempty(require bool) Option {
	return func(o *options) {
		o.requireNonempty = require
	}
}

// WithLifetime sets the reload window reported to schedulers.
func WithLifetime(min, max time.Duration) Option {
	return func(o *options) {
		if max < min {
			max = min
		}
		o.lifetime = Lifetime{Min: min, Max: max}
	}
}

// WithResourceController accounts column and arena memory and load slots
// against rc. A nil controller means unlimited.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resourceController = rc
	}
}

// WithInitialBuckets sets the initial column capacity. Columns grow
// geometrically from there as keys arrive.
func WithInitialBuckets(n int) Option {
	return func(o *options) {
		o.initialBuckets = n
	}
}

// WithArenaChunkSize sets the chunk size of string arenas.
func WithArenaChunkSize(size int) Option {
	return func(o *options) {
		o.arenaChunkSize = size
	}
}

// WithMaxBuckets sets the largest bucket count a load may create.
// A key >= n fails the load with ErrKeyTooLarge.
func WithMaxBuckets(n int) Option {
	return func(o *options) {
		o.maxBuckets = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		initialBuckets:   DefaultInitialBuckets,
		maxBuckets:       DefaultMaxBuckets,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.initialBuckets < 0 {
		o.initialBuckets = 0
	}
	if o.maxBuckets <= 0 {
		o.maxBuckets = DefaultMaxBuckets
	}
	return o
}
