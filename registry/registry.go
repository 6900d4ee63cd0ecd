// Package registry manages a set of named dictionaries built from YAML
// configuration: it loads them concurrently, publishes each ready generation
// through a flatdict.Handle and reloads them on their lifetime schedule.
//
// A dictionary that fails to load is reported but never aborts the others.
package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hupe1980/flatdict"
	"github.com/hupe1980/flatdict/blobstore"
	"github.com/hupe1980/flatdict/codec"
	"github.com/hupe1980/flatdict/metricpath"
	"github.com/hupe1980/flatdict/resource"
	"github.com/hupe1980/flatdict/source/blobsource"
	ddbsource "github.com/hupe1980/flatdict/source/dynamodb"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentLoads bounds LoadAll when the config does not.
const DefaultMaxConcurrentLoads = 4

var (
	// ErrUnknownDictionary is returned for names not in the configuration.
	ErrUnknownDictionary = errors.New("registry: unknown dictionary")
	// ErrUnknownSource is returned for a source type without a factory.
	ErrUnknownSource = errors.New("registry: unknown source type")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("registry: closed")
)

// SourceFactory builds the row source for one dictionary.
type SourceFactory func(cfg DictionaryConfig, structure *flatdict.Structure) (flatdict.Source, error)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for the registry and its dictionaries.
func WithLogger(logger *flatdict.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetricsCollector sets the metrics collector for the registry and its
// dictionaries.
func WithMetricsCollector(mc flatdict.MetricsCollector) Option {
	return func(r *Registry) {
		if mc != nil {
			r.metrics = mc
		}
	}
}

// WithResourceController shares rc between all dictionaries and blob sources.
func WithResourceController(rc *resource.Controller) Option {
	return func(r *Registry) { r.rc = rc }
}

// WithBlobStore registers a store for blob sources. A source's "store" field
// selects it by name; the empty name is the default store.
func WithBlobStore(name string, store blobstore.BlobStore) Option {
	return func(r *Registry) { r.stores[name] = store }
}

// WithDynamoDBClient sets the client used by dynamodb sources.
func WithDynamoDBClient(client dynamodb.ScanAPIClient) Option {
	return func(r *Registry) { r.ddb = client }
}

// WithSourceFactory registers or replaces the factory for a source type.
func WithSourceFactory(typ string, fn SourceFactory) Option {
	return func(r *Registry) { r.factories[typ] = fn }
}

// WithDictionaryOptions appends options passed to every flatdict.New.
func WithDictionaryOptions(opts ...flatdict.Option) Option {
	return func(r *Registry) { r.dictOpts = append(r.dictOpts, opts...) }
}

type entry struct {
	cfg       DictionaryConfig
	structure *flatdict.Structure
	source    flatdict.Source
	handle    *flatdict.Handle
	reloader  *Reloader

	mu       sync.Mutex // serializes loads of this entry
	lastErr  error
	lastLoad time.Time
}

// Registry owns one Handle per configured dictionary.
type Registry struct {
	entries       map[string]*entry
	order         []string
	maxConcurrent int
	graphite      metricpath.Config

	logger    *flatdict.Logger
	metrics   flatdict.MetricsCollector
	rc        *resource.Controller
	stores    map[string]blobstore.BlobStore
	ddb       dynamodb.ScanAPIClient
	factories map[string]SourceFactory
	dictOpts  []flatdict.Option

	mu      sync.Mutex
	started bool
	closed  bool
}

// New builds handles and sources for every dictionary in cfg. Nothing is
// loaded until LoadAll or Reload.
func New(cfg *Config, optFns ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		entries:       make(map[string]*entry, len(cfg.Dictionaries)),
		maxConcurrent: cfg.MaxConcurrentLoads,
		logger:        flatdict.NoopLogger(),
		metrics:       flatdict.NoopMetricsCollector{},
		stores:        make(map[string]blobstore.BlobStore),
		factories:     make(map[string]SourceFactory),
	}
	r.graphite = metricpath.DefaultConfig()
	if cfg.Graphite != nil {
		r.graphite = *cfg.Graphite
	}
	if r.maxConcurrent <= 0 {
		r.maxConcurrent = DefaultMaxConcurrentLoads
	}
	r.factories[SourceBlob] = r.blobSource
	r.factories[SourceDynamoDB] = r.dynamoDBSource

	for _, fn := range optFns {
		fn(r)
	}

	for _, dc := range cfg.Dictionaries {
		structure, err := dc.Structure()
		if err != nil {
			return nil, fmt.Errorf("registry: dictionary %q: %w", dc.Name, err)
		}

		factory, ok := r.factories[dc.Source.Type]
		if !ok {
			return nil, fmt.Errorf("%w %q for dictionary %q", ErrUnknownSource, dc.Source.Type, dc.Name)
		}
		src, err := factory(dc, structure)
		if err != nil {
			return nil, fmt.Errorf("registry: dictionary %q: %w", dc.Name, err)
		}

		e := &entry{
			cfg:       dc,
			structure: structure,
			source:    src,
			handle:    flatdict.NewHandle(dc.Name, r.logger),
		}
		e.reloader = NewReloader(dc.Name, dc.Lifetime.Lifetime(), func(ctx context.Context) error {
			return r.load(ctx, e)
		}, r.logger)

		r.entries[dc.Name] = e
		r.order = append(r.order, dc.Name)
	}
	return r, nil
}

func (r *Registry) blobSource(cfg DictionaryConfig, structure *flatdict.Structure) (flatdict.Source, error) {
	store, ok := r.stores[cfg.Source.Store]
	if !ok {
		return nil, fmt.Errorf("blob store %q not registered", cfg.Source.Store)
	}
	comp, err := blobsource.ParseCompression(cfg.Source.Compression)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(cfg.Source.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Source.Codec)
	}
	if cfg.Source.Path == "" {
		return nil, errors.New("blob source: missing path")
	}
	return blobsource.New(store, cfg.Source.Path, structure,
		blobsource.WithCompression(comp),
		blobsource.WithCodec(c),
		blobsource.WithResourceController(r.rc),
	), nil
}

func (r *Registry) dynamoDBSource(cfg DictionaryConfig, structure *flatdict.Structure) (flatdict.Source, error) {
	if r.ddb == nil {
		return nil, errors.New("dynamodb source: no client configured")
	}
	if cfg.Source.Table == "" {
		return nil, errors.New("dynamodb source: missing table")
	}
	return ddbsource.New(r.ddb, cfg.Source.Table, structure,
		ddbsource.WithConsistentRead(cfg.Source.ConsistentRead),
		ddbsource.WithPageSize(cfg.Source.PageSize),
	), nil
}

func (r *Registry) dictionaryOptions(cfg DictionaryConfig) []flatdict.Option {
	opts := []flatdict.Option{
		flatdict.WithLogger(r.logger),
		flatdict.WithMetricsCollector(r.metrics),
		flatdict.WithResourceController(r.rc),
		flatdict.WithRequireNonempty(cfg.RequireNonempty),
		flatdict.WithLifetime(cfg.Lifetime.Min, cfg.Lifetime.Max),
	}
	if cfg.MaxBuckets > 0 {
		opts = append(opts, flatdict.WithMaxBuckets(cfg.MaxBuckets))
	}
	return append(opts, r.dictOpts...)
}

// load builds a new generation and publishes it if it is ready. A broken
// generation is freed and the previous one stays published.
func (r *Registry) load(ctx context.Context, e *entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := flatdict.New(ctx, e.cfg.Name, e.structure, e.source, r.dictionaryOptions(e.cfg)...)
	err := d.CreationErr()
	published := false
	if err == nil {
		if err = e.handle.Publish(d); err == nil {
			published = true
		}
	}
	if !published {
		d.Free()
	}

	e.lastLoad = time.Now()
	e.lastErr = err
	r.metrics.RecordReload(e.cfg.Name, published, err)
	r.logger.LogReload(ctx, e.cfg.Name, published, err)
	if err != nil {
		return fmt.Errorf("registry: dictionary %q: %w", e.cfg.Name, err)
	}
	return nil
}

// LoadAll loads every dictionary concurrently. Failures are joined into the
// returned error; successful dictionaries are published regardless.
func (r *Registry) LoadAll(ctx context.Context) error {
	if r.isClosed() {
		return ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	errs := make([]error, len(r.order))
	for i, name := range r.order {
		e := r.entries[name]
		g.Go(func() error {
			errs[i] = r.load(gctx, e)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Reload rebuilds one dictionary now.
func (r *Registry) Reload(ctx context.Context, name string) error {
	if r.isClosed() {
		return ErrClosed
	}
	e, err := r.entry(name)
	if err != nil {
		return err
	}
	return r.load(ctx, e)
}

// Start launches the reloaders of all dictionaries with a non-zero lifetime.
// They stop when ctx is done or on Close.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.started {
		return nil
	}
	r.started = true
	for _, name := range r.order {
		r.entries[name].reloader.Start(ctx)
	}
	return nil
}

// Acquire pins the current generation of name.
func (r *Registry) Acquire(name string) (*flatdict.Lease, error) {
	e, err := r.entry(name)
	if err != nil {
		return nil, err
	}
	return e.handle.Acquire()
}

// Names returns the configured dictionary names in configuration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// MetricPath returns the Graphite path under which name's metrics are
// reported from hostname.
func (r *Registry) MetricPath(hostname, name string) string {
	return metricpath.PerServerPath(name, metricpath.RootPath(r.graphite, hostname, "dictionaries"))
}

// Status describes one dictionary.
type Status struct {
	Name     string
	Ready    bool
	LastLoad time.Time
	LastErr  error
	Stats    flatdict.Stats
}

// Status reports the state of name. Stats is zero until a generation is
// published.
func (r *Registry) Status(name string) (Status, error) {
	e, err := r.entry(name)
	if err != nil {
		return Status{}, err
	}

	e.mu.Lock()
	st := Status{Name: name, LastLoad: e.lastLoad, LastErr: e.lastErr}
	e.mu.Unlock()

	if lease, err := e.handle.Acquire(); err == nil {
		st.Ready = true
		st.Stats = lease.Dictionary().Stats()
		lease.Release()
	}
	return st, nil
}

// Close stops the reloaders and unpublishes every dictionary. Outstanding
// leases stay valid until released.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	started := r.started
	r.mu.Unlock()

	var errs []error
	for _, name := range r.order {
		e := r.entries[name]
		if started {
			e.reloader.Stop()
		}
		errs = append(errs, e.handle.Close())
	}
	return errors.Join(errs...)
}

func (r *Registry) entry(name string) (*entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDictionary, name)
	}
	return e, nil
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
