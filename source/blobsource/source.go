package blobsource

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"iter"

	"github.com/hupe1980/flatdict"
	"github.com/hupe1980/flatdict/blobstore"
	"github.com/hupe1980/flatdict/codec"
	"github.com/hupe1980/flatdict/resource"
)

// DefaultMaxLineSize bounds a single JSON line.
const DefaultMaxLineSize = 1 << 20

// record is the wire form of one row.
type record struct {
	ID    *uint64                     `json:"id"`
	Attrs map[string]codec.RawMessage `json:"attrs"`
}

// Source reads rows from one blob. It implements flatdict.Source; every call
// to Rows re-reads the blob.
type Source struct {
	store       blobstore.BlobStore
	name        string
	structure   *flatdict.Structure
	codec       codec.Codec
	compression Compression
	rc          *resource.Controller
	maxLineSize int
}

// Option configures a Source.
type Option func(*Source)

// WithCodec sets the codec used to decode lines. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithCompression overrides extension-based detection.
func WithCompression(c Compression) Option {
	return func(s *Source) { s.compression = c }
}

// WithResourceController throttles blob reads with the controller's IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *Source) { s.rc = rc }
}

// WithMaxLineSize sets the longest accepted line in bytes.
func WithMaxLineSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.maxLineSize = n
		}
	}
}

// New creates a Source reading name from store. Values are converted to the
// kinds declared by structure.
func New(store blobstore.BlobStore, name string, structure *flatdict.Structure, opts ...Option) *Source {
	s := &Source{
		store:       store,
		name:        name,
		structure:   structure,
		codec:       codec.Default,
		maxLineSize: DefaultMaxLineSize,
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Name returns the blob name.
func (s *Source) Name() string { return s.name }

func (s *Source) effectiveCompression() Compression {
	if s.compression == CompressionAuto {
		return detectCompression(s.name)
	}
	return s.compression
}

// Rows implements flatdict.Source.
func (s *Source) Rows(ctx context.Context) iter.Seq2[flatdict.Row, error] {
	return func(yield func(flatdict.Row, error) bool) {
		blob, err := s.store.Open(ctx, s.name)
		if err != nil {
			yield(flatdict.Row{}, fmt.Errorf("blobsource: open %s: %w", s.name, err))
			return
		}
		defer func() { _ = blob.Close() }()

		body, err := blob.ReadRange(ctx, 0, blob.Size())
		if err != nil {
			yield(flatdict.Row{}, fmt.Errorf("blobsource: read %s: %w", s.name, err))
			return
		}
		defer func() { _ = body.Close() }()

		r, done, err := decompress(resource.NewRateLimitedReader(ctx, body, s.rc), s.effectiveCompression())
		if err != nil {
			yield(flatdict.Row{}, err)
			return
		}
		defer done()

		attrs := s.structure.Attributes()
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, min(64*1024, s.maxLineSize)), s.maxLineSize)

		line := 0
		for sc.Scan() {
			line++
			if err := ctx.Err(); err != nil {
				yield(flatdict.Row{}, err)
				return
			}

			data := bytes.TrimSpace(sc.Bytes())
			if len(data) == 0 {
				continue
			}

			row, err := s.decodeRow(data, attrs)
			if err != nil {
				yield(flatdict.Row{}, fmt.Errorf("blobsource: %s line %d: %w", s.name, line, err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(flatdict.Row{}, fmt.Errorf("blobsource: %s line %d: %w", s.name, line+1, err))
		}
	}
}

func (s *Source) decodeRow(data []byte, attrs []flatdict.AttributeDescriptor) (flatdict.Row, error) {
	var rec record
	if err := s.codec.Unmarshal(data, &rec); err != nil {
		return flatdict.Row{}, err
	}
	if rec.ID == nil {
		return flatdict.Row{}, fmt.Errorf("missing %q", "id")
	}

	row := flatdict.Row{ID: *rec.ID, Values: make([]flatdict.Value, len(attrs))}
	for i, a := range attrs {
		v, err := s.convert(rec.Attrs[a.Name], a.Kind)
		if err != nil {
			return flatdict.Row{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		row.Values[i] = v
	}
	return row, nil
}

// convert turns one JSON value into a Value of kind k.
func (s *Source) convert(raw codec.RawMessage, k flatdict.ValueKind) (flatdict.Value, error) {
	if codec.IsNull(raw) {
		return flatdict.Absent(), nil
	}

	if raw[0] == '"' {
		var str string
		if err := s.codec.Unmarshal(raw, &str); err != nil {
			return flatdict.Value{}, err
		}
		return flatdict.ParseValue(k, str)
	}

	if k == flatdict.KindString {
		return flatdict.Value{}, fmt.Errorf("expected a JSON string, got %s", raw)
	}
	return flatdict.ParseValue(k, string(raw))
}
