package flatdict

import (
	"context"
	"iter"
)

// Row is one source record. Values is aligned with the structure's
// attributes; Absent() selects the declared null value.
type Row struct {
	ID     Key
	Values []Value
}

// Source produces the rows of one load. Each call to Rows starts a new,
// single pass; a yielded error ends the pass.
type Source interface {
	Rows(ctx context.Context) iter.Seq2[Row, error]
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) iter.Seq2[Row, error]

// Rows implements Source.
func (f SourceFunc) Rows(ctx context.Context) iter.Seq2[Row, error] { return f(ctx) }

// SliceSource is an in-memory Source.
type SliceSource []Row

// Rows implements Source.
func (s SliceSource) Rows(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, r := range s {
			if err := ctx.Err(); err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}
