package blobsource

import (
	"bytes"
	"context"
	"fmt"
	"iter"

	"github.com/hupe1980/flatdict"
	"github.com/hupe1980/flatdict/blobstore"
	"github.com/hupe1980/flatdict/codec"
)

// Encode serializes rows as JSON lines in the format Source reads.
// Absent values are written as null.
func Encode(structure *flatdict.Structure, rows iter.Seq2[flatdict.Row, error], c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	if comp == CompressionAuto {
		comp = CompressionNone
	}

	var buf bytes.Buffer
	w, err := compress(&buf, comp)
	if err != nil {
		return nil, err
	}

	attrs := structure.Attributes()
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		if len(row.Values) != len(attrs) {
			return nil, fmt.Errorf("blobsource: row %d: %w", row.ID, flatdict.ErrLengthMismatch)
		}

		rec := struct {
			ID    uint64         `json:"id"`
			Attrs map[string]any `json:"attrs"`
		}{ID: row.ID, Attrs: make(map[string]any, len(attrs))}
		for i, a := range attrs {
			rec.Attrs[a.Name] = row.Values[i].Interface()
		}

		line, err := c.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("blobsource: row %d: %w", row.ID, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Upload encodes src's rows and stores them under name. The compression is
// taken from the name's extension.
func Upload(ctx context.Context, store blobstore.BlobStore, name string, structure *flatdict.Structure, src flatdict.Source, c codec.Codec) error {
	data, err := Encode(structure, src.Rows(ctx), c, detectCompression(name))
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}
