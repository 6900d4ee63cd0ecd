package blobsource

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/flatdict"
	"github.com/hupe1980/flatdict/blobstore"
	"github.com/hupe1980/flatdict/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionStructure(t *testing.T) *flatdict.Structure {
	t.Helper()
	s, err := flatdict.NewStructure("id",
		flatdict.AttributeDescriptor{Name: "parent", Kind: flatdict.KindUInt64, Hierarchical: true},
		flatdict.AttributeDescriptor{Name: "name", Kind: flatdict.KindString, NullValue: flatdict.String("unknown")},
		flatdict.AttributeDescriptor{Name: "weight", Kind: flatdict.KindFloat64},
	)
	require.NoError(t, err)
	return s
}

const regionLines = `{"id":1,"attrs":{"parent":0,"name":"world","weight":1}}
{"id":2,"attrs":{"parent":1,"name":"europe","weight":0.25}}

{"id":4,"attrs":{"parent":"2","weight":null}}
`

func collect(t *testing.T, src flatdict.Source) ([]flatdict.Row, error) {
	t.Helper()
	var rows []flatdict.Row
	for row, err := range src.Rows(context.Background()) {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func TestSource_Rows(t *testing.T) {
	s := regionStructure(t)
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "regions.jsonl", []byte(regionLines)))

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			rows, err := collect(t, New(store, "regions.jsonl", s, WithCodec(c)))
			require.NoError(t, err)
			require.Len(t, rows, 3)

			assert.Equal(t, flatdict.Key(2), rows[1].ID)
			name, ok := rows[1].Values[1].AsString()
			require.True(t, ok)
			assert.Equal(t, "europe", name)

			parent, ok := rows[2].Values[0].AsUint64()
			require.True(t, ok)
			assert.Equal(t, uint64(2), parent)
			assert.True(t, rows[2].Values[1].IsAbsent())
			assert.True(t, rows[2].Values[2].IsAbsent())
		})
	}
}

func TestSource_LoadsDictionary(t *testing.T) {
	s := regionStructure(t)
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "regions.jsonl", []byte(regionLines)))

	d := flatdict.New(context.Background(), "regions", s, New(store, "regions.jsonl", s))
	require.NoError(t, d.CreationErr())
	assert.Equal(t, 3, d.ElementCount())
	assert.Equal(t, 5, d.BucketCount())

	names, err := d.GetStrings("name", []flatdict.Key{1, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []string{"world", "unknown", "unknown"}, names)

	chain, err := d.Ancestors(4, 10)
	require.NoError(t, err)
	assert.Equal(t, []flatdict.Key{2, 1}, chain)
}

func TestSource_Compressed(t *testing.T) {
	s := regionStructure(t)
	rows := flatdict.SliceSource{
		{ID: 3, Values: []flatdict.Value{flatdict.UInt64(0), flatdict.String("asia"), flatdict.Float64(0.5)}},
		{ID: 9, Values: []flatdict.Value{flatdict.UInt64(3), flatdict.Absent(), flatdict.Float64(2)}},
	}

	for _, name := range []string{"regions.jsonl", "regions.jsonl.zst", "regions.jsonl.lz4"} {
		t.Run(name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			require.NoError(t, Upload(context.Background(), store, name, s, rows, nil))

			got, err := collect(t, New(store, name, s))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, flatdict.Key(9), got[1].ID)
			assert.True(t, got[1].Values[1].IsAbsent())

			w, ok := got[0].Values[2].AsFloat64()
			require.True(t, ok)
			assert.InDelta(t, 0.5, w, 1e-12)
		})
	}
}

func TestSource_ExplicitCompression(t *testing.T) {
	s := regionStructure(t)
	rows := flatdict.SliceSource{
		{ID: 1, Values: []flatdict.Value{flatdict.UInt64(0), flatdict.String("a"), flatdict.Float64(1)}},
	}
	data, err := Encode(s, rows.Rows(context.Background()), codec.JSON{}, CompressionZSTD)
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "blob", data))

	got, err := collect(t, New(store, "blob", s, WithCompression(CompressionZSTD)))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = collect(t, New(store, "blob", s))
	assert.Error(t, err)
}

func TestSource_Errors(t *testing.T) {
	s := regionStructure(t)
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "missing id", data: `{"attrs":{}}`, wantErr: `line 1: missing "id"`},
		{name: "bad json", data: "{\"id\":1}\n{oops", wantErr: "line 2"},
		{name: "number for string", data: `{"id":1,"attrs":{"name":5}}`, wantErr: `attribute "name"`},
		{name: "negative unsigned", data: `{"id":1,"attrs":{"parent":-1}}`, wantErr: `attribute "parent"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := strings.ReplaceAll(tt.name, " ", "_") + ".jsonl"
			require.NoError(t, store.Put(ctx, blob, []byte(tt.data)))

			_, err := collect(t, New(store, blob, s))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("missing blob", func(t *testing.T) {
		_, err := collect(t, New(store, "nope.jsonl", s))
		assert.True(t, blobstore.IsNotFound(err))
	})

	t.Run("line too long", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "long.jsonl", []byte(`{"id":1,"attrs":{"name":"`+strings.Repeat("x", 200)+`"}}`)))
		_, err := collect(t, New(store, "long.jsonl", s, WithMaxLineSize(64)))
		assert.Error(t, err)
	})
}

func TestSource_SourceErrorCaptured(t *testing.T) {
	s := regionStructure(t)
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "partial.jsonl", []byte(regionLines+"{bad\n")))

	d := flatdict.New(context.Background(), "regions", s, New(store, "partial.jsonl", s))
	assert.Equal(t, flatdict.StateBroken, d.State())

	var srcErr *flatdict.SourceError
	require.ErrorAs(t, d.CreationErr(), &srcErr)
	assert.Equal(t, 3, srcErr.Rows)
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":     CompressionAuto,
		"none": CompressionNone,
		"ZSTD": CompressionZSTD,
		"lz4":  CompressionLZ4,
	} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)
	assert.Equal(t, "zstd", CompressionZSTD.String())
}
