package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/flatdict/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store BlobStore) {
	ctx := context.Background()

	_, err := store.Open(ctx, "missing.jsonl")
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Put(ctx, "dicts/regions.jsonl", []byte("hello world")))

	b, err := store.Open(ctx, "dicts/regions.jsonl")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, int64(11), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "world", string(buf))

	n, err = b.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, n)

	r, err := b.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "llo", string(got))

	r, err = b.ReadRange(ctx, 6, 100)
	require.NoError(t, err)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))

	all, err := ReadAll(ctx, store, "dicts/regions.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(all))

	require.NoError(t, store.Put(ctx, "dicts/regions.jsonl", []byte("v2")))
	all, err = ReadAll(ctx, store, "dicts/regions.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(all))

	require.NoError(t, store.Put(ctx, "empty", nil))
	all, err = ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	testStore(t, NewLocalStore(dir))

	_, err := os.Stat(filepath.Join(dir, "dicts", "regions.jsonl"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "dicts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be renamed away")
}

func TestLocalStore_ClosedBlob(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "a", []byte("abc")))

	b, err := store.Open(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, err = b.ReadRange(ctx, 0, 3)
	assert.Error(t, err)
}

func TestLocalStore_PutFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		fault fs.Fault
	}{
		{name: "write", fault: fs.Fault{FailAfterBytes: 2}},
		{name: "sync", fault: fs.Fault{FailAfterBytes: -1, FailOnSync: true}},
		{name: "close", fault: fs.Fault{FailAfterBytes: -1, FailOnClose: true}},
		{name: "rename", fault: fs.Fault{FailAfterBytes: -1, FailOnRename: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, NewLocalStore(dir).Put(ctx, "rows.jsonl", []byte("v1")))

			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule(".tmp-", tt.fault)
			store := NewLocalStoreWithFS(dir, ffs)

			err := store.Put(ctx, "rows.jsonl", []byte("version two"))
			assert.ErrorIs(t, err, fs.ErrInjected)

			got, err := ReadAll(ctx, store, "rows.jsonl")
			require.NoError(t, err)
			assert.Equal(t, "v1", string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1, "failed puts must not leave temporary files")
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testStore(t, store)

	assert.Equal(t, []string{"dicts/regions.jsonl"}, store.Names("dicts/"))
	assert.Equal(t, []string{"dicts/regions.jsonl", "empty"}, store.Names(""))
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "a", data))
	data[0] = 'x'

	got, err := ReadAll(ctx, store, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestClipRange(t *testing.T) {
	tests := []struct {
		off, length, size int64
		start, end        int64
	}{
		{0, 10, 5, 0, 5},
		{2, 2, 5, 2, 4},
		{7, 2, 5, 5, 5},
		{-1, 2, 5, 0, 2},
		{1, -1, 5, 1, 5},
	}
	for _, tt := range tests {
		start, end := clipRange(tt.off, tt.length, tt.size)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}
