package minio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/flatdict/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateErr(t *testing.T) {
	err := translateErr(minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"})
	assert.True(t, blobstore.IsNotFound(err))

	err = translateErr(minio.ErrorResponse{Code: "AccessDenied"})
	assert.False(t, blobstore.IsNotFound(err))

	plain := errors.New("boom")
	assert.Equal(t, plain, translateErr(plain))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("regions.jsonl"))
	assert.Equal(t, "application/zstd", contentType("regions.jsonl.zst"))
	assert.Equal(t, "application/octet-stream", contentType("regions.bin"))
}

func TestMinioBlob_EmptyRange(t *testing.T) {
	b := &minioBlob{key: "k", size: 4}

	r, err := b.ReadRange(context.Background(), 10, 5)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = b.ReadAt(make([]byte, 2), 4)
	assert.ErrorIs(t, err, io.EOF)
}

// TestStore_Integration requires a running MinIO instance.
func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-flatdict"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte(`{"id":1,"attrs":{"weight":1.5}}`)
	require.NoError(t, store.Put(ctx, "weights.jsonl", data))

	got, err := blobstore.ReadAll(ctx, store, "weights.jsonl")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.Names(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "weights.jsonl")

	_, err = store.Open(ctx, "missing.jsonl")
	assert.True(t, blobstore.IsNotFound(err))

	_ = client.RemoveObject(ctx, bucket, "test-prefix/weights.jsonl", minio.RemoveObjectOptions{})
}
