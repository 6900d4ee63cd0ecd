// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("dictionaries/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	src := blobsource.New(store, "regions.jsonl.zst", structure)
//
// # Features
//
//   - HeadObject to size blobs, ranged GetObject for partial reads
//   - Whole-blob Fetch through the SDK's parallel downloader
//   - Configurable prefix for multi-tenant isolation
package s3
