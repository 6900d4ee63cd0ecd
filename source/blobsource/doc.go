// Package blobsource loads dictionary rows from a JSON-lines blob.
//
// Each line holds one row:
//
//	{"id": 42, "attrs": {"weight": 1.5, "region": "eu", "parent": null}}
//
// Attributes missing from "attrs" or set to null take the attribute's null
// value. Numbers may also be written as JSON strings ("42"). Blobs may be
// compressed with zstd or lz4 (frame format); the compression is taken from
// WithCompression or, when unset, from the blob's extension (".zst", ".lz4").
//
//	store := blobstore.NewLocalStore("/var/lib/dicts")
//	src := blobsource.New(store, "regions.jsonl.zst", structure)
//	dict := flatdict.New(ctx, "regions", structure, src)
package blobsource
