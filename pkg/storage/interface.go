package storage

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
)

// Bucket is the interface to access a single object storage bucket.
//
// All operations are scoped to the bucket fixed at construction.
// Failures of the underlying provider are returned as the adapter's own
// error type (*S3BucketError, *GCSBucketError or *AzureBucketError).
type Bucket interface {
	// Name returns the bucket (or container) name.
	Name() string

	// Get returns the object stored at `key`.
	// It fails if the key does not exist.
	Get(ctx context.Context, key string) (*Object, error)

	// List returns every object in the bucket, in provider order.
	// A failure on any single object aborts the whole listing.
	List(ctx context.Context) ([]*Object, error)

	// Create uploads `content` to `key`, overwriting any existing object,
	// and returns the object read back from the bucket.
	Create(ctx context.Context, key string, content io.Reader) (*Object, error)

	// Delete deletes the object at `key`.
	// Deleting a key that does not exist is an error.
	Delete(ctx context.Context, key string) (bool, error)
}

// Verify implementations satisfy the interface
var (
	_ Bucket = (*S3Bucket)(nil)
	_ Bucket = (*GCSBucket)(nil)
	_ Bucket = (*AzureBucket)(nil)
)

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".tar"):
		return "application/x-tar"
	case strings.HasSuffix(key, ".zst"):
		return "application/zstd"
	}
	if mt := mime.TypeByExtension(path.Ext(key)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
