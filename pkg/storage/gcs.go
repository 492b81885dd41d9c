package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig contains configuration for a Google Cloud Storage bucket.
type GCSConfig struct {
	Bucket string
	// Endpoint overrides the storage API endpoint, e.g. for an emulator.
	Endpoint string
	// Anonymous disables authentication. Only useful with Endpoint.
	Anonymous bool
	// Credentials via GOOGLE_APPLICATION_CREDENTIALS env var or Workload Identity
}

// GCSBucket is a Bucket backed by Google Cloud Storage.
type GCSBucket struct {
	name   string
	client *gcs.Client
	log    *zap.SugaredLogger
}

// NewGCSBucket creates a GCSBucket with a client using Application Default
// Credentials:
// - Workload Identity on GKE
// - GOOGLE_APPLICATION_CREDENTIALS env var
// - gcloud auth application-default login (local dev)
func NewGCSBucket(ctx context.Context, cfg *GCSConfig, logger *zap.SugaredLogger, opts ...option.ClientOption) (*GCSBucket, error) {
	var clientOpts []option.ClientOption
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Anonymous {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}
	// Options given by the caller take priority.
	clientOpts = append(clientOpts, opts...)

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return NewGCSBucketWithClient(cfg.Bucket, client, logger), nil
}

// NewGCSBucketWithClient creates a GCSBucket that issues its calls through client.
func NewGCSBucketWithClient(name string, client *gcs.Client, logger *zap.SugaredLogger) *GCSBucket {
	if logger == nil {
		logger = zap.S()
	}
	return &GCSBucket{
		name:   name,
		client: client,
		log:    logger,
	}
}

func (b *GCSBucket) Name() string {
	return b.name
}

func (b *GCSBucket) Get(ctx context.Context, key string) (*Object, error) {
	b.log.Infow("getting object", "bucket", b.name, "key", key, "op", OpGet)
	if _, err := b.object(key).Attrs(ctx); err != nil {
		return nil, newGCSBucketError(b.name, key, OpGet, err)
	}
	return NewObject(key, b.loader(key)), nil
}

func (b *GCSBucket) List(ctx context.Context) ([]*Object, error) {
	b.log.Infow("listing objects", "bucket", b.name, "op", OpList)

	var keys []string
	it := b.client.Bucket(b.name).Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, newGCSBucketError(b.name, "", OpList, err)
		}
		keys = append(keys, attrs.Name)
	}

	objects := make([]*Object, 0, len(keys))
	for _, key := range keys {
		obj, err := b.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (b *GCSBucket) Create(ctx context.Context, key string, content io.Reader) (*Object, error) {
	b.log.Infow("creating object", "bucket", b.name, "key", key, "op", OpCreate)

	// Cancelling the writer's context aborts the upload.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := b.object(key).NewWriter(wctx)
	wc.ContentType = contentType(key)
	if _, err := io.Copy(wc, content); err != nil {
		return nil, newGCSBucketError(b.name, key, OpCreate, err)
	}
	if err := wc.Close(); err != nil {
		return nil, newGCSBucketError(b.name, key, OpCreate, err)
	}
	return b.Get(ctx, key)
}

func (b *GCSBucket) Delete(ctx context.Context, key string) (bool, error) {
	b.log.Infow("deleting object", "bucket", b.name, "key", key, "op", OpDelete)
	if err := b.object(key).Delete(ctx); err != nil {
		return false, newGCSBucketError(b.name, key, OpDelete, err)
	}
	return true, nil
}

// Close closes the GCS client
func (b *GCSBucket) Close() error {
	return b.client.Close()
}

func (b *GCSBucket) object(key string) *gcs.ObjectHandle {
	return b.client.Bucket(b.name).Object(key)
}

func (b *GCSBucket) loader(key string) ContentLoader {
	return func(ctx context.Context) (io.ReadCloser, error) {
		rc, err := b.object(key).NewReader(ctx)
		if err != nil {
			return nil, newGCSBucketError(b.name, key, OpGet, err)
		}
		return rc, nil
	}
}
