package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the subset of *s3.Client used by S3Bucket.
// FakeS3Client implements it in memory.
type S3API interface {
	manager.UploadAPIClient
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient

	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Config contains configuration for an S3 bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for custom endpoints
	AccessKey string // optional, empty = use the default credential chain
	SecretKey string
}

// S3Bucket is a Bucket backed by Amazon S3 or an S3 compatible service.
type S3Bucket struct {
	name     string
	client   S3API
	uploader *manager.Uploader
	log      *zap.SugaredLogger
}

// NewS3Bucket creates an S3Bucket with a client built from the default
// AWS configuration chain, optionally overridden by cfg.
func NewS3Bucket(ctx context.Context, cfg *S3Config, logger *zap.SugaredLogger, optFns ...func(*s3.Options)) (*S3Bucket, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	// Use explicit credentials if provided, otherwise use the default chain
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	clientOpts = append(clientOpts, optFns...)

	return NewS3BucketWithClient(cfg.Bucket, s3.NewFromConfig(awsCfg, clientOpts...), logger), nil
}

// NewS3BucketWithClient creates an S3Bucket that issues its calls through client.
func NewS3BucketWithClient(name string, client S3API, logger *zap.SugaredLogger) *S3Bucket {
	if logger == nil {
		logger = zap.S()
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.Concurrency = 1
		u.LeavePartsOnError = false
	})

	return &S3Bucket{
		name:     name,
		client:   client,
		uploader: uploader,
		log:      logger,
	}
}

func (b *S3Bucket) Name() string {
	return b.name
}

func (b *S3Bucket) Get(ctx context.Context, key string) (*Object, error) {
	b.log.Infow("getting object", "bucket", b.name, "key", key, "op", OpGet)
	if err := b.head(ctx, key); err != nil {
		return nil, newS3BucketError(b.name, key, OpGet, err)
	}
	return NewObject(key, b.loader(key)), nil
}

func (b *S3Bucket) List(ctx context.Context) ([]*Object, error) {
	b.log.Infow("listing objects", "bucket", b.name, "op", OpList)

	p := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, newS3BucketError(b.name, "", OpList, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
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

func (b *S3Bucket) Create(ctx context.Context, key string, content io.Reader) (*Object, error) {
	b.log.Infow("creating object", "bucket", b.name, "key", key, "op", OpCreate)

	_, err := b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return nil, newS3BucketError(b.name, key, OpCreate, err)
	}
	return b.Get(ctx, key)
}

// Delete deletes the object at key.
// S3 treats deleting a missing key as success, so existence is checked first.
func (b *S3Bucket) Delete(ctx context.Context, key string) (bool, error) {
	b.log.Infow("deleting object", "bucket", b.name, "key", key, "op", OpDelete)

	if err := b.head(ctx, key); err != nil {
		return false, newS3BucketError(b.name, key, OpDelete, err)
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, newS3BucketError(b.name, key, OpDelete, err)
	}
	return true, nil
}

func (b *S3Bucket) head(ctx context.Context, key string) error {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	return err
}

func (b *S3Bucket) loader(key string) ContentLoader {
	return func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.name),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, newS3BucketError(b.name, key, OpGet, err)
		}
		return resp.Body, nil
	}
}
