package storage

import (
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Op names the bucket operation that failed.
type Op string

const (
	OpGet    Op = "get"
	OpList   Op = "list"
	OpCreate Op = "create"
	OpDelete Op = "delete"
)

// bucketError carries the context shared by every adapter error.
type bucketError struct {
	provider string

	Bucket string
	Key    string
	Op     Op
	Err    error
}

func (e *bucketError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("failed to %s objects in %s bucket %q: %v", e.Op, e.provider, e.Bucket, e.Err)
	}
	return fmt.Sprintf("failed to %s object %q in %s bucket %q: %v", e.Op, e.Key, e.provider, e.Bucket, e.Err)
}

func (e *bucketError) Unwrap() error {
	return e.Err
}

// S3BucketError is returned by S3Bucket for every failed S3 call.
type S3BucketError struct {
	bucketError
}

func newS3BucketError(bucket, key string, op Op, err error) *S3BucketError {
	return &S3BucketError{bucketError{provider: "S3", Bucket: bucket, Key: key, Op: op, Err: err}}
}

// GCSBucketError is returned by GCSBucket for every failed GCS call.
type GCSBucketError struct {
	bucketError
}

func newGCSBucketError(bucket, key string, op Op, err error) *GCSBucketError {
	return &GCSBucketError{bucketError{provider: "GCS", Bucket: bucket, Key: key, Op: op, Err: err}}
}

// AzureBucketError is returned by AzureBucket for every failed Azure Blob call.
type AzureBucketError struct {
	bucketError
}

func newAzureBucketError(container, key string, op Op, err error) *AzureBucketError {
	return &AzureBucketError{bucketError{provider: "Azure Blob", Bucket: container, Key: key, Op: op, Err: err}}
}

// IsNotExist reports whether err, as returned by a Bucket, means the
// requested object does not exist.
func IsNotExist(err error) bool {
	if err == nil {
		return false
	}

	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	if errors.Is(err, gcs.ErrObjectNotExist) {
		return true
	}

	return bloberror.HasCode(err, bloberror.BlobNotFound)
}
