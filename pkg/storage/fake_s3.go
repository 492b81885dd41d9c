package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const fakeS3MaxKeys = 1000

// FakeS3Client is an in-memory S3API for testing.
//
// Missing keys are reported the way S3 reports them: NoSuchKey for
// GetObject and DeleteObject, NotFound for HeadObject.
type FakeS3Client struct {
	mu      sync.RWMutex
	objects map[string][]byte
	uploads map[string]map[int32][]byte
	nextID  int

	// Error injection for testing error handling
	HeadError   error
	GetError    error
	PutError    error
	DeleteError error
	ListError   error
}

// NewFakeS3Client creates a FakeS3Client seeded with keys.
// Each seeded object's body is the key itself.
func NewFakeS3Client(keys ...string) *FakeS3Client {
	f := &FakeS3Client{
		objects: make(map[string][]byte, len(keys)),
		uploads: make(map[string]map[int32][]byte),
	}
	for _, k := range keys {
		f.objects[k] = []byte(k)
	}
	return f
}

func (f *FakeS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.HeadError != nil {
		return nil, f.HeadError
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	key := aws.ToString(params.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, fakeOperationError("HeadObject", &types.NotFound{Message: aws.String("Not Found")})
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *FakeS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.GetError != nil {
		return nil, f.GetError
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	key := aws.ToString(params.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, fakeNoSuchKey("GetObject", key)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *FakeS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.PutError != nil {
		return nil, f.PutError
	}

	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *FakeS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.DeleteError != nil {
		return nil, f.DeleteError
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(params.Key)
	if _, ok := f.objects[key]; !ok {
		return nil, fakeNoSuchKey("DeleteObject", key)
	}
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

// ListObjectsV2 returns keys in lexical order. The continuation token is the
// last key of the previous page.
func (f *FakeS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.ListError != nil {
		return nil, f.ListError
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	prefix := aws.ToString(params.Prefix)
	after := aws.ToString(params.ContinuationToken)
	maxKeys := int(aws.ToInt32(params.MaxKeys))
	if maxKeys <= 0 {
		maxKeys = fakeS3MaxKeys
	}

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		Prefix:      params.Prefix,
		IsTruncated: aws.Bool(false),
	}
	if len(keys) > maxKeys {
		keys = keys[:maxKeys]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(f.objects[k]))),
		})
	}
	out.KeyCount = aws.Int32(int32(len(keys)))
	return out, nil
}

func (f *FakeS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	if f.PutError != nil {
		return nil, f.PutError
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.uploads[id] = make(map[int32][]byte)
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(id),
	}, nil
}

func (f *FakeS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	parts, ok := f.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, fakeOperationError("UploadPart", &types.NoSuchUpload{Message: aws.String("no such upload")})
	}
	num := aws.ToInt32(params.PartNumber)
	parts[num] = data
	return &s3.UploadPartOutput{ETag: aws.String(strconv.Itoa(int(num)))}, nil
}

func (f *FakeS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(params.UploadId)
	parts, ok := f.uploads[id]
	if !ok {
		return nil, fakeOperationError("CompleteMultipartUpload", &types.NoSuchUpload{Message: aws.String("no such upload")})
	}
	delete(f.uploads, id)

	nums := make([]int32, 0, len(parts))
	for n := range parts {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	var buf bytes.Buffer
	for _, n := range nums {
		buf.Write(parts[n])
	}
	f.objects[aws.ToString(params.Key)] = buf.Bytes()

	return &s3.CompleteMultipartUploadOutput{
		Bucket: params.Bucket,
		Key:    params.Key,
	}, nil
}

func (f *FakeS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.uploads, aws.ToString(params.UploadId))
	return &s3.AbortMultipartUploadOutput{}, nil
}

// Helper methods for testing

// PutRaw stores data at key without going through PutObject.
func (f *FakeS3Client) PutRaw(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = data
}

// Raw returns the stored data for a key (for test assertions)
func (f *FakeS3Client) Raw(key string) ([]byte, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, ok := f.objects[key]
	return data, ok
}

// Count returns the number of stored objects.
func (f *FakeS3Client) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.objects)
}

func readBody(body io.Reader) ([]byte, error) {
	if body == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

func fakeNoSuchKey(op, key string) error {
	return fakeOperationError(op, &types.NoSuchKey{
		Message: aws.String(fmt.Sprintf("The specified key does not exist: %s", key)),
	})
}

func fakeOperationError(op string, err error) error {
	return &smithy.OperationError{
		ServiceID:     "S3",
		OperationName: op,
		Err:           err,
	}
}

var _ S3API = (*FakeS3Client)(nil)
