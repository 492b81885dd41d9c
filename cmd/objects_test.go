package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/certainty3452/fires3/pkg/config"
	"github.com/certainty3452/fires3/pkg/retention"
	"github.com/certainty3452/fires3/pkg/storage"
)

func newFakeBucket(keys ...string) (storage.Bucket, *storage.FakeS3Client) {
	fake := storage.NewFakeS3Client(keys...)
	return storage.NewS3BucketWithClient("test_bucket", fake, zap.NewNop().Sugar()), fake
}

func TestRunList(t *testing.T) {
	b, _ := newFakeBucket("object_2", "object_1")

	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), b, &out))
	assert.Equal(t, "object_1\nobject_2\n", out.String())
}

func TestRunGet(t *testing.T) {
	b, _ := newFakeBucket("object_1")

	var out bytes.Buffer
	require.NoError(t, runGet(context.Background(), b, "object_1", &out))
	assert.Equal(t, "object_1", out.String())

	err := runGet(context.Background(), b, "missing", &out)
	assert.True(t, storage.IsNotExist(err))
}

func TestRunPut(t *testing.T) {
	b, fake := newFakeBucket()

	var out bytes.Buffer
	require.NoError(t, runPut(context.Background(), b, "notes.txt", strings.NewReader("hello"), &out))
	assert.Equal(t, "created test_bucket/notes.txt\n", out.String())

	data, ok := fake.Raw("notes.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))
}

func TestRunDelete(t *testing.T) {
	b, fake := newFakeBucket("object_1")

	var out bytes.Buffer
	require.NoError(t, runDelete(context.Background(), b, "object_1", &out))
	assert.Equal(t, "deleted test_bucket/object_1\n", out.String())
	assert.Equal(t, 0, fake.Count())

	var bucketErr *storage.S3BucketError
	assert.ErrorAs(t, runDelete(context.Background(), b, "object_1", &out), &bucketErr)
}

func TestRunPrune_DryRun(t *testing.T) {
	b, fake := newFakeBucket("20260120-020000", "20260119-020000", "20260118-020000")

	pruneArgs.policy = retention.Policy{KeepLast: 1}
	pruneArgs.dryRun = true
	t.Cleanup(func() { pruneArgs.policy = retention.Policy{}; pruneArgs.dryRun = false })

	var out bytes.Buffer
	require.NoError(t, runPrune(context.Background(), retention.NewManager(zap.NewNop().Sugar()), b, &out))
	assert.Equal(t, "would delete 20260119-020000\nwould delete 20260118-020000\n", out.String())
	assert.Equal(t, 3, fake.Count())
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(&config.Config{LogLevel: "debug"})
	assert.NoError(t, err)

	_, err = newLogger(&config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
