package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestObject_Key(t *testing.T) {
	obj := NewObjectWithContent("key", strings.NewReader("test content"))
	assert.Equal(t, "key", obj.Key())
}

func TestObject_NewObjectWithContent(t *testing.T) {
	ctx := context.Background()
	obj := NewObjectWithContent("key", bytes.NewReader([]byte("test content")))

	rc, err := obj.Content(ctx)
	require.NoError(t, err)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("test content"), data)
	assert.NoError(t, obj.Close())
}

func TestObject_LazyLoading(t *testing.T) {
	ctx := context.Background()
	var calls int32

	obj := NewObject("lazy", func(context.Context) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		return &closeTracker{Reader: strings.NewReader("lazy content")}, nil
	})
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "loader must not run at construction")

	first, err := obj.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	second, err := obj.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "loader must run only once")
	assert.Same(t, first, second)

	data, err := io.ReadAll(first)
	require.NoError(t, err)
	assert.Equal(t, "lazy content", string(data))
}

func TestObject_LoaderErrorIsCached(t *testing.T) {
	ctx := context.Background()
	var calls int
	loadErr := errors.New("boom")

	obj := NewObject("broken", func(context.Context) (io.ReadCloser, error) {
		calls++
		return nil, loadErr
	})

	_, err := obj.Content(ctx)
	assert.ErrorIs(t, err, loadErr)
	_, err = obj.Content(ctx)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, 1, calls)
	assert.NoError(t, obj.Close())
}

func TestObject_ConcurrentContent(t *testing.T) {
	ctx := context.Background()
	var calls int32

	obj := NewObject("shared", func(context.Context) (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		return io.NopCloser(strings.NewReader("x")), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := obj.Content(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestObject_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("closes resolved content", func(t *testing.T) {
		body := &closeTracker{Reader: strings.NewReader("data")}
		obj := NewObjectWithContent("k", body)

		_, err := obj.Content(ctx)
		require.NoError(t, err)
		require.NoError(t, obj.Close())
		assert.True(t, body.closed)
	})

	t.Run("unread object skips loader", func(t *testing.T) {
		var calls int
		obj := NewObject("k", func(context.Context) (io.ReadCloser, error) {
			calls++
			return io.NopCloser(strings.NewReader("data")), nil
		})

		require.NoError(t, obj.Close())
		assert.Equal(t, 0, calls)
	})
}
