package storage

import (
	"context"
	"io"
	"sync"
)

// ContentLoader produces the body of an object on demand.
type ContentLoader func(ctx context.Context) (io.ReadCloser, error)

// Object is a key/content pair stored in a bucket.
//
// The content is produced lazily by a ContentLoader the first time Content is
// called. The loader runs at most once; the resulting stream (or error) is
// returned by every later call. Listing a bucket therefore never downloads
// bodies the caller does not read.
type Object struct {
	key    string
	loader ContentLoader

	once    sync.Once
	content io.ReadCloser
	err     error
}

// NewObject creates an Object whose content is produced by loader.
// The loader is not invoked until Content is called.
func NewObject(key string, loader ContentLoader) *Object {
	return &Object{
		key:    key,
		loader: loader,
	}
}

// NewObjectWithContent creates an Object with already available content.
func NewObjectWithContent(key string, content io.Reader) *Object {
	rc, ok := content.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(content)
	}
	return NewObject(key, func(context.Context) (io.ReadCloser, error) {
		return rc, nil
	})
}

// Key returns the object key.
func (o *Object) Key() string {
	return o.key
}

// Content returns the object body, resolving it on first access.
//
// The returned stream is shared by all callers and can be consumed only once.
// It's the caller's responsibility to call Close when done with the object.
func (o *Object) Content(ctx context.Context) (io.ReadCloser, error) {
	o.once.Do(func() {
		o.content, o.err = o.loader(ctx)
	})
	return o.content, o.err
}

// Close releases the resolved content, if any.
// An Object that was never read is closed without invoking its loader.
func (o *Object) Close() error {
	o.once.Do(func() {})
	if o.content == nil {
		return nil
	}
	return o.content.Close()
}
