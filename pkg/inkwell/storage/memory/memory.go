// Package memory implements the inkwell.BlobStore interface in process
// memory, for tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

// Backend is an in-memory implementation of the inkwell.BlobStore interface
type Backend struct {
	mu        sync.RWMutex
	urlPrefix string
	objects   map[string][]byte
}

// New creates an empty in-memory staging backend whose returned URLs start
// with urlPrefix.
func New(urlPrefix string) *Backend {
	return &Backend{
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		objects:   make(map[string][]byte),
	}
}

func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.objects[objectKey] = data
	b.mu.Unlock()
	return fmt.Sprintf("%s/%s", b.urlPrefix, objectKey), nil
}

func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	data, ok := b.objects[objectKey]
	b.mu.RUnlock()
	if !ok {
		return nil, inkwell.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[objectKey]; !ok {
		return inkwell.ErrNotFound
	}
	delete(b.objects, objectKey)
	return nil
}

// Get returns a staged object's bytes, for test assertions.
func (b *Backend) Get(objectKey string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.objects[objectKey]
	return data, ok
}
