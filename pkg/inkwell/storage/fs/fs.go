// Package fs implements the inkwell.BlobStore interface on the local
// filesystem. It exists for development setups without an object store; the
// configured URL prefix must be served by something that exposes the base
// directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

// Config options for the filesystem staging backend
type Config struct {
	BaseDir   string // Base directory for staged blobs
	URLPrefix string // Public base URL under which BaseDir is served
}

// Backend is a filesystem implementation of the inkwell.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// New creates a new filesystem staging backend
func New(cfg Config) (*Backend, error) {
	if cfg.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if cfg.URLPrefix == "" {
		return nil, errors.New("url prefix is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Backend{
		baseDir:   cfg.BaseDir,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
	}, nil
}

// Upload stages the blob on disk and returns its serving URL.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error) {
	filePath := filepath.Join(b.baseDir, objectKey)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", &inkwell.StoreError{Store: "fs", Op: "upload", Path: objectKey, Err: err}
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", &inkwell.StoreError{Store: "fs", Op: "upload", Path: objectKey, Err: err}
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return "", &inkwell.StoreError{Store: "fs", Op: "upload", Path: objectKey, Err: err}
	}
	return fmt.Sprintf("%s/%s", b.urlPrefix, objectKey), nil
}

// Download retrieves a staged blob.
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return nil, inkwell.ErrNotFound
	}
	if err != nil {
		return nil, &inkwell.StoreError{Store: "fs", Op: "download", Path: objectKey, Err: err}
	}
	return file, nil
}

// Delete removes a staged blob.
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	err := os.Remove(filepath.Join(b.baseDir, objectKey))
	if os.IsNotExist(err) {
		return inkwell.ErrNotFound
	}
	if err != nil {
		return &inkwell.StoreError{Store: "fs", Op: "delete", Path: objectKey, Err: err}
	}
	return nil
}
