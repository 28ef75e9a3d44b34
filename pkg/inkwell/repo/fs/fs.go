// Package fs implements the inkwell.DocumentStore interface on the local
// filesystem. It mirrors the repository layout relative to a base directory
// and serves as the fallback persistence backend when the repository is
// unreachable or not configured.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

const storeName = "local"

// Config options for the filesystem document store
type Config struct {
	BaseDir string // Base directory mirroring the repository root
}

// Store is a filesystem implementation of the inkwell.DocumentStore interface
type Store struct {
	baseDir string
}

// New creates a filesystem document store rooted at cfg.BaseDir.
func New(cfg Config) (*Store, error) {
	if cfg.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: cfg.BaseDir}, nil
}

func (s *Store) Name() string { return storeName }

func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return nil, inkwell.ErrNotFound
	}
	if err != nil {
		return nil, &inkwell.StoreError{Store: storeName, Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// WriteFile creates directories as needed. The commit message is ignored;
// the filesystem has no history.
func (s *Store) WriteFile(ctx context.Context, path string, data []byte, message string) (*inkwell.WriteResult, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, &inkwell.StoreError{Store: storeName, Op: "write", Path: path, Err: err}
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return nil, &inkwell.StoreError{Store: storeName, Op: "write", Path: path, Err: err}
	}
	return &inkwell.WriteResult{}, nil
}

func (s *Store) ListFiles(ctx context.Context, prefix string) ([]inkwell.FileInfo, error) {
	root := filepath.Join(s.baseDir, filepath.FromSlash(prefix))
	var files []inkwell.FileInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, inkwell.FileInfo{
			Path:    filepath.ToSlash(rel),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &inkwell.StoreError{Store: storeName, Op: "list", Path: prefix, Err: err}
	}
	return files, nil
}

// DeleteFiles removes every file under prefix individually, so one file's
// failure does not abort the rest. Emptied directories are cleaned up.
func (s *Store) DeleteFiles(ctx context.Context, prefix string, message string) (*inkwell.DeleteResult, error) {
	files, err := s.ListFiles(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, inkwell.ErrNotFound
	}

	result := &inkwell.DeleteResult{}
	for _, f := range files {
		full := filepath.Join(s.baseDir, filepath.FromSlash(f.Path))
		if err := os.Remove(full); err != nil {
			result.FailedPaths = append(result.FailedPaths, f.Path)
			continue
		}
		result.DeletedPaths = append(result.DeletedPaths, f.Path)
		s.cleanupEmptyDirectories(filepath.Dir(full))
	}

	if len(result.DeletedPaths) == 0 && len(result.FailedPaths) > 0 {
		return result, &inkwell.StoreError{
			Store: storeName, Op: "delete", Path: prefix,
			Err: fmt.Errorf("failed to delete %d files", len(result.FailedPaths)),
		}
	}
	return result, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (s *Store) cleanupEmptyDirectories(dir string) {
	if dir == s.baseDir {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			s.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
