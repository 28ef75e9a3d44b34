// Package memory implements the inkwell.DocumentStore interface in process
// memory. It exists for tests and local experimentation; failure injection
// fields simulate an unreachable or partially failing provider.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

type file struct {
	data    []byte
	modTime time.Time
}

// Store is an in-memory implementation of the inkwell.DocumentStore interface
type Store struct {
	mu      sync.RWMutex
	name    string
	files   map[string]file
	commits int

	// WriteErr, when set, fails every write with the given error.
	WriteErr error
	// ListErr, when set, fails listings, simulating an unreachable store.
	ListErr error
	// DeleteFailures marks paths whose individual deletion fails.
	DeleteFailures map[string]bool
	// DeleteErr, when set, fails every delete outright with no result.
	DeleteErr error
}

// New creates an empty in-memory document store.
func New(name string) *Store {
	return &Store{
		name:  name,
		files: make(map[string]file),
	}
}

func (s *Store) Name() string { return s.name }

func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[path]
	if !ok {
		return nil, inkwell.ErrNotFound
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (s *Store) WriteFile(ctx context.Context, path string, data []byte, message string) (*inkwell.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return nil, s.WriteErr
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.files[path] = file{data: stored, modTime: time.Now()}
	s.commits++
	return &inkwell.WriteResult{SHA: fmt.Sprintf("commit-%d", s.commits)}, nil
}

func (s *Store) ListFiles(ctx context.Context, prefix string) ([]inkwell.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var files []inkwell.FileInfo
	for path, f := range s.files {
		if strings.HasPrefix(path, prefix) {
			files = append(files, inkwell.FileInfo{Path: path, ModTime: f.modTime})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Store) DeleteFiles(ctx context.Context, prefix string, message string) (*inkwell.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return nil, s.DeleteErr
	}

	var targets []string
	for path := range s.files {
		if strings.HasPrefix(path, prefix) {
			targets = append(targets, path)
		}
	}
	if len(targets) == 0 {
		return nil, inkwell.ErrNotFound
	}
	sort.Strings(targets)

	result := &inkwell.DeleteResult{}
	for _, path := range targets {
		if s.DeleteFailures[path] {
			result.FailedPaths = append(result.FailedPaths, path)
			continue
		}
		delete(s.files, path)
		result.DeletedPaths = append(result.DeletedPaths, path)
	}

	if len(result.DeletedPaths) == 0 && len(result.FailedPaths) > 0 {
		return result, fmt.Errorf("failed to delete %s", strings.Join(result.FailedPaths, ", "))
	}
	return result, nil
}

// CommitFiles applies all files as a single numbered commit.
func (s *Store) CommitFiles(ctx context.Context, files []inkwell.CommitFile, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return "", s.WriteErr
	}
	now := time.Now()
	for _, f := range files {
		stored := make([]byte, len(f.Content))
		copy(stored, f.Content)
		s.files[f.Path] = file{data: stored, modTime: now}
	}
	s.commits++
	return fmt.Sprintf("commit-%d", s.commits), nil
}

// Commits reports how many commits the store has accepted.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Paths returns every stored path, sorted.
func (s *Store) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
