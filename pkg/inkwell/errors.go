package inkwell

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates a document does not exist in any configured store
	ErrNotFound = errors.New("post not found")

	// ErrInvalidSlug indicates a slug outside the allowed character set
	ErrInvalidSlug = errors.New("slug must contain only lowercase letters, digits, and hyphens")

	// ErrMissingTitle indicates a save without the required title field
	ErrMissingTitle = errors.New("title is required")

	// ErrMissingDate indicates a save without the required date field
	ErrMissingDate = errors.New("date is required")

	// ErrMissingFile indicates an upload without file data
	ErrMissingFile = errors.New("file data is required")

	// ErrNoStagingStore indicates an upload attempt with no staging backend configured
	ErrNoStagingStore = errors.New("no staging store configured")
)

// ValidationError rejects a submission before any side effect takes place.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError represents a failed operation against a document or blob store.
// Status carries the provider's HTTP status code when one was observed.
type StoreError struct {
	Store  string
	Op     string
	Path   string
	Status int
	Err    error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("store %s: %s %s failed with status %d: %v", e.Store, e.Op, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("store %s: %s %s failed: %v", e.Store, e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
