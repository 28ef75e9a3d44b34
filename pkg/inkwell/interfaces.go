package inkwell

import (
	"context"
	"io"
)

// DocumentStore is the narrow persistence contract every backend satisfies.
// The publish pipeline tries stores in order and is indifferent to which one
// ultimately holds the document beyond reporting it.
type DocumentStore interface {
	// Name identifies the store in responses ("repository", "local", ...).
	Name() string

	// ReadFile returns the content at path, or ErrNotFound.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile creates or overwrites the file at path.
	WriteFile(ctx context.Context, path string, data []byte, message string) (*WriteResult, error)

	// ListFiles returns every file under prefix.
	ListFiles(ctx context.Context, prefix string) ([]FileInfo, error)

	// DeleteFiles removes every file under prefix, best-effort per file.
	// It returns ErrNotFound when no file exists under the prefix, and an
	// error when files were found but none could be deleted.
	DeleteFiles(ctx context.Context, prefix string, message string) (*DeleteResult, error)
}

// CommitFile is one entry of an atomic multi-file commit.
type CommitFile struct {
	Path    string
	Content []byte
}

// Committer is implemented by repository-backed stores that can layer
// several files into a single commit and fast-forward the branch to it.
type Committer interface {
	CommitFiles(ctx context.Context, files []CommitFile, message string) (string, error)
}

// Pinger is implemented by stores that can cheaply verify reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BlobStore stages uploaded binaries until a save migrates them into the
// repository. Returned URLs are ephemeral by contract.
type BlobStore interface {
	// Upload stores the blob under objectKey and returns a retrievable URL.
	Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) (string, error)

	// Download retrieves a staged blob.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes a staged blob.
	Delete(ctx context.Context, objectKey string) error
}
