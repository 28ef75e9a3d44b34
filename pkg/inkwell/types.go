package inkwell

import "time"

// Frontmatter is the canonical, whitelisted set of document fields. Anything
// outside these keys is dropped when a post is saved.
type Frontmatter struct {
	Title   string   `json:"title" yaml:"title"`
	Date    string   `json:"date" yaml:"date"`
	Draft   bool     `json:"draft,omitempty" yaml:"draft,omitempty"`
	Summary string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// LastMod is recognized when reading documents (listing prefers it over
	// Date) but is never emitted by the canonical serializer.
	LastMod string `json:"lastmod,omitempty" yaml:"lastmod,omitempty"`
}

// Post is a parsed document together with the store it was read from.
type Post struct {
	Slug        string      `json:"slug"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Body        string      `json:"body"`
	Source      string      `json:"source"`
}

// PostSummary is the lightweight listing projection of a document.
type PostSummary struct {
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	LastModified time.Time `json:"lastModified"`
}

// PostList carries listing results plus the store they came from.
type PostList struct {
	Posts  []PostSummary `json:"posts"`
	Source string        `json:"source"`
}

// User is the identity carried inside a verified token. There is no
// server-side session record; a valid token is the session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// WriteResult reports a single-file write. SHA is the resulting commit for
// repository-backed stores and empty for plain filesystem stores.
type WriteResult struct {
	SHA string `json:"sha,omitempty"`
}

// FileInfo describes one entry from a store listing.
type FileInfo struct {
	Path    string
	SHA     string
	ModTime time.Time
}

// CommitResult reports whether the repository accepted the document and at
// which commit.
type CommitResult struct {
	Committed bool   `json:"committed"`
	SHA       string `json:"sha,omitempty"`
}

// ImageMigration is the structured outcome of moving staged images into the
// repository. Failures are recorded, not raised; a save never aborts solely
// because an image could not be migrated.
type ImageMigration struct {
	Processed []string `json:"processed"`
	Failed    []string `json:"failed"`
	Total     int      `json:"total"`
}

// DeleteResult carries per-file outcomes of a best-effort prefix deletion.
type DeleteResult struct {
	DeletedPaths []string `json:"deletedFilePaths"`
	FailedPaths  []string `json:"failedFilePaths"`
}

// SaveResult is the response of a completed save, reporting which of the
// persistence avenues succeeded.
type SaveResult struct {
	Path       string          `json:"path"`
	Repository *CommitResult   `json:"repository,omitempty"`
	Local      bool            `json:"local"`
	Images     *ImageMigration `json:"images,omitempty"`
	Message    string          `json:"message"`
}

// StagedImage is the outcome of staging an upload in the object store. The
// URL is ephemeral: the next save migrates it into the repository.
type StagedImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// StoreStatus reports repository configuration and reachability.
type StoreStatus struct {
	Configured bool   `json:"configured"`
	Store      string `json:"store,omitempty"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}
