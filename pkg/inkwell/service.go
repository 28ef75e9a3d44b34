package inkwell

import (
	"context"
)

// SavePostRequest is a full-document save: the frontmatter arrives as an
// arbitrary object and is projected onto the recognized fields, the body is
// raw markdown that may still reference staged images.
type SavePostRequest struct {
	Slug        string                 `json:"slug"`
	Frontmatter map[string]interface{} `json:"frontmatter"`
	Body        string                 `json:"body"`
}

// StageImageRequest stages an uploaded image in the object store.
type StageImageRequest struct {
	Slug        string
	Filename    string
	ContentType string
	Data        []byte
}

// Service is the publishing core: save/retrieve/list/delete posts and stage
// image uploads.
type Service interface {
	// SavePost validates, serializes, migrates staged images, and persists
	// the document through the store fallback chain.
	SavePost(ctx context.Context, req SavePostRequest) (*SaveResult, error)

	// GetPost locates and parses a document by slug, drafts first.
	GetPost(ctx context.Context, slug string) (*Post, error)

	// ListPosts enumerates published documents and their listing metadata.
	ListPosts(ctx context.Context) (*PostList, error)

	// DeletePost removes every file under the post's storage prefix.
	DeletePost(ctx context.Context, slug string) (*DeleteResult, error)

	// StageImage uploads image bytes to the staging store and returns the
	// ephemeral URL to embed while editing.
	StageImage(ctx context.Context, req StageImageRequest) (*StagedImage, error)

	// RepositoryStatus reports whether the repository store is configured
	// and reachable.
	RepositoryStatus(ctx context.Context) *StoreStatus
}
