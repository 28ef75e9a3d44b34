package inkwell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	gosimpleslug "github.com/gosimple/slug"
	"github.com/google/uuid"
)

const (
	publishedPrefix = "content/blog"
	draftsPrefix    = "content/blog/drafts"
	imagesPrefix    = "images"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// service implements the Service interface
type service struct {
	repository    DocumentStore
	local         DocumentStore
	staging       BlobStore
	stagingHosts  []string
	httpClient    *http.Client
	retryAttempts uint64
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository-backed document store. The service
// operates local-only when no repository is configured.
func WithRepository(store DocumentStore) Option {
	return func(s *service) {
		s.repository = store
	}
}

// WithLocalStore sets the local-disk fallback document store.
func WithLocalStore(store DocumentStore) Option {
	return func(s *service) {
		s.local = store
	}
}

// WithStaging sets the blob store used to stage image uploads.
func WithStaging(store BlobStore) Option {
	return func(s *service) {
		s.staging = store
	}
}

// WithStagingHosts sets the URL hosts treated as staged-image references.
func WithStagingHosts(hosts ...string) Option {
	return func(s *service) {
		s.stagingHosts = hosts
	}
}

// WithHTTPClient sets the client used to download staged images.
func WithHTTPClient(client *http.Client) Option {
	return func(s *service) {
		s.httpClient = client
	}
}

// WithImageRetry sets how many download attempts each staged image gets
// and the delay between them.
func WithImageRetry(attempts uint64, delay time.Duration) Option {
	return func(s *service) {
		s.retryAttempts = attempts
		s.retryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		retryAttempts: 3,
		retryDelay:    time.Second,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.local == nil {
		return nil, fmt.Errorf("local document store is required")
	}

	return s, nil
}

// stores returns the persistence fallback chain in order.
func (s *service) stores() []DocumentStore {
	if s.repository != nil {
		return []DocumentStore{s.repository, s.local}
	}
	return []DocumentStore{s.local}
}

func documentPath(slug string, draft bool) string {
	if draft {
		return draftsPrefix + "/" + slug + "/index.md"
	}
	return publishedPrefix + "/" + slug + "/index.md"
}

func postPrefix(slug string, draft bool) string {
	if draft {
		return draftsPrefix + "/" + slug + "/"
	}
	return publishedPrefix + "/" + slug + "/"
}

func imageRepoPath(slug, filename string) string {
	return imagesPrefix + "/" + slug + "/" + filename
}

func imageRelativeURL(slug, filename string) string {
	return "/" + imagesPrefix + "/" + slug + "/" + filename
}

func (s *service) SavePost(ctx context.Context, req SavePostRequest) (*SaveResult, error) {
	if !slugPattern.MatchString(req.Slug) {
		return nil, &ValidationError{Field: "slug", Err: ErrInvalidSlug}
	}
	fm := BuildFrontmatter(req.Frontmatter)
	if fm.Title == "" {
		return nil, &ValidationError{Field: "frontmatter", Err: ErrMissingTitle}
	}
	if fm.Date == "" {
		return nil, &ValidationError{Field: "frontmatter", Err: ErrMissingDate}
	}

	docText := SerializeDocument(fm, req.Body)

	var images *ImageMigration
	if s.referencesStaging(docText) {
		if s.repository == nil {
			s.logger.Warn("staged images found but no repository configured, skipping migration",
				"slug", req.Slug)
		} else {
			docText, images = s.migrateImages(ctx, req.Slug, docText)
			if s.referencesStaging(docText) {
				s.logger.Warn("staging URLs remain in document after migration",
					"slug", req.Slug, "failed", len(images.Failed))
			}
		}
	}

	target := documentPath(req.Slug, fm.Draft)
	message := commitMessage(fm)
	result := &SaveResult{Path: target, Images: images}

	var repoErr error
	if s.repository != nil {
		wr, err := s.repository.WriteFile(ctx, target, []byte(docText), message)
		if err != nil {
			repoErr = err
			s.logger.Error("repository write failed, falling back to local store",
				"slug", req.Slug, "path", target, "error", err)
		} else {
			result.Repository = &CommitResult{Committed: true, SHA: wr.SHA}
		}
	}

	if result.Repository == nil {
		if _, err := s.local.WriteFile(ctx, target, []byte(docText), message); err != nil {
			s.logger.Error("local write failed", "slug", req.Slug, "path", target, "error", err)
			if repoErr != nil {
				return nil, fmt.Errorf("all persistence backends failed: repository: %v; local: %w", repoErr, err)
			}
			return nil, err
		}
		result.Local = true
	}

	// A draft flip leaves a stale copy in the other home; clear it.
	s.removeStaleCopy(ctx, req.Slug, !fm.Draft)

	result.Message = s.saveMessage(fm, result, repoErr)
	return result, nil
}

func commitMessage(fm Frontmatter) string {
	if fm.Draft {
		return "Add/Update draft post: " + fm.Title
	}
	return "Publish post: " + fm.Title
}

func (s *service) saveMessage(fm Frontmatter, result *SaveResult, repoErr error) string {
	statusText := "Post published"
	if fm.Draft {
		statusText = "Draft saved"
	}
	switch {
	case result.Repository != nil && result.Images != nil && len(result.Images.Processed) > 0:
		return fmt.Sprintf("%s successfully! %d images processed.", statusText, len(result.Images.Processed))
	case result.Repository != nil:
		return statusText + " successfully!"
	case repoErr != nil:
		return statusText + " locally (repository unavailable)"
	default:
		return statusText + " locally (repository not configured)"
	}
}

func (s *service) removeStaleCopy(ctx context.Context, slug string, draft bool) {
	prefix := postPrefix(slug, draft)
	for _, store := range s.stores() {
		if _, err := store.DeleteFiles(ctx, prefix, "Remove superseded copy of post: "+slug); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to remove superseded post copy",
				"store", store.Name(), "prefix", prefix, "error", err)
		}
	}
}

func (s *service) GetPost(ctx context.Context, slug string) (*Post, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrNotFound
	}

	for _, store := range s.stores() {
		post, err := s.readPost(ctx, store, slug)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("document store read failed, trying next store",
				"store", store.Name(), "slug", slug, "error", err)
		}
	}
	return nil, ErrNotFound
}

// readPost checks the drafts home first so the editor always loads the
// version it would overwrite.
func (s *service) readPost(ctx context.Context, store DocumentStore, slug string) (*Post, error) {
	for _, draft := range []bool{true, false} {
		data, err := store.ReadFile(ctx, documentPath(slug, draft))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		fm, body, err := ParseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse post %q: %w", slug, err)
		}
		return &Post{Slug: slug, Frontmatter: fm, Body: body, Source: store.Name()}, nil
	}
	return nil, ErrNotFound
}

func (s *service) ListPosts(ctx context.Context) (*PostList, error) {
	var lastErr error
	for _, store := range s.stores() {
		entries, err := store.ListFiles(ctx, publishedPrefix+"/")
		if err != nil {
			lastErr = err
			s.logger.Warn("document store listing failed, trying next store",
				"store", store.Name(), "error", err)
			continue
		}

		posts := make([]PostSummary, 0, len(entries))
		for _, entry := range entries {
			slug, ok := publishedSlug(entry.Path)
			if !ok {
				continue
			}
			data, err := store.ReadFile(ctx, entry.Path)
			if err != nil {
				s.logger.Warn("skipping unreadable post", "path", entry.Path, "error", err)
				continue
			}
			fm, _, err := ParseDocument(data)
			if err != nil {
				s.logger.Warn("skipping post with unparseable frontmatter", "path", entry.Path, "error", err)
				continue
			}
			title := fm.Title
			if title == "" {
				title = slug
			}
			posts = append(posts, PostSummary{
				Title:        title,
				Slug:         slug,
				LastModified: lastModified(fm),
			})
		}

		sort.Slice(posts, func(i, j int) bool {
			return posts[i].LastModified.After(posts[j].LastModified)
		})
		return &PostList{Posts: posts, Source: store.Name()}, nil
	}
	return nil, lastErr
}

// publishedSlug extracts the slug from a published document path, rejecting
// anything under the drafts home.
func publishedSlug(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, publishedPrefix+"/")
	if !ok || strings.HasPrefix(rest, "drafts/") {
		return "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "index.md" {
		return "", false
	}
	return parts[0], true
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// lastModified prefers the lastmod field, then the date field, then now.
func lastModified(fm Frontmatter) time.Time {
	for _, value := range []string{fm.LastMod, fm.Date} {
		if value == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

func (s *service) DeletePost(ctx context.Context, slug string) (*DeleteResult, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrNotFound
	}

	message := "Delete blog post: " + slug
	total := &DeleteResult{}
	found := false
	var lastErr error

	for _, store := range s.stores() {
		storeFound := false
		for _, draft := range []bool{false, true} {
			res, err := store.DeleteFiles(ctx, postPrefix(slug, draft), message)
			if res != nil {
				// A result means the post exists in this store, even
				// when every file failed to delete. That is a failure
				// to report, not a missing post.
				found = true
				storeFound = true
				total.DeletedPaths = append(total.DeletedPaths, res.DeletedPaths...)
				total.FailedPaths = append(total.FailedPaths, res.FailedPaths...)
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				s.logger.Error("delete failed", "store", store.Name(), "slug", slug, "error", err)
				lastErr = err
			}
		}
		if storeFound {
			// Migrated images for the post ride along, best-effort.
			if _, err := store.DeleteFiles(ctx, imagesPrefix+"/"+slug+"/", message); err != nil && !errors.Is(err, ErrNotFound) {
				s.logger.Warn("failed to remove post images", "store", store.Name(), "slug", slug, "error", err)
			}
		}
	}

	if !found {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNotFound
	}
	if len(total.DeletedPaths) == 0 && len(total.FailedPaths) > 0 {
		return total, fmt.Errorf("failed to delete %s", strings.Join(total.FailedPaths, ", "))
	}
	return total, nil
}

func (s *service) StageImage(ctx context.Context, req StageImageRequest) (*StagedImage, error) {
	if s.staging == nil {
		return nil, ErrNoStagingStore
	}
	if !slugPattern.MatchString(req.Slug) {
		return nil, &ValidationError{Field: "slug", Err: ErrInvalidSlug}
	}
	if len(req.Data) == 0 || req.Filename == "" {
		return nil, &ValidationError{Field: "file", Err: ErrMissingFile}
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeFilename(req.Filename))
	url, err := s.staging.Upload(ctx, key, bytes.NewReader(req.Data), contentType)
	if err != nil {
		return nil, err
	}

	s.logger.Info("staged image upload", "slug", req.Slug, "key", key, "bytes", len(req.Data))
	return &StagedImage{URL: url, Filename: key}, nil
}

// safeFilename reduces an arbitrary upload name to a collision-resistant,
// filesystem-safe key component.
func safeFilename(name string) string {
	ext := strings.ToLower(path.Ext(name))
	base := gosimpleslug.Make(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	if base == "" {
		base = "image-" + uuid.NewString()[:8]
	}
	if ext != "" {
		ext = "." + gosimpleslug.Make(strings.TrimPrefix(ext, "."))
	}
	return base + ext
}

func (s *service) RepositoryStatus(ctx context.Context) *StoreStatus {
	status := &StoreStatus{}
	if s.repository == nil {
		return status
	}
	status.Configured = true
	status.Store = s.repository.Name()

	pinger, ok := s.repository.(Pinger)
	if !ok {
		status.Reachable = true
		return status
	}
	if err := pinger.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Reachable = true
	return status
}

func (s *service) referencesStaging(text string) bool {
	for _, host := range s.stagingHosts {
		if strings.Contains(text, host) {
			return true
		}
	}
	return false
}
