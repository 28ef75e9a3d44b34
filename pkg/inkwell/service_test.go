package inkwell_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
	"github.com/inkwell-cms/inkwell/pkg/inkwell/repo/memory"
	memorystorage "github.com/inkwell-cms/inkwell/pkg/inkwell/storage/memory"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []inkwell.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []inkwell.Option{},
			expectError: true,
		},
		{
			name: "with local store should succeed",
			options: []inkwell.Option{
				inkwell.WithLocalStore(memory.New("local")),
			},
			expectError: false,
		},
		{
			name: "with repository and staging should succeed",
			options: []inkwell.Option{
				inkwell.WithLocalStore(memory.New("local")),
				inkwell.WithRepository(memory.New("repository")),
				inkwell.WithStaging(memorystorage.New("http://staging.test")),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := inkwell.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func newServiceWithStores(t *testing.T, extra ...inkwell.Option) (inkwell.Service, *memory.Store, *memory.Store) {
	t.Helper()
	repo := memory.New("repository")
	local := memory.New("local")

	options := append([]inkwell.Option{
		inkwell.WithRepository(repo),
		inkwell.WithLocalStore(local),
	}, extra...)

	svc, err := inkwell.New(options...)
	require.NoError(t, err)
	return svc, repo, local
}

func saveRequest(slug string) inkwell.SavePostRequest {
	return inkwell.SavePostRequest{
		Slug: slug,
		Frontmatter: map[string]interface{}{
			"title": "Test Post",
			"date":  "2025-01-15",
		},
		Body: "Hello world.\n",
	}
}

func TestSavePostValidation(t *testing.T) {
	svc, repo, local := newServiceWithStores(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  inkwell.SavePostRequest
	}{
		{
			name: "invalid slug",
			req: inkwell.SavePostRequest{
				Slug:        "../etc/passwd",
				Frontmatter: map[string]interface{}{"title": "A", "date": "2025-01-15"},
			},
		},
		{
			name: "uppercase slug",
			req: inkwell.SavePostRequest{
				Slug:        "MyPost",
				Frontmatter: map[string]interface{}{"title": "A", "date": "2025-01-15"},
			},
		},
		{
			name: "missing title",
			req: inkwell.SavePostRequest{
				Slug:        "my-post",
				Frontmatter: map[string]interface{}{"date": "2025-01-15"},
			},
		},
		{
			name: "missing date",
			req: inkwell.SavePostRequest{
				Slug:        "my-post",
				Frontmatter: map[string]interface{}{"title": "A"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.SavePost(ctx, tt.req)
			assert.Nil(t, result)

			var verr *inkwell.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	// Rejected submissions leave no trace in any store.
	assert.Empty(t, repo.Paths())
	assert.Empty(t, local.Paths())
	assert.Zero(t, repo.Commits())
}

func TestSavePostRoundTrip(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	req := inkwell.SavePostRequest{
		Slug: "first-post",
		Frontmatter: map[string]interface{}{
			"title":   "Go: the good parts",
			"date":    "2025-01-15",
			"summary": "Some notes",
			"tags":    []interface{}{"go", "notes"},
			"layout":  "should-be-dropped",
		},
		Body: "First paragraph.\n\nSecond paragraph.\n",
	}

	result, err := svc.SavePost(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result.Repository)
	assert.True(t, result.Repository.Committed)
	assert.Equal(t, "content/blog/first-post/index.md", result.Path)
	assert.False(t, result.Local)
	assert.Equal(t, "Post published successfully!", result.Message)

	post, err := svc.GetPost(ctx, "first-post")
	require.NoError(t, err)
	assert.Equal(t, "Go: the good parts", post.Frontmatter.Title)
	assert.Equal(t, "2025-01-15", post.Frontmatter.Date)
	assert.Equal(t, "Some notes", post.Frontmatter.Summary)
	assert.Equal(t, []string{"go", "notes"}, post.Frontmatter.Tags)
	assert.Equal(t, req.Body, post.Body)
	assert.Equal(t, "repository", post.Source)

	// The unknown field never reaches the stored document.
	raw, err := repo.ReadFile(ctx, "content/blog/first-post/index.md")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "layout")
}

func TestSavePostIdempotent(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	req := saveRequest("stable-post")
	_, err := svc.SavePost(ctx, req)
	require.NoError(t, err)
	first, err := repo.ReadFile(ctx, "content/blog/stable-post/index.md")
	require.NoError(t, err)

	_, err = svc.SavePost(ctx, req)
	require.NoError(t, err)
	second, err := repo.ReadFile(ctx, "content/blog/stable-post/index.md")
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestSavePostDraftFlip(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	req := saveRequest("flipping-post")
	req.Frontmatter["draft"] = true

	result, err := svc.SavePost(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "content/blog/drafts/flipping-post/index.md", result.Path)
	assert.Equal(t, "Draft saved successfully!", result.Message)
	assert.Contains(t, repo.Paths(), "content/blog/drafts/flipping-post/index.md")

	// Publishing the draft removes the stale drafts copy.
	req.Frontmatter["draft"] = false
	result, err = svc.SavePost(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "content/blog/flipping-post/index.md", result.Path)
	assert.NotContains(t, repo.Paths(), "content/blog/drafts/flipping-post/index.md")

	// And flipping back to draft removes the published copy.
	req.Frontmatter["draft"] = true
	_, err = svc.SavePost(ctx, req)
	require.NoError(t, err)
	assert.NotContains(t, repo.Paths(), "content/blog/flipping-post/index.md")
	assert.Contains(t, repo.Paths(), "content/blog/drafts/flipping-post/index.md")
}

func TestSavePostRepositoryFallback(t *testing.T) {
	svc, repo, local := newServiceWithStores(t)
	repo.WriteErr = errors.New("api rate limit exceeded")
	ctx := context.Background()

	result, err := svc.SavePost(ctx, saveRequest("fallback-post"))
	require.NoError(t, err)
	assert.Nil(t, result.Repository)
	assert.True(t, result.Local)
	assert.Equal(t, "Post published locally (repository unavailable)", result.Message)
	assert.Contains(t, local.Paths(), "content/blog/fallback-post/index.md")

	// The post is still retrievable through the fallback chain.
	post, err := svc.GetPost(ctx, "fallback-post")
	require.NoError(t, err)
	assert.Equal(t, "local", post.Source)
}

func TestSavePostAllStoresFail(t *testing.T) {
	repo := memory.New("repository")
	local := memory.New("local")
	repo.WriteErr = errors.New("repository down")
	local.WriteErr = errors.New("disk full")

	svc, err := inkwell.New(
		inkwell.WithRepository(repo),
		inkwell.WithLocalStore(local),
	)
	require.NoError(t, err)

	result, err := svc.SavePost(context.Background(), saveRequest("doomed-post"))
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSavePostLocalOnly(t *testing.T) {
	local := memory.New("local")
	svc, err := inkwell.New(inkwell.WithLocalStore(local))
	require.NoError(t, err)

	result, err := svc.SavePost(context.Background(), saveRequest("local-post"))
	require.NoError(t, err)
	assert.Nil(t, result.Repository)
	assert.True(t, result.Local)
	assert.Equal(t, "Post published locally (repository not configured)", result.Message)
}

func TestGetPost(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetPost(ctx, "nope")
		assert.ErrorIs(t, err, inkwell.ErrNotFound)
	})

	t.Run("invalid slug is not found", func(t *testing.T) {
		_, err := svc.GetPost(ctx, "../../secrets")
		assert.ErrorIs(t, err, inkwell.ErrNotFound)
	})

	t.Run("draft copy wins over published copy", func(t *testing.T) {
		published := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "Old", Date: "2025-01-01"}, "old\n")
		draft := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "New", Date: "2025-01-02", Draft: true}, "new\n")
		_, err := repo.WriteFile(ctx, "content/blog/twice-homed/index.md", []byte(published), "seed")
		require.NoError(t, err)
		_, err = repo.WriteFile(ctx, "content/blog/drafts/twice-homed/index.md", []byte(draft), "seed")
		require.NoError(t, err)

		post, err := svc.GetPost(ctx, "twice-homed")
		require.NoError(t, err)
		assert.Equal(t, "New", post.Frontmatter.Title)
		assert.True(t, post.Frontmatter.Draft)
	})

	t.Run("unparseable document reads as not found", func(t *testing.T) {
		_, err := repo.WriteFile(ctx, "content/blog/broken/index.md", []byte("no frontmatter"), "seed")
		require.NoError(t, err)

		_, err = svc.GetPost(ctx, "broken")
		assert.ErrorIs(t, err, inkwell.ErrNotFound)
	})
}

func TestListPosts(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	seed := func(path string, fm inkwell.Frontmatter) {
		t.Helper()
		doc := inkwell.SerializeDocument(fm, "body\n")
		_, err := repo.WriteFile(ctx, path, []byte(doc), "seed")
		require.NoError(t, err)
	}

	seed("content/blog/older-post/index.md", inkwell.Frontmatter{Title: "Older", Date: "2025-01-01"})
	seed("content/blog/newer-post/index.md", inkwell.Frontmatter{Title: "Newer", Date: "2025-02-01"})
	seed("content/blog/drafts/hidden-draft/index.md", inkwell.Frontmatter{Title: "Hidden", Date: "2025-03-01", Draft: true})
	// Sidecar files in a post directory are not posts.
	_, err := repo.WriteFile(ctx, "content/blog/older-post/notes.txt", []byte("x"), "seed")
	require.NoError(t, err)

	list, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "repository", list.Source)
	require.Len(t, list.Posts, 2)
	assert.Equal(t, "newer-post", list.Posts[0].Slug)
	assert.Equal(t, "older-post", list.Posts[1].Slug)
	assert.Equal(t, "Newer", list.Posts[0].Title)
}

func TestListPostsLastModPreferred(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	raw := "---\ntitle: Updated\ndate: \"2025-01-01\"\nlastmod: \"2025-06-01\"\n---\n\nbody\n"
	_, err := repo.WriteFile(ctx, "content/blog/updated-post/index.md", []byte(raw), "seed")
	require.NoError(t, err)

	list, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	expected, _ := time.Parse("2006-01-02", "2025-06-01")
	assert.Equal(t, expected, list.Posts[0].LastModified)
}

func TestListPostsFallsBackWhenRepositoryUnreachable(t *testing.T) {
	svc, repo, local := newServiceWithStores(t)
	ctx := context.Background()

	repo.ListErr = errors.New("connection refused")
	doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "Local Only", Date: "2025-01-01"}, "body\n")
	_, err := local.WriteFile(ctx, "content/blog/local-only/index.md", []byte(doc), "seed")
	require.NoError(t, err)

	list, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local", list.Source)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "local-only", list.Posts[0].Slug)
}

func TestListPostsSkipsUnparseable(t *testing.T) {
	svc, repo, _ := newServiceWithStores(t)
	ctx := context.Background()

	_, err := repo.WriteFile(ctx, "content/blog/bad-post/index.md", []byte("not a document"), "seed")
	require.NoError(t, err)
	doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "Good", Date: "2025-01-01"}, "body\n")
	_, err = repo.WriteFile(ctx, "content/blog/good-post/index.md", []byte(doc), "seed")
	require.NoError(t, err)

	list, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "good-post", list.Posts[0].Slug)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every file under the post across stores", func(t *testing.T) {
		svc, repo, local := newServiceWithStores(t)
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-01"}, "body\n")
		_, err := repo.WriteFile(ctx, "content/blog/doomed/index.md", []byte(doc), "seed")
		require.NoError(t, err)
		_, err = repo.WriteFile(ctx, "images/doomed/photo.png", []byte{1, 2, 3}, "seed")
		require.NoError(t, err)
		_, err = local.WriteFile(ctx, "content/blog/doomed/index.md", []byte(doc), "seed")
		require.NoError(t, err)

		result, err := svc.DeletePost(ctx, "doomed")
		require.NoError(t, err)
		assert.NotEmpty(t, result.DeletedPaths)
		assert.Empty(t, result.FailedPaths)
		assert.Empty(t, repo.Paths())
		assert.Empty(t, local.Paths())
	})

	t.Run("draft copy is removed too", func(t *testing.T) {
		svc, repo, _ := newServiceWithStores(t)
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-01", Draft: true}, "body\n")
		_, err := repo.WriteFile(ctx, "content/blog/drafts/doomed-draft/index.md", []byte(doc), "seed")
		require.NoError(t, err)

		_, err = svc.DeletePost(ctx, "doomed-draft")
		require.NoError(t, err)
		assert.Empty(t, repo.Paths())
	})

	t.Run("partial failure is reported, not raised", func(t *testing.T) {
		svc, repo, _ := newServiceWithStores(t)
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-01"}, "body\n")
		_, err := repo.WriteFile(ctx, "content/blog/sticky/index.md", []byte(doc), "seed")
		require.NoError(t, err)
		_, err = repo.WriteFile(ctx, "content/blog/sticky/extra.md", []byte("x"), "seed")
		require.NoError(t, err)
		repo.DeleteFailures = map[string]bool{"content/blog/sticky/extra.md": true}

		result, err := svc.DeletePost(ctx, "sticky")
		require.NoError(t, err)
		assert.Equal(t, []string{"content/blog/sticky/index.md"}, result.DeletedPaths)
		assert.Equal(t, []string{"content/blog/sticky/extra.md"}, result.FailedPaths)
	})

	t.Run("every file failing is an error, not missing", func(t *testing.T) {
		svc, repo, _ := newServiceWithStores(t)
		doc := inkwell.SerializeDocument(inkwell.Frontmatter{Title: "A", Date: "2025-01-01"}, "body\n")
		_, err := repo.WriteFile(ctx, "content/blog/stuck/index.md", []byte(doc), "seed")
		require.NoError(t, err)
		repo.DeleteFailures = map[string]bool{"content/blog/stuck/index.md": true}

		_, err = svc.DeletePost(ctx, "stuck")
		require.Error(t, err)
		assert.NotErrorIs(t, err, inkwell.ErrNotFound)
		assert.Contains(t, err.Error(), "content/blog/stuck/index.md")
	})

	t.Run("unreachable store surfaces its error", func(t *testing.T) {
		svc, repo, _ := newServiceWithStores(t)
		repo.DeleteErr = errors.New("repository unreachable")

		_, err := svc.DeletePost(ctx, "anything")
		require.Error(t, err)
		assert.NotErrorIs(t, err, inkwell.ErrNotFound)
		assert.Contains(t, err.Error(), "unreachable")
	})

	t.Run("not found anywhere", func(t *testing.T) {
		svc, _, _ := newServiceWithStores(t)
		_, err := svc.DeletePost(ctx, "ghost")
		assert.ErrorIs(t, err, inkwell.ErrNotFound)
	})

	t.Run("invalid slug is not found", func(t *testing.T) {
		svc, _, _ := newServiceWithStores(t)
		_, err := svc.DeletePost(ctx, "Bad/Slug")
		assert.ErrorIs(t, err, inkwell.ErrNotFound)
	})
}

func TestStageImage(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads and returns staging url", func(t *testing.T) {
		staging := memorystorage.New("http://staging.test")
		svc, err := inkwell.New(
			inkwell.WithLocalStore(memory.New("local")),
			inkwell.WithStaging(staging),
		)
		require.NoError(t, err)

		staged, err := svc.StageImage(ctx, inkwell.StageImageRequest{
			Slug:        "my-post",
			Filename:    "My Photo (1).PNG",
			ContentType: "image/png",
			Data:        []byte{0x89, 0x50, 0x4e, 0x47},
		})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(staged.URL, "http://staging.test/"))
		assert.True(t, strings.HasSuffix(staged.Filename, ".png"))
		assert.Contains(t, staged.Filename, "my-photo-1")
	})

	t.Run("no staging store configured", func(t *testing.T) {
		svc, err := inkwell.New(inkwell.WithLocalStore(memory.New("local")))
		require.NoError(t, err)

		_, err = svc.StageImage(ctx, inkwell.StageImageRequest{
			Slug:     "my-post",
			Filename: "a.png",
			Data:     []byte{1},
		})
		assert.ErrorIs(t, err, inkwell.ErrNoStagingStore)
	})

	t.Run("missing file data", func(t *testing.T) {
		svc, err := inkwell.New(
			inkwell.WithLocalStore(memory.New("local")),
			inkwell.WithStaging(memorystorage.New("http://staging.test")),
		)
		require.NoError(t, err)

		_, err = svc.StageImage(ctx, inkwell.StageImageRequest{Slug: "my-post", Filename: "a.png"})
		var verr *inkwell.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("invalid slug", func(t *testing.T) {
		svc, err := inkwell.New(
			inkwell.WithLocalStore(memory.New("local")),
			inkwell.WithStaging(memorystorage.New("http://staging.test")),
		)
		require.NoError(t, err)

		_, err = svc.StageImage(ctx, inkwell.StageImageRequest{
			Slug:     "Bad Slug",
			Filename: "a.png",
			Data:     []byte{1},
		})
		var verr *inkwell.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestRepositoryStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc, err := inkwell.New(inkwell.WithLocalStore(memory.New("local")))
		require.NoError(t, err)

		status := svc.RepositoryStatus(ctx)
		assert.False(t, status.Configured)
		assert.False(t, status.Reachable)
	})

	t.Run("configured store without ping support is assumed reachable", func(t *testing.T) {
		svc, _, _ := newServiceWithStores(t)
		status := svc.RepositoryStatus(ctx)
		assert.True(t, status.Configured)
		assert.True(t, status.Reachable)
		assert.Equal(t, "repository", status.Store)
	})
}

func TestImageMigration(t *testing.T) {
	ctx := context.Background()

	newStagingServer := func(t *testing.T, responses map[string][]byte, failures map[string]int) (*httptest.Server, string) {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status, ok := failures[r.URL.Path]; ok {
				w.WriteHeader(status)
				return
			}
			data, ok := responses[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(data)
		}))
		t.Cleanup(server.Close)
		u, err := url.Parse(server.URL)
		require.NoError(t, err)
		// The configured host is port-stripped, the way the config layer
		// derives hosts, while server.URL keeps its port.
		return server, u.Hostname()
	}

	t.Run("staged images move into the repository", func(t *testing.T) {
		server, host := newStagingServer(t, map[string][]byte{
			"/123-photo.png": {0x89, 0x50},
		}, nil)

		svc, repo, _ := newServiceWithStores(t,
			inkwell.WithStagingHosts(host),
			inkwell.WithImageRetry(3, 10*time.Millisecond),
		)

		req := saveRequest("illustrated-post")
		req.Body = fmt.Sprintf("Look:\n\n![photo](%s/123-photo.png)\n", server.URL)

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, result.Images)
		assert.Equal(t, []string{"123-photo.png"}, result.Images.Processed)
		assert.Empty(t, result.Images.Failed)
		assert.Equal(t, "Post published successfully! 1 images processed.", result.Message)

		// The committed image and the rewritten reference.
		data, err := repo.ReadFile(ctx, "images/illustrated-post/123-photo.png")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x89, 0x50}, data)

		doc, err := repo.ReadFile(ctx, "content/blog/illustrated-post/index.md")
		require.NoError(t, err)
		assert.Contains(t, string(doc), "![photo](/images/illustrated-post/123-photo.png)")
		assert.NotContains(t, string(doc), server.URL)
	})

	t.Run("repeated references rewrite together", func(t *testing.T) {
		server, host := newStagingServer(t, map[string][]byte{
			"/456-diagram.png": {1, 2, 3},
		}, nil)

		svc, repo, _ := newServiceWithStores(t,
			inkwell.WithStagingHosts(host),
			inkwell.WithImageRetry(3, 10*time.Millisecond),
		)

		req := saveRequest("repeats-post")
		req.Body = fmt.Sprintf("![a](%[1]s/456-diagram.png)\n\n![b](%[1]s/456-diagram.png)\n", server.URL)

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Images.Total)

		doc, err := repo.ReadFile(ctx, "content/blog/repeats-post/index.md")
		require.NoError(t, err)
		assert.NotContains(t, string(doc), server.URL)
		assert.Equal(t, 2, strings.Count(string(doc), "/images/repeats-post/456-diagram.png"))
	})

	t.Run("one failing image does not abort the save", func(t *testing.T) {
		server, host := newStagingServer(t, map[string][]byte{
			"/ok.png": {1},
		}, map[string]int{
			"/broken.png": http.StatusInternalServerError,
		})

		svc, repo, _ := newServiceWithStores(t,
			inkwell.WithStagingHosts(host),
			inkwell.WithImageRetry(1, time.Millisecond),
		)

		req := saveRequest("partial-post")
		req.Body = fmt.Sprintf("![a](%[1]s/ok.png)\n\n![b](%[1]s/broken.png)\n", server.URL)

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"ok.png"}, result.Images.Processed)
		assert.Equal(t, []string{"broken.png"}, result.Images.Failed)
		assert.Equal(t, 2, result.Images.Total)

		// The failed reference keeps its staging URL.
		doc, err := repo.ReadFile(ctx, "content/blog/partial-post/index.md")
		require.NoError(t, err)
		assert.Contains(t, string(doc), server.URL+"/broken.png")
		assert.Contains(t, string(doc), "/images/partial-post/ok.png")
	})

	t.Run("host entries carrying a port still match", func(t *testing.T) {
		server, _ := newStagingServer(t, map[string][]byte{
			"/789-chart.png": {4, 5},
		}, nil)
		u, err := url.Parse(server.URL)
		require.NoError(t, err)

		svc, repo, _ := newServiceWithStores(t,
			inkwell.WithStagingHosts(u.Host),
			inkwell.WithImageRetry(3, 10*time.Millisecond),
		)

		req := saveRequest("ported-post")
		req.Body = fmt.Sprintf("![c](%s/789-chart.png)\n", server.URL)

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, result.Images)
		assert.Equal(t, []string{"789-chart.png"}, result.Images.Processed)

		doc, err := repo.ReadFile(ctx, "content/blog/ported-post/index.md")
		require.NoError(t, err)
		assert.Contains(t, string(doc), "/images/ported-post/789-chart.png")
	})

	t.Run("migrated staged objects are removed from staging", func(t *testing.T) {
		server, host := newStagingServer(t, map[string][]byte{
			"/123-keep.png": {7},
		}, map[string]int{
			"/456-stuck.png": http.StatusInternalServerError,
		})

		staging := memorystorage.New(server.URL)
		_, err := staging.Upload(ctx, "123-keep.png", bytes.NewReader([]byte{7}), "image/png")
		require.NoError(t, err)
		_, err = staging.Upload(ctx, "456-stuck.png", bytes.NewReader([]byte{8}), "image/png")
		require.NoError(t, err)

		svc, _, _ := newServiceWithStores(t,
			inkwell.WithStaging(staging),
			inkwell.WithStagingHosts(host),
			inkwell.WithImageRetry(1, time.Millisecond),
		)

		req := saveRequest("cleanup-post")
		req.Body = fmt.Sprintf("![a](%[1]s/123-keep.png)\n\n![b](%[1]s/456-stuck.png)\n", server.URL)

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"123-keep.png"}, result.Images.Processed)
		assert.Equal(t, []string{"456-stuck.png"}, result.Images.Failed)

		// The migrated blob is gone; the failed one stays for a retry.
		_, ok := staging.Get("123-keep.png")
		assert.False(t, ok)
		_, ok = staging.Get("456-stuck.png")
		assert.True(t, ok)
	})

	t.Run("urls outside the staging host are untouched", func(t *testing.T) {
		_, host := newStagingServer(t, nil, nil)

		svc, repo, _ := newServiceWithStores(t, inkwell.WithStagingHosts(host))

		req := saveRequest("external-post")
		req.Body = "![ext](https://example.com/pic.png)\n"

		result, err := svc.SavePost(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, result.Images)

		doc, err := repo.ReadFile(ctx, "content/blog/external-post/index.md")
		require.NoError(t, err)
		assert.Contains(t, string(doc), "https://example.com/pic.png")
	})
}
