package inkwell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// stagedRef is one staged image reference found in a document body.
type stagedRef struct {
	url      string
	filename string
}

// findStagedImages walks the markdown AST and collects the distinct image
// destinations pointing at the staging host, in order of first appearance.
func (s *service) findStagedImages(body string) []stagedRef {
	src := []byte(body)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var refs []stagedRef
	seen := make(map[string]bool)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		if seen[dest] || !s.isStagingURL(dest) {
			return ast.WalkContinue, nil
		}
		seen[dest] = true
		refs = append(refs, stagedRef{url: dest, filename: filenameFromURL(dest)})
		return ast.WalkContinue, nil
	})
	return refs
}

// isStagingURL matches on hostname, ignoring ports on either side, so a
// host list derived from a port-bearing endpoint still recognizes staged
// references.
func (s *service) isStagingURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	name := u.Hostname()
	for _, host := range s.stagingHosts {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if name == host || strings.HasSuffix(name, "."+host) {
			return true
		}
	}
	return false
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("image-%d.png", time.Now().UnixMilli())
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return fmt.Sprintf("image-%d.png", time.Now().UnixMilli())
	}
	return name
}

// migrateImages moves every staged image referenced by the document into the
// repository and rewrites all occurrences of each staged URL to the
// permanent relative path. Individual failures are recorded in the result
// and never abort the save.
func (s *service) migrateImages(ctx context.Context, slug, docText string) (string, *ImageMigration) {
	refs := s.findStagedImages(docText)
	migration := &ImageMigration{
		Processed: []string{},
		Failed:    []string{},
		Total:     len(refs),
	}

	for _, ref := range refs {
		data, err := s.downloadStagedImage(ctx, ref.url)
		if err != nil {
			s.logger.Error("failed to download staged image",
				"slug", slug, "url", ref.url, "error", err)
			migration.Failed = append(migration.Failed, ref.filename)
			continue
		}

		repoPath := imageRepoPath(slug, ref.filename)
		message := fmt.Sprintf("Add image for blog post: %s - %s", slug, ref.filename)
		if _, err := s.repository.WriteFile(ctx, repoPath, data, message); err != nil {
			s.logger.Error("failed to commit staged image",
				"slug", slug, "path", repoPath, "error", err)
			migration.Failed = append(migration.Failed, ref.filename)
			continue
		}

		docText = strings.ReplaceAll(docText, ref.url, imageRelativeURL(slug, ref.filename))
		migration.Processed = append(migration.Processed, ref.filename)
		s.logger.Info("migrated staged image", "slug", slug, "path", repoPath)

		// The staged copy is ephemeral once the image lives in the
		// repository. Cleanup is best-effort; staged keys are flat, so
		// the URL's last path segment is the object key.
		if s.staging != nil {
			if err := s.staging.Delete(ctx, ref.filename); err != nil && !errors.Is(err, ErrNotFound) {
				s.logger.Warn("failed to remove staged image",
					"slug", slug, "key", ref.filename, "error", err)
			}
		}
	}

	return docText, migration
}

// downloadStagedImage fetches staged bytes with a bounded constant-delay
// retry. Transport errors are retried; a non-2xx response is terminal.
func (s *service) downloadStagedImage(ctx context.Context, rawURL string) ([]byte, error) {
	backoff := retry.NewConstant(s.retryDelay)
	if s.retryAttempts > 1 {
		backoff = retry.WithMaxRetries(s.retryAttempts-1, backoff)
	} else {
		backoff = retry.WithMaxRetries(0, backoff)
	}

	var data []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "inkwell-editor/1.0")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("staging store returned status %d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
