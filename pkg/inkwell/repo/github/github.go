// Package github implements the inkwell.DocumentStore interface on top of a
// GitHub-hosted repository, addressed by owner/repo/branch. Single-file
// writes use the contents API with a read-before-write to obtain the current
// blob sha; multi-file commits go through the git data API (ref, commit,
// tree) and fast-forward the branch reference.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v39/github"
	"golang.org/x/oauth2"

	"github.com/inkwell-cms/inkwell/pkg/inkwell"
)

const storeName = "repository"

// Config options for the GitHub-backed document store
type Config struct {
	Token  string // personal access token with repo scope
	Owner  string
	Repo   string
	Branch string // defaults to "main"

	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	// Must end with a trailing slash.
	BaseURL string

	// CommitterName/CommitterEmail are used for multi-file commits.
	CommitterName  string
	CommitterEmail string
}

// Store is a GitHub implementation of the inkwell.DocumentStore interface
type Store struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	author github.CommitAuthor
}

// New creates a GitHub-backed document store.
func New(cfg Config) (*Store, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("token, owner, and repo are required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.CommitterName == "" {
		cfg.CommitterName = "Blog Editor"
	}
	if cfg.CommitterEmail == "" {
		cfg.CommitterEmail = "editor@localhost"
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	client := github.NewClient(oauth2.NewClient(context.Background(), ts))
	if cfg.BaseURL != "" {
		base, err := client.BaseURL.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		client.BaseURL = base
	}

	return &Store{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		author: github.CommitAuthor{
			Name:  github.String(cfg.CommitterName),
			Email: github.String(cfg.CommitterEmail),
		},
	}, nil
}

func (s *Store) Name() string { return storeName }

// Ping verifies the repository is reachable with the configured credentials.
func (s *Store) Ping(ctx context.Context) error {
	if _, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo); err != nil {
		return s.wrap("ping", "", err)
	}
	return nil
}

// ReadFile returns the decoded content at path on the configured branch.
// A provider 404 is surfaced as inkwell.ErrNotFound.
func (s *Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		if isNotFound(err) {
			return nil, inkwell.ErrNotFound
		}
		return nil, s.wrap("read", path, err)
	}
	if file == nil {
		return nil, s.wrap("read", path, errors.New("path is a directory"))
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, s.wrap("read", path, err)
	}
	return []byte(content), nil
}

// WriteFile creates the file at path, or updates it in place when a blob
// already exists there. The content API base64-encodes payloads, so binary
// data is safe.
func (s *Store) WriteFile(ctx context.Context, path string, data []byte, message string) (*inkwell.WriteResult, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: data,
		Branch:  github.String(s.branch),
	}

	existing, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: s.branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		resp, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
		if err != nil {
			return nil, s.wrap("update", path, err)
		}
		return &inkwell.WriteResult{SHA: resp.Commit.GetSHA()}, nil
	case isNotFound(err):
		resp, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
		if err != nil {
			return nil, s.wrap("create", path, err)
		}
		return &inkwell.WriteResult{SHA: resp.Commit.GetSHA()}, nil
	default:
		return nil, s.wrap("write", path, err)
	}
}

// ListFiles resolves the branch head and returns every blob under prefix.
func (s *Store) ListFiles(ctx context.Context, prefix string) ([]inkwell.FileInfo, error) {
	entries, err := s.treeEntries(ctx)
	if err != nil {
		return nil, err
	}

	var files []inkwell.FileInfo
	for _, entry := range entries {
		if entry.GetType() != "blob" || !strings.HasPrefix(entry.GetPath(), prefix) {
			continue
		}
		files = append(files, inkwell.FileInfo{Path: entry.GetPath(), SHA: entry.GetSHA()})
	}
	return files, nil
}

// DeleteFiles removes every blob under prefix, one contents-API delete per
// file. A single file's failure does not abort the rest; the outcome
// carries both lists. When every intended delete fails the whole operation
// fails, and an empty prefix is inkwell.ErrNotFound.
func (s *Store) DeleteFiles(ctx context.Context, prefix string, message string) (*inkwell.DeleteResult, error) {
	entries, err := s.treeEntries(ctx)
	if err != nil {
		return nil, err
	}

	var targets []*github.TreeEntry
	for _, entry := range entries {
		if entry.GetType() == "blob" && strings.HasPrefix(entry.GetPath(), prefix) {
			targets = append(targets, entry)
		}
	}
	if len(targets) == 0 {
		return nil, inkwell.ErrNotFound
	}

	result := &inkwell.DeleteResult{}
	for _, entry := range targets {
		opts := &github.RepositoryContentFileOptions{
			Message: github.String(message),
			SHA:     github.String(entry.GetSHA()),
			Branch:  github.String(s.branch),
		}
		if _, _, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, entry.GetPath(), opts); err != nil {
			result.FailedPaths = append(result.FailedPaths, entry.GetPath())
			continue
		}
		result.DeletedPaths = append(result.DeletedPaths, entry.GetPath())
	}

	if len(result.DeletedPaths) == 0 && len(result.FailedPaths) > 0 {
		return result, s.wrap("delete", prefix,
			fmt.Errorf("failed to delete %s", strings.Join(result.FailedPaths, ", ")))
	}
	return result, nil
}

// CommitFiles layers the given files onto the branch head tree in a single
// commit and fast-forwards the branch reference. All-or-nothing: any
// provider failure leaves the branch untouched.
func (s *Store) CommitFiles(ctx context.Context, files []inkwell.CommitFile, message string) (string, error) {
	ref, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "heads/"+s.branch)
	if err != nil {
		return "", s.wrap("commit", "", err)
	}
	parent, _, err := s.client.Git.GetCommit(ctx, s.owner, s.repo, ref.Object.GetSHA())
	if err != nil {
		return "", s.wrap("commit", "", err)
	}

	entries := make([]*github.TreeEntry, len(files))
	for i, f := range files {
		entries[i] = &github.TreeEntry{
			Path:    github.String(f.Path),
			Mode:    github.String("100644"),
			Type:    github.String("blob"),
			Content: github.String(string(f.Content)),
		}
	}
	tree, _, err := s.client.Git.CreateTree(ctx, s.owner, s.repo, parent.Tree.GetSHA(), entries)
	if err != nil {
		return "", s.wrap("commit", "", err)
	}

	commit, _, err := s.client.Git.CreateCommit(ctx, s.owner, s.repo, &github.Commit{
		Message:   github.String(message),
		Author:    &s.author,
		Committer: &s.author,
		Tree:      tree,
		Parents:   []*github.Commit{parent},
	})
	if err != nil {
		return "", s.wrap("commit", "", err)
	}

	ref.Object.SHA = commit.SHA
	if _, _, err := s.client.Git.UpdateRef(ctx, s.owner, s.repo, ref, false); err != nil {
		return "", s.wrap("commit", "", err)
	}
	return commit.GetSHA(), nil
}

// treeEntries resolves ref -> commit -> recursive tree at the branch head.
func (s *Store) treeEntries(ctx context.Context) ([]*github.TreeEntry, error) {
	ref, _, err := s.client.Git.GetRef(ctx, s.owner, s.repo, "heads/"+s.branch)
	if err != nil {
		return nil, s.wrap("list", "", err)
	}
	commit, _, err := s.client.Git.GetCommit(ctx, s.owner, s.repo, ref.Object.GetSHA())
	if err != nil {
		return nil, s.wrap("list", "", err)
	}
	tree, _, err := s.client.Git.GetTree(ctx, s.owner, s.repo, commit.Tree.GetSHA(), true)
	if err != nil {
		return nil, s.wrap("list", "", err)
	}
	return tree.Entries, nil
}

func (s *Store) wrap(op, path string, err error) error {
	return &inkwell.StoreError{
		Store:  storeName,
		Op:     op,
		Path:   path,
		Status: statusOf(err),
		Err:    err,
	}
}

func statusOf(err error) int {
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Response != nil {
		return ger.Response.StatusCode
	}
	return 0
}

func isNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}
