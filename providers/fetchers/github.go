/*
Package fetchers provides file fetching functions for local and remote repositories.

Fetchers are used to read solidity sources (for their pragma) and release lists
published in git repositories.
*/

package fetchers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/go-github/v33/github"
	"github.com/pkg/errors"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileFetcher interface defines fetchers methods.
type FileFetcher interface {
	FileContent(ctx context.Context, path string) ([]byte, error)
}

// ByteMapFetcher is used for storing file contents in memory (usefull for debugging/testing or for building custom repositories logic)
type ByteMapFetcher struct {
	Files map[string][]byte
}

// FileContent retrieves (if found) []byte contents from it's map using path argument as a key.
func (sf ByteMapFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	v, ok := sf.Files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return v, nil
}

// LocalFetcher reads files from the local filesystem.
// Relative paths are resolved against Root (the working directory when empty).
type LocalFetcher struct {
	Root string
}

// FileContent reads the file content from disk.
func (lf LocalFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && lf.Root != "" {
		path = filepath.Join(lf.Root, path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, errors.Wrapf(err, "unable to read '%s'", path)
	}
	return b, nil
}

// GitHubFetcher reads files of one repository revision through the GitHub contents API.
type GitHubFetcher struct {
	Owner string
	Repo  string
	// Ref is a branch, tag or commit; the default branch when empty.
	Ref string

	client *github.Client
}

// NewGitHubFetcher constructs a GitHubFetcher for '{owner}/{repo}' at ref.
// httpClient may carry an authenticating transport (e.g. github.BasicAuthTransport).
func NewGitHubFetcher(httpClient *http.Client, owner, repo, ref string) *GitHubFetcher {
	return &GitHubFetcher{
		Owner:  owner,
		Repo:   repo,
		Ref:    ref,
		client: github.NewClient(httpClient),
	}
}

// FileContent returns the content of the file at the repository-relative path.
func (gf *GitHubFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: gf.Ref}
	file, dir, resp, err := gf.client.Repositories.GetContents(ctx, gf.Owner, gf.Repo, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrFileNotFound
		}
		return nil, errors.Wrapf(err, "unable to load '%s' from %s/%s", path, gf.Owner, gf.Repo)
	}
	if file == nil || len(dir) != 0 {
		return nil, errors.Errorf("'%s' is a directory", path)
	}

	// files over 1MB come without inline content
	if file.GetEncoding() == "none" {
		return gf.download(ctx, path, opts)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode '%s'", path)
	}
	return []byte(content), nil
}

func (gf *GitHubFetcher) download(ctx context.Context, path string, opts *github.RepositoryContentGetOptions) ([]byte, error) {
	rc, _, err := gf.client.Repositories.DownloadContents(ctx, gf.Owner, gf.Repo, path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to download '%s' from %s/%s", path, gf.Owner, gf.Repo)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read '%s'", path)
	}
	return b, nil
}
