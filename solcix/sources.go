package solcix

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/dephub/solcix/providers/fetchers"
	"github.com/dephub/solcix/providers/parsers"
	"github.com/dephub/solcix/providers/versioneer"
)

// gitAddrRgx matches ssh and http(s) repository addresses:
//
//	'git@github.com:vendor/reponame.git'
//	'ssh://git@github.com/vendor/reponame.git'
//	'https://github.com/vendor/reponame'
//
// Submatches are the host (1) and the 'vendor/repo' path (2).
var gitAddrRgx = regexp.MustCompile(`^(?:git@|(?:git|ssh|https?)://(?:[\w.-]+@)?)([\w.~-]+)[:/]([\w.@:/~-]+?)(?:\.git)?/?$`)

// supportedGitHosts lists the hosts NewGitSource can read from.
var supportedGitHosts = map[string]bool{"github.com": true}

// PragmaSource reads the 'pragma solidity' statement of source files.
type PragmaSource interface {
	// Pragma returns the pragma declared by the file, nil if it declares none.
	Pragma(ctx context.Context, path string) (*versioneer.Pragma, error)
}

// FetcherSource reads the pragmas of files served by a fetchers.FileFetcher.
type FetcherSource struct {
	parser parsers.PragmaParser
}

// NewFetcherSource constructs a FetcherSource over any fetcher.
func NewFetcherSource(fetcher fetchers.FileFetcher) *FetcherSource {
	return &FetcherSource{parser: parsers.NewPragmaParser(fetcher)}
}

// NewMemorySource constructs a source over in-memory files.
func NewMemorySource(files map[string][]byte) *FetcherSource {
	return NewFetcherSource(fetchers.ByteMapFetcher{Files: files})
}

// NewLocalSource constructs a source reading files below root.
func NewLocalSource(root string) *FetcherSource {
	return NewFetcherSource(fetchers.LocalFetcher{Root: root})
}

// NewGitSource constructs a source reading repo-relative paths of a remote repository at ref
// (a commit, branch or tag).
//
// httpClient may carry credentials, see GitHubClient.
func NewGitSource(httpClient *http.Client, repoAddr, ref string) (*FetcherSource, error) {
	vendor, repo, err := parseGitAddr(repoAddr)
	if err != nil {
		return nil, err
	}
	return NewFetcherSource(fetchers.NewGitHubFetcher(httpClient, vendor, repo, ref)), nil
}

// Pragma returns the pragma declared by the file.
func (fs *FetcherSource) Pragma(ctx context.Context, path string) (*versioneer.Pragma, error) {
	return fs.parser.Pragma(ctx, path)
}

func parseGitAddr(addr string) (vendor, repo string, err error) {
	m := gitAddrRgx.FindStringSubmatch(addr)
	if m == nil {
		return "", "", errors.Errorf("unsupported git repository format %q", addr)
	}
	host, name := m[1], m[2]
	if !supportedGitHosts[host] {
		return "", "", errors.Errorf("git source %q is not supported", host)
	}

	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("unable to parse vendor from name %q", name)
	}
	return parts[0], parts[1], nil
}
