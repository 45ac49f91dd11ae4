package solcix

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/go-github/v33/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/cache"
	"github.com/dephub/solcix/providers/fetchers"
	"github.com/dephub/solcix/providers/versioneer"
)

// Legacy linux release list location in the crytic/solc repository.
const (
	legacyListOwner = "crytic"
	legacyListRepo  = "solc"
	legacyListRef   = "new-list-json"
	legacyListPath  = "linux/amd64/list.json"
)

// ReleaseSource provides the release list of one platform.
type ReleaseSource interface {
	Releases(ctx context.Context) (*binaries.ReleaseList, error)
}

// ReleaseLister is the part of binaries.Client used by RemoteSource.
type ReleaseLister interface {
	List(ctx context.Context, platform binaries.Platform) (*binaries.ReleaseList, *http.Response, error)
}

// NewRemoteSource constructs a ReleaseSource reading the binaries host.
//
// legacy fetches the crytic/solc linux list, it is only used on linux and may be nil.
func NewRemoteSource(client ReleaseLister, legacy fetchers.FileFetcher, platform binaries.Platform) *RemoteSource {
	if client == nil {
		client = binaries.NewClient(nil, nil)
	}
	return &RemoteSource{client: client, legacy: legacy, platform: platform}
}

// NewLegacyListFetcher returns the fetcher of the crytic/solc linux list.
func NewLegacyListFetcher(httpClient *http.Client, token string) fetchers.FileFetcher {
	return fetchers.NewGitHubFetcher(GitHubClient(httpClient, token), legacyListOwner, legacyListRepo, legacyListRef)
}

// GitHubClient authenticates httpClient with the token, it is returned unchanged for an empty token.
func GitHubClient(httpClient *http.Client, token string) *http.Client {
	if token == "" {
		return httpClient
	}
	tr := &github.BasicAuthTransport{Username: "x-access-token", Password: token}
	if httpClient != nil {
		tr.Transport = httpClient.Transport
	}
	return tr.Client()
}

// RemoteSource reads the release list from the binaries host.
type RemoteSource struct {
	client   ReleaseLister
	legacy   fetchers.FileFetcher
	platform binaries.Platform
}

// Releases returns the platform release list, extended with the legacy linux builds.
func (rs RemoteSource) Releases(ctx context.Context) (*binaries.ReleaseList, error) {
	list, _, err := rs.client.List(ctx, rs.platform)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s releases", rs.platform)
	}
	if rs.platform != binaries.Linux || rs.legacy == nil {
		return list, nil
	}

	b, err := rs.legacy.FileContent(ctx, legacyListPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to fetch the legacy linux releases")
	}
	legacy, err := binaries.ParseReleaseList(b)
	if err != nil {
		return nil, err
	}
	list.Merge(rs.legacyOnly(legacy))
	return list, nil
}

// legacyOnly keeps the builds the binaries host does not serve.
func (rs RemoteSource) legacyOnly(list *binaries.ReleaseList) *binaries.ReleaseList {
	result := &binaries.ReleaseList{Releases: map[string]string{}}
	for raw, artifact := range list.Releases {
		if v, err := versioneer.ParseVersion(raw); err == nil && rs.platform.Legacy(v) {
			result.Releases[raw] = artifact
		}
	}
	for _, b := range list.Builds {
		if _, ok := result.Releases[b.Version]; ok {
			result.Builds = append(result.Builds, b)
		}
	}
	return result
}

// NewCachedSource wraps src with the persistent cache.
func NewCachedSource(src ReleaseSource, c *cache.Cache, platform binaries.Platform, logger logrus.FieldLogger) *CachedSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &CachedSource{src: src, cache: c, key: "releases:" + string(platform), logger: logger}
}

// CachedSource serves the release list from the cache while it is fresh.
type CachedSource struct {
	src    ReleaseSource
	cache  *cache.Cache
	key    string
	logger logrus.FieldLogger
}

// Releases returns the cached release list or refreshes it.
func (cs CachedSource) Releases(ctx context.Context) (*binaries.ReleaseList, error) {
	b, ok, err := cs.cache.Get(cs.key)
	if err != nil {
		cs.logger.WithError(err).Warn("release cache is unavailable")
	}
	if ok {
		list, err := binaries.ParseReleaseList(b)
		if err == nil {
			return list, nil
		}
		cs.logger.WithError(err).Warn("dropping corrupted release cache entry")
	}
	return cs.Refresh(ctx)
}

// Refresh reads the release list from the wrapped source and stores it.
func (cs CachedSource) Refresh(ctx context.Context) (*binaries.ReleaseList, error) {
	list, err := cs.src.Releases(ctx)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode the release list")
	}
	if err := cs.cache.Put(cs.key, b); err != nil {
		cs.logger.WithError(err).Warn("unable to cache the release list")
	}
	return list, nil
}

// Catalog builds the release catalog of the source.
func Catalog(ctx context.Context, src ReleaseSource) (*versioneer.Catalog, error) {
	list, err := src.Releases(ctx)
	if err != nil {
		return nil, err
	}
	return versioneer.NewCatalog(list.Releases, list.LatestRelease)
}
