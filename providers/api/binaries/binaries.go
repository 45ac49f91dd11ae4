/*
Package binaries provides a client for the solidity compiler binaries host (binaries.soliditylang.org).

The host publishes, per platform, a 'list.json' with every build and its checksums
and serves the build artifacts next to it.
*/
package binaries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// binariesBaseURL - binaries host base url (used as default client baseURL)
var binariesBaseURL *url.URL

// binariesHostname - official solidity compiler binaries hostname.
var binariesHostname string = "https://binaries.soliditylang.org"

// legacyBaseURL - crytic/solc mirror base url, it serves the linux builds the official host lacks.
var legacyBaseURL *url.URL

var legacyHostname string = "https://raw.githubusercontent.com/crytic/solc/master"

func init() {
	binariesBaseURL, _ = url.Parse(binariesHostname)
	legacyBaseURL, _ = url.Parse(legacyHostname)
}

// NewClient constructs a new binaries host Client.
//
// If httpClient or URL is nil - default values will be used.
// Pass URL only if you are sure that the address is a mirror of the binaries host.
func NewClient(httpClient *http.Client, URL *url.URL) *Client {
	if URL == nil {
		URL = binariesBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseUrl: *URL}
}

// NewLegacyClient constructs a Client for the crytic/solc mirror ('linux/amd64/<artifact>' layout).
func NewLegacyClient(httpClient *http.Client, URL *url.URL) *Client {
	if URL == nil {
		URL = legacyBaseURL
	}
	c := NewClient(httpClient, URL)
	c.nestedLayout = true
	return c
}

// Client is used to communicate with the binaries host.
type Client struct {
	httpClient *http.Client
	baseUrl    url.URL
	// nestedLayout is set for mirrors using 'linux/amd64' directories instead of 'linux-amd64'.
	nestedLayout bool
}

func (c Client) platformURL(platform Platform, file string) string {
	dir := string(platform)
	if c.nestedLayout {
		dir = strings.ReplaceAll(dir, "-", "/")
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.baseUrl.String(), "/"), dir, url.PathEscape(file))
}

// ArtifactURL returns the download url of the artifact.
func (c Client) ArtifactURL(platform Platform, artifact string) string {
	return c.platformURL(platform, artifact)
}

// List method is used to get the releases list of the platform.
func (c Client) List(ctx context.Context, platform Platform) (*ReleaseList, *http.Response, error) {
	if platform == "" {
		return nil, nil, errors.New("platform is required and can't be empty")
	}

	resp, err := c.get(ctx, c.platformURL(platform, "list.json"))
	if err != nil {
		return nil, resp, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, errors.Wrap(err, "unable to read the response body")
	}

	list, err := ParseReleaseList(body)
	if err != nil {
		return nil, resp, err
	}

	return list, resp, nil
}

// Download method streams the artifact into w and returns the number of written bytes.
func (c Client) Download(ctx context.Context, platform Platform, artifact string, w io.Writer) (int64, *http.Response, error) {
	if artifact == "" {
		return 0, nil, errors.New("artifact is required and can't be empty")
	}

	resp, err := c.get(ctx, c.platformURL(platform, artifact))
	if err != nil {
		return 0, resp, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, resp, errors.Wrapf(err, "unable to download '%s'", artifact)
	}
	return n, resp, nil
}

func (c Client) get(ctx context.Context, path string) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create a request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "unable to send the request")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return resp, errors.Errorf("binaries host returned %d for '%s'", resp.StatusCode, path)
	}
	return resp, nil
}

// ReleaseList represents the 'list.json' document of a platform.
type ReleaseList struct {
	Builds        []Build           `json:"builds"`
	Releases      map[string]string `json:"releases"`
	LatestRelease string            `json:"latestRelease"`
}

// Build represents one build entry of the releases list.
type Build struct {
	Path        string   `json:"path"`
	Version     string   `json:"version"`
	Prerelease  string   `json:"prerelease,omitempty"`
	Build       string   `json:"build"`
	LongVersion string   `json:"longVersion"`
	Keccak256   string   `json:"keccak256"`
	Sha256      string   `json:"sha256"`
	Urls        []string `json:"urls"`
}

// ParseReleaseList decodes a 'list.json' document.
func ParseReleaseList(data []byte) (*ReleaseList, error) {
	var list ReleaseList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "unable to parse the releases list")
	}
	if list.Releases == nil {
		list.Releases = map[string]string{}
	}
	return &list, nil
}

// Checksums returns the sha256 and keccak256 checksums of the release build.
func (rl *ReleaseList) Checksums(version string) (sha256, keccak256 string, ok bool) {
	for i := len(rl.Builds) - 1; i >= 0; i-- {
		b := rl.Builds[i]
		if b.Version == version && b.Prerelease == "" && b.Sha256 != "" {
			return b.Sha256, b.Keccak256, true
		}
	}
	return "", "", false
}

// Merge adds the releases and builds of other, other's entries take precedence.
func (rl *ReleaseList) Merge(other *ReleaseList) {
	if other == nil {
		return
	}
	if rl.Releases == nil {
		rl.Releases = map[string]string{}
	}
	for v, artifact := range other.Releases {
		rl.Releases[v] = artifact
	}
	rl.Builds = append(rl.Builds, other.Builds...)
}
