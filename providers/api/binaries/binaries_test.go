package binaries

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/dephub/solcix/providers/versioneer"
)

func TestNewClientMethod(t *testing.T) {
	cl := NewClient(nil, nil)
	if cl.httpClient != http.DefaultClient {
		t.Errorf("default httpClient is not set on NewClient instance")
	}
	if cl.baseUrl != *binariesBaseURL {
		t.Errorf("default baseURL is not set on NewClient instance")
	}

	expClient := &http.Client{}
	expUrl, err := url.Parse("http://example.com")
	if err != nil {
		t.Fatalf("unexpected test url parse error: %v", err)
	}
	cl = NewClient(expClient, expUrl)
	if cl.httpClient != expClient {
		t.Errorf("httpClient is not set on NewClient instance")
	}
	if cl.baseUrl != *expUrl {
		t.Errorf("baseURL is not set on NewClient instance")
	}

	legacy := NewLegacyClient(nil, nil)
	if legacy.baseUrl != *legacyBaseURL {
		t.Errorf("default baseURL is not set on NewLegacyClient instance")
	}
}

func TestClientArtifactURLMethod(t *testing.T) {
	cl := NewClient(nil, nil)
	got := cl.ArtifactURL(Linux, "solc-linux-amd64-v0.8.20+commit.a1b79de6")
	exp := "https://binaries.soliditylang.org/linux-amd64/solc-linux-amd64-v0.8.20+commit.a1b79de6"
	if got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}

	legacy := NewLegacyClient(nil, nil)
	got = legacy.ArtifactURL(Linux, "solc-v0.4.10")
	exp = "https://raw.githubusercontent.com/crytic/solc/master/linux/amd64/solc-v0.4.10"
	if got != exp {
		t.Errorf("expected %q, got %q", exp, got)
	}
}

func TestClientListMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedPath := "/linux-amd64/list.json"
		if r.URL.Path != expectedPath {
			t.Errorf("expected url call is %q, got %q", expectedPath, r.URL.Path)
		}
		_, _ = rw.Write([]byte(sampleListJson))
	}))
	defer srv.Close()

	expectedObj, err := ParseReleaseList([]byte(sampleListJson))
	if err != nil {
		t.Fatal("testing list JSON is invalid or structs are broken")
	}

	URL, _ := url.Parse(srv.URL)
	cl := NewClient(srv.Client(), URL)
	list, resp, err := cl.List(context.Background(), Linux)
	if err != nil {
		t.Fatalf("unexpected List() error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status code %d", resp.StatusCode)
	}
	if !reflect.DeepEqual(list, expectedObj) {
		t.Error("expected and actual results are not equal")
	}
	if list.LatestRelease != "0.8.1" {
		t.Errorf("unexpected latest release %q", list.LatestRelease)
	}
	if list.Releases["0.8.0"] != "solc-linux-amd64-v0.8.0+commit.c7dfd78e" {
		t.Errorf("unexpected artifact %q", list.Releases["0.8.0"])
	}
}

func TestClientListMethod_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/macosx-amd64") {
			_, _ = rw.Write([]byte(`{"builds": [`))
			return
		}
		rw.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	URL, _ := url.Parse(srv.URL)
	cl := NewClient(srv.Client(), URL)

	if _, _, err := cl.List(context.Background(), ""); err == nil {
		t.Error("expected error for the empty platform")
	}

	_, resp, err := cl.List(context.Background(), Linux)
	if err == nil {
		t.Fatal("expected error for the missing list")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected not found response, got %v", resp)
	}

	if _, _, err := cl.List(context.Background(), MacOS); err == nil {
		t.Error("expected error for the malformed list")
	}
}

func TestClientDownloadMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		expectedPath := "/linux/amd64/solc-v0.4.10"
		if r.URL.Path != expectedPath {
			t.Errorf("expected url call is %q, got %q", expectedPath, r.URL.Path)
		}
		_, _ = rw.Write([]byte("binary"))
	}))
	defer srv.Close()

	URL, _ := url.Parse(srv.URL)
	cl := NewLegacyClient(srv.Client(), URL)

	var buf bytes.Buffer
	n, _, err := cl.Download(context.Background(), Linux, "solc-v0.4.10", &buf)
	if err != nil {
		t.Fatalf("unexpected Download() error: %v", err)
	}
	if n != 6 || buf.String() != "binary" {
		t.Errorf("unexpected download result %d %q", n, buf.String())
	}

	if _, _, err := cl.Download(context.Background(), Linux, "", &buf); err == nil {
		t.Error("expected error for the empty artifact")
	}
}

func TestReleaseListChecksumsMethod(t *testing.T) {
	list, err := ParseReleaseList([]byte(sampleListJson))
	if err != nil {
		t.Fatal(err)
	}

	sha, keccak, ok := list.Checksums("0.8.0")
	if !ok {
		t.Fatal("expected checksums for 0.8.0")
	}
	if sha != "0x7b5b8b7b2d2b2aa2d4f0fd0f2d0c4a34e0f3f7e5a42b52e22d3e3f4a5b6c7d8e" {
		t.Errorf("unexpected sha256 %q", sha)
	}
	if keccak != "0xb3c2fcb1a2dc9f4c3e8a8d2f0e1a3c4b5d6e7f8091a2b3c4d5e6f708192a3b4c" {
		t.Errorf("unexpected keccak256 %q", keccak)
	}

	if _, _, ok := list.Checksums("0.9.0"); ok {
		t.Error("expected no checksums for unknown version")
	}
	// nightly builds are never used for verification
	if _, _, ok := list.Checksums("0.8.2"); ok {
		t.Error("expected no checksums for prerelease build")
	}
}

func TestReleaseListMergeMethod(t *testing.T) {
	list := &ReleaseList{Releases: map[string]string{"0.4.11": "solc-linux-amd64-v0.4.11", "0.4.10": "official"}}
	list.Merge(&ReleaseList{
		Releases: map[string]string{"0.4.10": "solc-v0.4.10", "0.4.0": "solc-v0.4.0"},
		Builds:   []Build{{Version: "0.4.10", Sha256: "0x01"}},
	})
	list.Merge(nil)

	exp := map[string]string{
		"0.4.11": "solc-linux-amd64-v0.4.11",
		"0.4.10": "solc-v0.4.10",
		"0.4.0":  "solc-v0.4.0",
	}
	if !reflect.DeepEqual(list.Releases, exp) {
		t.Errorf("unexpected merged releases %v", list.Releases)
	}
	if sha, _, ok := list.Checksums("0.4.10"); !ok || sha != "0x01" {
		t.Errorf("unexpected merged checksum %q", sha)
	}
}

func TestDetectPlatform(t *testing.T) {
	cases := map[string]Platform{"linux": Linux, "darwin": MacOS, "windows": Windows}
	for goos, exp := range cases {
		got, err := DetectPlatform(goos)
		if err != nil {
			t.Errorf("unexpected error for %s: %v", goos, err)
		}
		if got != exp {
			t.Errorf("expected %s, got %s", exp, got)
		}
	}

	_, err := DetectPlatform("plan9")
	if _, ok := err.(*UnsupportedPlatformError); !ok {
		t.Errorf("expected UnsupportedPlatformError, got %v", err)
	}
}

func TestPlatformMethods(t *testing.T) {
	v := versioneer.MustParseVersion
	if Linux.Earliest() != v("0.4.0") || MacOS.Earliest() != v("0.3.6") || Windows.Earliest() != v("0.4.1") {
		t.Error("unexpected earliest releases")
	}
	if !Linux.Legacy(v("0.4.10")) || Linux.Legacy(v("0.4.11")) || MacOS.Legacy(v("0.4.0")) {
		t.Error("unexpected legacy detection")
	}
	if !Windows.Zipped(v("0.7.1")) || Windows.Zipped(v("0.7.2")) || Linux.Zipped(v("0.5.0")) {
		t.Error("unexpected zip detection")
	}
	if Windows.Executable("0.8.0") != "solc-0.8.0.exe" || Linux.Executable("0.8.0") != "solc-0.8.0" {
		t.Error("unexpected executable names")
	}
}

var sampleListJson = `{
  "builds": [
    {
      "path": "solc-linux-amd64-v0.8.0+commit.c7dfd78e",
      "version": "0.8.0",
      "build": "commit.c7dfd78e",
      "longVersion": "0.8.0+commit.c7dfd78e",
      "keccak256": "0xb3c2fcb1a2dc9f4c3e8a8d2f0e1a3c4b5d6e7f8091a2b3c4d5e6f708192a3b4c",
      "sha256": "0x7b5b8b7b2d2b2aa2d4f0fd0f2d0c4a34e0f3f7e5a42b52e22d3e3f4a5b6c7d8e",
      "urls": ["dweb:/ipfs/QmS4F5U4eDb4TtH3Xw3dGq1bT5g8Jd7JcQKQc8cG4Yw1gN"]
    },
    {
      "path": "solc-linux-amd64-v0.8.1+commit.df193b15",
      "version": "0.8.1",
      "build": "commit.df193b15",
      "longVersion": "0.8.1+commit.df193b15",
      "keccak256": "0x2a1c4e3b6d5f7a8c9e0b1d2f3a4c5e6f7081929a3b4c5d6e7f8091a2b3c4d5e6",
      "sha256": "0x1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f",
      "urls": []
    },
    {
      "path": "solc-linux-amd64-v0.8.2-nightly.2021.1.28+commit.70882cc9",
      "version": "0.8.2",
      "prerelease": "nightly.2021.1.28",
      "build": "commit.70882cc9",
      "longVersion": "0.8.2-nightly.2021.1.28+commit.70882cc9",
      "keccak256": "0x00",
      "sha256": "0x00",
      "urls": []
    }
  ],
  "releases": {
    "0.8.1": "solc-linux-amd64-v0.8.1+commit.df193b15",
    "0.8.0": "solc-linux-amd64-v0.8.0+commit.c7dfd78e"
  },
  "latestRelease": "0.8.1"
}`
