/*
Package installer manages the compiler builds installed on the local machine.

Every version lives in its own directory under the artifact directory:

	<dir>/solc-<version>/solc-<version>

Downloads are verified against the sha256 and keccak256 checksums of the release list
before they become visible. Mutating operations hold a file lock on '<dir>/.lock'.
*/
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/versioneer"
)

// LatestAlias can be passed to Install instead of a version.
const LatestAlias = "latest"

var (
	ErrNotInstalled   = errors.New("version is not installed")
	ErrUnknownVersion = errors.New("version is not published for the platform")
)

// ChecksumMissingError is returned when the release list has no checksums for the version.
type ChecksumMissingError struct {
	Version string
}

func (e *ChecksumMissingError) Error() string {
	return fmt.Sprintf("no checksums published for %s", e.Version)
}

// ChecksumMismatchError is returned when a downloaded (or installed) build does not match the release list.
type ChecksumMismatchError struct {
	Version   string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s checksum mismatch for %s: expected %s, got %s", e.Algorithm, e.Version, e.Expected, e.Actual)
}

// ReleaseSource provides the release list of the installer platform.
type ReleaseSource interface {
	Releases(ctx context.Context) (*binaries.ReleaseList, error)
}

// Options configure an Installer.
type Options struct {
	// Dir is the artifact directory, required.
	Dir      string
	Platform binaries.Platform
	Releases ReleaseSource
	// Client downloads the artifacts, binaries.NewClient(nil, nil) when nil.
	Client *binaries.Client
	// Legacy downloads the linux builds missing from the official host.
	Legacy *binaries.Client
	Logger logrus.FieldLogger
	// LockTimeout bounds the wait for the artifact directory lock, 30s when zero.
	LockTimeout time.Duration
}

// Installer installs, removes and verifies compiler builds.
type Installer struct {
	dir         string
	platform    binaries.Platform
	releases    ReleaseSource
	client      *binaries.Client
	legacy      *binaries.Client
	logger      logrus.FieldLogger
	lockTimeout time.Duration
}

// Report summarizes a multi version operation.
type Report struct {
	Installed []string
	Removed   []string
	Verified  []string
	Skipped   []string
	Failed    map[string]error
}

func (r *Report) fail(version string, err error) {
	if r.Failed == nil {
		r.Failed = map[string]error{}
	}
	r.Failed[version] = err
}

// OK reports whether no version failed.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// New constructs an Installer.
func New(opts Options) (*Installer, error) {
	if opts.Dir == "" {
		return nil, errors.New("artifact directory is required")
	}
	if opts.Releases == nil {
		return nil, errors.New("release source is required")
	}
	if opts.Platform == "" {
		return nil, errors.New("platform is required")
	}
	inst := &Installer{
		dir:         opts.Dir,
		platform:    opts.Platform,
		releases:    opts.Releases,
		client:      opts.Client,
		legacy:      opts.Legacy,
		logger:      opts.Logger,
		lockTimeout: opts.LockTimeout,
	}
	if inst.client == nil {
		inst.client = binaries.NewClient(nil, nil)
	}
	if inst.legacy == nil {
		inst.legacy = binaries.NewLegacyClient(nil, nil)
	}
	if inst.logger == nil {
		inst.logger = logrus.New()
	}
	if inst.lockTimeout == 0 {
		inst.lockTimeout = 30 * time.Second
	}
	return inst, nil
}

// Dir returns the artifact directory.
func (i *Installer) Dir() string {
	return i.dir
}

func (i *Installer) versionDir(version string) string {
	return filepath.Join(i.dir, "solc-"+version)
}

func (i *Installer) executablePath(version string) string {
	return filepath.Join(i.versionDir(version), i.platform.Executable(version))
}

// Executable returns the path of the installed compiler.
func (i *Installer) Executable(version string) (string, error) {
	if !versioneer.IsValidVersion(version) {
		return "", errors.Wrap(versioneer.ErrInvalidVersionFormat, version)
	}
	path := i.executablePath(version)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return "", errors.Wrap(ErrNotInstalled, version)
	}
	return path, nil
}

// IsInstalled reports whether the version executable exists.
func (i *Installer) IsInstalled(version string) bool {
	_, err := i.Executable(version)
	return err == nil
}

// Installed returns the installed versions in ascending order.
func (i *Installer) Installed() ([]string, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrapf(err, "unable to read artifact directory %s", i.dir)
	}

	var versions []versioneer.Version
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "solc-") {
			continue
		}
		v, err := versioneer.ParseVersion(strings.TrimPrefix(e.Name(), "solc-"))
		if err != nil {
			continue
		}
		if i.IsInstalled(v.String()) {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(a, b int) bool { return versions[a].LessThan(versions[b]) })

	result := make([]string, 0, len(versions))
	for _, v := range versions {
		result = append(result, v.String())
	}
	return result, nil
}

// Installable returns the published versions which are not installed, in ascending order.
func (i *Installer) Installable(ctx context.Context) ([]string, error) {
	_, catalog, err := i.catalog(ctx)
	if err != nil {
		return nil, err
	}
	result := []string{}
	for _, v := range catalog.Strings() {
		if !i.IsInstalled(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (i *Installer) catalog(ctx context.Context) (*binaries.ReleaseList, *versioneer.Catalog, error) {
	list, err := i.releases.Releases(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to get the release list")
	}
	catalog, err := versioneer.NewCatalog(list.Releases, list.LatestRelease)
	if err != nil {
		return nil, nil, err
	}
	return list, catalog, nil
}

// lock acquires the artifact directory lock.
func (i *Installer) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create artifact directory %s", i.dir)
	}
	ctx, cancel := context.WithTimeout(ctx, i.lockTimeout)
	defer cancel()

	fl := flock.New(filepath.Join(i.dir, ".lock"))
	locked, err := fl.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, errors.Wrap(err, "unable to lock the artifact directory")
	}
	if !locked {
		return nil, errors.Errorf("artifact directory %s is locked by another process", i.dir)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			i.logger.WithError(err).Warn("unable to unlock the artifact directory")
		}
	}, nil
}
