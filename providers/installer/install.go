package installer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/versioneer"
)

// Install downloads, verifies and installs the versions.
//
// Already installed versions are skipped, failures of a single version do not stop the others.
// The returned error is set only when nothing could be attempted.
func (i *Installer) Install(ctx context.Context, versions ...string) (Report, error) {
	var report Report
	unlock, err := i.lock(ctx)
	if err != nil {
		return report, err
	}
	defer unlock()

	list, catalog, err := i.catalog(ctx)
	if err != nil {
		return report, err
	}

	for _, raw := range versions {
		version := raw
		if version == LatestAlias {
			version = catalog.Latest().String()
		}
		v, err := versioneer.ParseVersion(version)
		if err != nil {
			report.fail(raw, err)
			continue
		}
		if !catalog.Contains(v) {
			report.fail(version, errors.Wrap(ErrUnknownVersion, version))
			continue
		}
		if i.IsInstalled(version) {
			i.logger.WithField("version", version).Info("already installed")
			report.Skipped = append(report.Skipped, version)
			continue
		}
		artifact, _ := catalog.Artifact(v)
		if err := i.install(ctx, list, v, artifact); err != nil {
			report.fail(version, err)
			continue
		}
		report.Installed = append(report.Installed, version)
	}
	return report, nil
}

func (i *Installer) install(ctx context.Context, list *binaries.ReleaseList, v versioneer.Version, artifact string) error {
	version := v.String()
	log := i.logger.WithFields(logrus.Fields{"version": version, "artifact": artifact, "platform": i.platform})

	expected, err := expectedChecksums(list, version)
	if err != nil {
		return err
	}

	dir := i.versionDir(version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}

	log.Info("downloading")
	tmp, err := i.download(ctx, v, artifact, dir, expected)
	if err != nil {
		_ = os.RemoveAll(dir)
		return err
	}

	exe := i.executablePath(version)
	if i.platform.Zipped(v) {
		err = extractZip(tmp, dir, exe)
		_ = os.Remove(tmp)
	} else {
		err = os.Rename(tmp, exe)
	}
	if err == nil {
		err = os.Chmod(exe, 0o755)
	}
	if err != nil {
		_ = os.RemoveAll(dir)
		return errors.Wrapf(err, "unable to install %s", version)
	}

	log.Info("installed")
	return nil
}

// download writes the artifact into a temporary file of dir and verifies it.
func (i *Installer) download(ctx context.Context, v versioneer.Version, artifact, dir string, expected checksums) (string, error) {
	client := i.client
	if i.platform.Legacy(v) {
		client = i.legacy
	}

	f, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", errors.Wrap(err, "unable to create a temporary file")
	}
	defer f.Close()

	h := newHasher()
	if _, _, err := client.Download(ctx, i.platform, artifact, h.writer(f)); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := h.sum().verify(v.String(), expected); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Uninstall removes the installed versions.
func (i *Installer) Uninstall(ctx context.Context, versions ...string) (Report, error) {
	var report Report
	unlock, err := i.lock(ctx)
	if err != nil {
		return report, err
	}
	defer unlock()

	for _, version := range versions {
		if _, err := i.Executable(version); err != nil {
			report.fail(version, err)
			continue
		}
		if err := os.RemoveAll(i.versionDir(version)); err != nil {
			report.fail(version, errors.Wrapf(err, "unable to remove %s", version))
			continue
		}
		i.logger.WithField("version", version).Info("uninstalled")
		report.Removed = append(report.Removed, version)
	}
	return report, nil
}

// Verify checks the installed versions against the release list checksums.
//
// When versions is empty every installed version is checked. With reinstall a mismatching
// version is removed and installed again.
func (i *Installer) Verify(ctx context.Context, versions []string, reinstall bool) (Report, error) {
	var report Report
	if len(versions) == 0 {
		installed, err := i.Installed()
		if err != nil {
			return report, err
		}
		versions = installed
	}

	list, _, err := i.catalog(ctx)
	if err != nil {
		return report, err
	}

	var broken []string
	for _, version := range versions {
		exe, err := i.Executable(version)
		if err != nil {
			report.fail(version, err)
			continue
		}
		v := versioneer.MustParseVersion(version)
		if i.platform.Zipped(v) {
			// checksums describe the archive, not the extracted executable
			report.Skipped = append(report.Skipped, version)
			continue
		}
		expected, err := expectedChecksums(list, version)
		if err != nil {
			report.fail(version, err)
			continue
		}
		actual, err := fileChecksums(exe)
		if err != nil {
			report.fail(version, err)
			continue
		}
		if err := actual.verify(version, expected); err != nil {
			i.logger.WithField("version", version).WithError(err).Warn("verification failed")
			if reinstall {
				broken = append(broken, version)
				continue
			}
			report.fail(version, err)
			continue
		}
		report.Verified = append(report.Verified, version)
	}

	if len(broken) == 0 {
		return report, nil
	}
	removed, err := i.Uninstall(ctx, broken...)
	if err != nil {
		return report, err
	}
	for version, err := range removed.Failed {
		report.fail(version, err)
	}
	installed, err := i.Install(ctx, removed.Removed...)
	if err != nil {
		return report, err
	}
	report.Installed = append(report.Installed, installed.Installed...)
	for version, err := range installed.Failed {
		report.fail(version, err)
	}
	return report, nil
}

func expectedChecksums(list *binaries.ReleaseList, version string) (checksums, error) {
	sha, keccak, ok := list.Checksums(version)
	if !ok {
		return checksums{}, &ChecksumMissingError{Version: version}
	}
	return checksums{sha256: normalizeHex(sha), keccak256: normalizeHex(keccak)}, nil
}

func fileChecksums(path string) (checksums, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return checksums{}, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	h := newHasher()
	if err := h.readFrom(f); err != nil {
		return checksums{}, errors.Wrapf(err, "unable to read %s", path)
	}
	return h.sum(), nil
}
