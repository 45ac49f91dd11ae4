package solcix

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/installer"
	"github.com/dephub/solcix/providers/versioneer"
)

// LocalVersionFile is the per-project pin file name.
const LocalVersionFile = ".solcix"

// VersionEnv is the environment variable pin.
const VersionEnv = "SOLC_VERSION"

// NewManager constructs a pin Manager working in workDir (the current directory when empty).
func NewManager(cfg Config, inst Installer, releases ReleaseSource, workDir string, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		globalFile: cfg.GlobalVersionFile(),
		localFile:  filepath.Join(workDir, LocalVersionFile),
		inst:       inst,
		releases:   releases,
		logger:     logger,
		getenv:     os.Getenv,
	}
}

// Manager handles the global and local version pins.
type Manager struct {
	globalFile string
	localFile  string
	inst       Installer
	releases   ReleaseSource
	logger     logrus.FieldLogger
	getenv     func(string) string
}

// Current returns the pinned version and where it was set.
//
// The local '.solcix' file wins over SOLC_VERSION which wins over the global pin.
// A *NotInstalledError is returned when nothing is pinned or the version is missing.
func (m *Manager) Current() (version, origin string, err error) {
	if b, err := os.ReadFile(m.localFile); err == nil {
		version, origin = strings.TrimSpace(string(b)), LocalVersionFile
	} else {
		version, origin = strings.TrimSpace(m.getenv(VersionEnv)), VersionEnv
	}

	if version == "" {
		origin = m.globalFile
		b, err := os.ReadFile(m.globalFile)
		if err != nil {
			if os.IsNotExist(err) {
				return "", "", &NotInstalledError{}
			}
			return "", "", errors.Wrap(err, "unable to read the global version")
		}
		version = strings.TrimSpace(string(b))
		if version == "" {
			return "", "", &NotInstalledError{}
		}
	}

	installed, err := m.inst.Installed()
	if err != nil {
		return "", "", err
	}
	for _, v := range installed {
		if v == version {
			return version, origin, nil
		}
	}
	return "", "", &NotInstalledError{Version: version, Origin: origin, Installed: installed}
}

// UseLocal pins the version for the working directory.
func (m *Manager) UseLocal(ctx context.Context, version string, alwaysInstall bool) error {
	return m.use(ctx, m.localFile, version, alwaysInstall)
}

// UseGlobal pins the version for the whole machine.
func (m *Manager) UseGlobal(ctx context.Context, version string, alwaysInstall bool) error {
	return m.use(ctx, m.globalFile, version, alwaysInstall)
}

func (m *Manager) use(ctx context.Context, file, version string, alwaysInstall bool) error {
	v, err := versioneer.ParseVersion(version)
	if err != nil {
		return err
	}
	version = v.String()

	if !m.inst.IsInstalled(version) {
		c, err := Catalog(ctx, m.releases)
		if err != nil {
			return err
		}
		if !c.Contains(v) {
			return errors.Wrap(installer.ErrUnknownVersion, version)
		}
		if !alwaysInstall {
			return errors.Wrapf(installer.ErrNotInstalled, "'%s' must be installed prior to use", version)
		}
		report, err := m.inst.Install(ctx, version)
		if err != nil {
			return err
		}
		if err := reportError(report, version); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", filepath.Dir(file))
	}
	if err := os.WriteFile(file, []byte(version), 0o644); err != nil {
		return errors.Wrapf(err, "unable to write %s", file)
	}
	m.logger.WithFields(logrus.Fields{"version": version, "file": file}).Info("switched version")
	return nil
}

// Upgrade reinstalls every installed version.
func (m *Manager) Upgrade(ctx context.Context) (installer.Report, error) {
	installed, err := m.inst.Installed()
	if err != nil {
		return installer.Report{}, err
	}
	if len(installed) == 0 {
		return installer.Report{}, errors.New("no installed versions to upgrade")
	}

	removed, err := m.inst.Uninstall(ctx, installed...)
	if err != nil {
		return removed, err
	}
	report, err := m.inst.Install(ctx, removed.Removed...)
	if err != nil {
		return report, err
	}
	for version, err := range removed.Failed {
		if report.Failed == nil {
			report.Failed = map[string]error{}
		}
		report.Failed[version] = err
	}
	return report, nil
}
