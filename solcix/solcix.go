/*
Package solcix provides convenient api over the solidity compiler version management:
release lists, pragma resolution, installation and version pinning.

Usage:

	cfg, _ := solcix.Load()
	resolver := solcix.NewResolver(solcix.NewRemoteSource(nil, nil, cfg.Platform), cfg.Platform, nil)
	pragma, _ := resolver.ResolveSource(ctx, "contracts/Token.sol")
	version, _ := resolver.Recommended(ctx, pragma)
*/
package solcix

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/dephub/solcix/providers/installer"
)

var (
	// ErrNoPragma is returned when a source declares no (valid) 'pragma solidity' statement.
	ErrNoPragma = errors.New("no valid pragma solidity statement found")
)

// NotInstalledError is returned when no version is pinned or the pinned version is missing.
type NotInstalledError struct {
	// Version is empty when nothing is pinned.
	Version string
	// Origin is the pin location ('.solcix', 'SOLC_VERSION' or the global version file).
	Origin    string
	Installed []string
}

func (e *NotInstalledError) Error() string {
	if e.Version == "" {
		return "no solc version set, use 'solcix use global VERSION', 'solcix use local VERSION' or set SOLC_VERSION"
	}
	return fmt.Sprintf("version '%s' is not installed (set by %s), run 'solcix install %s' or use one of %v",
		e.Version, e.Origin, e.Version, e.Installed)
}

// Installer is the part of installer.Installer used by this package.
type Installer interface {
	Installed() ([]string, error)
	IsInstalled(version string) bool
	Install(ctx context.Context, versions ...string) (installer.Report, error)
	Uninstall(ctx context.Context, versions ...string) (installer.Report, error)
}

// reportError returns the failure of version in report, if any.
func reportError(report installer.Report, version string) error {
	if err, ok := report.Failed[version]; ok {
		return errors.Wrapf(err, "unable to install %s", version)
	}
	return nil
}
