package solcix

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/versioneer"
)

// RecommendFunc picks the version to install for a pragma.
type RecommendFunc func(ctx context.Context, p *versioneer.Pragma) (string, error)

// NewResolver constructs a Resolver over the platform releases.
func NewResolver(releases ReleaseSource, platform binaries.Platform, logger logrus.FieldLogger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{releases: releases, platform: platform, logger: logger}
}

// Resolver evaluates pragmas against the release catalog.
type Resolver struct {
	releases ReleaseSource
	platform binaries.Platform
	logger   logrus.FieldLogger
	sources  PragmaSource
}

// WithSource returns a copy of the resolver reading every source path through src
// (e.g. a git repository, see NewGitSource).
func (r *Resolver) WithSource(src PragmaSource) *Resolver {
	cp := *r
	cp.sources = src
	return &cp
}

// Catalog returns the current release catalog.
func (r *Resolver) Catalog(ctx context.Context) (*versioneer.Catalog, error) {
	return Catalog(ctx, r.releases)
}

// Compatible returns the releases compatible with the pragma.
func (r *Resolver) Compatible(ctx context.Context, p *versioneer.Pragma) (*versioneer.Selection, error) {
	if p == nil {
		return nil, ErrNoPragma
	}
	c, err := r.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return versioneer.CompatibleVersions(p, c), nil
}

// Recommended returns the single version to install for the pragma.
func (r *Resolver) Recommended(ctx context.Context, p *versioneer.Pragma) (string, error) {
	if p == nil {
		return "", ErrNoPragma
	}
	c, err := r.Catalog(ctx)
	if err != nil {
		return "", err
	}
	return versioneer.RecommendedVersion(p, c, r.platform.Earliest())
}

// ResolveSource returns the pragma of src.
//
// With a source set (see WithSource) src is a path within it. Otherwise src is read
// as a file when such a file exists, and taken as solidity source text if not.
// A nil pragma means src declares none.
func (r *Resolver) ResolveSource(ctx context.Context, src string) (*versioneer.Pragma, error) {
	if r.sources != nil {
		return r.sources.Pragma(ctx, src)
	}
	if fi, err := os.Stat(src); err == nil && !fi.IsDir() {
		return NewLocalSource("").Pragma(ctx, src)
	}
	return versioneer.PragmaFromSource(src), nil
}

// InstallFromSource installs the version recommended for the pragma of src and returns it.
//
// resolve overrides the default recommendation when set.
func (r *Resolver) InstallFromSource(ctx context.Context, src string, inst Installer, resolve RecommendFunc) (string, error) {
	p, err := r.ResolveSource(ctx, src)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", ErrNoPragma
	}
	if resolve == nil {
		resolve = r.Recommended
	}

	version, err := resolve(ctx, p)
	if err != nil {
		return "", err
	}
	log := r.logger.WithFields(logrus.Fields{"pragma": p.String(), "version": version})
	if inst.IsInstalled(version) {
		log.Debug("recommended version is already installed")
		return version, nil
	}

	log.Info("installing recommended version")
	report, err := inst.Install(ctx, version)
	if err != nil {
		return "", err
	}
	if err := reportError(report, version); err != nil {
		return "", err
	}
	return version, nil
}
