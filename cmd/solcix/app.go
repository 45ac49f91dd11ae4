package main

import (
	"net/http"
	"net/url"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/cache"
	"github.com/dephub/solcix/providers/installer"
	"github.com/dephub/solcix/solcix"
)

// app wires the solcix components of one command run.
type app struct {
	cfg      solcix.Config
	logger   *logrus.Logger
	cache    *cache.Cache
	releases *solcix.CachedSource
	inst     *installer.Installer
	resolver *solcix.Resolver
	manager  *solcix.Manager
}

func newApp(cfg solcix.Config, logger *logrus.Logger) (*app, error) {
	client, err := newClient(cfg.BinariesURL, binaries.NewClient)
	if err != nil {
		return nil, err
	}
	legacy, err := newClient(cfg.LegacyURL, binaries.NewLegacyClient)
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(cfg.CacheFile, cfg.CacheTTL, logger)
	if err != nil {
		return nil, err
	}

	remote := solcix.NewRemoteSource(client, solcix.NewLegacyListFetcher(nil, cfg.GitHubToken), cfg.Platform)
	releases := solcix.NewCachedSource(remote, c, cfg.Platform, logger)

	inst, err := installer.New(installer.Options{
		Dir:      cfg.ArtifactDir,
		Platform: cfg.Platform,
		Releases: releases,
		Client:   client,
		Legacy:   legacy,
		Logger:   logger,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		_ = c.Close()
		return nil, errors.Wrap(err, "unable to get the working directory")
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		cache:    c,
		releases: releases,
		inst:     inst,
		resolver: solcix.NewResolver(releases, cfg.Platform, logger),
		manager:  solcix.NewManager(cfg, inst, releases, wd, logger),
	}, nil
}

func newClient(raw string, construct func(*http.Client, *url.URL) *binaries.Client) (*binaries.Client, error) {
	if raw == "" {
		return construct(nil, nil), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid binaries url %q", raw)
	}
	return construct(nil, u), nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

// executable returns the path of the pinned compiler.
func (a *app) executable() (string, error) {
	version, _, err := a.manager.Current()
	if err != nil {
		return "", err
	}
	return a.inst.Executable(version)
}
