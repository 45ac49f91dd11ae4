package solcix

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/dephub/solcix/providers/api/binaries"
)

// ConfigFileName is the optional configuration file inside the solcix root.
const ConfigFileName = "config.toml"

// DefaultCacheTTL bounds the age of a cached release list.
const DefaultCacheTTL = time.Hour

// Config holds the solcix locations and remote endpoints.
type Config struct {
	// Root is the solcix state directory ('<home>/.solcix').
	Root        string
	ArtifactDir string
	CacheFile   string
	Platform    binaries.Platform
	// BinariesURL and LegacyURL override the binaries host and the crytic/solc mirror.
	BinariesURL string
	LegacyURL   string
	CacheTTL    time.Duration
	GitHubToken string
}

// GlobalVersionFile returns the path of the global pin.
func (c Config) GlobalVersionFile() string {
	return filepath.Join(c.Root, "global-version")
}

type rawConfig struct {
	Paths    rawPaths    `toml:"paths"`
	Binaries rawBinaries `toml:"binaries"`
	Cache    rawCache    `toml:"cache"`
	GitHub   rawGitHub   `toml:"github"`
}

type rawPaths struct {
	Artifacts string `toml:"artifacts"`
	Cache     string `toml:"cache"`
}

type rawBinaries struct {
	URL       string `toml:"url"`
	LegacyURL string `toml:"legacy_url"`
	Platform  string `toml:"platform"`
}

type rawCache struct {
	TTL string `toml:"ttl"`
}

type rawGitHub struct {
	Token string `toml:"token"`
}

// DefaultConfig returns the configuration rooted at '$VIRTUAL_ENV/.solcix' or '~/.solcix'.
func DefaultConfig() (Config, error) {
	return defaultConfig(os.Getenv)
}

func defaultConfig(getenv func(string) string) (Config, error) {
	root := getenv("SOLCIX_HOME")
	if root == "" {
		home := getenv("VIRTUAL_ENV")
		if home == "" {
			var err error
			if home, err = os.UserHomeDir(); err != nil {
				return Config{}, errors.Wrap(err, "unable to locate the home directory")
			}
		}
		root = filepath.Join(home, ".solcix")
	}

	platform, err := binaries.DetectPlatform(runtime.GOOS)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Root:        root,
		ArtifactDir: filepath.Join(root, "artifacts"),
		CacheFile:   filepath.Join(root, "cache.db"),
		Platform:    platform,
		CacheTTL:    DefaultCacheTTL,
	}, nil
}

// LoadConfig overlays the TOML document read from r on base.
func LoadConfig(r io.Reader, base Config) (Config, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return base, errors.Wrap(err, "unable to read byte stream")
	}
	raw := rawConfig{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return base, errors.Wrap(err, "unable to parse the config as TOML")
	}

	cfg := base
	if raw.Paths.Artifacts != "" {
		cfg.ArtifactDir = cfg.resolvePath(raw.Paths.Artifacts)
	}
	if raw.Paths.Cache != "" {
		cfg.CacheFile = cfg.resolvePath(raw.Paths.Cache)
	}
	if raw.Binaries.URL != "" {
		cfg.BinariesURL = raw.Binaries.URL
	}
	if raw.Binaries.LegacyURL != "" {
		cfg.LegacyURL = raw.Binaries.LegacyURL
	}
	if raw.Binaries.Platform != "" {
		cfg.Platform = binaries.Platform(raw.Binaries.Platform)
	}
	if raw.Cache.TTL != "" {
		ttl, err := time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return base, errors.Wrapf(err, "invalid cache ttl %q", raw.Cache.TTL)
		}
		cfg.CacheTTL = ttl
	}
	if raw.GitHub.Token != "" {
		cfg.GitHubToken = raw.GitHub.Token
	}
	return cfg, nil
}

// LoadConfigFile overlays the TOML file on base, a missing file leaves base unchanged.
func LoadConfigFile(path string, base Config) (Config, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, errors.Wrapf(err, "unable to open config %s", path)
	}
	defer f.Close()
	return LoadConfig(f, base)
}

// Load returns the effective configuration: defaults, then '<root>/config.toml',
// then the SOLCIX_BINARIES_URL and GITHUB_TOKEN environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg, err := defaultConfig(getenv)
	if err != nil {
		return cfg, err
	}
	cfg, err = LoadConfigFile(filepath.Join(cfg.Root, ConfigFileName), cfg)
	if err != nil {
		return cfg, err
	}
	if v := getenv("SOLCIX_BINARIES_URL"); v != "" {
		cfg.BinariesURL = v
	}
	if v := getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}
	return cfg, nil
}

func (c Config) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
