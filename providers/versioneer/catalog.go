package versioneer

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// series identifies one 'major.minor' release line.
type series struct {
	major, minor int
}

// Catalog represents the known releases of the compiler for one platform.
//
// Catalog is immutable once constructed and can be shared between goroutines.
type Catalog struct {
	releases map[Version]string        // version -> artifact name
	versions []Version                 // ascending
	index    map[series]map[int]string // major.minor -> patch -> artifact name
	latest   Version
}

// NewCatalog constructs a Catalog from a version => artifact mapping and the latest release.
//
// If latest is empty the highest release is used instead.
func NewCatalog(releases map[string]string, latest string) (*Catalog, error) {
	c := &Catalog{
		releases: make(map[Version]string, len(releases)),
		versions: make([]Version, 0, len(releases)),
		index:    make(map[series]map[int]string),
	}

	for raw, artifact := range releases {
		v, err := ParseVersion(raw)
		if err != nil {
			return nil, errors.Wrap(err, "unable to build the releases catalog")
		}
		c.releases[v] = artifact
		c.versions = append(c.versions, v)

		s := series{v.major, v.minor}
		if c.index[s] == nil {
			c.index[s] = make(map[int]string)
		}
		c.index[s][v.patch] = artifact
	}

	sort.Slice(c.versions, func(i, j int) bool {
		return c.versions[i].LessThan(c.versions[j])
	})

	switch {
	case latest != "":
		v, err := ParseVersion(latest)
		if err != nil {
			return nil, errors.Wrap(err, "unable to parse the latest release")
		}
		c.latest = v
	case len(c.versions) > 0:
		c.latest = c.versions[len(c.versions)-1]
	}

	return c, nil
}

// Len returns the number of releases.
func (c *Catalog) Len() int {
	return len(c.versions)
}

// Latest returns the latest release.
func (c *Catalog) Latest() Version {
	return c.latest
}

// Versions returns all the releases in ascending order.
func (c *Catalog) Versions() []Version {
	result := make([]Version, len(c.versions))
	copy(result, c.versions)
	return result
}

// Strings returns all the releases in ascending order as strings.
func (c *Catalog) Strings() []string {
	result := make([]string, len(c.versions))
	for i, v := range c.versions {
		result[i] = v.String()
	}
	return result
}

// Contains reports whether the version is a known release.
func (c *Catalog) Contains(v Version) bool {
	_, ok := c.releases[v]
	return ok
}

// Artifact returns the artifact name of the release.
func (c *Catalog) Artifact(v Version) (string, bool) {
	a, ok := c.releases[v]
	return a, ok
}

// Patches returns the known patch numbers of the 'major.minor' series in ascending order.
func (c *Catalog) Patches(major, minor int) []int {
	patches := c.index[series{major, minor}]
	result := make([]int, 0, len(patches))
	for p := range patches {
		result = append(result, p)
	}
	sort.Ints(result)
	return result
}

// MinPatch returns the lowest known patch of the series, false if the series has no releases.
func (c *Catalog) MinPatch(major, minor int) (int, bool) {
	patches := c.Patches(major, minor)
	if len(patches) == 0 {
		return 0, false
	}
	return patches[0], true
}

// MaxPatch returns the highest known patch of the series, false if the series has no releases.
func (c *Catalog) MaxPatch(major, minor int) (int, bool) {
	patches := c.Patches(major, minor)
	if len(patches) == 0 {
		return 0, false
	}
	return patches[len(patches)-1], true
}

// Minors returns the known minor numbers of the major version in ascending order.
func (c *Catalog) Minors(major int) []int {
	result := []int{}
	for s := range c.index {
		if s.major == major {
			result = append(result, s.minor)
		}
	}
	sort.Ints(result)
	return result
}

// Filter returns the releases matching a semver range expression (e.g. '~0.8 || 0.7.6').
func (c *Catalog) Filter(expr string) ([]string, error) {
	constraints, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse range %q", expr)
	}

	result := []string{}
	for _, v := range c.versions {
		if constraints.Check(v.Semver()) {
			result = append(result, v.String())
		}
	}
	return result, nil
}
