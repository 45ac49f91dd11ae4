package versioneer

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// versionRgxCompiled matches exactly three dot separated numeric segments.
var versionRgxCompiled = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version represents a fixed compiler version (e.g. '0.8.19').
//
// Version is a comparable value type, two versions are equal when their segments are.
type Version struct {
	major, minor, patch int
}

// NewVersion constructs a Version from its segments.
func NewVersion(major, minor, patch int) Version {
	return Version{major: major, minor: minor, patch: patch}
}

// ParseVersion parses a strict 'major.minor.patch' version string.
//
// Prefixes, missing segments, pre-release and build suffixes are rejected with ErrInvalidVersionFormat.
func ParseVersion(value string) (Version, error) {
	matches := versionRgxCompiled.FindStringSubmatch(value)
	if matches == nil {
		return Version{}, errors.Wrapf(ErrInvalidVersionFormat, "version %q", value)
	}

	var segments [3]int
	for i := range segments {
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return Version{}, errors.Wrapf(ErrInvalidVersionFormat, "version %q: %v", value, err)
		}
		segments[i] = n
	}

	return NewVersion(segments[0], segments[1], segments[2]), nil
}

// MustParseVersion is like ParseVersion but panics on invalid input.
func MustParseVersion(value string) Version {
	v, err := ParseVersion(value)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValidVersion reports whether the value is a strict 'major.minor.patch' string.
func IsValidVersion(value string) bool {
	_, err := ParseVersion(value)
	return err == nil
}

// Major method returns integer value of the major version segment (e.g. '?.0.0')
func (v Version) Major() int {
	return v.major
}

// Minor method returns integer value of the minor version segment (e.g. '0.?.0')
func (v Version) Minor() int {
	return v.minor
}

// Patch method returns integer value of the patch version segment (e.g. '0.0.?')
func (v Version) Patch() int {
	return v.patch
}

// String returns the 'major.minor.patch' form of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare returns -1, 0 or 1 when v is lower, equal or greater than o.
func (v Version) Compare(o Version) int {
	switch true {
	case v.major != o.major:
		return cmpInt(v.major, o.major)
	case v.minor != o.minor:
		return cmpInt(v.minor, o.minor)
	default:
		return cmpInt(v.patch, o.patch)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Equal reports whether both versions have the same segments.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// NotEqual reports whether the versions differ in any segment.
func (v Version) NotEqual(o Version) bool { return v.Compare(o) != 0 }

// LessThan reports whether v < o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// LessThanOrEqual reports whether v <= o.
func (v Version) LessThanOrEqual(o Version) bool { return v.Compare(o) <= 0 }

// GreaterThan reports whether v > o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// GreaterThanOrEqual reports whether v >= o.
func (v Version) GreaterThanOrEqual(o Version) bool { return v.Compare(o) >= 0 }

// CompatibleWith reports whether v satisfies '^o': same major and minor, patch not lower.
func (v Version) CompatibleWith(o Version) bool {
	return v.major == o.major && v.minor == o.minor && v.patch >= o.patch
}

// Semver converts the version for use with semver range expressions.
func (v Version) Semver() *semver.Version {
	return semver.New(uint64(v.major), uint64(v.minor), uint64(v.patch), "", "")
}
