/*
Package versioneer provides solidity compiler versions, release catalogs and
'pragma solidity' constraints parsing and evaluation.

Usage:

	pragma := versioneer.ParsePragma("pragma solidity >=0.6.0 <0.8.0;")
	catalog, _ := versioneer.NewCatalog(releases, latest)
	selection := versioneer.CompatibleVersions(pragma, catalog)
	recommended, err := versioneer.RecommendedVersion(pragma, catalog, earliest)
*/
package versioneer

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidVersionFormat is returned for any version string other than 'major.minor.patch'.
	ErrInvalidVersionFormat = errors.New("invalid version format")
	// ErrNoCompatibleVersion is matched (errors.Is) by every NoCompatibleVersionError.
	ErrNoCompatibleVersion = errors.New("no compatible version found")
)

// NoCompatibleVersionError is returned when recommendation runs off the known releases history.
type NoCompatibleVersionError struct {
	// Kind is the boundary that was crossed: "latest", "earliest" or "series".
	Kind  string
	Value string
}

func (e *NoCompatibleVersionError) Error() string {
	return "no compatible version found, " + e.Kind + " version is " + e.Value
}

// Is makes errors.Is(err, ErrNoCompatibleVersion) work.
func (e *NoCompatibleVersionError) Is(target error) bool {
	return target == ErrNoCompatibleVersion
}
