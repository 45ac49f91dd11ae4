package binaries

import (
	"github.com/dephub/solcix/providers/versioneer"
)

// Platform represents the build target directory name used by the binaries host.
type Platform string

// Supported platforms.
const (
	Linux   = Platform("linux-amd64")
	MacOS   = Platform("macosx-amd64")
	Windows = Platform("windows-amd64")
)

// earliest releases published for each platform.
var earliest = map[Platform]versioneer.Version{
	Linux:   versioneer.NewVersion(0, 4, 0),
	MacOS:   versioneer.NewVersion(0, 3, 6),
	Windows: versioneer.NewVersion(0, 4, 1),
}

// legacyLinuxLast is the last linux release served by the crytic/solc mirror instead of the official host.
var legacyLinuxLast = versioneer.NewVersion(0, 4, 10)

// legacyWindowsLast is the last windows release shipped as a zip archive.
var legacyWindowsLast = versioneer.NewVersion(0, 7, 1)

// UnsupportedPlatformError is returned for operating systems without published builds.
type UnsupportedPlatformError struct {
	OS string
}

func (e *UnsupportedPlatformError) Error() string {
	return "unsupported platform: " + e.OS
}

// DetectPlatform maps a GOOS value to the platform.
func DetectPlatform(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "darwin":
		return MacOS, nil
	case "windows":
		return Windows, nil
	}
	return "", &UnsupportedPlatformError{OS: goos}
}

// Earliest returns the earliest release published for the platform.
func (p Platform) Earliest() versioneer.Version {
	return earliest[p]
}

// Legacy reports whether the version is served by the crytic/solc mirror on this platform.
func (p Platform) Legacy(v versioneer.Version) bool {
	return p == Linux && v.LessThanOrEqual(legacyLinuxLast)
}

// Zipped reports whether the artifact of the version is a zip archive on this platform.
func (p Platform) Zipped(v versioneer.Version) bool {
	return p == Windows && v.LessThanOrEqual(legacyWindowsLast)
}

// Executable returns the file name of an installed compiler.
func (p Platform) Executable(version string) string {
	if p == Windows {
		return "solc-" + version + ".exe"
	}
	return "solc-" + version
}
