package solcix

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/installer"
)

// InstallerMock mocks Installer logic.
type InstallerMock struct {
	mock.Mock
}

func (m *InstallerMock) Installed() ([]string, error) {
	args := m.Called()
	var versions []string
	// To allow nil values
	if v, ok := args.Get(0).([]string); ok {
		versions = v
	}
	return versions, args.Error(1)
}

func (m *InstallerMock) IsInstalled(version string) bool {
	return m.Called(version).Bool(0)
}

func (m *InstallerMock) Install(ctx context.Context, versions ...string) (installer.Report, error) {
	args := m.Called(ctx, versions)
	return args.Get(0).(installer.Report), args.Error(1)
}

func (m *InstallerMock) Uninstall(ctx context.Context, versions ...string) (installer.Report, error) {
	args := m.Called(ctx, versions)
	return args.Get(0).(installer.Report), args.Error(1)
}

// ReleasesMock mocks ReleaseSource logic.
type ReleasesMock struct {
	mock.Mock
}

func (m *ReleasesMock) Releases(ctx context.Context) (*binaries.ReleaseList, error) {
	args := m.Called(ctx)
	var list *binaries.ReleaseList
	if l, ok := args.Get(0).(*binaries.ReleaseList); ok {
		list = l
	}
	return list, args.Error(1)
}

// ListerMock mocks the binaries client List method.
type ListerMock struct {
	mock.Mock
}

func (m *ListerMock) List(ctx context.Context, platform binaries.Platform) (*binaries.ReleaseList, *http.Response, error) {
	args := m.Called(ctx, platform)
	var list *binaries.ReleaseList
	if l, ok := args.Get(0).(*binaries.ReleaseList); ok {
		list = l
	}
	return list, nil, args.Error(1)
}

// releasesFixture mirrors a slice of the linux release history.
func releasesFixture() *binaries.ReleaseList {
	return &binaries.ReleaseList{
		Releases: map[string]string{
			"0.4.11": "solc-linux-amd64-v0.4.11+commit.68ef5810",
			"0.4.24": "solc-linux-amd64-v0.4.24+commit.e67f0147",
			"0.4.25": "solc-linux-amd64-v0.4.25+commit.59dbf8f1",
			"0.5.0":  "solc-linux-amd64-v0.5.0+commit.1d4f565a",
			"0.5.17": "solc-linux-amd64-v0.5.17+commit.d19bba13",
			"0.6.0":  "solc-linux-amd64-v0.6.0+commit.26b70077",
			"0.6.12": "solc-linux-amd64-v0.6.12+commit.27d51765",
			"0.7.0":  "solc-linux-amd64-v0.7.0+commit.9e61f92b",
			"0.7.6":  "solc-linux-amd64-v0.7.6+commit.7338295f",
			"0.8.0":  "solc-linux-amd64-v0.8.0+commit.c7dfd78e",
			"0.8.1":  "solc-linux-amd64-v0.8.1+commit.df193b15",
			"0.8.2":  "solc-linux-amd64-v0.8.2+commit.661d1103",
		},
		LatestRelease: "0.8.2",
	}
}
