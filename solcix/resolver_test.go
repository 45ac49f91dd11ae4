package solcix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dephub/solcix/providers/api/binaries"
	"github.com/dephub/solcix/providers/installer"
	"github.com/dephub/solcix/providers/versioneer"
)

func newTestResolver(t *testing.T) (*Resolver, *ReleasesMock) {
	t.Helper()
	releases := new(ReleasesMock)
	releases.On("Releases", mock.Anything).Return(releasesFixture(), nil)
	logger, _ := test.NewNullLogger()
	return NewResolver(releases, binaries.Linux, logger), releases
}

func TestResolver_Compatible(t *testing.T) {
	r, releases := newTestResolver(t)
	ctx := context.Background()

	sel, err := r.Compatible(ctx, versioneer.ParsePragma("pragma solidity >=0.6.0 <0.8.0;"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0.6.0", "0.6.12", "0.7.0", "0.7.6"}, sel.Versions)
	assert.False(t, sel.IsPinned())

	sel, err = r.Compatible(ctx, versioneer.ParsePragma("pragma solidity 0.8.1;"))
	require.NoError(t, err)
	assert.Equal(t, "0.8.1", sel.Pinned)

	sel, err = r.Compatible(ctx, versioneer.ParsePragma("pragma solidity ^0.9.0;"))
	require.NoError(t, err)
	assert.NotNil(t, sel.Versions)
	assert.Empty(t, sel.Versions)

	_, err = r.Compatible(ctx, nil)
	assert.Equal(t, ErrNoPragma, err)
	releases.AssertExpectations(t)
}

func TestResolver_Recommended(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	cases := map[string]string{
		"pragma solidity ^0.8.0;":         "0.8.0",
		"pragma solidity >0.7.6;":         "0.8.0",
		"pragma solidity <0.6.0;":         "0.5.17",
		"pragma solidity >=0.5.0 <0.6.0;": "0.5.0",
		"pragma solidity 0.4;":            "0.4.25",
	}
	for src, exp := range cases {
		t.Run(src, func(t *testing.T) {
			v, err := r.Recommended(ctx, versioneer.ParsePragma(src))
			require.NoError(t, err)
			assert.Equal(t, exp, v)
		})
	}

	_, err := r.Recommended(ctx, versioneer.ParsePragma("pragma solidity >0.8.2;"))
	assert.True(t, errors.Is(err, versioneer.ErrNoCompatibleVersion))

	_, err = r.Recommended(ctx, versioneer.ParsePragma("pragma solidity <0.4.0;"))
	assert.True(t, errors.Is(err, versioneer.ErrNoCompatibleVersion))
}

func TestResolver_ReleasesError(t *testing.T) {
	releases := new(ReleasesMock)
	releases.On("Releases", mock.Anything).Return(nil, errors.New("offline"))
	r := NewResolver(releases, binaries.Linux, nil)

	_, err := r.Recommended(context.Background(), versioneer.ParsePragma("pragma solidity ^0.8.0;"))
	assert.EqualError(t, err, "offline")
}

func TestResolver_ResolveSource(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "Token.sol")
	require.NoError(t, os.WriteFile(file, []byte("// SPDX\npragma solidity >0.5.16 <=0.8.1;\n"), 0o644))

	p, err := r.ResolveSource(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, ">0.5.16 <=0.8.1", p.String())

	p, err = r.ResolveSource(ctx, "pragma solidity ^0.7.0;")
	require.NoError(t, err)
	assert.Equal(t, "^0.7.0", p.String())

	p, err = r.ResolveSource(ctx, "contract A {}")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolver_WithSource(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	mem := r.WithSource(NewMemorySource(fileMapMockData))

	p, err := mem.ResolveSource(ctx, "contracts/Legacy.sol")
	require.NoError(t, err)
	assert.Equal(t, "0.4.24", p.String())

	_, err = mem.ResolveSource(ctx, "pragma solidity ^0.7.0;")
	assert.Error(t, err)

	// the original resolver is left untouched
	p, err = r.ResolveSource(ctx, "pragma solidity ^0.7.0;")
	require.NoError(t, err)
	assert.Equal(t, "^0.7.0", p.String())
}

func TestResolver_InstallFromSource(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	inst := new(InstallerMock)
	inst.On("IsInstalled", "0.8.0").Return(false).Once()
	inst.On("Install", mock.Anything, []string{"0.8.0"}).Return(installer.Report{Installed: []string{"0.8.0"}}, nil).Once()

	v, err := r.InstallFromSource(ctx, "pragma solidity ^0.8.0;", inst, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.8.0", v)

	inst.On("IsInstalled", "0.7.6").Return(true).Once()
	v, err = r.InstallFromSource(ctx, "pragma solidity ^0.8.0;", inst, func(context.Context, *versioneer.Pragma) (string, error) {
		return "0.7.6", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "0.7.6", v)
	inst.AssertExpectations(t)
}

func TestResolver_InstallFromSource_Errors(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	inst := new(InstallerMock)

	_, err := r.InstallFromSource(ctx, "contract A {}", inst, nil)
	assert.Equal(t, ErrNoPragma, err)

	_, err = r.InstallFromSource(ctx, "pragma solidity >0.8.2;", inst, nil)
	assert.True(t, errors.Is(err, versioneer.ErrNoCompatibleVersion))

	inst.On("IsInstalled", "0.8.0").Return(false)
	inst.On("Install", mock.Anything, []string{"0.8.0"}).Return(installer.Report{
		Failed: map[string]error{"0.8.0": &installer.ChecksumMissingError{Version: "0.8.0"}},
	}, nil)
	_, err = r.InstallFromSource(ctx, "pragma solidity ^0.8.0;", inst, nil)
	var missing *installer.ChecksumMissingError
	assert.True(t, errors.As(err, &missing))
	inst.AssertExpectations(t)
}
