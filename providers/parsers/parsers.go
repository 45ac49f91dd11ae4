/*
Package parsers provides parsers for the version declarations of solidity source files.

Goals:
  - Reading the 'pragma solidity' statement of a source file from any FileFetcher
  - Turning it into a versioneer.Pragma
*/
package parsers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dephub/solcix/providers/fetchers"
	"github.com/dephub/solcix/providers/versioneer"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// PragmaParser represents basic interface for parsers in this package.
type PragmaParser interface {
	// Pragma has to return the version constraint declared by the source file,
	// nil when the file declares none (or an invalid one).
	Pragma(ctx context.Context, path string) (*versioneer.Pragma, error)
}

// NewPragmaParser constructs solidity source files parser.
func NewPragmaParser(fetcher fetchers.FileFetcher) PragmaParser {
	return &SolidityParser{fetcher: fetcher}
}

// SolidityParser represents concrete solidity pragma parser implementation.
type SolidityParser struct {
	fetcher fetchers.FileFetcher
}

// Pragma method returns the pragma declared by the source file.
func (sp SolidityParser) Pragma(ctx context.Context, path string) (*versioneer.Pragma, error) {
	b, err := sp.fetcher.FileContent(ctx, path)
	if err != nil {
		if err == fetchers.ErrFileNotFound {
			return nil, ErrFileNotFound
		}
		return nil, errors.Wrap(err, "unable to fetch the solidity source")
	}

	return versioneer.PragmaFromSource(string(b)), nil
}
