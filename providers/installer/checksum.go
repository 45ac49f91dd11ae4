package installer

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	"golang.org/x/crypto/sha3"
)

type checksums struct {
	sha256    string
	keccak256 string
}

// verify compares c with the expected checksums, an empty expected keccak256 is not checked.
func (c checksums) verify(version string, expected checksums) error {
	if c.sha256 != expected.sha256 {
		return &ChecksumMismatchError{Version: version, Algorithm: "sha256", Expected: expected.sha256, Actual: c.sha256}
	}
	if expected.keccak256 != "" && c.keccak256 != expected.keccak256 {
		return &ChecksumMismatchError{Version: version, Algorithm: "keccak256", Expected: expected.keccak256, Actual: c.keccak256}
	}
	return nil
}

type hasher struct {
	sha256    hash.Hash
	keccak256 hash.Hash
}

func newHasher() *hasher {
	return &hasher{sha256: sha256.New(), keccak256: sha3.NewLegacyKeccak256()}
}

// writer returns a writer feeding both w and the hashes.
func (h *hasher) writer(w io.Writer) io.Writer {
	return io.MultiWriter(w, h.sha256, h.keccak256)
}

func (h *hasher) readFrom(r io.Reader) error {
	_, err := io.Copy(io.MultiWriter(h.sha256, h.keccak256), r)
	return err
}

func (h *hasher) sum() checksums {
	return checksums{
		sha256:    hex.EncodeToString(h.sha256.Sum(nil)),
		keccak256: hex.EncodeToString(h.keccak256.Sum(nil)),
	}
}

// normalizeHex strips the 0x prefix used by the release lists.
func normalizeHex(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
}
