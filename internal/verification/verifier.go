// Package verification implements streaming content digest verification for
// downloaded artifacts.
package verification

import (
	"bytes"
	"crypto/md5"  //nolint:gosec // MD5 is part of the Debian checksum field set
	"crypto/sha1" //nolint:gosec // SHA1 is part of the Debian checksum field set
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/aptprep/aptprep/internal/core/domain"
	"go.trai.ch/zerr"
)

// ContentDigestVerifier absorbs a byte stream and checks it against an
// expected digest. Update must not be called after Verify; Verify consumes
// the verifier.
type ContentDigestVerifier struct {
	algorithm domain.DigestAlgorithm
	hasher    hash.Hash
	expected  []byte
}

// NewContentDigestVerifier creates a verifier for the digest's algorithm.
func NewContentDigestVerifier(digest domain.Digest) (*ContentDigestVerifier, error) {
	expected, err := digest.Bytes()
	if err != nil {
		return nil, err
	}

	var hasher hash.Hash
	switch digest.Algorithm {
	case domain.DigestMD5Sum:
		hasher = md5.New() //nolint:gosec
	case domain.DigestSHA1:
		hasher = sha1.New() //nolint:gosec
	case domain.DigestSHA256:
		hasher = sha256.New()
	case domain.DigestSHA384:
		hasher = sha512.New384()
	case domain.DigestSHA512:
		hasher = sha512.New()
	default:
		return nil, zerr.With(domain.ErrDigestUnsupported, "algorithm", string(digest.Algorithm))
	}

	return &ContentDigestVerifier{
		algorithm: digest.Algorithm,
		hasher:    hasher,
		expected:  expected,
	}, nil
}

// Update absorbs the next chunk of the stream.
func (v *ContentDigestVerifier) Update(p []byte) {
	_, _ = v.hasher.Write(p)
}

// Write makes the verifier an io.Writer so streams can be copied into it.
func (v *ContentDigestVerifier) Write(p []byte) (int, error) {
	return v.hasher.Write(p)
}

// Verify finalizes the digest and compares it to the expected value. On
// mismatch the returned error carries the expected and actual hex digests.
func (v *ContentDigestVerifier) Verify() error {
	actual := v.hasher.Sum(nil)
	if bytes.Equal(actual, v.expected) {
		return nil
	}
	return zerr.With(zerr.With(zerr.With(domain.ErrDigestMismatch, "algorithm", string(v.algorithm)), "expected", hex.EncodeToString(v.expected)), "actual", hex.EncodeToString(actual))
}
