package verification_test

import (
	"crypto/md5"  //nolint:gosec // Testing the MD5 code path
	"crypto/sha1" //nolint:gosec // Testing the SHA1 code path
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/verification"
)

func TestContentDigestVerifier_AllAlgorithms(t *testing.T) {
	payload := []byte("aptprep verification payload")

	tests := []struct {
		algorithm domain.DigestAlgorithm
		hasher    hash.Hash
	}{
		{domain.DigestMD5Sum, md5.New()}, //nolint:gosec
		{domain.DigestSHA1, sha1.New()},  //nolint:gosec
		{domain.DigestSHA256, sha256.New()},
		{domain.DigestSHA384, sha512.New384()},
		{domain.DigestSHA512, sha512.New()},
	}

	for _, tc := range tests {
		t.Run(string(tc.algorithm), func(t *testing.T) {
			tc.hasher.Write(payload)
			expected := hex.EncodeToString(tc.hasher.Sum(nil))

			verifier, err := verification.NewContentDigestVerifier(domain.Digest{
				Algorithm: tc.algorithm,
				Value:     expected,
			})
			require.NoError(t, err)

			// Feed in two chunks to exercise streaming.
			verifier.Update(payload[:10])
			verifier.Update(payload[10:])
			require.NoError(t, verifier.Verify())
		})
	}
}

func TestContentDigestVerifier_KnownSHA256(t *testing.T) {
	verifier, err := verification.NewContentDigestVerifier(domain.Digest{
		Algorithm: domain.DigestSHA256,
		Value:     "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
	})
	require.NoError(t, err)

	verifier.Update([]byte("hello"))
	require.NoError(t, verifier.Verify())
}

func TestContentDigestVerifier_Mismatch(t *testing.T) {
	sum := sha256.Sum256([]byte("expected content"))
	verifier, err := verification.NewContentDigestVerifier(domain.Digest{
		Algorithm: domain.DigestSHA256,
		Value:     hex.EncodeToString(sum[:]),
	})
	require.NoError(t, err)

	verifier.Update([]byte("actual content"))
	err = verifier.Verify()
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDigestMismatch)
}

func TestContentDigestVerifier_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := verification.NewContentDigestVerifier(domain.Digest{
		Algorithm: "CRC32",
		Value:     "00",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDigestUnsupported)
}

func TestContentDigestVerifier_AsWriter(t *testing.T) {
	sum := sha256.Sum256([]byte("streamed"))
	verifier, err := verification.NewContentDigestVerifier(domain.Digest{
		Algorithm: domain.DigestSHA256,
		Value:     hex.EncodeToString(sum[:]),
	})
	require.NoError(t, err)

	n, err := verifier.Write([]byte("streamed"))
	require.NoError(t, err)
	require.Equal(t, len("streamed"), n)
	require.NoError(t, verifier.Verify())
}
