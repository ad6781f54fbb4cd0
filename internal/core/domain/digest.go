package domain

import (
	"encoding/hex"
	"strings"

	"go.trai.ch/zerr"
)

// DigestAlgorithm names one of the checksum algorithms used by Debian package
// indices. The values double as the lockfile's algorithm tags.
type DigestAlgorithm string

const (
	DigestMD5Sum DigestAlgorithm = "MD5Sum"
	DigestSHA1   DigestAlgorithm = "SHA1"
	DigestSHA256 DigestAlgorithm = "SHA256"
	DigestSHA384 DigestAlgorithm = "SHA384"
	DigestSHA512 DigestAlgorithm = "SHA512"
)

// DigestPreference lists the supported algorithms strongest first. The first
// algorithm with a matching control field wins when a package advertises
// several checksums.
var DigestPreference = []DigestAlgorithm{
	DigestSHA512,
	DigestSHA384,
	DigestSHA256,
	DigestSHA1,
	DigestMD5Sum,
}

// FieldName returns the control paragraph field that carries this algorithm's
// checksum. Note the lower-case s in MD5sum, unlike in Release files.
func (a DigestAlgorithm) FieldName() string {
	if a == DigestMD5Sum {
		return "MD5sum"
	}
	return string(a)
}

// Valid reports whether the algorithm is one of the supported set.
func (a DigestAlgorithm) Valid() bool {
	switch a {
	case DigestMD5Sum, DigestSHA1, DigestSHA256, DigestSHA384, DigestSHA512:
		return true
	}
	return false
}

// Digest is an expected content digest: an algorithm tag plus the lower-case
// hex encoding of the digest bytes.
type Digest struct {
	Algorithm DigestAlgorithm `json:"algorithm"`
	Value     string          `json:"value"`
}

// NewDigest validates the algorithm and hex value and normalizes the value to
// lower case.
func NewDigest(algorithm DigestAlgorithm, value string) (Digest, error) {
	if !algorithm.Valid() {
		return Digest{}, zerr.With(ErrDigestUnsupported, "algorithm", string(algorithm))
	}
	value = strings.ToLower(value)
	if _, err := hex.DecodeString(value); err != nil {
		return Digest{}, zerr.With(zerr.Wrap(err, "invalid digest value"), "algorithm", string(algorithm))
	}
	return Digest{Algorithm: algorithm, Value: value}, nil
}

// Bytes decodes the digest value into raw bytes.
func (d Digest) Bytes() ([]byte, error) {
	raw, err := hex.DecodeString(d.Value)
	if err != nil {
		return nil, zerr.Wrap(err, "invalid digest value")
	}
	return raw, nil
}
