package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"pault.ag/go/debian/control"
	"pault.ag/go/debian/dependency"
	"pault.ag/go/debian/version"
)

// BinaryPackageRecord pairs one control paragraph from an upstream Packages
// index with the base URL of the repository that published it. The verbatim
// paragraph text is retained so it can be reproduced exactly in a generated
// Packages file without re-contacting the upstream.
type BinaryPackageRecord struct {
	// Raw is the verbatim control paragraph text, without a trailing blank line.
	Raw string

	// Paragraph is the parsed form of Raw.
	Paragraph control.Paragraph

	// RepoURL is the base URL of the originating repository, including any
	// distribution-path suffix, without a trailing slash.
	RepoURL string
}

// Field returns the named control field, if present.
func (r *BinaryPackageRecord) Field(name string) (string, bool) {
	value, ok := r.Paragraph.Values[name]
	return value, ok
}

// Name returns the Package field. Empty if absent.
func (r *BinaryPackageRecord) Name() string {
	return r.Paragraph.Values["Package"]
}

// Version returns the Version field as written in the paragraph.
func (r *BinaryPackageRecord) Version() string {
	return r.Paragraph.Values["Version"]
}

// Architecture returns the Architecture field. Empty if absent.
func (r *BinaryPackageRecord) Architecture() string {
	return r.Paragraph.Values["Architecture"]
}

// Filename returns the Filename field, the package's path relative to the
// repository root.
func (r *BinaryPackageRecord) Filename() (string, error) {
	filename, ok := r.Paragraph.Values["Filename"]
	if !ok || filename == "" {
		return "", zerr.With(ErrLockfileValidation, "missing_field", "Filename")
	}
	return filename, nil
}

// Size returns the Size field in bytes.
func (r *BinaryPackageRecord) Size() (int64, error) {
	raw, ok := r.Paragraph.Values["Size"]
	if !ok {
		return 0, zerr.With(ErrLockfileValidation, "missing_field", "Size")
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "invalid Size field"), "value", raw)
	}
	return size, nil
}

// ParsedVersion parses the Version field into its epoch, upstream version and
// Debian revision.
func (r *BinaryPackageRecord) ParsedVersion() (version.Version, error) {
	parsed, err := version.Parse(r.Version())
	if err != nil {
		return version.Version{}, zerr.With(zerr.With(zerr.Wrap(err, "invalid package version"), "package", r.Name()), "version", r.Version())
	}
	return parsed, nil
}

// Depends parses the Depends field. A missing or empty field yields nil.
func (r *BinaryPackageRecord) Depends() (*dependency.Dependency, error) {
	return r.parseRelationField("Depends")
}

// PreDepends parses the Pre-Depends field. A missing or empty field yields nil.
func (r *BinaryPackageRecord) PreDepends() (*dependency.Dependency, error) {
	return r.parseRelationField("Pre-Depends")
}

// Provides parses the Provides field. A missing or empty field yields nil.
func (r *BinaryPackageRecord) Provides() (*dependency.Dependency, error) {
	return r.parseRelationField("Provides")
}

func (r *BinaryPackageRecord) parseRelationField(field string) (*dependency.Dependency, error) {
	raw, ok := r.Paragraph.Values[field]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return dependency.Parse(raw)
}

// StrongestDigest returns the preferred digest advertised by the paragraph,
// iterating the supported algorithms strongest first.
func (r *BinaryPackageRecord) StrongestDigest() (Digest, error) {
	for _, algorithm := range DigestPreference {
		if value, ok := r.Paragraph.Values[algorithm.FieldName()]; ok && value != "" {
			return NewDigest(algorithm, value)
		}
	}
	return Digest{}, zerr.With(zerr.With(ErrLockfileValidation, "missing_field", "digest"), "package", r.Name())
}
