package domain

import "go.trai.ch/zerr"

var (
	// ErrConfigLoad is returned when the configuration file cannot be read or parsed.
	ErrConfigLoad = zerr.New("failed to load configuration")

	// ErrArgumentInvalid is returned when command-line arguments are inconsistent or out of range.
	ErrArgumentInvalid = zerr.New("invalid argument")

	// ErrRepositoryAccess is returned when a release file, index list, or Packages
	// file cannot be fetched from an upstream repository.
	ErrRepositoryAccess = zerr.New("repository access failed")

	// ErrNoSolution is returned when the version solver proves that no package
	// set satisfies the requested packages.
	ErrNoSolution = zerr.New("no solution")

	// ErrResolution is returned when the solver fails for a reason other than
	// proving unsatisfiability.
	ErrResolution = zerr.New("dependency resolution failed")

	// ErrLockfileVersionUnsupported is returned when a lockfile declares a format
	// version this build does not understand.
	ErrLockfileVersionUnsupported = zerr.New("unsupported lockfile version")

	// ErrLockfileValidation is returned when a lockfile entry is missing a required
	// field or references data that does not exist.
	ErrLockfileValidation = zerr.New("lockfile validation failed")

	// ErrConfigHashMismatch is returned when the supplied configuration's
	// fingerprint differs from the one recorded in the lockfile.
	ErrConfigHashMismatch = zerr.New("configuration hash does not match lockfile")

	// ErrRequiredPackagesMismatch is returned when the lockfile's required packages
	// disagree with the supplied configuration.
	ErrRequiredPackagesMismatch = zerr.New("required packages do not match lockfile")

	// ErrRecordNotFound is returned when a resolved control paragraph cannot be
	// traced back to the binary package record it was ingested from.
	ErrRecordNotFound = zerr.New("binary package record not found")

	// ErrDigestUnsupported is returned when a digest algorithm outside the known
	// set is encountered.
	ErrDigestUnsupported = zerr.New("unsupported digest algorithm")

	// ErrDigestMismatch is returned when a downloaded artifact's digest does not
	// match the expected value.
	ErrDigestMismatch = zerr.New("digest mismatch")

	// ErrDownload is returned when the download pass finishes with failed items.
	ErrDownload = zerr.New("download failed")
)
