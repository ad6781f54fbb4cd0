package domain

import (
	"slices"
	"strings"
)

// Distribution identifies one distribution within a source repository. It is
// either a simple suite name (resolved below dists/) or an explicit
// distribution path relative to the repository root. Exactly one of the two
// fields is set.
type Distribution struct {
	// Suite is the simple suite name, e.g. "noble" or "bookworm".
	Suite string

	// DistributionPath is the explicit path of the distribution directory
	// relative to the repository root, e.g. "dists/noble-security".
	DistributionPath string
}

// ReleasePath returns the distribution directory relative to the repository
// root, without a trailing slash.
func (d Distribution) ReleasePath() string {
	if d.DistributionPath != "" {
		return strings.Trim(d.DistributionPath, "/")
	}
	return "dists/" + d.Suite
}

// SourceRepository describes one upstream APT repository to ingest.
type SourceRepository struct {
	// SourceURL is the repository base URL, e.g. "http://archive.ubuntu.com/ubuntu".
	SourceURL string

	// Architectures lists the architectures whose indices are ingested from
	// this repository. "all" indices are always ingested.
	Architectures []string

	// Distributions lists the distributions to ingest.
	Distributions []Distribution
}

// OutputConfig describes where artifacts go and which architectures to resolve.
type OutputConfig struct {
	// Path is the output directory. Optional; commands that need it validate
	// its presence.
	Path string

	// TargetArchitectures lists the architectures the lockfile is resolved for.
	TargetArchitectures []string
}

// Config is the loaded, validated configuration for a run.
type Config struct {
	// Fingerprint is the hex-encoded SHA-256 of the configuration file's raw
	// bytes. It binds a lockfile to the exact configuration it was built from.
	Fingerprint string

	SourceRepositories []SourceRepository

	// Packages are the top-level required package names, as written in the
	// configuration file.
	Packages []string

	Output OutputConfig
}

// RequiredPackages returns the top-level package names sorted and deduplicated.
func (c Config) RequiredPackages() []string {
	required := slices.Clone(c.Packages)
	slices.Sort(required)
	return slices.Compact(required)
}
