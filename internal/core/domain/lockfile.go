package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// LockfileVersion is the lockfile format version this build reads and writes.
const LockfileVersion = 1

// PackageEntry is one resolved package pinned by the lockfile.
type PackageEntry struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`

	// DownloadURL is the absolute URL the artifact is fetched from.
	DownloadURL string `json:"download_url"`

	// Size is the artifact size in bytes, as advertised by the index.
	Size int64 `json:"size"`

	// Digest is the expected content digest of the artifact.
	Digest Digest `json:"digest"`

	// Dependencies lists the package keys of entries this entry depends on.
	// Every key refers to an entry in the same lockfile.
	Dependencies []string `json:"dependencies"`

	// ControlFile is the verbatim control paragraph the entry was built from.
	ControlFile string `json:"control_file"`
}

// Lockfile pins the transitive closure of the required packages for every
// target architecture. Serialized as pretty-printed JSON with
// lexicographically ordered maps, it is byte-reproducible for identical
// inputs.
type Lockfile struct {
	Version    int    `json:"version"`
	ConfigHash string `json:"config_hash"`

	// RequiredPackages is the sorted, deduplicated list of top-level package
	// names the lockfile was resolved for.
	RequiredPackages []string `json:"required_packages"`

	// Packages maps package keys to resolved entries.
	Packages map[string]PackageEntry `json:"packages"`

	// PackageGroups maps each package name to the sorted list of keys of its
	// per-architecture manifestations.
	PackageGroups map[string][]string `json:"package_groups"`
}

// NewLockfile creates an empty lockfile bound to the given configuration
// fingerprint. The required package list is sorted and deduplicated.
func NewLockfile(configHash string, requiredPackages []string) *Lockfile {
	required := slices.Clone(requiredPackages)
	slices.Sort(required)
	required = slices.Compact(required)

	return &Lockfile{
		Version:          LockfileVersion,
		ConfigHash:       configHash,
		RequiredPackages: required,
		Packages:         map[string]PackageEntry{},
		PackageGroups:    map[string][]string{},
	}
}

// PackageKey builds the lockfile key for a package: the architecture, name and
// version joined by underscores, with every byte outside [A-Za-z0-9] replaced
// by an underscore.
func PackageKey(architecture, name, version string) string {
	return sanitizeKeyComponent(architecture) + "_" + sanitizeKeyComponent(name) + "_" + sanitizeKeyComponent(version)
}

func sanitizeKeyComponent(component string) string {
	out := []byte(component)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Add inserts an entry under its key and records it in its package group. The
// group is kept sorted and duplicate-free.
func (l *Lockfile) Add(key string, entry PackageEntry) {
	l.Packages[key] = entry

	group := append(l.PackageGroups[entry.Name], key)
	slices.Sort(group)
	l.PackageGroups[entry.Name] = slices.Compact(group)
}

// Validate checks the lockfile's structural invariants: supported version,
// complete entries, dependency edges that resolve within the lockfile, and
// sorted, duplicate-free groups matching the package map.
func (l *Lockfile) Validate() error {
	if l.Version != LockfileVersion {
		return zerr.With(zerr.With(ErrLockfileVersionUnsupported, "version", l.Version), "supported", LockfileVersion)
	}

	for key, entry := range l.Packages {
		if entry.Name == "" || entry.Version == "" || entry.Architecture == "" ||
			entry.DownloadURL == "" || entry.Digest.Value == "" {
			return zerr.With(zerr.With(ErrLockfileValidation, "key", key), "reason", "incomplete entry")
		}
		if !entry.Digest.Algorithm.Valid() {
			return zerr.With(zerr.With(ErrDigestUnsupported, "key", key), "algorithm", string(entry.Digest.Algorithm))
		}
		for _, dep := range entry.Dependencies {
			if _, ok := l.Packages[dep]; !ok {
				return zerr.With(zerr.With(ErrLockfileValidation, "key", key), "missing_dependency", dep)
			}
		}
		if !slices.Contains(l.PackageGroups[entry.Name], key) {
			return zerr.With(zerr.With(ErrLockfileValidation, "key", key), "reason", "entry missing from its package group")
		}
	}

	for name, group := range l.PackageGroups {
		if !slices.IsSorted(group) {
			return zerr.With(zerr.With(ErrLockfileValidation, "group", name), "reason", "group not sorted")
		}
		for i := 1; i < len(group); i++ {
			if group[i] == group[i-1] {
				return zerr.With(zerr.With(zerr.With(ErrLockfileValidation, "group", name), "key", group[i]), "reason", "duplicate key in group")
			}
		}
		for _, key := range group {
			entry, ok := l.Packages[key]
			if !ok {
				return zerr.With(zerr.With(ErrLockfileValidation, "group", name), "missing_key", key)
			}
			if entry.Name != name {
				return zerr.With(zerr.With(zerr.With(ErrLockfileValidation, "group", name), "key", key), "reason", "entry name does not match group")
			}
		}
	}

	return nil
}

// KeyedEntry pairs a lockfile entry with its key.
type KeyedEntry struct {
	Key   string
	Entry PackageEntry
}

// EntriesByName returns the lockfile's entries with their keys, ordered by
// entry name ascending, then by key. This is the iteration order used when
// regenerating a Packages file.
func (l *Lockfile) EntriesByName() []KeyedEntry {
	entries := make([]KeyedEntry, 0, len(l.Packages))
	for key, entry := range l.Packages {
		entries = append(entries, KeyedEntry{Key: key, Entry: entry})
	}
	slices.SortFunc(entries, func(a, b KeyedEntry) int {
		if a.Entry.Name != b.Entry.Name {
			if a.Entry.Name < b.Entry.Name {
				return -1
			}
			return 1
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	return entries
}
