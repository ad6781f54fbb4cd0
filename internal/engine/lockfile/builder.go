// Package lockfile assembles resolved package sets into lockfile entries:
// stable keys, download coordinates, digests, and intra-lockfile dependency
// edges.
package lockfile

import (
	"slices"
	"sort"
	"strings"

	"pault.ag/go/debian/version"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"github.com/aptprep/aptprep/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// Builder adds resolved packages to a lockfile one architecture at a time.
// It is not reentrant.
type Builder struct {
	logger ports.Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(logger ports.Logger) *Builder {
	return &Builder{logger: logger}
}

// keyRow is one row of the per-architecture key table. Rows are ordered by
// name ascending, then parsed version descending, so a range search prefers
// the highest satisfying version.
type keyRow struct {
	name          string
	versionString string
	parsed        version.Version
	key           string
}

// AddPackages adds one architecture's resolved records to the lockfile.
// byArch is the full ingested candidate map, used to locate each record's
// download coordinates.
func (b *Builder) AddPackages(
	lf *domain.Lockfile,
	architecture string,
	resolved []*domain.BinaryPackageRecord,
	byArch map[string][]domain.BinaryPackageRecord,
) error {
	// Pass 1: the key table for dependency-edge resolution.
	rows := make([]keyRow, 0, len(resolved))
	for _, rec := range resolved {
		parsed, err := rec.ParsedVersion()
		if err != nil {
			return err
		}
		rows = append(rows, keyRow{
			name:          rec.Name(),
			versionString: rec.Version(),
			parsed:        parsed,
			key:           domain.PackageKey(architecture, rec.Name(), rec.Version()),
		})
	}
	slices.SortFunc(rows, func(a, b keyRow) int {
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}
		if c := version.Compare(b.parsed, a.parsed); c != 0 {
			return c
		}
		return strings.Compare(a.versionString, b.versionString)
	})

	// Pass 2: the entries.
	for _, rec := range resolved {
		located, err := b.locateRecord(rec, architecture, byArch)
		if err != nil {
			return err
		}

		filename, err := located.Filename()
		if err != nil {
			return zerr.With(zerr.With(err, "package", rec.Name()), "version", rec.Version())
		}
		size, err := located.Size()
		if err != nil {
			return zerr.With(zerr.With(err, "package", rec.Name()), "version", rec.Version())
		}
		digest, err := located.StrongestDigest()
		if err != nil {
			return zerr.With(zerr.With(err, "package", rec.Name()), "version", rec.Version())
		}

		entry := domain.PackageEntry{
			Name:         rec.Name(),
			Version:      rec.Version(),
			Architecture: architecture,
			DownloadURL:  composeDownloadURL(located.RepoURL, filename),
			Size:         size,
			Digest:       digest,
			Dependencies: b.resolveEdges(rec, rows, architecture),
			ControlFile:  located.Raw,
		}

		lf.Add(domain.PackageKey(architecture, rec.Name(), rec.Version()), entry)
	}

	return nil
}

// locateRecord finds the ingested record behind a resolved paragraph by
// matching name and version within the paragraph's own architecture, falling
// back to the target architecture only for "all" packages. When several
// records match, the last ingested one wins.
func (b *Builder) locateRecord(
	rec *domain.BinaryPackageRecord,
	architecture string,
	byArch map[string][]domain.BinaryPackageRecord,
) (*domain.BinaryPackageRecord, error) {
	if found := findByNameAndVersion(byArch[rec.Architecture()], rec.Name(), rec.Version()); found != nil {
		return found, nil
	}
	if rec.Architecture() == "all" {
		if found := findByNameAndVersion(byArch[architecture], rec.Name(), rec.Version()); found != nil {
			return found, nil
		}
	}
	return nil, zerr.With(zerr.With(zerr.With(domain.ErrRecordNotFound, "package", rec.Name()), "version", rec.Version()), "architecture", rec.Architecture())
}

func findByNameAndVersion(records []domain.BinaryPackageRecord, name, ver string) *domain.BinaryPackageRecord {
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Name() == name && records[i].Version() == ver {
			return &records[i]
		}
	}
	return nil
}

// resolveEdges computes the entry's dependency edges from its Depends field.
// For every clause, the first alternative satisfied by a key-table row wins;
// the row search prefers the highest satisfying version. Unresolved clauses
// yield no edge: closure is enforced at solve time, not here.
func (b *Builder) resolveEdges(rec *domain.BinaryPackageRecord, rows []keyRow, architecture string) []string {
	edges := []string{}
	seen := map[string]struct{}{}

	depends, err := rec.Depends()
	if err != nil {
		b.logger.Warn("could not parse Depends while resolving edges",
			"package", rec.Name(), "error", err.Error())
		return edges
	}
	if depends == nil {
		return edges
	}

	for _, relation := range depends.Relations {
		for _, possi := range relation.Possibilities {
			if !resolver.ArchMatches(possi, architecture) {
				continue
			}
			key, ok := searchRows(rows, possi.Name, func(row keyRow) bool {
				if possi.Version == nil {
					return true
				}
				return possi.Version.SatisfiedBy(row.parsed)
			})
			if !ok {
				continue
			}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				edges = append(edges, key)
			}
			break
		}
	}

	return edges
}

// searchRows scans the rows of one package name, highest version first, and
// returns the key of the first row accepted by satisfies.
func searchRows(rows []keyRow, name string, satisfies func(keyRow) bool) (string, bool) {
	start := sort.Search(len(rows), func(i int) bool {
		return rows[i].name >= name
	})
	for i := start; i < len(rows) && rows[i].name == name; i++ {
		if satisfies(rows[i]) {
			return rows[i].key, true
		}
	}
	return "", false
}

// composeDownloadURL joins a repository base URL with a Filename field,
// normalizing a leading "./" and handling absolute filenames.
func composeDownloadURL(baseURL, filename string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasPrefix(filename, "/") {
		return base + filename
	}
	return base + "/" + strings.TrimPrefix(filename, "./")
}
