// Package resolver translates the Debian dependency language into the
// solver's provider contract and back. Disjunctive alternatives become dummy
// packages, virtual packages are expanded through their providers, and
// architecture qualifiers are honored during expansion.
package resolver

import (
	"errors"
	"slices"
	"strings"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"github.com/aptprep/aptprep/internal/engine/solver"
	"go.trai.ch/zerr"
)

// RelevantRecords returns the candidate records for one target architecture:
// the architecture's own records followed by the "all" records.
func RelevantRecords(byArch map[string][]domain.BinaryPackageRecord, architecture string) []domain.BinaryPackageRecord {
	records := make([]domain.BinaryPackageRecord, 0,
		len(byArch[architecture])+len(byArch["all"]))
	records = append(records, byArch[architecture]...)
	records = append(records, byArch["all"]...)
	return records
}

// Resolve computes the transitive closure of the requested packages for one
// target architecture. The returned records are drawn from the ingested
// candidate set and ordered deterministically by name, version and
// architecture.
func Resolve(
	byArch map[string][]domain.BinaryPackageRecord,
	requested []string,
	architecture string,
	logger ports.Logger,
) ([]*domain.BinaryPackageRecord, error) {
	logger.Info("loading packages", "architecture", architecture)

	provider, err := NewProvider(RelevantRecords(byArch, architecture), requested, architecture, logger)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to prepare dependency resolution")
	}

	solution, err := solver.Solve(provider, RootPackage{}, provider.rootVersion)
	if err != nil {
		var noSolution *solver.NoSolutionError
		if errors.As(err, &noSolution) {
			logger.Error("no solution", "architecture", architecture,
				"derivation", strings.Join(noSolution.Derivation, "; "))
			return nil, zerr.With(domain.ErrNoSolution, "architecture", architecture)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrResolution.Error()), "architecture", architecture)
	}

	var resolved []*domain.BinaryPackageRecord
	for pkg, ver := range solution {
		real, ok := pkg.(RealPackage)
		if !ok {
			// Dummy and root elements carry no artifact.
			continue
		}
		record := provider.Record(real.Name, ver.(AptVersion))
		if record == nil {
			logger.Warn("resolved package not found in candidate set",
				"package", real.Name, "version", ver.String())
			continue
		}
		resolved = append(resolved, record)
	}

	slices.SortFunc(resolved, func(a, b *domain.BinaryPackageRecord) int {
		if c := strings.Compare(a.Name(), b.Name()); c != 0 {
			return c
		}
		if c := strings.Compare(a.Version(), b.Version()); c != 0 {
			return c
		}
		return strings.Compare(a.Architecture(), b.Architecture())
	})

	return resolved, nil
}
