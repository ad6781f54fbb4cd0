package resolver

import (
	"fmt"
	"slices"
	"strings"

	"pault.ag/go/debian/dependency"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"github.com/aptprep/aptprep/internal/engine/solver"
	"go.trai.ch/zerr"
)

// versionEntry holds one candidate version of a real package: its
// precomputed requirements and the record it came from.
type versionEntry struct {
	version AptVersion
	deps    []solver.Requirement
	record  *domain.BinaryPackageRecord
}

// aptPackage is a real package's candidate table, versions ascending.
type aptPackage struct {
	name     string
	versions []versionEntry
}

// dummyVersion is one alternative of a reified disjunction. Its single
// requirement forces the choice of that alternative.
type dummyVersion struct {
	version AptVersion
	deps    []solver.Requirement
}

type dummyPackage struct {
	versions []dummyVersion
}

// providedEntry records that a real package version provides a virtual name,
// optionally at a declared version.
type providedEntry struct {
	possi           dependency.Possibility
	providerName    string
	providerVersion AptVersion
}

// Provider exposes the ingested candidate set of one target architecture to
// the solver. Disjunctive dependency clauses are reified as dummy packages;
// virtual packages are folded into the candidate sets of their providers.
type Provider struct {
	architecture string
	logger       ports.Logger

	packages map[string]*aptPackage
	dummies  map[DummyPackage]*dummyPackage

	requested   []string
	rootVersion AptVersion
}

var _ solver.Provider = (*Provider)(nil)

// NewProvider precomputes the candidate tables, the virtual-provider map, and
// the per-version dependency requirements from the architecture's records.
func NewProvider(
	records []domain.BinaryPackageRecord,
	requested []string,
	architecture string,
	logger ports.Logger,
) (*Provider, error) {
	rootVersion, err := NewAptVersion("1.0.0")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse root sentinel version")
	}

	p := &Provider{
		architecture: architecture,
		logger:       logger,
		packages:     map[string]*aptPackage{},
		dummies:      map[DummyPackage]*dummyPackage{},
		requested:    slices.Clone(requested),
		rootVersion:  rootVersion,
	}

	byName := map[string][]*domain.BinaryPackageRecord{}
	for i := range records {
		rec := &records[i]
		byName[rec.Name()] = append(byName[rec.Name()], rec)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	provided := p.collectVirtualProviders(names, byName)

	dummyID := 0
	for _, name := range names {
		pkg := &aptPackage{name: name}
		for _, rec := range byName[name] {
			entry, ok := p.buildVersionEntry(rec, byName, provided, &dummyID)
			if !ok {
				continue
			}

			replaced := false
			for i := range pkg.versions {
				if pkg.versions[i].version.Compare(entry.version) == 0 {
					pkg.versions[i] = entry
					replaced = true
					break
				}
			}
			if !replaced {
				pkg.versions = append(pkg.versions, entry)
			}
		}
		if len(pkg.versions) == 0 {
			continue
		}
		slices.SortFunc(pkg.versions, func(a, b versionEntry) int {
			return a.version.Compare(b.version)
		})
		p.packages[name] = pkg
	}

	return p, nil
}

// collectVirtualProviders builds the map from virtual package name to the
// real package versions providing it, subject to architecture qualifiers.
func (p *Provider) collectVirtualProviders(
	names []string,
	byName map[string][]*domain.BinaryPackageRecord,
) map[string][]providedEntry {
	provided := map[string][]providedEntry{}
	for _, name := range names {
		for _, rec := range byName[name] {
			ver, err := NewAptVersion(rec.Version())
			if err != nil {
				continue
			}
			provides, err := rec.Provides()
			if err != nil {
				p.logger.Warn("skipping unparseable Provides field",
					"package", name, "error", err.Error())
				continue
			}
			if provides == nil {
				continue
			}
			for _, relation := range provides.Relations {
				for _, possi := range relation.Possibilities {
					if !ArchMatches(possi, p.architecture) {
						continue
					}
					provided[possi.Name] = append(provided[possi.Name], providedEntry{
						possi:           possi,
						providerName:    name,
						providerVersion: ver,
					})
				}
			}
		}
	}
	return provided
}

// clauseSolutions pairs a dependency clause with its expanded candidate
// solutions.
type clauseSolutions struct {
	index     int
	relation  dependency.Relation
	solutions []solver.Requirement
}

// buildVersionEntry precomputes the requirement table for one record. The
// second return value is false when the record has an unsatisfiable clause
// and must be dropped from this architecture's candidate set.
func (p *Provider) buildVersionEntry(
	rec *domain.BinaryPackageRecord,
	byName map[string][]*domain.BinaryPackageRecord,
	provided map[string][]providedEntry,
	dummyID *int,
) (versionEntry, bool) {
	ver, err := NewAptVersion(rec.Version())
	if err != nil {
		p.logger.Warn("skipping record with unparseable version",
			"package", rec.Name(), "version", rec.Version())
		return versionEntry{}, false
	}

	clauses, err := p.dependencyClauses(rec)
	if err != nil {
		p.logger.Warn("skipping record with unparseable dependencies",
			"package", rec.Name(), "version", rec.Version(), "error", err.Error())
		return versionEntry{}, false
	}

	expanded := make([]clauseSolutions, 0, len(clauses))
	for i, relation := range clauses {
		expanded = append(expanded, clauseSolutions{
			index:     i,
			relation:  relation,
			solutions: p.collectSolutions(relation, byName, provided),
		})
	}
	// Simpler clauses first, so the cheapest requirements prune the search
	// earliest.
	slices.SortStableFunc(expanded, func(a, b clauseSolutions) int {
		return len(a.solutions) - len(b.solutions)
	})

	deps := map[solver.Package]solver.Range{}
	for _, clause := range expanded {
		switch len(clause.solutions) {
		case 0:
			p.logger.Warn("could not find any solutions for dependency",
				"package", rec.Name(), "version", rec.Version(),
				"dependency", relationString(clause.relation))
			return versionEntry{}, false
		case 1:
			sol := clause.solutions[0]
			if existing, ok := deps[sol.Package]; ok {
				deps[sol.Package] = existing.Intersect(sol.Range)
			} else {
				deps[sol.Package] = sol.Range
			}
		default:
			*dummyID++
			dummy := DummyPackage{Owner: rec.Name(), Index: clause.index, ID: *dummyID}
			versions := make([]dummyVersion, 0, len(clause.solutions))
			for j, sol := range clause.solutions {
				alt, err := NewAptVersion(fmt.Sprintf("%d:1.0.0", j))
				if err != nil {
					return versionEntry{}, false
				}
				versions = append(versions, dummyVersion{
					version: alt,
					deps:    []solver.Requirement{sol},
				})
			}
			p.dummies[dummy] = &dummyPackage{versions: versions}
			deps[dummy] = solver.Full()
		}
	}

	return versionEntry{
		version: ver,
		deps:    sortedRequirements(deps),
		record:  rec,
	}, true
}

// dependencyClauses returns the record's Pre-Depends clauses followed by its
// Depends clauses.
func (p *Provider) dependencyClauses(rec *domain.BinaryPackageRecord) ([]dependency.Relation, error) {
	preDepends, err := rec.PreDepends()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse Pre-Depends")
	}
	depends, err := rec.Depends()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse Depends")
	}

	var clauses []dependency.Relation
	if preDepends != nil {
		clauses = append(clauses, preDepends.Relations...)
	}
	if depends != nil {
		clauses = append(clauses, depends.Relations...)
	}
	return clauses, nil
}

// collectSolutions expands one dependency clause into candidate solutions:
// matching real packages with their constraint-derived ranges, and virtual
// providers pinned to the providing version.
func (p *Provider) collectSolutions(
	relation dependency.Relation,
	byName map[string][]*domain.BinaryPackageRecord,
	provided map[string][]providedEntry,
) []solver.Requirement {
	var solutions []solver.Requirement
	for _, possi := range relation.Possibilities {
		if !ArchMatches(possi, p.architecture) {
			continue
		}

		required, err := rangeFromRelation(possi.Version)
		if err != nil {
			p.logger.Warn("ignoring dependency with unparseable version constraint",
				"dependency", possi.Name, "error", err.Error())
			continue
		}

		if _, ok := byName[possi.Name]; ok {
			solutions = append(solutions, solver.Requirement{
				Package: RealPackage{Name: possi.Name},
				Range:   required,
			})
		}

		for _, pe := range provided[possi.Name] {
			declared, err := rangeFromRelation(pe.possi.Version)
			if err != nil {
				continue
			}
			if declared.Intersect(required).IsEmpty() {
				// The provider's declared version cannot satisfy the
				// requirement.
				continue
			}
			solutions = append(solutions, solver.Requirement{
				Package: RealPackage{Name: pe.providerName},
				Range:   solver.Singleton(pe.providerVersion),
			})
		}
	}
	return solutions
}

// rangeFromRelation maps a Debian version relation to a solver range. A nil
// relation is the full range.
func rangeFromRelation(vr *dependency.VersionRelation) (solver.Range, error) {
	if vr == nil {
		return solver.Full(), nil
	}
	ver, err := NewAptVersion(vr.Number)
	if err != nil {
		return solver.Range{}, zerr.Wrap(err, "invalid version in constraint")
	}
	switch vr.Operator {
	case "<<", "<":
		return solver.StrictlyLower(ver), nil
	case "<=":
		return solver.AtMost(ver), nil
	case "=":
		return solver.Singleton(ver), nil
	case ">=":
		return solver.AtLeast(ver), nil
	case ">>", ">":
		return solver.StrictlyHigher(ver), nil
	default:
		return solver.Range{}, zerr.With(domain.ErrResolution, "operator", vr.Operator)
	}
}

func sortedRequirements(deps map[solver.Package]solver.Range) []solver.Requirement {
	out := make([]solver.Requirement, 0, len(deps))
	for pkg, rng := range deps {
		out = append(out, solver.Requirement{Package: pkg, Range: rng})
	}
	slices.SortFunc(out, func(a, b solver.Requirement) int {
		return strings.Compare(a.Package.String(), b.Package.String())
	})
	return out
}

func relationString(relation dependency.Relation) string {
	parts := make([]string, 0, len(relation.Possibilities))
	for _, possi := range relation.Possibilities {
		parts = append(parts, possi.Name)
	}
	return strings.Join(parts, " | ")
}

// ChooseVersion implements the solver's version choice: real packages prefer
// the highest version in range, dummy packages the lowest alternative, and
// the root always answers its sentinel version.
func (p *Provider) ChooseVersion(pkg solver.Package, rng solver.Range) (solver.Version, error) {
	switch el := pkg.(type) {
	case RealPackage:
		data, ok := p.packages[el.Name]
		if !ok {
			p.logger.Debug("package does not exist", "package", el.Name)
			return nil, nil
		}
		for i := len(data.versions) - 1; i >= 0; i-- {
			if rng.Contains(data.versions[i].version) {
				p.logger.Trace("choosing version",
					"package", el.Name, "version", data.versions[i].version.String())
				return data.versions[i].version, nil
			}
		}
		p.logger.Debug("no candidate version satisfies constraints",
			"package", el.Name, "constraints", rng.String())
		return nil, nil
	case DummyPackage:
		data, ok := p.dummies[el]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "unknown dummy package"), "dummy", el.String())
		}
		for _, alt := range data.versions {
			if rng.Contains(alt.version) {
				return alt.version, nil
			}
		}
		return nil, nil
	case RootPackage:
		return p.rootVersion, nil
	default:
		return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "unknown graph element"), "element", pkg.String())
	}
}

// Dependencies returns the precomputed requirement table for the given
// package version. For the root it is built from the requested package names.
func (p *Provider) Dependencies(pkg solver.Package, v solver.Version) ([]solver.Requirement, error) {
	switch el := pkg.(type) {
	case RealPackage:
		data, ok := p.packages[el.Name]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "package not found"), "package", el.Name)
		}
		for i := range data.versions {
			if data.versions[i].version.Compare(v) == 0 {
				return data.versions[i].deps, nil
			}
		}
		return nil, zerr.With(zerr.With(zerr.With(domain.ErrResolution, "reason", "version not found"), "package", el.Name), "version", v.String())
	case DummyPackage:
		data, ok := p.dummies[el]
		if !ok {
			return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "unknown dummy package"), "dummy", el.String())
		}
		for _, alt := range data.versions {
			if alt.version.Compare(v) == 0 {
				return alt.deps, nil
			}
		}
		return nil, zerr.With(zerr.With(zerr.With(domain.ErrResolution, "reason", "alternative not found"), "dummy", el.String()), "version", v.String())
	case RootPackage:
		return p.rootRequirements()
	default:
		return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "unknown graph element"), "element", pkg.String())
	}
}

// rootRequirements parses each requested package as a single dependency.
// Architecture qualifiers are not checked here: the request list applies to
// every target architecture by definition.
func (p *Provider) rootRequirements() ([]solver.Requirement, error) {
	reqs := make([]solver.Requirement, 0, len(p.requested))
	for _, raw := range p.requested {
		dep, err := dependency.Parse(raw)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse requested package"), "package", raw)
		}
		if len(dep.Relations) == 0 || len(dep.Relations[0].Possibilities) == 0 {
			return nil, zerr.With(zerr.With(domain.ErrResolution, "reason", "empty requested package"), "package", raw)
		}
		possi := dep.Relations[0].Possibilities[0]
		rng, err := rangeFromRelation(possi.Version)
		if err != nil {
			return nil, zerr.With(err, "package", raw)
		}
		reqs = append(reqs, solver.Requirement{
			Package: RealPackage{Name: possi.Name},
			Range:   rng,
		})
	}
	return reqs, nil
}

// Record recovers the ingested record behind a chosen (name, version) pair.
// Returns nil when the pair is unknown.
func (p *Provider) Record(name string, v AptVersion) *domain.BinaryPackageRecord {
	data, ok := p.packages[name]
	if !ok {
		return nil
	}
	for i := range data.versions {
		if data.versions[i].version.Compare(v) == 0 {
			return data.versions[i].record
		}
	}
	return nil
}
