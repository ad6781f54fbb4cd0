// Package solver implements a PubGrub-style version solver: a provider
// enumerates package versions and their requirements, and the solver searches
// for an assignment of exactly one version per package that satisfies every
// requirement transitively.
//
// Packages and versions are opaque comparable values. Determinism is part of
// the contract: identical providers produce identical assignments.
package solver

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Package identifies a solvable unit. Implementations must be usable as map
// keys, and String must be stable: it doubles as the deterministic priority
// key.
type Package interface {
	String() string
}

// Requirement constrains one package to a range of versions.
type Requirement struct {
	Package Package
	Range   Range
}

// Provider is the dependency provider contract.
type Provider interface {
	// ChooseVersion returns the provider's preferred version of pkg within
	// rng, or nil when no candidate version is a member of rng.
	ChooseVersion(pkg Package, rng Range) (Version, error)

	// Dependencies returns the requirements of the given package version, in
	// deterministic order.
	Dependencies(pkg Package, v Version) ([]Requirement, error)
}

// NoSolutionError is returned when the solver proves that no assignment
// satisfies the root requirements. Derivation holds the collapsed chain of
// incompatibilities that closed the search.
type NoSolutionError struct {
	Derivation []string
}

func (e *NoSolutionError) Error() string {
	if len(e.Derivation) == 0 {
		return "no solution"
	}
	return "no solution:\n  " + strings.Join(e.Derivation, "\n  ")
}

// errBacktrack signals an exhausted subtree to the enclosing decision level.
var errBacktrack = errors.New("backtrack")

// constraintRec is one requirement imposed on a package, with its provenance.
type constraintRec struct {
	rng       Range
	byPkg     Package
	byVersion Version
}

type state struct {
	provider    Provider
	assigned    map[Package]Version
	constraints map[Package][]constraintRec
	derivation  []string
}

// Solve runs the search from the given root package at the given version.
// The root's requirements are obtained from the provider like any other
// package's. The returned map assigns one version to every package reached,
// including the root.
func Solve(provider Provider, root Package, rootVersion Version) (map[Package]Version, error) {
	s := &state{
		provider:    provider,
		assigned:    map[Package]Version{},
		constraints: map[Package][]constraintRec{},
	}

	deps, err := provider.Dependencies(root, rootVersion)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to obtain root dependencies")
	}
	s.assigned[root] = rootVersion
	s.pushConstraints(root, rootVersion, deps)

	if err := s.solve(); err != nil {
		if errors.Is(err, errBacktrack) {
			return nil, &NoSolutionError{Derivation: s.collapseDerivation()}
		}
		return nil, err
	}
	return s.assigned, nil
}

func (s *state) pushConstraints(by Package, byVersion Version, reqs []Requirement) {
	for _, req := range reqs {
		s.constraints[req.Package] = append(s.constraints[req.Package], constraintRec{
			rng:       req.Range,
			byPkg:     by,
			byVersion: byVersion,
		})
	}
}

func (s *state) popConstraints(reqs []Requirement) {
	for _, req := range reqs {
		recs := s.constraints[req.Package]
		s.constraints[req.Package] = recs[:len(recs)-1]
	}
}

// effective intersects every active constraint on pkg.
func (s *state) effective(pkg Package) Range {
	rng := Full()
	for _, rec := range s.constraints[pkg] {
		rng = rng.Intersect(rec.rng)
	}
	return rng
}

// nextUndecided returns the constrained, unassigned package with the lowest
// priority key, for a deterministic decision order.
func (s *state) nextUndecided() (Package, bool) {
	var best Package
	var bestKey string
	for pkg, recs := range s.constraints {
		if len(recs) == 0 {
			continue
		}
		if _, done := s.assigned[pkg]; done {
			continue
		}
		key := pkg.String() + "\x00" + s.effective(pkg).String()
		if best == nil || key < bestKey {
			best, bestKey = pkg, key
		}
	}
	return best, best != nil
}

// conflictsWithAssigned returns the first requirement that contradicts an
// already assigned version, or nil.
func (s *state) conflictsWithAssigned(reqs []Requirement) *Requirement {
	for i, req := range reqs {
		if v, done := s.assigned[req.Package]; done && !req.Range.Contains(v) {
			return &reqs[i]
		}
	}
	return nil
}

func (s *state) solve() error {
	pkg, ok := s.nextUndecided()
	if !ok {
		return nil
	}

	attempt := s.effective(pkg)
	for {
		v, err := s.provider.ChooseVersion(pkg, attempt)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "error choosing version"), "package", pkg.String())
		}
		if v == nil {
			s.recordDeadEnd(pkg, attempt)
			return errBacktrack
		}

		deps, err := s.provider.Dependencies(pkg, v)
		if err != nil {
			return zerr.With(zerr.With(zerr.Wrap(err, "error obtaining dependencies"), "package", pkg.String()), "version", v.String())
		}

		if conflict := s.conflictsWithAssigned(deps); conflict != nil {
			s.derivation = append(s.derivation, fmt.Sprintf(
				"%s %s requires %s %s, which conflicts with the selected %s %s",
				pkg, v, conflict.Package, conflict.Range,
				conflict.Package, s.assigned[conflict.Package]))
			attempt = attempt.Without(v)
			continue
		}

		s.assigned[pkg] = v
		s.pushConstraints(pkg, v, deps)

		err = s.solve()
		if err == nil {
			return nil
		}
		if !errors.Is(err, errBacktrack) {
			return err
		}

		s.popConstraints(deps)
		delete(s.assigned, pkg)
		attempt = attempt.Without(v)
	}
}

// recordDeadEnd notes why pkg could not be given a version, including the
// requirements that narrowed it.
func (s *state) recordDeadEnd(pkg Package, attempt Range) {
	line := fmt.Sprintf("no version of %s satisfies %s", pkg, attempt)
	var causes []string
	for _, rec := range s.constraints[pkg] {
		if rec.rng.IsFull() {
			causes = append(causes, fmt.Sprintf("%s %s", rec.byPkg, rec.byVersion))
		} else {
			causes = append(causes, fmt.Sprintf("%s %s (wants %s)", rec.byPkg, rec.byVersion, rec.rng))
		}
	}
	if len(causes) > 0 {
		line += " (required by " + strings.Join(causes, ", ") + ")"
	}
	s.derivation = append(s.derivation, line)
}

// collapseDerivation deduplicates the recorded incompatibilities while
// preserving first-seen order.
func (s *state) collapseDerivation() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(s.derivation))
	for _, line := range s.derivation {
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return slices.Clip(out)
}
