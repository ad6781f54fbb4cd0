package resolver

import (
	"fmt"

	"pault.ag/go/debian/version"

	"github.com/aptprep/aptprep/internal/engine/solver"
)

// RealPackage is a dependency-graph element backed by an actual binary
// package name.
type RealPackage struct {
	Name string
}

func (p RealPackage) String() string {
	return p.Name
}

// DummyPackage reifies one disjunctive dependency clause. Its versions
// correspond one-to-one with the clause's alternatives, so the solver's
// version choice on the dummy selects an alternative. Identity includes the
// owning package and the clause index so unrelated occurrences of the same
// disjunction never share state.
type DummyPackage struct {
	// Owner is the name of the package whose clause is reified.
	Owner string

	// Index is the clause's position within the owner's dependency list.
	Index int

	// ID is a monotonic counter disambiguating dummies across owner versions.
	ID int
}

func (d DummyPackage) String() string {
	return fmt.Sprintf("[dummy(%s,%d,%d)]", d.Owner, d.Index, d.ID)
}

// RootPackage is the synthetic root whose dependencies are the user's
// requested top-level packages.
type RootPackage struct{}

func (RootPackage) String() string {
	return "[requested packages]"
}

// AptVersion wraps a parsed Debian version as a solver version. Comparison
// follows the Debian collation (epoch, upstream version, revision).
type AptVersion struct {
	v version.Version
}

// NewAptVersion parses a Debian version string.
func NewAptVersion(raw string) (AptVersion, error) {
	parsed, err := version.Parse(raw)
	if err != nil {
		return AptVersion{}, err
	}
	return AptVersion{v: parsed}, nil
}

// Compare implements solver.Version over the Debian version order.
func (a AptVersion) Compare(other solver.Version) int {
	return version.Compare(a.v, other.(AptVersion).v)
}

func (a AptVersion) String() string {
	return a.v.String()
}

// Parsed returns the underlying Debian version.
func (a AptVersion) Parsed() version.Version {
	return a.v
}
