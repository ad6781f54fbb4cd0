package resolver

import "pault.ag/go/debian/dependency"

// ArchMatches reports whether a dependency possibility applies to the given
// architecture, honoring [arch …] and [!arch …] qualifiers. The match set is
// considered to contain the target when it names the target itself, "all", or
// "any"; the negated form inverts the result.
func ArchMatches(possi dependency.Possibility, architecture string) bool {
	arches := possi.Architectures.Architectures
	if len(arches) == 0 {
		return true
	}

	contains := false
	for _, arch := range arches {
		name := arch.String()
		if name == architecture || name == "all" || name == "any" {
			contains = true
			break
		}
	}

	if possi.Architectures.Not {
		return !contains
	}
	return contains
}
