package genetics

import (
	"fmt"
	"sort"
	"strings"

	"mousecolony/pkg/domain"
)

const (
	// PureWildType is rendered for a pure wild-type mouse without gene records.
	PureWildType = "pure WT"
	// Negative is rendered when every gene record is confirmed absent.
	Negative = "negative"
	// UnknownStrain is rendered when a mouse has no strain records.
	UnknownStrain = "unknown_strain"

	badWeightSuffix = " (bad weight)"
)

// Genotype renders the effective genotype of a mouse, e.g. "Cre(+/-); GFP(?/?)".
// Records at -/- are omitted because they are equivalent to wild type.
func Genotype(p Profile) string {
	if len(p.Alleles) == 0 && p.Mouse.PureWildType {
		return PureWildType
	}
	parts := make([]string, 0, len(p.Alleles))
	for _, a := range p.SortedAlleles() {
		if a.Zygosity == domain.ZygosityNegative {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", a.Gene.Name, a.Zygosity))
	}
	if len(parts) == 0 {
		return Negative
	}
	return strings.Join(parts, "; ")
}

// StrainDescription renders the strain background of a mouse. Hybrids are joined
// with ":" in alphabetical order; any weight other than 1 is flagged once.
func StrainDescription(p Profile) string {
	switch len(p.Strains) {
	case 0:
		return UnknownStrain
	case 1:
		s := p.Strains[0]
		if s.Weight != 1 {
			return s.Strain.Name + badWeightSuffix
		}
		return s.Strain.Name
	}
	shares := append([]StrainShare(nil), p.Strains...)
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Strain.Name < shares[j].Strain.Name
	})
	names := make([]string, 0, len(shares))
	bad := false
	for _, s := range shares {
		names = append(names, s.Strain.Name)
		if s.Weight != 1 {
			bad = true
		}
	}
	out := strings.Join(names, ":")
	if bad {
		out += badWeightSuffix
	}
	return out
}
