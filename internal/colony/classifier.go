package colony

import (
	"strings"

	"mousecolony/internal/genetics"
)

// CageType is the breeding classification of a cage.
type CageType string

// The closed set of cage types.
const (
	CageEmpty          CageType = "empty"
	CagePureStock      CageType = "pure stock"
	CageProgeny        CageType = "progeny"
	CageOutcross       CageType = "outcross"
	CageIncross        CageType = "incross"
	CageCross          CageType = "cross"
	CageImpureOutcross CageType = "impure outcross"
	CageImpureIncross  CageType = "impure incross"
	CageImpureCross    CageType = "impure cross"
)

// CageTypes lists every classification in display order.
var CageTypes = []CageType{
	CageEmpty, CagePureStock, CageProgeny,
	CageOutcross, CageIncross, CageCross,
	CageImpureOutcross, CageImpureIncross, CageImpureCross,
}

// Breeding reports whether the type describes a breeding pair.
func (t CageType) Breeding() bool {
	switch t {
	case CageOutcross, CageIncross, CageCross, CageImpureOutcross, CageImpureIncross, CageImpureCross:
		return true
	}
	return false
}

// Geneset is an ordered tuple of gene names.
type Geneset []string

// String renders the geneset joined with " x ", or "WT" when it is empty.
func (g Geneset) String() string {
	if len(g) == 0 {
		return "WT"
	}
	return strings.Join(g, " x ")
}

// Key identifies the geneset for grouping.
func (g Geneset) Key() string { return strings.Join(g, "\x00") }

// ContainsMotherOfLitter reports whether the litter's mother currently lives in
// this cage.
func (c CageAggregate) ContainsMotherOfLitter() bool {
	if c.Litter == nil || c.Litter.Mother == nil {
		return false
	}
	return c.Litter.Mother.Mouse.InCage(c.Cage.ID)
}

// IsBreedingCage reports whether the cage holds an active breeding pair: it has
// a litter and either still houses the mother or is empty.
func (c CageAggregate) IsBreedingCage() bool {
	if c.Litter == nil {
		return false
	}
	return c.ContainsMotherOfLitter() || len(c.Residents) == 0
}

// Type classifies the cage. It is total: a breeding cage whose parents cannot
// be resolved is classified from its residents instead.
func (c CageAggregate) Type() CageType {
	if c.IsBreedingCage() && c.Litter.Mother != nil && c.Litter.Father != nil {
		return breedingType(c.Litter.Mother.Profile, c.Litter.Father.Profile)
	}
	if len(c.Residents) == 0 {
		return CageEmpty
	}
	for _, r := range c.Residents {
		if !r.Mouse.PureBreeder {
			return CageProgeny
		}
	}
	return CagePureStock
}

func breedingType(mother, father genetics.Profile) CageType {
	motherPure := mother.Mouse.PureWildType || mother.Mouse.PureBreeder
	fatherPure := father.Mouse.PureWildType || father.Mouse.PureBreeder

	var base CageType
	switch {
	case mother.Mouse.PureWildType || father.Mouse.PureWildType:
		base = CageOutcross
	case genetics.HaveSameSingleGene(mother, father):
		base = CageIncross
	default:
		base = CageCross
	}
	if motherPure && fatherPure {
		return base
	}
	return "impure " + base
}

// RelevantGenesets returns the gene sets the cage is filed under. A breeding
// cage is filed under the union of its parents' genes; stock and progeny cages
// under each distinct resident gene set in order of first appearance.
func (c CageAggregate) RelevantGenesets() []Geneset {
	t := c.Type()
	switch {
	case t == CageEmpty:
		return nil
	case t.Breeding():
		genes := genetics.UnionGenes(c.Litter.Mother.Profile, c.Litter.Father.Profile)
		set := make(Geneset, 0, len(genes))
		for _, g := range genes {
			set = append(set, g.Name)
		}
		return []Geneset{set}
	case t == CagePureStock || t == CageProgeny:
		seen := make(map[string]struct{})
		var out []Geneset
		for _, r := range c.Residents {
			set := Geneset(r.GeneNames())
			if _, ok := seen[set.Key()]; ok {
				continue
			}
			seen[set.Key()] = struct{}{}
			out = append(out, set)
		}
		return out
	}
	return nil
}

// FormatGenesets renders gene sets joined with "; ", or "empty" for none.
func FormatGenesets(sets []Geneset) string {
	if len(sets) == 0 {
		return "empty"
	}
	parts := make([]string, 0, len(sets))
	for _, s := range sets {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "; ")
}

// TargetGenotype renders the father's genotype crossed with the mother's.
func (l LitterAggregate) TargetGenotype() string {
	father, mother := "unknown", "unknown"
	if l.Father != nil {
		father = genetics.Genotype(l.Father.Profile)
	}
	if l.Mother != nil {
		mother = genetics.Genotype(l.Mother.Profile)
	}
	return father + " x " + mother
}
