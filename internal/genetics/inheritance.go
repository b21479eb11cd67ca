package genetics

import (
	"fmt"

	"mousecolony/pkg/domain"
)

// Parents identifies the breeding pair of a litter.
type Parents struct {
	LitterID string
	Mother   Profile
	Father   Profile
}

// Inheritance describes what every new pup of a litter receives.
type Inheritance struct {
	PureBreeder  bool
	PureWildType bool
	// SameSingleStrain is true when both parents share one single strain.
	SameSingleStrain bool
	// Genes are assigned to each pup at ?/? until genotyped.
	Genes   []domain.Gene
	Strains []StrainShare
}

// HaveSameSingleGene reports whether both mice carry exactly one gene record
// and it references the same gene.
func HaveSameSingleGene(a, b Profile) bool {
	if len(a.Alleles) != 1 || len(b.Alleles) != 1 {
		return false
	}
	return geneKey(a.Alleles[0].Gene) == geneKey(b.Alleles[0].Gene)
}

// ProgenyStrains derives the strain shares of the pups. When either parent's
// strain is unknown the result is empty. Hybrid parents are not modelled and
// yield UnsupportedBreedingError.
func ProgenyStrains(parents Parents) ([]StrainShare, error) {
	mother, father := parents.Mother.Strains, parents.Father.Strains
	if len(mother) == 0 || len(father) == 0 {
		return nil, nil
	}
	if len(mother) > 1 || len(father) > 1 {
		return nil, domain.UnsupportedBreedingError{
			LitterID: parents.LitterID,
			MotherID: parents.Mother.ID(),
			FatherID: parents.Father.ID(),
			Reason:   "cannot deal with breeding hybrids",
		}
	}
	ms, fs := mother[0].Strain, father[0].Strain
	if strainKey(ms) == strainKey(fs) {
		return []StrainShare{{Strain: ms, Weight: 1}}, nil
	}
	return []StrainShare{{Strain: ms, Weight: 1}, {Strain: fs, Weight: 1}}, nil
}

// Inherit computes purity, genes and strains for pups of the given parents.
func Inherit(parents Parents) (Inheritance, error) {
	strains, err := ProgenyStrains(parents)
	if err != nil {
		return Inheritance{}, err
	}
	mother, father := parents.Mother.Mouse, parents.Father.Mouse
	sameStrain := len(strains) == 1

	pureWT := mother.PureWildType && father.PureWildType && sameStrain
	pure := ((mother.PureBreeder && father.PureWildType) ||
		(father.PureBreeder && mother.PureWildType) ||
		(mother.PureBreeder && father.PureBreeder && HaveSameSingleGene(parents.Mother, parents.Father))) &&
		sameStrain
	if pureWT {
		pure = true
	}
	return Inheritance{
		PureBreeder:      pure,
		PureWildType:     pureWT,
		SameSingleStrain: sameStrain,
		Genes:            UnionGenes(parents.Mother, parents.Father),
		Strains:          strains,
	}, nil
}

// PupName returns the deterministic name of the pup at the zero-based index.
func PupName(cageName string, index int) string {
	return fmt.Sprintf("%s-%d", cageName, index+1)
}

func strainKey(s domain.Strain) string {
	if s.ID != "" {
		return s.ID
	}
	return "name:" + s.Name
}
