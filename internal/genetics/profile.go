// Package genetics resolves genotype and strain descriptions for mice and
// derives what a litter's pups inherit from their parents. Every function is
// pure and operates on already loaded profiles.
package genetics

import (
	"sort"

	"mousecolony/pkg/domain"
)

// Allele pairs a gene with the zygosity recorded for one mouse.
type Allele struct {
	Gene     domain.Gene
	Zygosity domain.Zygosity
}

// StrainShare pairs a strain with its relative weight in one mouse.
type StrainShare struct {
	Strain domain.Strain
	Weight int
}

// Profile is a mouse together with its gene and strain association records.
type Profile struct {
	Mouse   domain.Mouse
	Alleles []Allele
	Strains []StrainShare
}

// ID returns the mouse id.
func (p Profile) ID() string { return p.Mouse.ID }

// SortedAlleles returns the alleles ordered by gene type, then gene name.
func (p Profile) SortedAlleles() []Allele {
	out := append([]Allele(nil), p.Alleles...)
	sort.SliceStable(out, func(i, j int) bool {
		return geneLess(out[i].Gene, out[j].Gene)
	})
	return out
}

// Genes returns the profile's genes ordered by gene type, then gene name.
func (p Profile) Genes() []domain.Gene {
	alleles := p.SortedAlleles()
	out := make([]domain.Gene, 0, len(alleles))
	for _, a := range alleles {
		out = append(out, a.Gene)
	}
	return out
}

// GeneNames returns the names of the profile's genes in canonical order.
func (p Profile) GeneNames() []string {
	return geneNames(p.Genes())
}

// SortGenes orders genes in place by gene type, then gene name.
func SortGenes(genes []domain.Gene) {
	sort.SliceStable(genes, func(i, j int) bool {
		return geneLess(genes[i], genes[j])
	})
}

// UnionGenes merges the genes of the given profiles, keeping the first
// occurrence of each gene, and returns them in canonical order.
func UnionGenes(profiles ...Profile) []domain.Gene {
	seen := make(map[string]struct{})
	var out []domain.Gene
	for _, p := range profiles {
		for _, a := range p.Alleles {
			key := geneKey(a.Gene)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, a.Gene)
		}
	}
	SortGenes(out)
	return out
}

func geneLess(a, b domain.Gene) bool {
	if ra, rb := a.Type.Rank(), b.Type.Rank(); ra != rb {
		return ra < rb
	}
	return a.Name < b.Name
}

func geneKey(g domain.Gene) string {
	if g.ID != "" {
		return g.ID
	}
	return "name:" + g.Name
}

func geneNames(genes []domain.Gene) []string {
	out := make([]string, 0, len(genes))
	for _, g := range genes {
		out = append(out, g.Name)
	}
	return out
}
