// Package colony loads cage, litter and mouse aggregates from a repository view
// and derives the read-side facts the husbandry screens display: cage
// classification, gene sets, derived mouse dates and census groupings.
package colony

import (
	"sort"

	"mousecolony/internal/genetics"
	"mousecolony/pkg/domain"
)

// MouseRecord is a mouse with its genetic profile, its birth litter and its
// responsible person resolved.
type MouseRecord struct {
	genetics.Profile
	Litter *domain.Litter
	User   *domain.Person
}

// LitterAggregate is a litter with its breeding cage, parents and pups.
type LitterAggregate struct {
	Litter domain.Litter
	Cage   *domain.Cage
	Mother *MouseRecord
	Father *MouseRecord
	Pups   []domain.Mouse
}

// CageAggregate is a cage with everything needed to classify and schedule it.
type CageAggregate struct {
	Cage            domain.Cage
	Proprietor      *domain.Person
	Residents       []MouseRecord
	Litter          *LitterAggregate
	SpecialRequests []domain.SpecialRequest
	// People resolves the requesters and requestees of the special requests.
	People map[string]domain.Person
}

// PersonName returns the name of the referenced person, or "" when unknown.
func (c CageAggregate) PersonName(id *string) string {
	if id == nil {
		return ""
	}
	return c.People[*id].Name
}

// LoadProfile resolves the gene and strain association records of a mouse.
// Associations pointing at missing catalog entries are dropped.
func LoadProfile(view domain.TransactionView, m domain.Mouse) genetics.Profile {
	p := genetics.Profile{Mouse: m}
	for _, mg := range view.ListMouseGenes(m.ID) {
		gene, ok := view.FindGene(mg.GeneID)
		if !ok {
			continue
		}
		p.Alleles = append(p.Alleles, genetics.Allele{Gene: gene, Zygosity: mg.Zygosity})
	}
	for _, ms := range view.ListMouseStrains(m.ID) {
		strain, ok := view.FindStrain(ms.StrainID)
		if !ok {
			continue
		}
		p.Strains = append(p.Strains, genetics.StrainShare{Strain: strain, Weight: ms.Weight})
	}
	return p
}

// LoadMouse builds the full record of a mouse.
func LoadMouse(view domain.TransactionView, m domain.Mouse) MouseRecord {
	rec := MouseRecord{Profile: LoadProfile(view, m)}
	if m.LitterID != nil {
		if litter, ok := view.FindLitter(*m.LitterID); ok {
			rec.Litter = &litter
		}
	}
	if m.UserID != nil {
		if person, ok := view.FindPerson(*m.UserID); ok {
			rec.User = &person
		}
	}
	return rec
}

// LoadMouseByID looks up and loads a mouse record.
func LoadMouseByID(view domain.TransactionView, id string) (MouseRecord, error) {
	m, ok := view.FindMouse(id)
	if !ok {
		return MouseRecord{}, domain.ErrNotFound{Entity: domain.EntityMouse, Key: id}
	}
	return LoadMouse(view, m), nil
}

// LoadLitter loads a litter with its parents and pups. A parent that no longer
// exists is left nil.
func LoadLitter(view domain.TransactionView, id string) (LitterAggregate, error) {
	litter, ok := view.FindLitter(id)
	if !ok {
		return LitterAggregate{}, domain.ErrNotFound{Entity: domain.EntityLitter, Key: id}
	}
	agg := LitterAggregate{Litter: litter, Pups: view.ListLitterPups(litter.ID)}
	if cage, ok := view.FindCage(litter.CageID()); ok {
		agg.Cage = &cage
	}
	if mother, ok := view.FindMouse(litter.MotherID); ok {
		rec := LoadMouse(view, mother)
		agg.Mother = &rec
	}
	if father, ok := view.FindMouse(litter.FatherID); ok {
		rec := LoadMouse(view, father)
		agg.Father = &rec
	}
	return agg, nil
}

// LoadCage loads a cage aggregate by id.
func LoadCage(view domain.TransactionView, id string) (CageAggregate, error) {
	cage, ok := view.FindCage(id)
	if !ok {
		return CageAggregate{}, domain.ErrNotFound{Entity: domain.EntityCage, Key: id}
	}
	return loadCage(view, cage), nil
}

// LoadCageByName loads a cage aggregate by its unique name.
func LoadCageByName(view domain.TransactionView, name string) (CageAggregate, error) {
	cage, ok := view.FindCageByName(name)
	if !ok {
		return CageAggregate{}, domain.ErrNotFound{Entity: domain.EntityCage, Key: name}
	}
	return loadCage(view, cage), nil
}

func loadCage(view domain.TransactionView, cage domain.Cage) CageAggregate {
	agg := CageAggregate{
		Cage:            cage,
		SpecialRequests: view.ListSpecialRequests(cage.ID),
		People:          make(map[string]domain.Person),
	}
	for _, sr := range agg.SpecialRequests {
		for _, id := range []*string{sr.RequesterID, sr.RequesteeID} {
			if id == nil {
				continue
			}
			if person, ok := view.FindPerson(*id); ok {
				agg.People[person.ID] = person
			}
		}
	}
	if cage.ProprietorID != nil {
		if person, ok := view.FindPerson(*cage.ProprietorID); ok {
			agg.Proprietor = &person
		}
	}
	for _, m := range view.ListCageResidents(cage.ID) {
		agg.Residents = append(agg.Residents, LoadMouse(view, m))
	}
	sort.SliceStable(agg.Residents, func(i, j int) bool {
		return agg.Residents[i].Mouse.Name < agg.Residents[j].Mouse.Name
	})
	if _, ok := view.FindLitter(cage.ID); ok {
		litter, err := LoadLitter(view, cage.ID)
		if err == nil {
			agg.Litter = &litter
		}
	}
	return agg
}

// HasLitter reports whether a litter is attached to the cage.
func (c CageAggregate) HasLitter() bool { return c.Litter != nil }
