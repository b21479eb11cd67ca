package memory

import (
	"sort"

	"mousecolony/pkg/domain"
)

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func listSorted[T any](src map[string]T, clone func(T) T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(src))
	for _, v := range src {
		out = append(out, clone(v))
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (v transactionView) ListPeople() []domain.Person {
	return listSorted(v.state.people, clonePerson, func(a, b domain.Person) bool { return a.Name < b.Name })
}

func (v transactionView) ListCages() []domain.Cage {
	return listSorted(v.state.cages, cloneCage, func(a, b domain.Cage) bool { return a.Name < b.Name })
}

func (v transactionView) ListMice() []domain.Mouse {
	return listSorted(v.state.mice, cloneMouse, byMouseName)
}

func (v transactionView) ListLitters() []domain.Litter {
	return listSorted(v.state.litters, cloneLitter, func(a, b domain.Litter) bool { return a.ID < b.ID })
}

func (v transactionView) ListGenes() []domain.Gene {
	return listSorted(v.state.genes, cloneGene, func(a, b domain.Gene) bool { return a.Name < b.Name })
}

func (v transactionView) ListStrains() []domain.Strain {
	return listSorted(v.state.strains, cloneStrain, func(a, b domain.Strain) bool { return a.Name < b.Name })
}

// ListSpecialRequests returns the cage's requests in creation order.
func (v transactionView) ListSpecialRequests(cageID string) []domain.SpecialRequest {
	var out []domain.SpecialRequest
	for _, r := range v.state.requests {
		if r.CageID == cageID {
			out = append(out, cloneSpecialRequest(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (v transactionView) FindPerson(id string) (domain.Person, bool) {
	p, ok := v.state.people[id]
	return clonePerson(p), ok
}

func (v transactionView) FindCage(id string) (domain.Cage, bool) {
	c, ok := v.state.cages[id]
	if !ok {
		return domain.Cage{}, false
	}
	return cloneCage(c), true
}

func (v transactionView) FindCageByName(name string) (domain.Cage, bool) {
	return findCageByName(v.state, name)
}

func (v transactionView) FindMouse(id string) (domain.Mouse, bool) {
	m, ok := v.state.mice[id]
	if !ok {
		return domain.Mouse{}, false
	}
	return cloneMouse(m), true
}

func (v transactionView) FindMouseByName(name string) (domain.Mouse, bool) {
	return findMouseByName(v.state, name)
}

func (v transactionView) FindLitter(id string) (domain.Litter, bool) {
	l, ok := v.state.litters[id]
	if !ok {
		return domain.Litter{}, false
	}
	return cloneLitter(l), true
}

func (v transactionView) FindGene(id string) (domain.Gene, bool) {
	g, ok := v.state.genes[id]
	return g, ok
}

func (v transactionView) FindStrain(id string) (domain.Strain, bool) {
	s, ok := v.state.strains[id]
	return s, ok
}

func (v transactionView) ListMouseGenes(mouseID string) []domain.MouseGene {
	var out []domain.MouseGene
	for _, mg := range v.state.mouseGenes {
		if mg.MouseID == mouseID {
			out = append(out, mg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListMouseStrains(mouseID string) []domain.MouseStrain {
	var out []domain.MouseStrain
	for _, ms := range v.state.mouseStrains {
		if ms.MouseID == mouseID {
			out = append(out, ms)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListCageResidents(cageID string) []domain.Mouse {
	var out []domain.Mouse
	for _, m := range v.state.mice {
		if m.InCage(cageID) {
			out = append(out, cloneMouse(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return byMouseName(out[i], out[j]) })
	return out
}

func (v transactionView) ListLitterPups(litterID string) []domain.Mouse {
	var out []domain.Mouse
	for _, m := range v.state.mice {
		if m.LitterID != nil && *m.LitterID == litterID {
			out = append(out, cloneMouse(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return byMouseName(out[i], out[j]) })
	return out
}

func (v transactionView) ListMothersLitters(motherID string) []domain.Litter {
	var out []domain.Litter
	for _, l := range v.state.litters {
		if l.MotherID == motherID {
			out = append(out, cloneLitter(l))
		}
	}
	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders litters by birth date descending; unborn litters sort
// last and ties fall back to id.
func SortNewestFirst(litters []domain.Litter) {
	sort.SliceStable(litters, func(i, j int) bool {
		a, b := litters[i].DOB, litters[j].DOB
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return litters[i].ID < litters[j].ID
	})
}

func byMouseName(a, b domain.Mouse) bool { return a.Name < b.Name }

func findCageByName(state *memoryState, name string) (domain.Cage, bool) {
	for _, c := range state.cages {
		if c.Name == name {
			return cloneCage(c), true
		}
	}
	return domain.Cage{}, false
}

func findMouseByName(state *memoryState, name string) (domain.Mouse, bool) {
	for _, m := range state.mice {
		if m.Name == name {
			return cloneMouse(m), true
		}
	}
	return domain.Mouse{}, false
}
