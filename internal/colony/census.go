package colony

import (
	"sort"

	"mousecolony/pkg/domain"
)

// CensusOrder selects the ordering of a census.
type CensusOrder string

// Supported census orderings.
const (
	OrderByName     CensusOrder = "name"
	OrderByRackSpot CensusOrder = "rack_spot"
)

// CensusFilter narrows the set of live cages in a census.
type CensusFilter struct {
	// ProprietorID keeps only cages owned by the person; empty means everyone.
	ProprietorID string
	// IncludeByUser also keeps cages housing unsacked mice the proprietor is
	// responsible for.
	IncludeByUser bool
	// Location keeps only cages in the room; empty means every room.
	Location domain.Location
	OrderBy  CensusOrder
}

// Census loads every non-defunct cage matching the filter.
func Census(view domain.TransactionView, filter CensusFilter) []CageAggregate {
	byUser := make(map[string]struct{})
	if filter.ProprietorID != "" && filter.IncludeByUser {
		for _, m := range view.ListMice() {
			if m.Sacked() || m.CageID == nil || m.UserID == nil || *m.UserID != filter.ProprietorID {
				continue
			}
			byUser[*m.CageID] = struct{}{}
		}
	}

	var cages []domain.Cage
	for _, c := range view.ListCages() {
		if c.Defunct {
			continue
		}
		if filter.ProprietorID != "" {
			owned := c.ProprietorID != nil && *c.ProprietorID == filter.ProprietorID
			if _, ok := byUser[c.ID]; !owned && !ok {
				continue
			}
		}
		if filter.Location != "" && c.Location != filter.Location {
			continue
		}
		cages = append(cages, c)
	}
	sortCages(cages, filter.OrderBy)

	out := make([]CageAggregate, 0, len(cages))
	for _, c := range cages {
		out = append(out, loadCage(view, c))
	}
	return out
}

func sortCages(cages []domain.Cage, order CensusOrder) {
	if order == OrderByRackSpot {
		sort.SliceStable(cages, func(i, j int) bool {
			a, b := rackSpot(cages[i]), rackSpot(cages[j])
			if a != b {
				return a < b
			}
			return cages[i].Name < cages[j].Name
		})
		return
	}
	sort.SliceStable(cages, func(i, j int) bool { return cages[i].Name < cages[j].Name })
}

func rackSpot(c domain.Cage) string {
	if c.RackSpot == nil {
		return ""
	}
	return *c.RackSpot
}

// GenesetGroup is one row of the census by genotype.
type GenesetGroup struct {
	Geneset Geneset
	Cages   []CageAggregate
}

// GroupByGeneset files cages under each of their relevant gene sets. Groups are
// ordered by first gene name, then by the number of genes; cages keep their
// input order within a group. Empty cages belong to no group.
func GroupByGeneset(cages []CageAggregate) []GenesetGroup {
	index := make(map[string]int)
	var groups []GenesetGroup
	for _, c := range cages {
		for _, set := range c.RelevantGenesets() {
			i, ok := index[set.Key()]
			if !ok {
				i = len(groups)
				index[set.Key()] = i
				groups = append(groups, GenesetGroup{Geneset: set})
			}
			groups[i].Cages = append(groups[i].Cages, c)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Geneset, groups[j].Geneset
		if fa, fb := firstGene(a), firstGene(b); fa != fb {
			return fa < fb
		}
		return len(a) < len(b)
	})
	return groups
}

func firstGene(g Geneset) string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}

// NoCage labels the summary row for mice without a cage.
const NoCage = "No Cage"

// SummaryRow counts the cages a person owns and the mice in them.
type SummaryRow struct {
	Name         string
	Cages        int
	Mice         int
	CurrentCages int
	CurrentMice  int
}

// Summary is the per-person colony census.
type Summary struct {
	Rows   []SummaryRow
	Totals SummaryRow
}

// Summarize counts cages and mice per proprietor. The current columns only
// count non-defunct cages in the tracked locations, and only non-empty cages.
// Mice without a cage are reported under NoCage.
func Summarize(view domain.TransactionView) Summary {
	cages := view.ListCages()
	mice := view.ListMice()

	cageByID := make(map[string]domain.Cage, len(cages))
	for _, c := range cages {
		cageByID[c.ID] = c
	}
	occupied := make(map[string]struct{})
	for _, m := range mice {
		if m.CageID != nil {
			occupied[*m.CageID] = struct{}{}
		}
	}

	people := view.ListPeople()
	rows := make([]SummaryRow, 0, len(people)+1)
	for _, p := range people {
		row := SummaryRow{Name: p.Name}
		for _, c := range cages {
			if !ownedBy(c, p.ID) {
				continue
			}
			row.Cages++
			if _, ok := occupied[c.ID]; ok && current(c) {
				row.CurrentCages++
			}
		}
		for _, m := range mice {
			if m.CageID == nil {
				continue
			}
			c, ok := cageByID[*m.CageID]
			if !ok || !ownedBy(c, p.ID) {
				continue
			}
			row.Mice++
			if current(c) {
				row.CurrentMice++
			}
		}
		rows = append(rows, row)
	}
	noCage := SummaryRow{Name: NoCage}
	for _, m := range mice {
		if m.CageID == nil {
			noCage.Mice++
		}
	}
	rows = append(rows, noCage)

	var totals SummaryRow
	for _, r := range rows {
		totals.Cages += r.Cages
		totals.Mice += r.Mice
		totals.CurrentCages += r.CurrentCages
		totals.CurrentMice += r.CurrentMice
	}
	return Summary{Rows: rows, Totals: totals}
}

func ownedBy(c domain.Cage, personID string) bool {
	return c.ProprietorID != nil && *c.ProprietorID == personID
}

func current(c domain.Cage) bool {
	if c.Defunct {
		return false
	}
	for _, loc := range domain.TrackedLocations {
		if c.Location == loc {
			return true
		}
	}
	return false
}
