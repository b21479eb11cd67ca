package husbandry

import (
	"fmt"
	"sort"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/pkg/domain"
)

// InferMatingDate picks the mating date of a new breeding pair. litters are the
// mother's prior litters, newest birth first. The birth date of the most recent
// litter sired by the same father is used when known; otherwise today. Post
// partum re-mating is assumed.
func InferMatingDate(litters []domain.Litter, fatherID string, today time.Time) time.Time {
	var best *time.Time
	for _, l := range litters {
		if l.FatherID != fatherID || l.DOB == nil {
			continue
		}
		if best == nil || l.DOB.After(*best) {
			best = l.DOB
		}
	}
	if best == nil {
		return colony.Day(today)
	}
	return colony.Day(*best)
}

// Weaning table offsets in days after birth.
const (
	EarlyWeanDays = 19
	LateWeanDays  = 24
	MaturityDays  = 35
)

// CurrentLitter is one row of the weaning table.
type CurrentLitter struct {
	CageName  string
	Sticker   string
	DOB       time.Time
	EarlyWean time.Time
	LateWean  time.Time
	Maturity  time.Time
}

// CurrentLitters lists born, unweaned litters of live cages ordered by birth
// date, then cage name.
func CurrentLitters(view domain.TransactionView) []CurrentLitter {
	var out []CurrentLitter
	for _, l := range view.ListLitters() {
		if l.DOB == nil || l.DateWeaned != nil {
			continue
		}
		cage, ok := view.FindCage(l.CageID())
		if !ok || cage.Defunct {
			continue
		}
		dob := colony.Day(*l.DOB)
		out = append(out, CurrentLitter{
			CageName:  cage.Name,
			Sticker:   cage.Sticker,
			DOB:       dob,
			EarlyWean: colony.AddDays(dob, EarlyWeanDays),
			LateWean:  colony.AddDays(dob, LateWeanDays),
			Maturity:  colony.AddDays(dob, MaturityDays),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DOB.Equal(out[j].DOB) {
			return out[i].DOB.Before(out[j].DOB)
		}
		return out[i].CageName < out[j].CageName
	})
	return out
}

// LitterInfo renders "<n>@P<age>" once born, "E<days>" once mated, else "<n> pups".
func LitterInfo(l colony.LitterAggregate, today time.Time) string {
	n := len(l.Pups)
	switch {
	case l.Litter.DOB != nil:
		return fmt.Sprintf("%d@P%d", n, colony.DaysBetween(*l.Litter.DOB, today))
	case l.Litter.DateMated != nil:
		return fmt.Sprintf("E%d", colony.DaysBetween(*l.Litter.DateMated, today))
	}
	return fmt.Sprintf("%d pups", n)
}
