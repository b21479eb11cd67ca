package colony

import (
	"fmt"
	"strings"
	"time"

	"mousecolony/internal/genetics"
	"mousecolony/pkg/domain"
)

// BreedableAge is the age in days a mouse must exceed to be considered for breeding.
const BreedableAge = 40

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalendarDay returns the calendar date of t in t's own location as midnight
// UTC, the form every stored colony date takes.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from from to to.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// AddDays returns the day d shifted by n days.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// DOB returns the manual birth date if recorded, else the litter's.
func (r MouseRecord) DOB() *time.Time {
	if r.Mouse.ManualDOB != nil {
		return r.Mouse.ManualDOB
	}
	if r.Litter != nil {
		return r.Litter.DOB
	}
	return nil
}

// MotherID returns the manual mother if recorded, else the litter's.
func (r MouseRecord) MotherID() *string {
	if r.Mouse.ManualMother != nil {
		return r.Mouse.ManualMother
	}
	if r.Litter != nil && r.Litter.MotherID != "" {
		id := r.Litter.MotherID
		return &id
	}
	return nil
}

// FatherID returns the manual father if recorded, else the litter's.
func (r MouseRecord) FatherID() *string {
	if r.Mouse.ManualFather != nil {
		return r.Mouse.ManualFather
	}
	if r.Litter != nil && r.Litter.FatherID != "" {
		id := r.Litter.FatherID
		return &id
	}
	return nil
}

// Age returns the age in days on the given day and whether it is known.
func (r MouseRecord) Age(today time.Time) (int, bool) {
	dob := r.DOB()
	if dob == nil {
		return 0, false
	}
	return DaysBetween(*dob, today), true
}

// StillInBreedingCage reports whether a pup still sits in the cage it was born in.
func (r MouseRecord) StillInBreedingCage() bool {
	if r.Litter == nil {
		return false
	}
	return r.Mouse.InCage(r.Litter.CageID())
}

// BreedableFemale reports whether the mouse is female and old enough or of unknown age.
func (r MouseRecord) BreedableFemale(today time.Time) bool {
	return r.Mouse.Sex == domain.SexFemale && r.oldEnough(today)
}

// BreedableMale reports whether the mouse is male and old enough or of unknown age.
func (r MouseRecord) BreedableMale(today time.Time) bool {
	return r.Mouse.Sex == domain.SexMale && r.oldEnough(today)
}

func (r MouseRecord) oldEnough(today time.Time) bool {
	age, ok := r.Age(today)
	return !ok || age > BreedableAge
}

// Genotype renders the mouse's genotype.
func (r MouseRecord) Genotype() string { return genetics.Genotype(r.Profile) }

// Strain renders the mouse's strain background.
func (r MouseRecord) Strain() string { return genetics.StrainDescription(r.Profile) }

// Info renders "NAME (SEX Pnn GENOTYPE [USER])". Age and user are omitted when unknown.
func (r MouseRecord) Info(today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s ", r.Mouse.Name, r.Mouse.Sex)
	if age, ok := r.Age(today); ok {
		fmt.Fprintf(&b, "P%d ", age)
	}
	b.WriteString(r.Genotype())
	if r.User != nil {
		fmt.Fprintf(&b, " [%s]", r.User.Name)
	}
	b.WriteString(")")
	return b.String()
}

// ResidentInfos returns the info line of every resident ordered by name, with
// pups still in their breeding cage prefixed by "pup ".
func (c CageAggregate) ResidentInfos(today time.Time) []string {
	out := make([]string, 0, len(c.Residents))
	for _, r := range c.Residents {
		info := r.Info(today)
		if r.StillInBreedingCage() {
			info = "pup " + info
		}
		out = append(out, info)
	}
	return out
}

// Age returns the common age of the residents, or false when they differ or
// any is unknown.
func (c CageAggregate) Age(today time.Time) (int, bool) {
	if len(c.Residents) == 0 {
		return 0, false
	}
	first, ok := c.Residents[0].Age(today)
	if !ok {
		return 0, false
	}
	for _, r := range c.Residents[1:] {
		age, ok := r.Age(today)
		if !ok || age != first {
			return 0, false
		}
	}
	return first, true
}

// CanBeBreedingMother reports whether a breedable female shares the cage with a
// breedable male.
func (c CageAggregate) CanBeBreedingMother(r MouseRecord, today time.Time) bool {
	if !r.BreedableFemale(today) {
		return false
	}
	for _, other := range c.Residents {
		if other.BreedableMale(today) {
			return true
		}
	}
	return false
}
