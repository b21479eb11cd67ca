package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/internal/genetics"
	"mousecolony/internal/husbandry"
	"mousecolony/pkg/domain"
)

// MatingRequest describes a new breeding cage.
type MatingRequest struct {
	// CageName is generated from the proprietor's cage series when blank.
	CageName     string
	ProprietorID *string
	MotherID     string
	FatherID     string
	Location     domain.Location
	RackSpot     *string
	Notes        string
}

// MatingCage is the outcome of MakeMatingCage.
type MatingCage struct {
	Cage   Cage
	Litter Litter
}

// MakeMatingCage creates a breeding cage and its litter, infers the mating date
// from the mother's previous litters and moves both parents into the cage.
func (s *Service) MakeMatingCage(ctx context.Context, req MatingRequest, today time.Time) (MatingCage, Result, error) {
	var out MatingCage
	res, err := s.run(ctx, "make_mating_cage", func(tx Transaction) (string, error) {
		view := tx.Snapshot()
		mother, ok := view.FindMouse(req.MotherID)
		if !ok {
			return "", domain.ErrNotFound{Entity: EntityMouse, Key: req.MotherID}
		}
		father, ok := view.FindMouse(req.FatherID)
		if !ok {
			return "", domain.ErrNotFound{Entity: EntityMouse, Key: req.FatherID}
		}
		if mother.Sex != domain.SexFemale {
			return "", fmt.Errorf("mother %s is not female", mother.Name)
		}
		if father.Sex != domain.SexMale {
			return "", fmt.Errorf("father %s is not male", father.Name)
		}

		name := strings.TrimSpace(req.CageName)
		if name == "" {
			if req.ProprietorID == nil {
				return "", errors.New("a proprietor is required to name a mating cage")
			}
			owner, ok := view.FindPerson(*req.ProprietorID)
			if !ok {
				return "", domain.ErrNotFound{Entity: EntityPerson, Key: *req.ProprietorID}
			}
			name = NextCageName(view, owner.SeriesNumber)
		}

		mated := husbandry.InferMatingDate(view.ListMothersLitters(mother.ID), father.ID, today)
		cage, err := tx.CreateCage(Cage{
			Name:         name,
			Location:     req.Location,
			ProprietorID: req.ProprietorID,
			RackSpot:     req.RackSpot,
			Notes:        req.Notes,
		})
		if err != nil {
			return "", err
		}
		litter, err := tx.CreateLitter(Litter{
			Base:         Base{ID: cage.ID},
			ProprietorID: req.ProprietorID,
			MotherID:     mother.ID,
			FatherID:     father.ID,
			DateMated:    &mated,
		})
		if err != nil {
			return cage.ID, err
		}
		for _, id := range []string{mother.ID, father.ID} {
			if _, err := tx.UpdateMouse(id, func(m *Mouse) error {
				m.CageID = &cage.ID
				return nil
			}); err != nil {
				return cage.ID, err
			}
		}
		out = MatingCage{Cage: cage, Litter: litter}
		return cage.ID, nil
	})
	return out, res, err
}

// NextCageName returns the first numeric cage name at or above the series
// number that is not in use.
func NextCageName(view TransactionView, series int) string {
	taken := make(map[string]struct{})
	for _, c := range view.ListCages() {
		taken[c.Name] = struct{}{}
	}
	if series < 1 {
		series = 1
	}
	for n := series; ; n++ {
		name := strconv.Itoa(n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}

// PupChange reports how ChangeNumberOfPups reconciled a litter.
type PupChange struct {
	Created []string
	Skipped []string
	Removed []string
}

// ChangeNumberOfPups grows or shrinks a litter to n pups. New pups inherit
// purity, genes at ?/? and strains from the parents; a pup name that is already
// taken is skipped. Shrinking deletes the highest-numbered pups that still
// carry their generated name.
func (s *Service) ChangeNumberOfPups(ctx context.Context, cageID string, n int) (PupChange, Result, error) {
	var out PupChange
	if n < 0 {
		return out, Result{}, fmt.Errorf("cage %s: number of pups must not be negative", cageID)
	}
	res, err := s.run(ctx, "change_number_of_pups", func(tx Transaction) (string, error) {
		out = PupChange{}
		litter, err := colony.LoadLitter(tx.Snapshot(), cageID)
		if err != nil {
			return cageID, err
		}
		if litter.Cage == nil {
			return cageID, domain.ErrNotFound{Entity: EntityCage, Key: cageID}
		}
		current := len(litter.Pups)
		switch {
		case n > current:
			return cageID, addPups(tx, litter, current, n, &out)
		case n < current:
			return cageID, removePups(tx, litter, n, current, &out)
		}
		return cageID, nil
	})
	if err == nil && len(out.Skipped) > 0 {
		s.logger.Warn("skipped pups with taken names", "cage_id", cageID, "skipped", len(out.Skipped), "names", out.Skipped)
	}
	return out, res, err
}

func addPups(tx Transaction, litter colony.LitterAggregate, from, to int, out *PupChange) error {
	if litter.Mother == nil || litter.Father == nil {
		return domain.InvariantViolation{Entity: EntityLitter, ID: litter.Litter.ID, Reason: "litter parents are missing"}
	}
	inh, err := genetics.Inherit(genetics.Parents{
		LitterID: litter.Litter.ID,
		Mother:   litter.Mother.Profile,
		Father:   litter.Father.Profile,
	})
	if err != nil {
		return err
	}
	cageID := litter.Cage.ID
	for i := from; i < to; i++ {
		name := genetics.PupName(litter.Cage.Name, i)
		if _, taken := tx.FindMouseByName(name); taken {
			out.Skipped = append(out.Skipped, name)
			continue
		}
		pup, err := tx.CreateMouse(Mouse{
			Name:         name,
			Sex:          domain.SexUnknown,
			PureBreeder:  inh.PureBreeder,
			PureWildType: inh.PureWildType,
			CageID:       &cageID,
			LitterID:     &cageID,
		})
		if err != nil {
			return err
		}
		for _, g := range inh.Genes {
			if _, err := tx.CreateMouseGene(MouseGene{MouseID: pup.ID, GeneID: g.ID, Zygosity: domain.ZygosityUnknown}); err != nil {
				return err
			}
		}
		for _, st := range inh.Strains {
			if _, err := tx.CreateMouseStrain(MouseStrain{MouseID: pup.ID, StrainID: st.Strain.ID, Weight: st.Weight}); err != nil {
				return err
			}
		}
		out.Created = append(out.Created, name)
	}
	return nil
}

func removePups(tx Transaction, litter colony.LitterAggregate, from, to int, out *PupChange) error {
	for i := from; i < to; i++ {
		name := genetics.PupName(litter.Cage.Name, i)
		pup, ok := tx.FindMouseByName(name)
		if !ok || pup.LitterID == nil || *pup.LitterID != litter.Litter.ID {
			continue
		}
		if err := tx.DeleteMouse(pup.ID); err != nil {
			return err
		}
		out.Removed = append(out.Removed, name)
	}
	return nil
}

// litterPups loads the litter of a cage and indexes its pups by id.
func litterPups(view TransactionView, cageID string) (colony.LitterAggregate, map[string]Mouse, error) {
	litter, err := colony.LoadLitter(view, cageID)
	if err != nil {
		return litter, nil, err
	}
	pups := make(map[string]Mouse, len(litter.Pups))
	for _, p := range litter.Pups {
		pups[p.ID] = p
	}
	return litter, pups, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func notAPup(cageID, mouseID string) error {
	return fmt.Errorf("mouse %s is not a pup of the litter in cage %s", mouseID, cageID)
}

// SetGenotypingResults records the zygosity of one gene for pups of a litter
// and stamps the litter's genotyping date when it is unset.
func (s *Service) SetGenotypingResults(ctx context.Context, cageID, geneID string, results map[string]domain.Zygosity, today time.Time) (Result, error) {
	return s.run(ctx, "set_genotyping_results", func(tx Transaction) (string, error) {
		view := tx.Snapshot()
		if _, ok := view.FindGene(geneID); !ok {
			return cageID, domain.ErrNotFound{Entity: EntityGene, Key: geneID}
		}
		_, pups, err := litterPups(view, cageID)
		if err != nil {
			return cageID, err
		}
		for _, id := range sortedKeys(results) {
			if _, ok := pups[id]; !ok {
				return cageID, notAPup(cageID, id)
			}
			if _, err := setZygosity(tx, id, geneID, results[id]); err != nil {
				return cageID, err
			}
		}
		_, err = tx.UpdateLitter(cageID, func(l *Litter) error {
			if l.DateGenotyped == nil {
				l.DateGenotyped = &today
			}
			return nil
		})
		return cageID, err
	})
}

// SetPupSex records the sex of pups of a litter.
func (s *Service) SetPupSex(ctx context.Context, cageID string, sexes map[string]domain.Sex) (Result, error) {
	return s.run(ctx, "set_pup_sex", func(tx Transaction) (string, error) {
		_, pups, err := litterPups(tx.Snapshot(), cageID)
		if err != nil {
			return cageID, err
		}
		for _, id := range sortedKeys(sexes) {
			if _, ok := pups[id]; !ok {
				return cageID, notAPup(cageID, id)
			}
			sex := sexes[id]
			if _, err := tx.UpdateMouse(id, func(m *Mouse) error {
				m.Sex = sex
				return nil
			}); err != nil {
				return cageID, err
			}
		}
		return cageID, nil
	})
}

// SetPupToes records toe clip codes for pups of a litter and stamps the
// litter's toe clip date when it is unset.
func (s *Service) SetPupToes(ctx context.Context, cageID string, toes map[string]string, today time.Time) (Result, error) {
	return s.run(ctx, "set_pup_toes", func(tx Transaction) (string, error) {
		_, pups, err := litterPups(tx.Snapshot(), cageID)
		if err != nil {
			return cageID, err
		}
		for _, id := range sortedKeys(toes) {
			if _, ok := pups[id]; !ok {
				return cageID, notAPup(cageID, id)
			}
			code := toes[id]
			if _, err := tx.UpdateMouse(id, func(m *Mouse) error {
				m.ToeClipped = code
				return nil
			}); err != nil {
				return cageID, err
			}
		}
		_, err = tx.UpdateLitter(cageID, func(l *Litter) error {
			if l.DateToeClipped == nil {
				l.DateToeClipped = &today
			}
			return nil
		})
		return cageID, err
	})
}

// Weaning cage name suffixes by pup sex.
const (
	WeanSuffixMale    = "-M"
	WeanSuffixFemale  = "-F"
	WeanSuffixUnknown = "-PUP"
)

func weanSuffix(sex domain.Sex) string {
	switch sex {
	case domain.SexMale:
		return WeanSuffixMale
	case domain.SexFemale:
		return WeanSuffixFemale
	}
	return WeanSuffixUnknown
}

// Weaning lists the cages created by Wean with the pups moved into each.
type Weaning struct {
	Cages []Cage
	Moved map[string][]string
}

// Wean moves the live pups still in the breeding cage into new cages split by
// sex and records the weaning date.
func (s *Service) Wean(ctx context.Context, cageID string, today time.Time) (Weaning, Result, error) {
	var out Weaning
	res, err := s.run(ctx, "wean", func(tx Transaction) (string, error) {
		out = Weaning{Moved: make(map[string][]string)}
		litter, err := colony.LoadLitter(tx.Snapshot(), cageID)
		if err != nil {
			return cageID, err
		}
		if litter.Cage == nil {
			return cageID, domain.ErrNotFound{Entity: EntityCage, Key: cageID}
		}
		if litter.Litter.DOB == nil {
			return cageID, fmt.Errorf("litter in cage %s has no birth date", litter.Cage.Name)
		}
		if litter.Litter.DateWeaned != nil {
			return cageID, fmt.Errorf("litter in cage %s was already weaned", litter.Cage.Name)
		}

		groups := make(map[string][]Mouse)
		for _, pup := range litter.Pups {
			if pup.Sacked() || !pup.InCage(cageID) {
				continue
			}
			suffix := weanSuffix(pup.Sex)
			groups[suffix] = append(groups[suffix], pup)
		}
		for _, suffix := range []string{WeanSuffixMale, WeanSuffixFemale, WeanSuffixUnknown} {
			pups := groups[suffix]
			if len(pups) == 0 {
				continue
			}
			cage, err := tx.CreateCage(Cage{
				Name:            litter.Cage.Name + suffix,
				Location:        litter.Cage.Location,
				ProprietorID:    litter.Cage.ProprietorID,
				AcquisitionType: domain.AcquisitionWeaning,
			})
			if err != nil {
				return cageID, err
			}
			out.Cages = append(out.Cages, cage)
			for _, pup := range pups {
				if _, err := tx.UpdateMouse(pup.ID, func(m *Mouse) error {
					m.CageID = &cage.ID
					return nil
				}); err != nil {
					return cageID, err
				}
				out.Moved[cage.Name] = append(out.Moved[cage.Name], pup.Name)
			}
		}
		_, err = tx.UpdateLitter(cageID, func(l *Litter) error {
			l.DateWeaned = &today
			return nil
		})
		return cageID, err
	})
	return out, res, err
}

// Sack retires a cage: it is marked defunct and every live resident gets the
// sack date. It returns the number of mice sacked.
func (s *Service) Sack(ctx context.Context, cageID string, today time.Time) (int, Result, error) {
	sacked := 0
	res, err := s.run(ctx, "sack", func(tx Transaction) (string, error) {
		sacked = 0
		view := tx.Snapshot()
		if _, ok := view.FindCage(cageID); !ok {
			return cageID, domain.ErrNotFound{Entity: EntityCage, Key: cageID}
		}
		for _, m := range view.ListCageResidents(cageID) {
			if m.Sacked() {
				continue
			}
			if _, err := tx.UpdateMouse(m.ID, func(m *Mouse) error {
				m.SackDate = &today
				return nil
			}); err != nil {
				return cageID, err
			}
			sacked++
		}
		_, err := tx.UpdateCage(cageID, func(c *Cage) error {
			c.Defunct = true
			return nil
		})
		return cageID, err
	})
	return sacked, res, err
}

// Progeny returns the pups of every litter the mouse parented, ordered by name.
// A mouse recorded both as a father and as a mother is an invariant violation.
func (s *Service) Progeny(ctx context.Context, mouseID string) ([]Mouse, error) {
	var out []Mouse
	err := s.view(ctx, "progeny", func(view TransactionView) error {
		if _, ok := view.FindMouse(mouseID); !ok {
			return domain.ErrNotFound{Entity: EntityMouse, Key: mouseID}
		}
		var asFather, asMother bool
		var litters []Litter
		for _, l := range view.ListLitters() {
			switch mouseID {
			case l.FatherID:
				asFather = true
			case l.MotherID:
				asMother = true
			default:
				continue
			}
			litters = append(litters, l)
		}
		if asFather && asMother {
			return domain.InvariantViolation{Entity: EntityMouse, ID: mouseID, Reason: "mouse is both a father and a mother"}
		}
		for _, l := range litters {
			out = append(out, view.ListLitterPups(l.ID)...)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}
