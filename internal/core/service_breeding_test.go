package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"mousecolony/pkg/domain"
)

func TestMakeMatingCageNamesCageAndMovesParents(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()

	first := fx.mate(t, "")
	if first.Cage.Name != "101" {
		t.Fatalf("expected first free series name 101, got %q", first.Cage.Name)
	}
	if first.Litter.ID != first.Cage.ID {
		t.Fatalf("litter must be keyed by its cage")
	}
	if first.Litter.DateMated == nil || !first.Litter.DateMated.Equal(day(2024, time.May, 1)) {
		t.Fatalf("expected mating date today, got %v", first.Litter.DateMated)
	}
	fx.view(t, func(v TransactionView) {
		for _, id := range []string{fx.mother.ID, fx.father.ID} {
			m, _ := v.FindMouse(id)
			if !m.InCage(first.Cage.ID) {
				t.Fatalf("parent %s was not moved into the mating cage", m.Name)
			}
		}
	})

	born := day(2024, time.May, 21)
	if _, _, err := fx.svc.UpdateLitter(ctx, first.Litter.ID, func(l *Litter) error {
		l.DOB = &born
		return nil
	}); err != nil {
		t.Fatalf("update litter: %v", err)
	}
	second, _, err := fx.svc.MakeMatingCage(ctx, MatingRequest{
		ProprietorID: &fx.owner.ID,
		MotherID:     fx.mother.ID,
		FatherID:     fx.father.ID,
	}, day(2024, time.June, 10))
	if err != nil {
		t.Fatalf("second mating cage: %v", err)
	}
	if second.Cage.Name != "102" {
		t.Fatalf("expected next free name 102, got %q", second.Cage.Name)
	}
	if !second.Litter.DateMated.Equal(born) {
		t.Fatalf("expected mating date inferred from previous litter, got %v", second.Litter.DateMated)
	}
}

func TestMakeMatingCageRejectsWrongSexes(t *testing.T) {
	fx := newBreedingFixture(t)
	_, _, err := fx.svc.MakeMatingCage(context.Background(), MatingRequest{
		CageName: "900",
		MotherID: fx.father.ID,
		FatherID: fx.mother.ID,
	}, fixedNow)
	if err == nil {
		t.Fatalf("expected sex mismatch error")
	}
	fx.view(t, func(v TransactionView) {
		if _, ok := v.FindCageByName("900"); ok {
			t.Fatalf("failed mating must not leave a cage behind")
		}
	})
}

func TestAddPupInheritsFromParents(t *testing.T) {
	fx := newBreedingFixture(t)
	litter := fx.mate(t, "")

	change, _, err := fx.svc.ChangeNumberOfPups(context.Background(), litter.Cage.ID, 1)
	if err != nil {
		t.Fatalf("ChangeNumberOfPups: %v", err)
	}
	if !equalStrings(change.Created, []string{"101-1"}) {
		t.Fatalf("unexpected created pups: %v", change.Created)
	}
	fx.view(t, func(v TransactionView) {
		pup, ok := v.FindMouseByName("101-1")
		if !ok {
			t.Fatalf("pup not stored")
		}
		if !pup.PureBreeder || pup.PureWildType {
			t.Fatalf("expected pure breeder, not wild type: %+v", pup)
		}
		if pup.Sex != domain.SexUnknown || !pup.InCage(litter.Cage.ID) || pup.LitterID == nil || *pup.LitterID != litter.Litter.ID {
			t.Fatalf("unexpected pup placement: %+v", pup)
		}
		genes := v.ListMouseGenes(pup.ID)
		if len(genes) != 1 || genes[0].GeneID != fx.cre.ID || genes[0].Zygosity != domain.ZygosityUnknown {
			t.Fatalf("expected Cre at ?/?, got %+v", genes)
		}
		strains := v.ListMouseStrains(pup.ID)
		if len(strains) != 1 || strains[0].StrainID != fx.strain.ID || strains[0].Weight != 1 {
			t.Fatalf("expected single strain of weight 1, got %+v", strains)
		}
	})
}

func TestChangeNumberOfPupsRoundTrip(t *testing.T) {
	fx := newBreedingFixture(t)
	litter := fx.mate(t, "")
	ctx := context.Background()

	if _, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 5); err != nil {
		t.Fatalf("grow: %v", err)
	}
	change, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 3)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if !equalStrings(change.Removed, []string{"101-4", "101-5"}) {
		t.Fatalf("unexpected removed pups: %v", change.Removed)
	}
	fx.view(t, func(v TransactionView) {
		if got := pupNames(v, litter.Litter.ID); !equalStrings(got, []string{"101-1", "101-2", "101-3"}) {
			t.Fatalf("unexpected pups: %v", got)
		}
		for _, name := range []string{"101-4", "101-5"} {
			if _, ok := v.FindMouseByName(name); ok {
				t.Fatalf("%s should be deleted", name)
			}
		}
	})

	if change, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 3); err != nil || len(change.Created)+len(change.Removed) != 0 {
		t.Fatalf("unchanged count must be a no-op: %+v, %v", change, err)
	}
	if _, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, -1); err == nil {
		t.Fatalf("expected error for negative count")
	}
}

func TestChangeNumberOfPupsSkipsTakenNames(t *testing.T) {
	logger := &captureLogger{}
	fx := newBreedingFixture(t, WithLogger(logger))
	litter := fx.mate(t, "")
	manual := fx.createMouse(t, Mouse{Name: "101-3", Sex: domain.SexMale, Notes: "tagged by hand"})

	change, _, err := fx.svc.ChangeNumberOfPups(context.Background(), litter.Cage.ID, 5)
	if err != nil {
		t.Fatalf("ChangeNumberOfPups: %v", err)
	}
	if !equalStrings(change.Created, []string{"101-1", "101-2", "101-4", "101-5"}) {
		t.Fatalf("unexpected created pups: %v", change.Created)
	}
	if !equalStrings(change.Skipped, []string{"101-3"}) {
		t.Fatalf("unexpected skipped pups: %v", change.Skipped)
	}
	if logger.count("w:") != 1 {
		t.Fatalf("expected one warning for skipped names, got %v", logger.calls)
	}
	fx.view(t, func(v TransactionView) {
		kept, _ := v.FindMouse(manual.ID)
		if kept.Notes != "tagged by hand" || kept.LitterID != nil {
			t.Fatalf("existing mouse must not be overwritten: %+v", kept)
		}
	})
}

func TestChangeNumberOfPupsRejectsHybridParents(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	litter := fx.mate(t, "")
	cba, _, err := fx.svc.CreateStrain(ctx, Strain{Name: "CBA/J"})
	if err != nil {
		t.Fatalf("create strain: %v", err)
	}
	if _, _, err := fx.svc.AddMouseStrain(ctx, fx.mother.ID, cba.ID, 1); err != nil {
		t.Fatalf("add strain: %v", err)
	}

	_, _, err = fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 2)
	var unsupported domain.UnsupportedBreedingError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedBreedingError, got %v", err)
	}
	if unsupported.LitterID != litter.Litter.ID || unsupported.MotherID != fx.mother.ID {
		t.Fatalf("error must identify the litter and parents: %+v", unsupported)
	}
	fx.view(t, func(v TransactionView) {
		if pups := v.ListLitterPups(litter.Litter.ID); len(pups) != 0 {
			t.Fatalf("no pups may be created, got %d", len(pups))
		}
		if _, ok := v.FindLitter(litter.Litter.ID); !ok {
			t.Fatalf("litter must stay intact")
		}
	})
}

func TestPupRecordsAndWeaning(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	litter := fx.mate(t, "")
	if _, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 3); err != nil {
		t.Fatalf("add pups: %v", err)
	}
	ids := make(map[string]string)
	fx.view(t, func(v TransactionView) {
		for _, p := range v.ListLitterPups(litter.Litter.ID) {
			ids[p.Name] = p.ID
		}
	})

	if _, _, err := fx.svc.Wean(ctx, litter.Cage.ID, fixedNow); err == nil {
		t.Fatalf("expected weaning an unborn litter to fail")
	}

	if _, err := fx.svc.SetPupSex(ctx, litter.Cage.ID, map[string]domain.Sex{
		ids["101-1"]: domain.SexMale,
		ids["101-2"]: domain.SexFemale,
	}); err != nil {
		t.Fatalf("SetPupSex: %v", err)
	}
	toeDay := day(2024, time.May, 28)
	if _, err := fx.svc.SetPupToes(ctx, litter.Cage.ID, map[string]string{ids["101-1"]: "R1"}, toeDay); err != nil {
		t.Fatalf("SetPupToes: %v", err)
	}
	if _, err := fx.svc.SetGenotypingResults(ctx, litter.Cage.ID, fx.cre.ID, map[string]domain.Zygosity{
		ids["101-1"]: domain.ZygosityHeterozygous,
	}, toeDay); err != nil {
		t.Fatalf("SetGenotypingResults: %v", err)
	}
	if _, err := fx.svc.SetPupSex(ctx, litter.Cage.ID, map[string]domain.Sex{fx.mother.ID: domain.SexMale}); err == nil {
		t.Fatalf("expected error for a mouse outside the litter")
	}

	born := day(2024, time.May, 20)
	if _, _, err := fx.svc.UpdateLitter(ctx, litter.Litter.ID, func(l *Litter) error {
		l.DOB = &born
		return nil
	}); err != nil {
		t.Fatalf("update litter: %v", err)
	}
	weanDay := day(2024, time.June, 10)
	weaning, _, err := fx.svc.Wean(ctx, litter.Cage.ID, weanDay)
	if err != nil {
		t.Fatalf("Wean: %v", err)
	}
	if len(weaning.Cages) != 3 {
		t.Fatalf("expected three weaning cages, got %+v", weaning.Cages)
	}
	if !equalStrings(weaning.Moved["101-M"], []string{"101-1"}) ||
		!equalStrings(weaning.Moved["101-F"], []string{"101-2"}) ||
		!equalStrings(weaning.Moved["101-PUP"], []string{"101-3"}) {
		t.Fatalf("unexpected weaning split: %+v", weaning.Moved)
	}

	fx.view(t, func(v TransactionView) {
		l, _ := v.FindLitter(litter.Litter.ID)
		if l.DateWeaned == nil || !l.DateWeaned.Equal(weanDay) {
			t.Fatalf("weaning date not recorded: %+v", l)
		}
		if l.DateToeClipped == nil || !l.DateToeClipped.Equal(toeDay) || l.DateGenotyped == nil {
			t.Fatalf("toe clip and genotype dates not recorded: %+v", l)
		}
		male, _ := v.FindMouse(ids["101-1"])
		if male.ToeClipped != "R1" || male.Sex != domain.SexMale {
			t.Fatalf("unexpected male pup: %+v", male)
		}
		genes := v.ListMouseGenes(male.ID)
		if len(genes) != 1 || genes[0].Zygosity != domain.ZygosityHeterozygous {
			t.Fatalf("genotyping must update the existing record: %+v", genes)
		}
		cage, _ := v.FindCageByName("101-M")
		if !male.InCage(cage.ID) || cage.AcquisitionType != domain.AcquisitionWeaning || cage.Location != domain.Location1710 {
			t.Fatalf("unexpected weaning cage: %+v", cage)
		}
		if residents := v.ListCageResidents(litter.Cage.ID); len(residents) != 2 {
			t.Fatalf("only the parents should remain, got %d", len(residents))
		}
	})

	if _, _, err := fx.svc.Wean(ctx, litter.Cage.ID, weanDay); err == nil {
		t.Fatalf("expected second weaning to fail")
	}
}

func TestSackRetiresCage(t *testing.T) {
	fx := newBreedingFixture(t)
	litter := fx.mate(t, "")
	sackDay := day(2024, time.July, 1)

	n, _, err := fx.svc.Sack(context.Background(), litter.Cage.ID, sackDay)
	if err != nil {
		t.Fatalf("Sack: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected both parents sacked, got %d", n)
	}
	fx.view(t, func(v TransactionView) {
		cage, _ := v.FindCage(litter.Cage.ID)
		if !cage.Defunct {
			t.Fatalf("cage should be defunct")
		}
		mother, _ := v.FindMouse(fx.mother.ID)
		if !mother.Sacked() || !mother.SackDate.Equal(sackDay) {
			t.Fatalf("mother not sacked: %+v", mother)
		}
	})
	if _, _, err := fx.svc.Sack(context.Background(), "missing", sackDay); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestProgeny(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	litter := fx.mate(t, "")
	if _, _, err := fx.svc.ChangeNumberOfPups(ctx, litter.Cage.ID, 2); err != nil {
		t.Fatalf("add pups: %v", err)
	}
	pups, err := fx.svc.Progeny(ctx, fx.father.ID)
	if err != nil {
		t.Fatalf("Progeny: %v", err)
	}
	if len(pups) != 2 || pups[0].Name != "101-1" {
		t.Fatalf("unexpected progeny: %+v", pups)
	}
	if _, err := fx.svc.Progeny(ctx, "missing"); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestProgenyDetectsParentInBothRoles(t *testing.T) {
	svc := newTestService(t, NewRulesEngine())
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		odd, err := tx.CreateMouse(Mouse{Name: "odd", Sex: domain.SexMale})
		if err != nil {
			return err
		}
		other, err := tx.CreateMouse(Mouse{Name: "other", Sex: domain.SexFemale})
		if err != nil {
			return err
		}
		for _, pair := range [][2]string{{"c1", odd.ID}, {"c2", other.ID}} {
			cage, err := tx.CreateCage(Cage{Name: pair[0]})
			if err != nil {
				return err
			}
			father, mother := pair[1], odd.ID
			if pair[1] == odd.ID {
				mother = other.ID
			}
			if _, err := tx.CreateLitter(Litter{Base: Base{ID: cage.ID}, FatherID: father, MotherID: mother}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	var oddID string
	for _, m := range svc.Store().ListMice() {
		if m.Name == "odd" {
			oddID = m.ID
		}
	}
	_, err = svc.Progeny(context.Background(), oddID)
	var violation domain.InvariantViolation
	if !errors.As(err, &violation) || violation.ID != oddID {
		t.Fatalf("expected invariant violation for %s, got %v", oddID, err)
	}
}
