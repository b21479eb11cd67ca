package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/internal/husbandry"
)

func TestTodayFollowsClockLocation(t *testing.T) {
	pacific := time.FixedZone("PDT", -7*60*60)
	evening := time.Date(2024, time.June, 1, 21, 0, 0, 0, pacific)
	svc := newTestService(t, nil, WithClock(ClockFunc(func() time.Time { return evening })))
	if got := svc.Today(); !got.Equal(day(2024, time.June, 1)) {
		t.Fatalf("Today() = %v, want 2024-06-01", got)
	}
}

func TestCageStatusNeedsEscalate(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	mated := fx.mate(t, "") // mated 2024-05-01

	status, err := fx.svc.CageStatus(ctx, mated.Cage.Name, day(2024, time.May, 23))
	if err != nil {
		t.Fatalf("CageStatus: %v", err)
	}
	if status.Type != colony.CageOutcross || status.Genotypes != "Cre" {
		t.Fatalf("unexpected classification: %q %q", status.Type, status.Genotypes)
	}
	if len(status.Needs) != 1 || status.Needs[0].Text != "pup check on 05/26" || status.Needs[0].Style != husbandry.StyleNormal {
		t.Fatalf("unexpected needs: %+v", status.Needs)
	}
	if status.Litter != "E22" || status.TargetGenotype != "Cre(+/+) x pure WT" {
		t.Fatalf("unexpected litter info: %q %q", status.Litter, status.TargetGenotype)
	}
	if len(status.Residents) != 2 {
		t.Fatalf("expected both parents listed, got %v", status.Residents)
	}

	overdue, err := fx.svc.CageStatus(ctx, mated.Cage.Name, day(2024, time.June, 10))
	if err != nil {
		t.Fatalf("CageStatus: %v", err)
	}
	if len(overdue.Needs) != 1 || overdue.Needs[0].Style != husbandry.StyleUrgent {
		t.Fatalf("expected urgent pup check, got %+v", overdue.Needs)
	}

	if _, err := fx.svc.CageStatus(ctx, "missing", fixedNow); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestSpecialRequestsLeadCageNeeds(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	mated := fx.mate(t, "")
	tech, _, err := fx.svc.CreatePerson(ctx, Person{Name: "tech", Active: true})
	if err != nil {
		t.Fatalf("create person: %v", err)
	}
	req, _, err := fx.svc.CreateSpecialRequest(ctx, SpecialRequest{CageID: mated.Cage.ID, Message: "check mother's weight", RequesteeID: &tech.ID})
	if err != nil {
		t.Fatalf("CreateSpecialRequest: %v", err)
	}
	if req.DateRequested == nil || !req.DateRequested.Equal(day(2024, time.June, 1)) {
		t.Fatalf("request date should default to today: %v", req.DateRequested)
	}
	if _, _, err := fx.svc.CreateSpecialRequest(ctx, SpecialRequest{CageID: mated.Cage.ID}); err == nil {
		t.Fatalf("expected empty message to be rejected")
	}

	needs, err := fx.svc.Needs(ctx, colony.CensusFilter{}, day(2024, time.May, 23))
	if err != nil {
		t.Fatalf("Needs: %v", err)
	}
	if len(needs) != 1 || needs[0].CageName != mated.Cage.Name || needs[0].Proprietor != "alice" {
		t.Fatalf("unexpected needs rows: %+v", needs)
	}
	got := husbandry.TextFormatter{}.Format(needs[0].Messages)
	if got != "! tech: check mother's weight\n  pup check on 05/26" {
		t.Fatalf("unexpected needs text %q", got)
	}

	if _, _, err := fx.svc.CompleteSpecialRequest(ctx, req.ID, day(2024, time.May, 24)); err != nil {
		t.Fatalf("CompleteSpecialRequest: %v", err)
	}
	if _, _, err := fx.svc.CompleteSpecialRequest(ctx, req.ID, day(2024, time.May, 25)); err == nil {
		t.Fatalf("expected completing twice to fail")
	}
	status, err := fx.svc.CageStatus(ctx, mated.Cage.Name, day(2024, time.May, 23))
	if err != nil {
		t.Fatalf("CageStatus: %v", err)
	}
	if status.Needs[0].Style != husbandry.StyleDone {
		t.Fatalf("completed request should be struck: %+v", status.Needs)
	}
}

func TestCensusQueries(t *testing.T) {
	fx := newBreedingFixture(t)
	ctx := context.Background()
	mated := fx.mate(t, "")
	born := day(2024, time.May, 20)
	if _, _, err := fx.svc.UpdateLitter(ctx, mated.Litter.ID, func(l *Litter) error {
		l.DOB = &born
		return nil
	}); err != nil {
		t.Fatalf("update litter: %v", err)
	}

	cages, err := fx.svc.Census(ctx, colony.CensusFilter{ProprietorID: fx.owner.ID})
	if err != nil {
		t.Fatalf("Census: %v", err)
	}
	if len(cages) != 2 || cages[0].Cage.Name != "100" || cages[1].Cage.Name != "101" {
		t.Fatalf("unexpected census: %d cages", len(cages))
	}

	groups, err := fx.svc.CensusByGenotype(ctx, colony.CensusFilter{})
	if err != nil {
		t.Fatalf("CensusByGenotype: %v", err)
	}
	if len(groups) != 1 || groups[0].Geneset.String() != "Cre" || len(groups[0].Cages) != 1 {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	litters, err := fx.svc.CurrentLitters(ctx)
	if err != nil {
		t.Fatalf("CurrentLitters: %v", err)
	}
	if len(litters) != 1 || !litters[0].EarlyWean.Equal(day(2024, time.June, 8)) {
		t.Fatalf("unexpected litters: %+v", litters)
	}

	summary, err := fx.svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Totals.Cages != 2 || summary.Totals.Mice != 2 || summary.Totals.CurrentCages != 1 {
		t.Fatalf("unexpected totals: %+v", summary.Totals)
	}
}

func TestOpenPersistentStore(t *testing.T) {
	mem, err := OpenPersistentStore(StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil || mem == nil {
		t.Fatalf("memory store: %v", err)
	}

	path := filepath.Join(t.TempDir(), "colony.db")
	store, err := OpenPersistentStore(StorageConfig{SQLitePath: path}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	svc := NewService(store)
	if _, _, err := svc.CreatePerson(context.Background(), Person{Name: "dana"}); err != nil {
		t.Fatalf("create person: %v", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	} else {
		t.Fatalf("sqlite store should be closable")
	}
	reopened, err := OpenPersistentStore(StorageConfig{Driver: StorageSQLite, SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if people := reopened.ListPeople(); len(people) != 1 || people[0].Name != "dana" {
		t.Fatalf("expected person to persist, got %+v", people)
	}

	if _, err := OpenPersistentStore(StorageConfig{Driver: "oracle"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestNextCageName(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	for _, name := range []string{"5", "6", "8", "x"} {
		if _, _, err := svc.CreateCage(ctx, Cage{Name: name}); err != nil {
			t.Fatalf("create cage: %v", err)
		}
	}
	_ = svc.Store().View(ctx, func(v TransactionView) error {
		cases := map[int]string{0: "1", 5: "7", 8: "9", 10: "10"}
		for series, want := range cases {
			if got := NextCageName(v, series); got != want {
				t.Fatalf("NextCageName(%d) = %q, want %q", series, got, want)
			}
		}
		return nil
	})
}
