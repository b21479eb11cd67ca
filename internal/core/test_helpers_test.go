package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"mousecolony/pkg/domain"
)

var fixedNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

type captureLogger struct {
	calls []string
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.calls = append(l.calls, "d:"+msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.calls = append(l.calls, "i:"+msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.calls = append(l.calls, "w:"+msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.calls = append(l.calls, "e:"+msg) }

func (l *captureLogger) count(prefix string) int {
	n := 0
	for _, c := range l.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// breedingFixture holds a person, a catalog and a breeding pair housed in
// their own cages.
type breedingFixture struct {
	svc    *Service
	owner  Person
	cre    Gene
	strain Strain
	mother Mouse
	father Mouse
}

func newTestService(t *testing.T, engine *RulesEngine, opts ...ServiceOption) *Service {
	t.Helper()
	opts = append([]ServiceOption{WithClock(ClockFunc(func() time.Time { return fixedNow }))}, opts...)
	return NewInMemoryService(engine, opts...)
}

// newBreedingFixture creates a pure wild-type mother and a pure Cre father, both
// on the same single strain.
func newBreedingFixture(t *testing.T, opts ...ServiceOption) breedingFixture {
	t.Helper()
	ctx := context.Background()
	fx := breedingFixture{svc: newTestService(t, NewDefaultRulesEngine(), opts...)}
	var err error
	if fx.owner, _, err = fx.svc.CreatePerson(ctx, Person{Name: "alice", Active: true, SeriesNumber: 100}); err != nil {
		t.Fatalf("create person: %v", err)
	}
	if fx.cre, _, err = fx.svc.CreateGene(ctx, Gene{Name: "Cre", Type: domain.GeneTypeDriver}); err != nil {
		t.Fatalf("create gene: %v", err)
	}
	if fx.strain, _, err = fx.svc.CreateStrain(ctx, Strain{Name: "C57BL/6J", ExternalID: "000664"}); err != nil {
		t.Fatalf("create strain: %v", err)
	}
	stock, _, err := fx.svc.CreateCage(ctx, Cage{Name: "100", Location: domain.Location1710, ProprietorID: &fx.owner.ID})
	if err != nil {
		t.Fatalf("create stock cage: %v", err)
	}
	fx.mother = fx.createMouse(t, Mouse{Name: "F1", Sex: domain.SexFemale, PureBreeder: true, PureWildType: true, CageID: &stock.ID})
	fx.father = fx.createMouse(t, Mouse{Name: "M1", Sex: domain.SexMale, PureBreeder: true, CageID: &stock.ID})
	if _, _, err := fx.svc.SetMouseGene(ctx, fx.father.ID, fx.cre.ID, domain.ZygosityHomozygous); err != nil {
		t.Fatalf("set gene: %v", err)
	}
	for _, m := range []Mouse{fx.mother, fx.father} {
		if _, _, err := fx.svc.AddMouseStrain(ctx, m.ID, fx.strain.ID, 1); err != nil {
			t.Fatalf("add strain: %v", err)
		}
	}
	return fx
}

func (fx breedingFixture) createMouse(t *testing.T, m Mouse) Mouse {
	t.Helper()
	created, _, err := fx.svc.CreateMouse(context.Background(), m)
	if err != nil {
		t.Fatalf("create mouse %s: %v", m.Name, err)
	}
	return created
}

func (fx breedingFixture) mate(t *testing.T, name string) MatingCage {
	t.Helper()
	out, _, err := fx.svc.MakeMatingCage(context.Background(), MatingRequest{
		CageName:     name,
		ProprietorID: &fx.owner.ID,
		MotherID:     fx.mother.ID,
		FatherID:     fx.father.ID,
		Location:     domain.Location1710,
	}, day(2024, time.May, 1))
	if err != nil {
		t.Fatalf("make mating cage: %v", err)
	}
	return out
}

func (fx breedingFixture) view(t *testing.T, fn func(TransactionView)) {
	t.Helper()
	if err := fx.svc.Store().View(context.Background(), func(v TransactionView) error {
		fn(v)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func pupNames(v TransactionView, litterID string) []string {
	var names []string
	for _, p := range v.ListLitterPups(litterID) {
		names = append(names, p.Name)
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
