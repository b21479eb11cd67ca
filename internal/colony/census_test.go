package colony

import (
	"context"
	"testing"
	"time"

	"mousecolony/internal/infra/persistence/memory"
	"mousecolony/pkg/domain"
)

type colonyFixture struct {
	store *memory.Store
	alice domain.Person
	bob   domain.Person
	cages map[string]domain.Cage
	mice  map[string]domain.Mouse
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

// newColonyFixture seeds a small colony:
//
//	100 (alice, 1710, spot B2): breeding pair with two pups
//	200 (alice, 1702, spot A1): pure Cre stock
//	300 (bob, sc2-011): two progeny mice, one of them alice's
//	400 (bob, 1710): empty
//	500 (alice, 1710): defunct
func newColonyFixture(t *testing.T) colonyFixture {
	t.Helper()
	fx := colonyFixture{
		store: memory.NewStore(nil),
		cages: make(map[string]domain.Cage),
		mice:  make(map[string]domain.Mouse),
	}
	_, err := fx.store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		if fx.alice, err = tx.CreatePerson(domain.Person{Name: "alice", Active: true, SeriesNumber: 100}); err != nil {
			return err
		}
		if fx.bob, err = tx.CreatePerson(domain.Person{Name: "bob", Active: true, SeriesNumber: 300}); err != nil {
			return err
		}
		cre, err := tx.CreateGene(domain.Gene{Name: "Cre", Type: domain.GeneTypeDriver})
		if err != nil {
			return err
		}
		gfp, err := tx.CreateGene(domain.Gene{Name: "GFP", Type: domain.GeneTypeReporter})
		if err != nil {
			return err
		}
		b6, err := tx.CreateStrain(domain.Strain{Name: "C57BL/6J"})
		if err != nil {
			return err
		}

		cages := []domain.Cage{
			{Name: "100", Location: domain.Location1710, ProprietorID: &fx.alice.ID, RackSpot: ptr("B2")},
			{Name: "200", Location: domain.Location1702, ProprietorID: &fx.alice.ID, RackSpot: ptr("A1")},
			{Name: "300", Location: domain.LocationSC2011, ProprietorID: &fx.bob.ID},
			{Name: "400", Location: domain.Location1710, ProprietorID: &fx.bob.ID},
			{Name: "500", Location: domain.Location1710, ProprietorID: &fx.alice.ID, Defunct: true},
		}
		for _, c := range cages {
			created, err := tx.CreateCage(c)
			if err != nil {
				return err
			}
			fx.cages[c.Name] = created
		}

		type seed struct {
			mouse   domain.Mouse
			cage    string
			genes   map[string]domain.Zygosity
			strains bool
		}
		seeds := []seed{
			{mouse: domain.Mouse{Name: "F1", Sex: domain.SexFemale, PureBreeder: true, PureWildType: true}, cage: "100", strains: true},
			{mouse: domain.Mouse{Name: "M1", Sex: domain.SexMale, PureBreeder: true}, cage: "100", genes: map[string]domain.Zygosity{cre.ID: domain.ZygosityHomozygous}, strains: true},
			{mouse: domain.Mouse{Name: "S1", Sex: domain.SexFemale, PureBreeder: true}, cage: "200", genes: map[string]domain.Zygosity{cre.ID: domain.ZygosityHomozygous}},
			{mouse: domain.Mouse{Name: "S2", Sex: domain.SexMale, PureBreeder: true}, cage: "200", genes: map[string]domain.Zygosity{cre.ID: domain.ZygosityHomozygous}},
			{mouse: domain.Mouse{Name: "P1", Sex: domain.SexMale, UserID: &fx.alice.ID}, cage: "300", genes: map[string]domain.Zygosity{cre.ID: domain.ZygosityHeterozygous, gfp.ID: domain.ZygosityHeterozygous}},
			{mouse: domain.Mouse{Name: "P2", Sex: domain.SexMale}, cage: "300", genes: map[string]domain.Zygosity{gfp.ID: domain.ZygosityHeterozygous}},
			{mouse: domain.Mouse{Name: "X1", Sex: domain.SexMale, SackDate: ptr(day(2024, time.January, 1))}},
		}
		for _, s := range seeds {
			m := s.mouse
			if s.cage != "" {
				id := fx.cages[s.cage].ID
				m.CageID = &id
			}
			created, err := tx.CreateMouse(m)
			if err != nil {
				return err
			}
			fx.mice[m.Name] = created
			for geneID, z := range s.genes {
				if _, err := tx.CreateMouseGene(domain.MouseGene{MouseID: created.ID, GeneID: geneID, Zygosity: z}); err != nil {
					return err
				}
			}
			if s.strains {
				if _, err := tx.CreateMouseStrain(domain.MouseStrain{MouseID: created.ID, StrainID: b6.ID, Weight: 1}); err != nil {
					return err
				}
			}
		}

		breeding := fx.cages["100"]
		if _, err := tx.CreateLitter(domain.Litter{
			Base:      domain.Base{ID: breeding.ID},
			MotherID:  fx.mice["F1"].ID,
			FatherID:  fx.mice["M1"].ID,
			DateMated: ptr(day(2024, time.February, 1)),
			DOB:       ptr(day(2024, time.February, 21)),
		}); err != nil {
			return err
		}
		for _, name := range []string{"100-1", "100-2"} {
			pup, err := tx.CreateMouse(domain.Mouse{Name: name, CageID: &breeding.ID, LitterID: &breeding.ID, PureBreeder: true})
			if err != nil {
				return err
			}
			fx.mice[name] = pup
			if _, err := tx.CreateMouseGene(domain.MouseGene{MouseID: pup.ID, GeneID: cre.ID, Zygosity: domain.ZygosityUnknown}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed colony: %v", err)
	}
	return fx
}

func (fx colonyFixture) view(t *testing.T, fn func(domain.TransactionView)) {
	t.Helper()
	if err := fx.store.View(context.Background(), func(v domain.TransactionView) error {
		fn(v)
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func cageNames(cages []CageAggregate) []string {
	out := make([]string, 0, len(cages))
	for _, c := range cages {
		out = append(out, c.Cage.Name)
	}
	return out
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

func TestCensusFilters(t *testing.T) {
	fx := newColonyFixture(t)
	cases := []struct {
		name   string
		filter CensusFilter
		want   []string
	}{
		{name: "all live cages", want: []string{"100", "200", "300", "400"}},
		{name: "by proprietor", filter: CensusFilter{ProprietorID: fx.alice.ID}, want: []string{"100", "200"}},
		{name: "including responsible mice", filter: CensusFilter{ProprietorID: fx.alice.ID, IncludeByUser: true}, want: []string{"100", "200", "300"}},
		{name: "by location", filter: CensusFilter{Location: domain.Location1710}, want: []string{"100", "400"}},
		{name: "rack spot order", filter: CensusFilter{OrderBy: OrderByRackSpot}, want: []string{"300", "400", "200", "100"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx.view(t, func(v domain.TransactionView) {
				if got := cageNames(Census(v, tc.filter)); !equalStrings(got, tc.want) {
					t.Fatalf("Census() = %v, want %v", got, tc.want)
				}
			})
		})
	}
}

func TestLoadCageResolvesBreedingAggregate(t *testing.T) {
	fx := newColonyFixture(t)
	fx.view(t, func(v domain.TransactionView) {
		cage, err := LoadCageByName(v, "100")
		if err != nil {
			t.Fatalf("LoadCageByName: %v", err)
		}
		if cage.Proprietor == nil || cage.Proprietor.Name != "alice" {
			t.Fatalf("expected proprietor alice, got %+v", cage.Proprietor)
		}
		if !cage.HasLitter() || len(cage.Litter.Pups) != 2 {
			t.Fatalf("expected litter with two pups, got %+v", cage.Litter)
		}
		if got := cage.Type(); got != CageOutcross {
			t.Fatalf("Type() = %q", got)
		}
		if got := FormatGenesets(cage.RelevantGenesets()); got != "Cre" {
			t.Fatalf("genesets = %q", got)
		}
		if _, err := LoadCageByName(v, "missing"); err == nil {
			t.Fatalf("expected not found")
		}
	})
}

func TestGroupByGeneset(t *testing.T) {
	fx := newColonyFixture(t)
	fx.view(t, func(v domain.TransactionView) {
		groups := GroupByGeneset(Census(v, CensusFilter{}))
		got := make([]string, 0, len(groups))
		for _, g := range groups {
			got = append(got, g.Geneset.String()+"="+joinNames(g.Cages))
		}
		want := []string{"Cre=100,200", "Cre x GFP=300", "GFP=300"}
		if !equalStrings(got, want) {
			t.Fatalf("GroupByGeneset() = %v, want %v", got, want)
		}
	})
}

func joinNames(cages []CageAggregate) string {
	out := ""
	for i, name := range cageNames(cages) {
		if i > 0 {
			out += ","
		}
		out += name
	}
	return out
}

func TestSummarize(t *testing.T) {
	fx := newColonyFixture(t)
	fx.view(t, func(v domain.TransactionView) {
		summary := Summarize(v)
		rows := make(map[string]SummaryRow, len(summary.Rows))
		for _, r := range summary.Rows {
			rows[r.Name] = r
		}
		alice := rows["alice"]
		// 100, 200, 500; only 100 is current and occupied
		if alice.Cages != 3 || alice.Mice != 6 || alice.CurrentCages != 1 || alice.CurrentMice != 4 {
			t.Fatalf("alice row = %+v", alice)
		}
		bob := rows["bob"]
		if bob.Cages != 2 || bob.Mice != 2 || bob.CurrentCages != 1 || bob.CurrentMice != 2 {
			t.Fatalf("bob row = %+v", bob)
		}
		if rows[NoCage].Mice != 1 {
			t.Fatalf("no cage row = %+v", rows[NoCage])
		}
		if summary.Totals.Mice != 9 || summary.Totals.Cages != 5 {
			t.Fatalf("totals = %+v", summary.Totals)
		}
		if last := summary.Rows[len(summary.Rows)-1]; last.Name != NoCage {
			t.Fatalf("expected no cage row last, got %q", last.Name)
		}
	})
}
