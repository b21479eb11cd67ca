package husbandry

import (
	"strings"
	"testing"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/pkg/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestPupCheckActiveButNotUrgent(t *testing.T) {
	mated := day(2024, time.March, 1)
	litter := domain.Litter{DateMated: ptr(mated)}
	today := mated.AddDate(0, 0, 22)

	msgs := DefaultPolicy().AutoNeeds(litter, today)
	if len(msgs) != 1 {
		t.Fatalf("expected a single need, got %+v", msgs)
	}
	want := "pup check on " + mated.AddDate(0, 0, 25).Format("01/02")
	if msgs[0].Text != want {
		t.Fatalf("message = %q, want %q", msgs[0].Text, want)
	}
	if msgs[0].Style != StyleNormal {
		t.Fatalf("pup check must not be urgent before the warn date")
	}
	if text := (TextFormatter{}).Format(msgs); strings.HasPrefix(text, "!") {
		t.Fatalf("unexpected emphasis in %q", text)
	}
}

func TestPupCheckOverdueIsUrgent(t *testing.T) {
	mated := day(2024, time.March, 1)
	litter := domain.Litter{DateMated: ptr(mated)}
	msgs := DefaultPolicy().AutoNeeds(litter, mated.AddDate(0, 0, 40))
	if len(msgs) != 1 || msgs[0].Style != StyleUrgent {
		t.Fatalf("expected one urgent message, got %+v", msgs)
	}
	if text := (TextFormatter{}).Format(msgs); text != "! pup check on 03/26" {
		t.Fatalf("text = %q", text)
	}
}

func TestNeedsPreconditions(t *testing.T) {
	p := DefaultPolicy()
	today := day(2024, time.May, 10)
	born := day(2024, time.May, 1)

	cases := []struct {
		name   string
		litter domain.Litter
		want   []Task
	}{
		{name: "nothing recorded", litter: domain.Litter{}, want: []Task{TaskDateMated}},
		{name: "mated only", litter: domain.Litter{DateMated: ptr(day(2024, time.April, 1))}, want: []Task{TaskPupCheck}},
		{name: "born", litter: domain.Litter{DOB: ptr(born)}, want: []Task{TaskToeClip, TaskWean}},
		{name: "toe clipped", litter: domain.Litter{DOB: ptr(born), DateToeClipped: ptr(today)}, want: []Task{TaskWean}},
		{name: "weaned", litter: domain.Litter{DOB: ptr(born), DateToeClipped: ptr(today), DateWeaned: ptr(today)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Needs(tc.litter, today)
			if len(got) != len(tc.want) {
				t.Fatalf("got %+v, want tasks %v", got, tc.want)
			}
			for i := range got {
				if got[i].Task != tc.want[i] {
					t.Fatalf("task %d = %s, want %s", i, got[i].Task, tc.want[i])
				}
			}
		})
	}
}

func TestGenotypeNeedIsOptional(t *testing.T) {
	born := day(2024, time.May, 1)
	litter := domain.Litter{DOB: ptr(born)}
	p := DefaultPolicy()
	for _, n := range p.Needs(litter, born) {
		if n.Task == TaskGenotype {
			t.Fatalf("genotype need must be disabled by default")
		}
	}
	p.IncludeGenotype = true
	found := false
	for _, n := range p.Needs(litter, born) {
		if n.Task == TaskGenotype {
			found = true
			if !n.Target.Equal(born.AddDate(0, 0, 17)) {
				t.Fatalf("genotype target = %v", n.Target)
			}
		}
	}
	if !found {
		t.Fatalf("expected genotype need when enabled")
	}
}

func TestAutoNeedsOrderingAndTriggers(t *testing.T) {
	born := day(2024, time.June, 1)
	litter := domain.Litter{DateMated: ptr(day(2024, time.May, 10)), DOB: ptr(born)}
	p := DefaultPolicy()

	early := p.AutoNeeds(litter, born.AddDate(0, 0, 3))
	if len(early) != 1 || !strings.HasPrefix(early[0].Text, "toe clip on 06/08") {
		t.Fatalf("expected only toe clip before wean trigger, got %+v", early)
	}

	late := p.AutoNeeds(litter, born.AddDate(0, 0, 22))
	if len(late) != 2 {
		t.Fatalf("expected toe clip and wean, got %+v", late)
	}
	if late[0].Style != StyleUrgent || !strings.HasPrefix(late[0].Text, "toe clip") {
		t.Fatalf("toe clip should be first and urgent: %+v", late[0])
	}
	if late[1].Text != "wean on 06/22" || late[1].Style != StyleUrgent {
		t.Fatalf("wean message = %+v", late[1])
	}
}

func TestDateMatedNeedIsImmediate(t *testing.T) {
	today := day(2024, time.July, 4)
	msgs := DefaultPolicy().AutoNeeds(domain.Litter{}, today)
	if len(msgs) != 1 || msgs[0].Text != "specify date mated on 07/04" || msgs[0].Style != StyleNormal {
		t.Fatalf("unexpected messages %+v", msgs)
	}
}

func TestCageNeedsJoinsRequestsAndLitterNeeds(t *testing.T) {
	alice := "p-alice"
	cage := colony.CageAggregate{
		Cage: domain.Cage{Base: domain.Base{ID: "c1"}, Name: "1001"},
		SpecialRequests: []domain.SpecialRequest{
			{CageID: "c1", Message: "add food", RequesteeID: &alice},
			{CageID: "c1", Message: "check water", RequesteeID: &alice, DateCompleted: ptr(day(2024, time.July, 1))},
		},
		People: map[string]domain.Person{alice: {Base: domain.Base{ID: alice}, Name: "alice"}},
		Litter: &colony.LitterAggregate{Litter: domain.Litter{Base: domain.Base{ID: "c1"}}},
	}
	msgs := DefaultPolicy().CageNeeds(cage, day(2024, time.July, 4))
	got := (TextFormatter{}).Format(msgs)
	want := "! alice: add food\n  alice: check water (done)\n  specify date mated on 07/04"
	if got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	p := DefaultPolicy()
	p.Wean = Window{Trigger: 21, Target: 19, Warn: 22}
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for inverted wean window")
	}
}
