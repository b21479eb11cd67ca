package core

import (
	"context"
	"fmt"

	"mousecolony/pkg/domain"
)

// NewLitterParentsExistRule returns the rule requiring both litter parents to
// reference stored mice.
func NewLitterParentsExistRule() domain.Rule {
	return litterParentsExistRule{}
}

type litterParentsExistRule struct{}

func (litterParentsExistRule) Name() string { return "litter_parents_exist" }

func (r litterParentsExistRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, litter := range view.ListLitters() {
		for _, parent := range []struct{ role, id string }{{"father", litter.FatherID}, {"mother", litter.MotherID}} {
			if _, ok := view.FindMouse(parent.id); ok {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("litter %s references missing %s %q", litter.ID, parent.role, parent.id),
				Entity:   domain.EntityLitter,
				EntityID: litter.ID,
			})
		}
	}
	return res, nil
}

// NewLitterParentSexRule returns the rule requiring a male father and a female mother.
func NewLitterParentSexRule() domain.Rule {
	return litterParentSexRule{}
}

type litterParentSexRule struct{}

func (litterParentSexRule) Name() string { return "litter_parent_sex" }

func (r litterParentSexRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	check := func(litter domain.Litter, id string, want domain.Sex, role string) {
		m, ok := view.FindMouse(id)
		if !ok || m.Sex == want {
			return
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s %s of litter %s has sex %q, want %q", role, m.Name, litter.ID, m.Sex, want),
			Entity:   domain.EntityLitter,
			EntityID: litter.ID,
		})
	}
	for _, litter := range view.ListLitters() {
		check(litter, litter.FatherID, domain.SexMale, "father")
		check(litter, litter.MotherID, domain.SexFemale, "mother")
	}
	return res, nil
}
