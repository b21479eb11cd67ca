package core

import (
	"context"
	"fmt"

	"mousecolony/pkg/domain"
)

// NewPureWildTypeRule returns the rule requiring every pure wild-type mouse to
// also be flagged as a pure breeder.
func NewPureWildTypeRule() domain.Rule {
	return pureWildTypeRule{}
}

type pureWildTypeRule struct{}

func (pureWildTypeRule) Name() string { return "pure_wild_type_implies_pure_breeder" }

func (r pureWildTypeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, m := range view.ListMice() {
		if m.PureWildType && !m.PureBreeder {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("mouse %s is pure wild type but not a pure breeder", m.Name),
				Entity:   domain.EntityMouse,
				EntityID: m.ID,
			})
		}
	}
	return res, nil
}

// NewStrainWeightRule returns the rule requiring strain weights of at least one.
func NewStrainWeightRule() domain.Rule {
	return strainWeightRule{}
}

type strainWeightRule struct{}

func (strainWeightRule) Name() string { return "strain_weight_positive" }

// Evaluate only inspects the strain records touched by the transaction.
func (r strainWeightRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityMouseStrain || change.Action == domain.ActionDelete {
			continue
		}
		ms, ok := change.After.(domain.MouseStrain)
		if !ok || ms.Weight >= 1 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     r.Name(),
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("mouse %s has strain weight %d", ms.MouseID, ms.Weight),
			Entity:   domain.EntityMouseStrain,
			EntityID: ms.ID,
		})
	}
	return res, nil
}
