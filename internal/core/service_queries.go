package core

import (
	"context"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/internal/husbandry"
)

// CageStatus is the status card of one cage.
type CageStatus struct {
	Cage      colony.CageAggregate
	Type      colony.CageType
	Genesets  []colony.Geneset
	Genotypes string
	Needs     []husbandry.NeedMessage
	Residents []string
	// Litter is the litter summary, e.g. "6@P12", or empty without a litter.
	Litter         string
	TargetGenotype string
}

// CageStatus loads a cage by name and derives its classification, gene sets,
// needs and resident listing.
func (s *Service) CageStatus(ctx context.Context, name string, today time.Time) (CageStatus, error) {
	var out CageStatus
	err := s.view(ctx, "cage_status", func(view TransactionView) error {
		cage, err := colony.LoadCageByName(view, name)
		if err != nil {
			return err
		}
		out = s.status(cage, today)
		return nil
	})
	return out, err
}

func (s *Service) status(cage colony.CageAggregate, today time.Time) CageStatus {
	sets := cage.RelevantGenesets()
	st := CageStatus{
		Cage:      cage,
		Type:      cage.Type(),
		Genesets:  sets,
		Genotypes: colony.FormatGenesets(sets),
		Needs:     s.policy.CageNeeds(cage, today),
		Residents: cage.ResidentInfos(today),
	}
	if cage.Litter != nil {
		st.Litter = husbandry.LitterInfo(*cage.Litter, today)
		st.TargetGenotype = cage.Litter.TargetGenotype()
	}
	return st
}

// Census lists the live cages matching the filter.
func (s *Service) Census(ctx context.Context, filter colony.CensusFilter) ([]colony.CageAggregate, error) {
	var out []colony.CageAggregate
	err := s.view(ctx, "census", func(view TransactionView) error {
		out = colony.Census(view, filter)
		return nil
	})
	return out, err
}

// CensusByGenotype groups the live cages matching the filter by gene set.
func (s *Service) CensusByGenotype(ctx context.Context, filter colony.CensusFilter) ([]colony.GenesetGroup, error) {
	var out []colony.GenesetGroup
	err := s.view(ctx, "census_by_genotype", func(view TransactionView) error {
		out = colony.GroupByGeneset(colony.Census(view, filter))
		return nil
	})
	return out, err
}

// CurrentLitters lists the born, unweaned litters with their weaning window.
func (s *Service) CurrentLitters(ctx context.Context) ([]husbandry.CurrentLitter, error) {
	var out []husbandry.CurrentLitter
	err := s.view(ctx, "current_litters", func(view TransactionView) error {
		out = husbandry.CurrentLitters(view)
		return nil
	})
	return out, err
}

// Summary counts cages and mice per person.
func (s *Service) Summary(ctx context.Context) (colony.Summary, error) {
	var out colony.Summary
	err := s.view(ctx, "summary", func(view TransactionView) error {
		out = colony.Summarize(view)
		return nil
	})
	return out, err
}

// CageNeeds are the pending needs of one cage.
type CageNeeds struct {
	CageName   string
	Proprietor string
	Messages   []husbandry.NeedMessage
}

// Needs returns every live cage matching the filter that has at least one
// need, in census order.
func (s *Service) Needs(ctx context.Context, filter colony.CensusFilter, today time.Time) ([]CageNeeds, error) {
	var out []CageNeeds
	err := s.view(ctx, "needs", func(view TransactionView) error {
		for _, cage := range colony.Census(view, filter) {
			msgs := s.policy.CageNeeds(cage, today)
			if len(msgs) == 0 {
				continue
			}
			row := CageNeeds{CageName: cage.Cage.Name, Messages: msgs}
			if cage.Proprietor != nil {
				row.Proprietor = cage.Proprietor.Name
			}
			out = append(out, row)
		}
		return nil
	})
	return out, err
}
