package core

import (
	"context"
	"strings"

	"mousecolony/pkg/domain"
)

// FindCageByName resolves a cage by its unique name.
func (s *Service) FindCageByName(ctx context.Context, name string) (Cage, error) {
	var out Cage
	err := s.view(ctx, "find_cage", func(view TransactionView) error {
		c, ok := view.FindCageByName(name)
		if !ok {
			return domain.ErrNotFound{Entity: EntityCage, Key: name}
		}
		out = c
		return nil
	})
	return out, err
}

// FindMouseByName resolves a mouse by its unique name.
func (s *Service) FindMouseByName(ctx context.Context, name string) (Mouse, error) {
	var out Mouse
	err := s.view(ctx, "find_mouse", func(view TransactionView) error {
		m, ok := view.FindMouseByName(name)
		if !ok {
			return domain.ErrNotFound{Entity: EntityMouse, Key: name}
		}
		out = m
		return nil
	})
	return out, err
}

// FindPersonByName resolves a person by name, ignoring case.
func (s *Service) FindPersonByName(ctx context.Context, name string) (Person, error) {
	var out Person
	err := s.view(ctx, "find_person", func(view TransactionView) error {
		for _, p := range view.ListPeople() {
			if strings.EqualFold(p.Name, name) {
				out = p
				return nil
			}
		}
		return domain.ErrNotFound{Entity: EntityPerson, Key: name}
	})
	return out, err
}

// FindGeneByName resolves a gene by name, ignoring case.
func (s *Service) FindGeneByName(ctx context.Context, name string) (Gene, error) {
	var out Gene
	err := s.view(ctx, "find_gene", func(view TransactionView) error {
		for _, g := range view.ListGenes() {
			if strings.EqualFold(g.Name, name) {
				out = g
				return nil
			}
		}
		return domain.ErrNotFound{Entity: EntityGene, Key: name}
	})
	return out, err
}
