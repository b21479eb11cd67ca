package core

import (
	"context"
	"fmt"

	"mousecolony/pkg/domain"
)

// CreatePerson persists a new colony member.
func (s *Service) CreatePerson(ctx context.Context, person Person) (Person, Result, error) {
	var created Person
	res, err := s.run(ctx, "create_person", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreatePerson(person)
		return created.ID, err
	})
	return created, res, err
}

// UpdatePerson mutates a person using the provided mutator.
func (s *Service) UpdatePerson(ctx context.Context, id string, mutator func(*Person) error) (Person, Result, error) {
	var updated Person
	res, err := s.run(ctx, "update_person", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdatePerson(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeactivatePerson marks a person inactive. People are never deleted.
func (s *Service) DeactivatePerson(ctx context.Context, id string) (Person, Result, error) {
	var updated Person
	res, err := s.run(ctx, "deactivate_person", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdatePerson(id, func(p *Person) error {
			p.Active = false
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// CreateGene adds a gene to the catalog.
func (s *Service) CreateGene(ctx context.Context, gene Gene) (Gene, Result, error) {
	var created Gene
	res, err := s.run(ctx, "create_gene", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateGene(gene)
		return created.ID, err
	})
	return created, res, err
}

// CreateStrain adds a strain to the catalog.
func (s *Service) CreateStrain(ctx context.Context, strain Strain) (Strain, Result, error) {
	var created Strain
	res, err := s.run(ctx, "create_strain", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateStrain(strain)
		return created.ID, err
	})
	return created, res, err
}

// CreateCage persists a new cage.
func (s *Service) CreateCage(ctx context.Context, cage Cage) (Cage, Result, error) {
	var created Cage
	res, err := s.run(ctx, "create_cage", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateCage(cage)
		return created.ID, err
	})
	return created, res, err
}

// UpdateCage mutates a cage.
func (s *Service) UpdateCage(ctx context.Context, id string, mutator func(*Cage) error) (Cage, Result, error) {
	var updated Cage
	res, err := s.run(ctx, "update_cage", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateCage(id, mutator)
		return id, err
	})
	return updated, res, err
}

// CreateMouse persists a new mouse, typically a purchased founder.
func (s *Service) CreateMouse(ctx context.Context, mouse Mouse) (Mouse, Result, error) {
	var created Mouse
	res, err := s.run(ctx, "create_mouse", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateMouse(mouse)
		return created.ID, err
	})
	return created, res, err
}

// UpdateMouse mutates a mouse.
func (s *Service) UpdateMouse(ctx context.Context, id string, mutator func(*Mouse) error) (Mouse, Result, error) {
	var updated Mouse
	res, err := s.run(ctx, "update_mouse", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateMouse(id, mutator)
		return id, err
	})
	return updated, res, err
}

// DeleteMouse removes a mouse and its association records.
func (s *Service) DeleteMouse(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_mouse", func(tx Transaction) (string, error) {
		return id, tx.DeleteMouse(id)
	})
}

// SetMouseGene records the zygosity of a gene in a mouse, creating the
// association when it does not exist yet.
func (s *Service) SetMouseGene(ctx context.Context, mouseID, geneID string, zygosity domain.Zygosity) (MouseGene, Result, error) {
	var out MouseGene
	res, err := s.run(ctx, "set_mouse_gene", func(tx Transaction) (string, error) {
		var err error
		out, err = setZygosity(tx, mouseID, geneID, zygosity)
		return mouseID, err
	})
	return out, res, err
}

func setZygosity(tx Transaction, mouseID, geneID string, zygosity domain.Zygosity) (MouseGene, error) {
	for _, mg := range tx.Snapshot().ListMouseGenes(mouseID) {
		if mg.GeneID != geneID {
			continue
		}
		return tx.UpdateMouseGene(mg.ID, func(current *MouseGene) error {
			current.Zygosity = zygosity
			return nil
		})
	}
	return tx.CreateMouseGene(MouseGene{MouseID: mouseID, GeneID: geneID, Zygosity: zygosity})
}

// AddMouseStrain records a strain contribution for a mouse.
func (s *Service) AddMouseStrain(ctx context.Context, mouseID, strainID string, weight int) (MouseStrain, Result, error) {
	var created MouseStrain
	res, err := s.run(ctx, "add_mouse_strain", func(tx Transaction) (string, error) {
		for _, ms := range tx.Snapshot().ListMouseStrains(mouseID) {
			if ms.StrainID == strainID {
				return mouseID, fmt.Errorf("mouse %s already carries strain %s", mouseID, strainID)
			}
		}
		var err error
		created, err = tx.CreateMouseStrain(MouseStrain{MouseID: mouseID, StrainID: strainID, Weight: weight})
		return mouseID, err
	})
	return created, res, err
}

// UpdateLitter mutates the dates and notes of a litter.
func (s *Service) UpdateLitter(ctx context.Context, id string, mutator func(*Litter) error) (Litter, Result, error) {
	var updated Litter
	res, err := s.run(ctx, "update_litter", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateLitter(id, mutator)
		return id, err
	})
	return updated, res, err
}
