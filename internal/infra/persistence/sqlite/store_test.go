package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"mousecolony/pkg/domain"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "colony.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if store.Path() != path || store.DB() == nil {
		t.Fatalf("unexpected store handles")
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		cage, err := tx.CreateCage(domain.Cage{Name: "1001", Location: domain.Location1710})
		if err != nil {
			return err
		}
		_, err = tx.CreateMouse(domain.Mouse{Name: "1001-1", Sex: domain.SexFemale, CageID: &cage.ID})
		return err
	})
	if err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	mice := reopened.ListMice()
	if len(mice) != 1 || mice[0].Name != "1001-1" || mice[0].Sex != domain.SexFemale {
		t.Fatalf("expected mouse to survive reopen, got %+v", mice)
	}
	if len(reopened.ListCages()) != 1 {
		t.Fatalf("expected cage to survive reopen")
	}
}

func TestFailedTransactionIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateGene(domain.Gene{Name: "Cre"}); err != nil {
			return err
		}
		_, err := tx.CreateGene(domain.Gene{Name: "Cre"})
		return err
	})
	if err == nil {
		t.Fatalf("expected duplicate gene error")
	}
	_ = store.Close()

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	_ = reopened.View(context.Background(), func(v domain.TransactionView) error {
		if len(v.ListGenes()) != 0 {
			t.Fatalf("expected no genes after failed transaction")
		}
		return nil
	})
}
