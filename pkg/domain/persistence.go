package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePerson(Person) (Person, error)
	UpdatePerson(id string, mutator func(*Person) error) (Person, error)
	CreateCage(Cage) (Cage, error)
	UpdateCage(id string, mutator func(*Cage) error) (Cage, error)
	CreateMouse(Mouse) (Mouse, error)
	UpdateMouse(id string, mutator func(*Mouse) error) (Mouse, error)
	DeleteMouse(id string) error
	CreateLitter(Litter) (Litter, error)
	UpdateLitter(id string, mutator func(*Litter) error) (Litter, error)
	CreateGene(Gene) (Gene, error)
	CreateStrain(Strain) (Strain, error)
	CreateMouseGene(MouseGene) (MouseGene, error)
	UpdateMouseGene(id string, mutator func(*MouseGene) error) (MouseGene, error)
	CreateMouseStrain(MouseStrain) (MouseStrain, error)
	CreateSpecialRequest(SpecialRequest) (SpecialRequest, error)
	UpdateSpecialRequest(id string, mutator func(*SpecialRequest) error) (SpecialRequest, error)
	FindMouseByName(name string) (Mouse, bool)
	FindCageByName(name string) (Cage, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// aggregate loading.
type TransactionView interface {
	ListPeople() []Person
	ListCages() []Cage
	ListMice() []Mouse
	ListLitters() []Litter
	ListGenes() []Gene
	ListStrains() []Strain
	ListSpecialRequests(cageID string) []SpecialRequest
	FindPerson(id string) (Person, bool)
	FindCage(id string) (Cage, bool)
	FindCageByName(name string) (Cage, bool)
	FindMouse(id string) (Mouse, bool)
	FindMouseByName(name string) (Mouse, bool)
	FindLitter(id string) (Litter, bool)
	FindGene(id string) (Gene, bool)
	FindStrain(id string) (Strain, bool)
	ListMouseGenes(mouseID string) []MouseGene
	ListMouseStrains(mouseID string) []MouseStrain
	// ListCageResidents returns the mice housed in the cage ordered by name.
	ListCageResidents(cageID string) []Mouse
	// ListLitterPups returns the mice born into the litter ordered by name.
	ListLitterPups(litterID string) []Mouse
	// ListMothersLitters returns the mother's litters, newest birth date first.
	// Litters without a birth date sort last.
	ListMothersLitters(motherID string) []Litter
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetMouse(id string) (Mouse, bool)
	ListMice() []Mouse
	GetCage(id string) (Cage, bool)
	ListCages() []Cage
	ListLitters() []Litter
	ListPeople() []Person
}
