// Package memory provides an in-memory implementation of the colony
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"mousecolony/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	people       map[string]domain.Person
	cages        map[string]domain.Cage
	mice         map[string]domain.Mouse
	litters      map[string]domain.Litter
	genes        map[string]domain.Gene
	strains      map[string]domain.Strain
	mouseGenes   map[string]domain.MouseGene
	mouseStrains map[string]domain.MouseStrain
	requests     map[string]domain.SpecialRequest
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	People          map[string]domain.Person         `json:"people"`
	Cages           map[string]domain.Cage           `json:"cages"`
	Mice            map[string]domain.Mouse          `json:"mice"`
	Litters         map[string]domain.Litter         `json:"litters"`
	Genes           map[string]domain.Gene           `json:"genes"`
	Strains         map[string]domain.Strain         `json:"strains"`
	MouseGenes      map[string]domain.MouseGene      `json:"mouse_genes"`
	MouseStrains    map[string]domain.MouseStrain    `json:"mouse_strains"`
	SpecialRequests map[string]domain.SpecialRequest `json:"special_requests"`
}

func newMemoryState() memoryState {
	return memoryState{
		people:       make(map[string]domain.Person),
		cages:        make(map[string]domain.Cage),
		mice:         make(map[string]domain.Mouse),
		litters:      make(map[string]domain.Litter),
		genes:        make(map[string]domain.Gene),
		strains:      make(map[string]domain.Strain),
		mouseGenes:   make(map[string]domain.MouseGene),
		mouseStrains: make(map[string]domain.MouseStrain),
		requests:     make(map[string]domain.SpecialRequest),
	}
}

func copyMap[T any](dst, src map[string]T, clone func(T) T) {
	for k, v := range src {
		dst[k] = clone(v)
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		People:          make(map[string]domain.Person, len(state.people)),
		Cages:           make(map[string]domain.Cage, len(state.cages)),
		Mice:            make(map[string]domain.Mouse, len(state.mice)),
		Litters:         make(map[string]domain.Litter, len(state.litters)),
		Genes:           make(map[string]domain.Gene, len(state.genes)),
		Strains:         make(map[string]domain.Strain, len(state.strains)),
		MouseGenes:      make(map[string]domain.MouseGene, len(state.mouseGenes)),
		MouseStrains:    make(map[string]domain.MouseStrain, len(state.mouseStrains)),
		SpecialRequests: make(map[string]domain.SpecialRequest, len(state.requests)),
	}
	copyMap(s.People, state.people, clonePerson)
	copyMap(s.Cages, state.cages, cloneCage)
	copyMap(s.Mice, state.mice, cloneMouse)
	copyMap(s.Litters, state.litters, cloneLitter)
	copyMap(s.Genes, state.genes, cloneGene)
	copyMap(s.Strains, state.strains, cloneStrain)
	copyMap(s.MouseGenes, state.mouseGenes, cloneMouseGene)
	copyMap(s.MouseStrains, state.mouseStrains, cloneMouseStrain)
	copyMap(s.SpecialRequests, state.requests, cloneSpecialRequest)
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	copyMap(state.people, s.People, clonePerson)
	copyMap(state.cages, s.Cages, cloneCage)
	copyMap(state.mice, s.Mice, cloneMouse)
	copyMap(state.litters, s.Litters, cloneLitter)
	copyMap(state.genes, s.Genes, cloneGene)
	copyMap(state.strains, s.Strains, cloneStrain)
	copyMap(state.mouseGenes, s.MouseGenes, cloneMouseGene)
	copyMap(state.mouseStrains, s.MouseStrains, cloneMouseStrain)
	copyMap(state.requests, s.SpecialRequests, cloneSpecialRequest)
	return state
}

// migrateSnapshot normalizes snapshots written by older releases: unset sexes
// become unknown, pure wild-type mice are pure breeders, strain weights are at
// least one and association records pointing at missing mice are dropped.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	for id, m := range snapshot.Mice {
		if m.Sex == "" {
			m.Sex = domain.SexUnknown
		}
		if m.PureWildType {
			m.PureBreeder = true
		}
		snapshot.Mice[id] = m
	}
	for id, ms := range snapshot.MouseStrains {
		if _, ok := snapshot.Mice[ms.MouseID]; !ok {
			delete(snapshot.MouseStrains, id)
			continue
		}
		if ms.Weight < 1 {
			ms.Weight = 1
			snapshot.MouseStrains[id] = ms
		}
	}
	for id, mg := range snapshot.MouseGenes {
		if _, ok := snapshot.Mice[mg.MouseID]; !ok {
			delete(snapshot.MouseGenes, id)
			continue
		}
		if mg.Zygosity == "" {
			mg.Zygosity = domain.ZygosityUnknown
			snapshot.MouseGenes[id] = mg
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	return memoryStateFromSnapshot(snapshotFromMemoryState(s))
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePerson(p domain.Person) domain.Person { return p }
func cloneGene(g domain.Gene) domain.Gene       { return g }
func cloneStrain(s domain.Strain) domain.Strain { return s }
func cloneMouseGene(mg domain.MouseGene) domain.MouseGene {
	return mg
}
func cloneMouseStrain(ms domain.MouseStrain) domain.MouseStrain {
	return ms
}

func cloneCage(c domain.Cage) domain.Cage {
	c.ProprietorID = cloneString(c.ProprietorID)
	c.RackSpot = cloneString(c.RackSpot)
	return c
}

func cloneMouse(m domain.Mouse) domain.Mouse {
	m.CageID = cloneString(m.CageID)
	m.LitterID = cloneString(m.LitterID)
	m.SackDate = cloneTime(m.SackDate)
	m.UserID = cloneString(m.UserID)
	m.ManualDOB = cloneTime(m.ManualDOB)
	m.ManualMother = cloneString(m.ManualMother)
	m.ManualFather = cloneString(m.ManualFather)
	return m
}

func cloneLitter(l domain.Litter) domain.Litter {
	l.ProprietorID = cloneString(l.ProprietorID)
	l.DateMated = cloneTime(l.DateMated)
	l.DOB = cloneTime(l.DOB)
	l.DateToeClipped = cloneTime(l.DateToeClipped)
	l.DateWeaned = cloneTime(l.DateWeaned)
	l.DateChecked = cloneTime(l.DateChecked)
	l.DateGenotyped = cloneTime(l.DateGenotyped)
	return l
}

func cloneSpecialRequest(r domain.SpecialRequest) domain.SpecialRequest {
	r.RequesterID = cloneString(r.RequesterID)
	r.RequesteeID = cloneString(r.RequesteeID)
	r.DateRequested = cloneTime(r.DateRequested)
	r.DateCompleted = cloneTime(r.DateCompleted)
	return r
}

// Store provides an in-memory transactional store for the colony domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn succeeds and no blocking
// rule violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

// Read helpers ---------------------------------------------------------------

// GetMouse retrieves a mouse by ID from committed state.
func (s *Store) GetMouse(id string) (domain.Mouse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.mice[id]
	if !ok {
		return domain.Mouse{}, false
	}
	return cloneMouse(m), true
}

// ListMice returns all mice ordered by name.
func (s *Store) ListMice() []domain.Mouse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListMice()
}

// GetCage retrieves a cage by ID from committed state.
func (s *Store) GetCage(id string) (domain.Cage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.cages[id]
	if !ok {
		return domain.Cage{}, false
	}
	return cloneCage(c), true
}

// ListCages returns all cages ordered by name.
func (s *Store) ListCages() []domain.Cage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListCages()
}

// ListLitters returns all litters ordered by id.
func (s *Store) ListLitters() []domain.Litter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListLitters()
}

// ListPeople returns all people ordered by name.
func (s *Store) ListPeople() []domain.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).ListPeople()
}

// SnapshotBuckets names the persisted buckets of a snapshot in write order.
var SnapshotBuckets = []string{
	"people", "cages", "mice", "litters", "genes", "strains",
	"mouse_genes", "mouse_strains", "special_requests",
}

// Bucket returns a pointer to the snapshot map stored under the bucket name,
// suitable for json.Marshal and json.Unmarshal.
func (s *Snapshot) Bucket(name string) (any, bool) {
	switch name {
	case "people":
		return &s.People, true
	case "cages":
		return &s.Cages, true
	case "mice":
		return &s.Mice, true
	case "litters":
		return &s.Litters, true
	case "genes":
		return &s.Genes, true
	case "strains":
		return &s.Strains, true
	case "mouse_genes":
		return &s.MouseGenes, true
	case "mouse_strains":
		return &s.MouseStrains, true
	case "special_requests":
		return &s.SpecialRequests, true
	}
	return nil, false
}
