package memory

import (
	"fmt"
	"strings"
	"time"

	"mousecolony/pkg/domain"
)

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindMouseByName(name string) (domain.Mouse, bool) {
	return findMouseByName(&tx.state, name)
}

func (tx *transaction) FindCageByName(name string) (domain.Cage, bool) {
	return findCageByName(&tx.state, name)
}

func (tx *transaction) assignID(id string) string {
	if id == "" {
		return tx.store.newID()
	}
	return id
}

func requireName(entity domain.EntityType, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is required", entity)
	}
	return nil
}

func nameTaken[T any](items map[string]T, name, exceptID string, key func(T) (string, string)) bool {
	for _, item := range items {
		id, n := key(item)
		if n == name && id != exceptID {
			return true
		}
	}
	return false
}

func (tx *transaction) checkPerson(id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := tx.state.people[*id]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityPerson, Key: *id}
	}
	return nil
}

func (tx *transaction) checkCage(id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := tx.state.cages[*id]; !ok {
		return domain.ErrNotFound{Entity: domain.EntityCage, Key: *id}
	}
	return nil
}

// People ---------------------------------------------------------------------

func personKey(p domain.Person) (string, string) { return p.ID, p.Name }

// CreatePerson stores a new colony member.
func (tx *transaction) CreatePerson(p domain.Person) (domain.Person, error) {
	if err := requireName(domain.EntityPerson, p.Name); err != nil {
		return domain.Person{}, err
	}
	p.ID = tx.assignID(p.ID)
	if _, exists := tx.state.people[p.ID]; exists {
		return domain.Person{}, fmt.Errorf("person %q already exists", p.ID)
	}
	if nameTaken(tx.state.people, p.Name, "", personKey) {
		return domain.Person{}, domain.ErrDuplicateName{Entity: domain.EntityPerson, Name: p.Name}
	}
	p.CreatedAt, p.UpdatedAt = tx.now, tx.now
	tx.state.people[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionCreate, After: p})
	return p, nil
}

// UpdatePerson mutates a colony member.
func (tx *transaction) UpdatePerson(id string, mutator func(*domain.Person) error) (domain.Person, error) {
	current, ok := tx.state.people[id]
	if !ok {
		return domain.Person{}, domain.ErrNotFound{Entity: domain.EntityPerson, Key: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.Person{}, err
	}
	if err := requireName(domain.EntityPerson, current.Name); err != nil {
		return domain.Person{}, err
	}
	if nameTaken(tx.state.people, current.Name, id, personKey) {
		return domain.Person{}, domain.ErrDuplicateName{Entity: domain.EntityPerson, Name: current.Name}
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.people[id] = current
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// Cages ----------------------------------------------------------------------

func cageKey(c domain.Cage) (string, string) { return c.ID, c.Name }

func (tx *transaction) validateCage(c domain.Cage) error {
	if err := requireName(domain.EntityCage, c.Name); err != nil {
		return err
	}
	if nameTaken(tx.state.cages, c.Name, c.ID, cageKey) {
		return domain.ErrDuplicateName{Entity: domain.EntityCage, Name: c.Name}
	}
	return tx.checkPerson(c.ProprietorID)
}

// CreateCage stores a new cage.
func (tx *transaction) CreateCage(c domain.Cage) (domain.Cage, error) {
	c.ID = tx.assignID(c.ID)
	if _, exists := tx.state.cages[c.ID]; exists {
		return domain.Cage{}, fmt.Errorf("cage %q already exists", c.ID)
	}
	if err := tx.validateCage(c); err != nil {
		return domain.Cage{}, err
	}
	c.CreatedAt, c.UpdatedAt = tx.now, tx.now
	tx.state.cages[c.ID] = cloneCage(c)
	tx.recordChange(Change{Entity: domain.EntityCage, Action: domain.ActionCreate, After: cloneCage(c)})
	return cloneCage(c), nil
}

// UpdateCage mutates an existing cage.
func (tx *transaction) UpdateCage(id string, mutator func(*domain.Cage) error) (domain.Cage, error) {
	current, ok := tx.state.cages[id]
	if !ok {
		return domain.Cage{}, domain.ErrNotFound{Entity: domain.EntityCage, Key: id}
	}
	before := cloneCage(current)
	if err := mutator(&current); err != nil {
		return domain.Cage{}, err
	}
	current.ID = id
	if err := tx.validateCage(current); err != nil {
		return domain.Cage{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.cages[id] = cloneCage(current)
	tx.recordChange(Change{Entity: domain.EntityCage, Action: domain.ActionUpdate, Before: before, After: cloneCage(current)})
	return cloneCage(current), nil
}

// Mice -----------------------------------------------------------------------

func mouseKey(m domain.Mouse) (string, string) { return m.ID, m.Name }

func (tx *transaction) validateMouse(m domain.Mouse) error {
	if err := requireName(domain.EntityMouse, m.Name); err != nil {
		return err
	}
	if !m.Sex.Valid() {
		return fmt.Errorf("mouse %q has invalid sex %q", m.Name, m.Sex)
	}
	if nameTaken(tx.state.mice, m.Name, m.ID, mouseKey) {
		return domain.ErrDuplicateName{Entity: domain.EntityMouse, Name: m.Name}
	}
	if err := tx.checkCage(m.CageID); err != nil {
		return err
	}
	if err := tx.checkPerson(m.UserID); err != nil {
		return err
	}
	if m.LitterID != nil {
		if _, ok := tx.state.litters[*m.LitterID]; !ok {
			return domain.ErrNotFound{Entity: domain.EntityLitter, Key: *m.LitterID}
		}
	}
	return nil
}

// CreateMouse stores a new mouse. An empty sex defaults to unknown.
func (tx *transaction) CreateMouse(m domain.Mouse) (domain.Mouse, error) {
	m.ID = tx.assignID(m.ID)
	if m.Sex == "" {
		m.Sex = domain.SexUnknown
	}
	if _, exists := tx.state.mice[m.ID]; exists {
		return domain.Mouse{}, fmt.Errorf("mouse %q already exists", m.ID)
	}
	if err := tx.validateMouse(m); err != nil {
		return domain.Mouse{}, err
	}
	m.CreatedAt, m.UpdatedAt = tx.now, tx.now
	tx.state.mice[m.ID] = cloneMouse(m)
	tx.recordChange(Change{Entity: domain.EntityMouse, Action: domain.ActionCreate, After: cloneMouse(m)})
	return cloneMouse(m), nil
}

// UpdateMouse mutates an existing mouse.
func (tx *transaction) UpdateMouse(id string, mutator func(*domain.Mouse) error) (domain.Mouse, error) {
	current, ok := tx.state.mice[id]
	if !ok {
		return domain.Mouse{}, domain.ErrNotFound{Entity: domain.EntityMouse, Key: id}
	}
	before := cloneMouse(current)
	if err := mutator(&current); err != nil {
		return domain.Mouse{}, err
	}
	current.ID = id
	if err := tx.validateMouse(current); err != nil {
		return domain.Mouse{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.mice[id] = cloneMouse(current)
	tx.recordChange(Change{Entity: domain.EntityMouse, Action: domain.ActionUpdate, Before: before, After: cloneMouse(current)})
	return cloneMouse(current), nil
}

// DeleteMouse removes a mouse together with its gene and strain records. Litter
// parents cannot be deleted.
func (tx *transaction) DeleteMouse(id string) error {
	current, ok := tx.state.mice[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityMouse, Key: id}
	}
	for _, l := range tx.state.litters {
		if l.MotherID == id || l.FatherID == id {
			return fmt.Errorf("mouse %q is still a parent of litter %q", current.Name, l.ID)
		}
	}
	for key, mg := range tx.state.mouseGenes {
		if mg.MouseID == id {
			delete(tx.state.mouseGenes, key)
			tx.recordChange(Change{Entity: domain.EntityMouseGene, Action: domain.ActionDelete, Before: mg})
		}
	}
	for key, ms := range tx.state.mouseStrains {
		if ms.MouseID == id {
			delete(tx.state.mouseStrains, key)
			tx.recordChange(Change{Entity: domain.EntityMouseStrain, Action: domain.ActionDelete, Before: ms})
		}
	}
	delete(tx.state.mice, id)
	tx.recordChange(Change{Entity: domain.EntityMouse, Action: domain.ActionDelete, Before: cloneMouse(current)})
	return nil
}

// Litters --------------------------------------------------------------------

// CreateLitter stores the litter of a breeding cage. The litter id is the cage
// id; a cage holds at most one litter.
func (tx *transaction) CreateLitter(l domain.Litter) (domain.Litter, error) {
	if l.ID == "" {
		return domain.Litter{}, fmt.Errorf("litter requires its breeding cage id")
	}
	if _, ok := tx.state.cages[l.ID]; !ok {
		return domain.Litter{}, domain.ErrNotFound{Entity: domain.EntityCage, Key: l.ID}
	}
	if _, exists := tx.state.litters[l.ID]; exists {
		return domain.Litter{}, fmt.Errorf("cage %q already has a litter", tx.state.cages[l.ID].Name)
	}
	if err := tx.checkPerson(l.ProprietorID); err != nil {
		return domain.Litter{}, err
	}
	l.CreatedAt, l.UpdatedAt = tx.now, tx.now
	tx.state.litters[l.ID] = cloneLitter(l)
	tx.recordChange(Change{Entity: domain.EntityLitter, Action: domain.ActionCreate, After: cloneLitter(l)})
	return cloneLitter(l), nil
}

// UpdateLitter mutates an existing litter.
func (tx *transaction) UpdateLitter(id string, mutator func(*domain.Litter) error) (domain.Litter, error) {
	current, ok := tx.state.litters[id]
	if !ok {
		return domain.Litter{}, domain.ErrNotFound{Entity: domain.EntityLitter, Key: id}
	}
	before := cloneLitter(current)
	if err := mutator(&current); err != nil {
		return domain.Litter{}, err
	}
	current.ID = id
	if err := tx.checkPerson(current.ProprietorID); err != nil {
		return domain.Litter{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.litters[id] = cloneLitter(current)
	tx.recordChange(Change{Entity: domain.EntityLitter, Action: domain.ActionUpdate, Before: before, After: cloneLitter(current)})
	return cloneLitter(current), nil
}

// Catalog --------------------------------------------------------------------

// CreateGene stores a catalog gene.
func (tx *transaction) CreateGene(g domain.Gene) (domain.Gene, error) {
	if err := requireName(domain.EntityGene, g.Name); err != nil {
		return domain.Gene{}, err
	}
	g.ID = tx.assignID(g.ID)
	if _, exists := tx.state.genes[g.ID]; exists {
		return domain.Gene{}, fmt.Errorf("gene %q already exists", g.ID)
	}
	if nameTaken(tx.state.genes, g.Name, "", func(x domain.Gene) (string, string) { return x.ID, x.Name }) {
		return domain.Gene{}, domain.ErrDuplicateName{Entity: domain.EntityGene, Name: g.Name}
	}
	g.CreatedAt, g.UpdatedAt = tx.now, tx.now
	tx.state.genes[g.ID] = g
	tx.recordChange(Change{Entity: domain.EntityGene, Action: domain.ActionCreate, After: g})
	return g, nil
}

// CreateStrain stores a catalog strain.
func (tx *transaction) CreateStrain(s domain.Strain) (domain.Strain, error) {
	if err := requireName(domain.EntityStrain, s.Name); err != nil {
		return domain.Strain{}, err
	}
	s.ID = tx.assignID(s.ID)
	if _, exists := tx.state.strains[s.ID]; exists {
		return domain.Strain{}, fmt.Errorf("strain %q already exists", s.ID)
	}
	if nameTaken(tx.state.strains, s.Name, "", func(x domain.Strain) (string, string) { return x.ID, x.Name }) {
		return domain.Strain{}, domain.ErrDuplicateName{Entity: domain.EntityStrain, Name: s.Name}
	}
	s.CreatedAt, s.UpdatedAt = tx.now, tx.now
	tx.state.strains[s.ID] = s
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionCreate, After: s})
	return s, nil
}

// Associations ---------------------------------------------------------------

// CreateMouseGene records a gene for a mouse; one record per (mouse, gene).
func (tx *transaction) CreateMouseGene(mg domain.MouseGene) (domain.MouseGene, error) {
	if _, ok := tx.state.mice[mg.MouseID]; !ok {
		return domain.MouseGene{}, domain.ErrNotFound{Entity: domain.EntityMouse, Key: mg.MouseID}
	}
	if _, ok := tx.state.genes[mg.GeneID]; !ok {
		return domain.MouseGene{}, domain.ErrNotFound{Entity: domain.EntityGene, Key: mg.GeneID}
	}
	if mg.Zygosity == "" {
		mg.Zygosity = domain.ZygosityUnknown
	}
	if !mg.Zygosity.Valid() {
		return domain.MouseGene{}, fmt.Errorf("invalid zygosity %q", mg.Zygosity)
	}
	for _, existing := range tx.state.mouseGenes {
		if existing.MouseID == mg.MouseID && existing.GeneID == mg.GeneID {
			return domain.MouseGene{}, fmt.Errorf("mouse %q already has a record for gene %q",
				tx.state.mice[mg.MouseID].Name, tx.state.genes[mg.GeneID].Name)
		}
	}
	mg.ID = tx.assignID(mg.ID)
	mg.CreatedAt, mg.UpdatedAt = tx.now, tx.now
	tx.state.mouseGenes[mg.ID] = mg
	tx.recordChange(Change{Entity: domain.EntityMouseGene, Action: domain.ActionCreate, After: mg})
	return mg, nil
}

// UpdateMouseGene mutates a gene record; only the zygosity may change.
func (tx *transaction) UpdateMouseGene(id string, mutator func(*domain.MouseGene) error) (domain.MouseGene, error) {
	current, ok := tx.state.mouseGenes[id]
	if !ok {
		return domain.MouseGene{}, domain.ErrNotFound{Entity: domain.EntityMouseGene, Key: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return domain.MouseGene{}, err
	}
	if !current.Zygosity.Valid() {
		return domain.MouseGene{}, fmt.Errorf("invalid zygosity %q", current.Zygosity)
	}
	current.ID, current.MouseID, current.GeneID = id, before.MouseID, before.GeneID
	current.UpdatedAt = tx.now
	tx.state.mouseGenes[id] = current
	tx.recordChange(Change{Entity: domain.EntityMouseGene, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateMouseStrain records a strain contribution for a mouse.
func (tx *transaction) CreateMouseStrain(ms domain.MouseStrain) (domain.MouseStrain, error) {
	if _, ok := tx.state.mice[ms.MouseID]; !ok {
		return domain.MouseStrain{}, domain.ErrNotFound{Entity: domain.EntityMouse, Key: ms.MouseID}
	}
	if _, ok := tx.state.strains[ms.StrainID]; !ok {
		return domain.MouseStrain{}, domain.ErrNotFound{Entity: domain.EntityStrain, Key: ms.StrainID}
	}
	ms.ID = tx.assignID(ms.ID)
	ms.CreatedAt, ms.UpdatedAt = tx.now, tx.now
	tx.state.mouseStrains[ms.ID] = ms
	tx.recordChange(Change{Entity: domain.EntityMouseStrain, Action: domain.ActionCreate, After: ms})
	return ms, nil
}

// Special requests -----------------------------------------------------------

// CreateSpecialRequest attaches a request to a cage.
func (tx *transaction) CreateSpecialRequest(r domain.SpecialRequest) (domain.SpecialRequest, error) {
	if err := tx.checkCage(&r.CageID); err != nil {
		return domain.SpecialRequest{}, err
	}
	if err := tx.checkPerson(r.RequesterID); err != nil {
		return domain.SpecialRequest{}, err
	}
	if err := tx.checkPerson(r.RequesteeID); err != nil {
		return domain.SpecialRequest{}, err
	}
	r.ID = tx.assignID(r.ID)
	r.CreatedAt, r.UpdatedAt = tx.now, tx.now
	tx.state.requests[r.ID] = cloneSpecialRequest(r)
	tx.recordChange(Change{Entity: domain.EntitySpecialRequest, Action: domain.ActionCreate, After: cloneSpecialRequest(r)})
	return cloneSpecialRequest(r), nil
}

// UpdateSpecialRequest mutates a request, typically to mark it completed.
func (tx *transaction) UpdateSpecialRequest(id string, mutator func(*domain.SpecialRequest) error) (domain.SpecialRequest, error) {
	current, ok := tx.state.requests[id]
	if !ok {
		return domain.SpecialRequest{}, domain.ErrNotFound{Entity: domain.EntitySpecialRequest, Key: id}
	}
	before := cloneSpecialRequest(current)
	if err := mutator(&current); err != nil {
		return domain.SpecialRequest{}, err
	}
	current.ID = id
	if err := tx.checkCage(&current.CageID); err != nil {
		return domain.SpecialRequest{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.requests[id] = cloneSpecialRequest(current)
	tx.recordChange(Change{Entity: domain.EntitySpecialRequest, Action: domain.ActionUpdate, Before: before, After: cloneSpecialRequest(current)})
	return cloneSpecialRequest(current), nil
}
