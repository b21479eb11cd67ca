// Package domain defines the persistent colony entities, value types, and
// rule evaluation primitives used by mousecolony.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPerson identifies a colony member record.
	EntityPerson EntityType = "person"
	// EntityCage identifies a physical cage record.
	EntityCage EntityType = "cage"
	// EntityMouse identifies an individual mouse record.
	EntityMouse EntityType = "mouse"
	// EntityLitter identifies a litter record keyed by its breeding cage.
	EntityLitter EntityType = "litter"
	// EntityGene identifies a gene catalog entry.
	EntityGene EntityType = "gene"
	// EntityStrain identifies a strain catalog entry.
	EntityStrain EntityType = "strain"
	// EntityMouseGene identifies a per-mouse gene zygosity record.
	EntityMouseGene EntityType = "mouse_gene"
	// EntityMouseStrain identifies a per-mouse strain weight record.
	EntityMouseStrain EntityType = "mouse_strain"
	// EntitySpecialRequest identifies a free-text request attached to a cage.
	EntitySpecialRequest EntityType = "special_request"
)

// Sex is the tri-state sex of a mouse.
type Sex string

// Recognised sexes. Pups are created with SexUnknown until sexed.
const (
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
	SexUnknown Sex = "?"
)

// Valid reports whether s is one of the recognised sexes.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexUnknown:
		return true
	}
	return false
}

// Zygosity is the genotyping state of one gene in one mouse. A "+" marks a
// confirmed present allele, "-" a confirmed absent allele and "?" an untested one.
type Zygosity string

// The six recognised zygosity states.
const (
	ZygosityHomozygous   Zygosity = "+/+"
	ZygosityHeterozygous Zygosity = "+/-"
	ZygosityPlusUnknown  Zygosity = "+/?"
	ZygosityUnknownMinus Zygosity = "?/-"
	ZygosityUnknown      Zygosity = "?/?"
	ZygosityNegative     Zygosity = "-/-"
)

// Valid reports whether z is one of the six recognised states.
func (z Zygosity) Valid() bool {
	switch z {
	case ZygosityHomozygous, ZygosityHeterozygous, ZygosityPlusUnknown,
		ZygosityUnknownMinus, ZygosityUnknown, ZygosityNegative:
		return true
	}
	return false
}

// GeneType classifies a gene. It is only used for canonical ordering.
type GeneType string

// Gene types in canonical sort order.
const (
	GeneTypeDriver   GeneType = "driver"
	GeneTypeReporter GeneType = "reporter"
)

// Rank returns the sort position of the gene type; unknown types sort last.
func (t GeneType) Rank() int {
	switch t {
	case GeneTypeDriver:
		return 0
	case GeneTypeReporter:
		return 1
	}
	return 2
}

// Location is the room a cage is kept in.
type Location string

// Known cage locations.
const (
	Location1710     Location = "1710"
	Location1702     Location = "1702"
	LocationBehavior Location = "behavior"
	LocationSC2011   Location = "sc2-011"
)

// TrackedLocations are the rooms counted by the "current" census summary.
var TrackedLocations = []Location{Location1710, LocationSC2011}

// AcquisitionType records why a cage card was opened with the animal facility.
type AcquisitionType string

// Acquisition types.
const (
	AcquisitionOther      AcquisitionType = "other"
	AcquisitionSeparation AcquisitionType = "separation"
	AcquisitionWeaning    AcquisitionType = "weaning"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Person is a colony member. People are deactivated, never deleted.
type Person struct {
	Base
	Name         string `json:"name"`
	LoginName    string `json:"login_name,omitempty"`
	Active       bool   `json:"active"`
	SeriesNumber int    `json:"series_number"`
}

// Cage is a physical housing unit. It owns at most one Litter.
type Cage struct {
	Base
	Name            string          `json:"name"`
	Defunct         bool            `json:"defunct"`
	Location        Location        `json:"location"`
	Notes           string          `json:"notes,omitempty"`
	ProprietorID    *string         `json:"proprietor_id"`
	RackSpot        *string         `json:"rack_spot,omitempty"`
	BarcodeID       string          `json:"barcode_id,omitempty"`
	RequisitionNum  string          `json:"requisition_num,omitempty"`
	Color           string          `json:"color,omitempty"`
	Sticker         string          `json:"sticker,omitempty"`
	AcquisitionType AcquisitionType `json:"acquisition_type,omitempty"`
}

// Mouse is an individual animal. Mice are never physically deleted while referenced;
// a sack date marks them as dead.
type Mouse struct {
	Base
	Name         string     `json:"name"`
	Sex          Sex        `json:"sex"`
	PureBreeder  bool       `json:"pure_breeder"`
	PureWildType bool       `json:"pure_wild_type"`
	CageID       *string    `json:"cage_id"`
	LitterID     *string    `json:"litter_id"`
	SackDate     *time.Time `json:"sack_date"`
	UserID       *string    `json:"user_id"`
	Tattoo       string     `json:"tattoo,omitempty"`
	Marking      string     `json:"marking,omitempty"`
	ToeClipped   string     `json:"toe_clipped,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ManualDOB    *time.Time `json:"manual_dob"`
	ManualMother *string    `json:"manual_mother_id"`
	ManualFather *string    `json:"manual_father_id"`
}

// Sacked reports whether the mouse has a recorded sack date.
func (m Mouse) Sacked() bool { return m.SackDate != nil }

// InCage reports whether the mouse currently sits in the cage with the given id.
func (m Mouse) InCage(cageID string) bool {
	return m.CageID != nil && *m.CageID == cageID
}

// Litter is one breeding event. Its ID always equals the ID of its breeding cage.
type Litter struct {
	Base
	ProprietorID   *string    `json:"proprietor_id"`
	FatherID       string     `json:"father_id"`
	MotherID       string     `json:"mother_id"`
	DateMated      *time.Time `json:"date_mated"`
	DOB            *time.Time `json:"dob"`
	DateToeClipped *time.Time `json:"date_toeclipped"`
	DateWeaned     *time.Time `json:"date_weaned"`
	DateChecked    *time.Time `json:"date_checked"`
	DateGenotyped  *time.Time `json:"date_genotyped"`
	Notes          string     `json:"notes,omitempty"`
	PCRInfo        string     `json:"pcr_info,omitempty"`
}

// CageID returns the breeding cage that identifies the litter.
func (l Litter) CageID() string { return l.ID }

// Gene is an immutable catalog entry for a transgene or allele of interest.
type Gene struct {
	Base
	Name string   `json:"name"`
	Type GeneType `json:"type"`
}

// Strain is an immutable catalog entry for a genetic background.
type Strain struct {
	Base
	Name       string `json:"name"`
	ExternalID string `json:"external_id,omitempty"`
}

// MouseGene records the zygosity of one gene in one mouse.
type MouseGene struct {
	Base
	MouseID  string   `json:"mouse_id"`
	GeneID   string   `json:"gene_id"`
	Zygosity Zygosity `json:"zygosity"`
}

// MouseStrain records the relative contribution of one strain to one mouse.
type MouseStrain struct {
	Base
	MouseID  string `json:"mouse_id"`
	StrainID string `json:"strain_id"`
	Weight   int    `json:"weight"`
}

// SpecialRequest is a free-text husbandry request attached to a cage.
type SpecialRequest struct {
	Base
	CageID        string     `json:"cage_id"`
	Message       string     `json:"message"`
	RequesterID   *string    `json:"requester_id"`
	RequesteeID   *string    `json:"requestee_id"`
	DateRequested *time.Time `json:"date_requested"`
	DateCompleted *time.Time `json:"date_completed"`
}

// Open reports whether the request has not been completed yet.
func (r SpecialRequest) Open() bool { return r.DateCompleted == nil }

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
