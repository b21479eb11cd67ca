package core

import "mousecolony/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Person             = domain.Person
	Cage               = domain.Cage
	Mouse              = domain.Mouse
	Litter             = domain.Litter
	Gene               = domain.Gene
	Strain             = domain.Strain
	MouseGene          = domain.MouseGene
	MouseStrain        = domain.MouseStrain
	SpecialRequest     = domain.SpecialRequest
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityPerson         = domain.EntityPerson
	EntityCage           = domain.EntityCage
	EntityMouse          = domain.EntityMouse
	EntityLitter         = domain.EntityLitter
	EntityGene           = domain.EntityGene
	EntityStrain         = domain.EntityStrain
	EntityMouseGene      = domain.EntityMouseGene
	EntityMouseStrain    = domain.EntityMouseStrain
	EntitySpecialRequest = domain.EntitySpecialRequest
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
