// Package core orchestrates the colony's mutating workflows and read models on
// top of a PersistentStore. Every mutation runs inside one store transaction
// and is logged, traced, measured and audited.
package core

import (
	"context"
	"time"

	"mousecolony/internal/colony"
	"mousecolony/internal/husbandry"
	"mousecolony/internal/infra/persistence/memory"
)

// Service exposes the colony operations.
type Service struct {
	store   PersistentStore
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	policy  husbandry.Policy
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		clock:   o.clock,
		logger:  o.logger,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
		policy:  o.policy,
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Policy returns the husbandry policy used for needs.
func (s *Service) Policy() husbandry.Policy { return s.policy }

// Today returns the current calendar day in the service clock's location.
func (s *Service) Today() time.Time { return colony.CalendarDay(s.clock.Now()) }

type auditTarget struct {
	entity EntityType
	action Action
}

// auditedOperations maps mutating operations to the record they touch.
var auditedOperations = map[string]auditTarget{
	"create_person":            {EntityPerson, ActionCreate},
	"update_person":            {EntityPerson, ActionUpdate},
	"deactivate_person":        {EntityPerson, ActionUpdate},
	"create_gene":              {EntityGene, ActionCreate},
	"create_strain":            {EntityStrain, ActionCreate},
	"create_cage":              {EntityCage, ActionCreate},
	"update_cage":              {EntityCage, ActionUpdate},
	"create_mouse":             {EntityMouse, ActionCreate},
	"update_mouse":             {EntityMouse, ActionUpdate},
	"delete_mouse":             {EntityMouse, ActionDelete},
	"set_mouse_gene":           {EntityMouseGene, ActionUpdate},
	"add_mouse_strain":         {EntityMouseStrain, ActionCreate},
	"make_mating_cage":         {EntityLitter, ActionCreate},
	"update_litter":            {EntityLitter, ActionUpdate},
	"change_number_of_pups":    {EntityLitter, ActionUpdate},
	"set_genotyping_results":   {EntityLitter, ActionUpdate},
	"set_pup_sex":              {EntityLitter, ActionUpdate},
	"set_pup_toes":             {EntityLitter, ActionUpdate},
	"wean":                     {EntityLitter, ActionUpdate},
	"sack":                     {EntityCage, ActionUpdate},
	"create_special_request":   {EntitySpecialRequest, ActionCreate},
	"complete_special_request": {EntitySpecialRequest, ActionUpdate},
}

// run executes fn in a store transaction. fn returns the id of the record it
// touched, which is used for the audit entry.
func (s *Service) run(ctx context.Context, op string, fn func(Transaction) (string, error)) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		id, err := fn(tx)
		entityID = id
		return err
	})
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "message", v.Message)
		}
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		s.recordAudit(ctx, op, entityID, duration, err)
		return res, err
	}
	s.logger.Debug("operation succeeded", "operation", op, "entity_id", entityID, "duration", duration)
	s.recordAudit(ctx, op, entityID, duration, nil)
	return res, nil
}

// view executes a read-only query against a consistent snapshot.
func (s *Service) view(ctx context.Context, op string, fn func(TransactionView) error) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := s.store.View(ctx, fn)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("query failed", "operation", op, "error", err)
	}
	return err
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	target, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
