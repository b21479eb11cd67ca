package domain

import (
	"fmt"
	"strings"
)

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		if v.Severity != SeverityBlock {
			continue
		}
		msgs = append(msgs, v.Message)
	}
	if len(msgs) == 0 {
		return "transaction blocked by rules"
	}
	return "transaction blocked by rules: " + strings.Join(msgs, "; ")
}

// ErrNotFound is returned when a referenced record does not exist. Key is the id
// or name used for the lookup.
type ErrNotFound struct {
	Entity EntityType
	Key    string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// ErrDuplicateName is returned when a record would reuse a unique name.
type ErrDuplicateName struct {
	Entity EntityType
	Name   string
}

func (e ErrDuplicateName) Error() string {
	return fmt.Sprintf("%s named %q already exists", e.Entity, e.Name)
}

// UnsupportedBreedingError is returned when progeny strains cannot be derived,
// currently whenever a parent carries more than one strain.
type UnsupportedBreedingError struct {
	LitterID string
	MotherID string
	FatherID string
	Reason   string
}

func (e UnsupportedBreedingError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "cannot deal with breeding hybrids"
	}
	if e.LitterID == "" {
		return fmt.Sprintf("unsupported breeding of mother %s and father %s: %s", e.MotherID, e.FatherID, reason)
	}
	return fmt.Sprintf("unsupported breeding in litter %s (mother %s, father %s): %s", e.LitterID, e.MotherID, e.FatherID, reason)
}

// InvariantViolation signals stored data that breaks a colony invariant. It is
// never recovered from locally.
type InvariantViolation struct {
	Entity EntityType
	ID     string
	Reason string
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated for %s %s: %s", e.Entity, e.ID, e.Reason)
}
