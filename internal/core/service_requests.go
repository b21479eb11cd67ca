package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CreateSpecialRequest attaches a husbandry request to a cage. The request date
// defaults to today.
func (s *Service) CreateSpecialRequest(ctx context.Context, req SpecialRequest) (SpecialRequest, Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return SpecialRequest{}, Result{}, fmt.Errorf("special request for cage %s has no message", req.CageID)
	}
	if req.DateRequested == nil {
		today := s.Today()
		req.DateRequested = &today
	}
	var created SpecialRequest
	res, err := s.run(ctx, "create_special_request", func(tx Transaction) (string, error) {
		var err error
		created, err = tx.CreateSpecialRequest(req)
		return created.ID, err
	})
	return created, res, err
}

// CompleteSpecialRequest marks a request as done on the given day.
func (s *Service) CompleteSpecialRequest(ctx context.Context, id string, today time.Time) (SpecialRequest, Result, error) {
	var updated SpecialRequest
	res, err := s.run(ctx, "complete_special_request", func(tx Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateSpecialRequest(id, func(r *SpecialRequest) error {
			if !r.Open() {
				return fmt.Errorf("special request %s already completed", id)
			}
			r.DateCompleted = &today
			return nil
		})
		return id, err
	})
	return updated, res, err
}
