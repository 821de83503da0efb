// Package memory provides process-lifetime implementations of the plan store
// and the audit log.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
	"github.com/Strob0t/RescueDesk/internal/port/planstore"
)

// PlanStore keeps plans in creation order behind a single mutex.
// The lock is held only for in-memory work; no callback passed to Update
// may block on I/O.
type PlanStore struct {
	mu    sync.Mutex
	plans []*rescue.Plan
	index map[string]*rescue.Plan
	next  int
}

var _ planstore.Store = (*PlanStore)(nil)

// NewPlanStore returns an empty store whose first plan will be plan_1.
func NewPlanStore() *PlanStore {
	return &PlanStore{index: make(map[string]*rescue.Plan), next: 1}
}

// Append assigns the next plan_<N> id and stores a copy of p.
func (s *PlanStore) Append(_ context.Context, p rescue.Plan) (rescue.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = "plan_" + strconv.Itoa(s.next)
	s.next++

	stored := p.Clone()
	s.plans = append(s.plans, &stored)
	s.index[stored.ID] = &stored
	return stored.Clone(), nil
}

// Get returns a copy of the plan with the given id.
func (s *PlanStore) Get(_ context.Context, id string) (rescue.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.index[id]
	if !ok {
		return rescue.Plan{}, fmt.Errorf("get %s: %w", id, rescue.ErrPlanNotFound)
	}
	return p.Clone(), nil
}

// List returns plans oldest first, filtered by status and truncated to the
// newest f.Limit entries.
func (s *PlanStore) List(_ context.Context, f planstore.Filter) ([]rescue.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]rescue.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p.Clone())
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Update applies fn to a working copy and commits it only when fn succeeds.
func (s *PlanStore) Update(_ context.Context, id string, fn planstore.UpdateFunc) (rescue.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.index[id]
	if !ok {
		return rescue.Plan{}, fmt.Errorf("update %s: %w", id, rescue.ErrPlanNotFound)
	}
	work := p.Clone()
	if err := fn(&work); err != nil {
		return p.Clone(), err
	}
	*p = work
	return work.Clone(), nil
}

// Clear drops every plan and resets the counter. It refuses while any plan is executing.
func (s *PlanStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.Status == rescue.StatusExecuting {
			return fmt.Errorf("clear plans: %s is executing: %w", p.ID, domain.ErrInvalidState)
		}
	}
	s.plans = nil
	s.index = make(map[string]*rescue.Plan)
	s.next = 1
	return nil
}

// Count returns the number of stored plans.
func (s *PlanStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans), nil
}
