// Package planstore defines the port for holding rescue plans.
package planstore

import (
	"context"

	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
)

// Filter narrows a listing. Zero values mean "no constraint".
// Limit keeps the tail of the creation-ordered sequence.
type Filter struct {
	Limit  int
	Status rescue.Status
}

// UpdateFunc mutates a plan in place while the store holds its lock.
// Returning an error aborts the update and leaves the stored plan unchanged.
type UpdateFunc func(p *rescue.Plan) error

// Store owns every plan instance. Callers receive copies and route all state
// changes through Update.
type Store interface {
	// Append assigns the next plan_<N> id and stores p at the end.
	Append(ctx context.Context, p rescue.Plan) (rescue.Plan, error)
	Get(ctx context.Context, id string) (rescue.Plan, error)
	List(ctx context.Context, f Filter) ([]rescue.Plan, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (rescue.Plan, error)
	// Clear removes every plan and resets the id counter to 1.
	// It fails with domain.ErrInvalidState while any plan is executing.
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
