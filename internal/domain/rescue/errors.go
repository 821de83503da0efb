package rescue

import (
	"errors"
	"fmt"

	"github.com/Strob0t/RescueDesk/internal/domain"
)

var (
	// ErrUnknownAction is returned when a step names an action outside the closed set.
	ErrUnknownAction = errors.New("unknown action")

	// ErrNoTemplate is returned when no template matches an event.
	ErrNoTemplate = fmt.Errorf("no rescue plan available: %w", domain.ErrNotFound)

	// ErrPlanNotFound is returned when no plan has the requested id.
	ErrPlanNotFound = fmt.Errorf("plan %w", domain.ErrNotFound)

	// ErrExecutionInFlight is returned when execute is called on a plan that is
	// already being executed by another caller.
	ErrExecutionInFlight = fmt.Errorf("plan execution already in progress: %w", domain.ErrInvalidState)
)

// TransitionError reports an operation attempted from an illegal plan status.
type TransitionError struct {
	PlanID string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	switch e.To {
	case StatusApproved:
		return fmt.Sprintf("plan %s not in a pending state (status %s)", e.PlanID, e.From)
	case StatusCancelled:
		return fmt.Sprintf("plan %s cannot be cancelled from %s", e.PlanID, e.From)
	case StatusExecuting:
		return fmt.Sprintf("plan %s must be approved before execution (status %s)", e.PlanID, e.From)
	}
	return fmt.Sprintf("plan %s cannot move from %s to %s", e.PlanID, e.From, e.To)
}

// Unwrap lets callers match with errors.Is(err, domain.ErrInvalidState).
func (e *TransitionError) Unwrap() error {
	return domain.ErrInvalidState
}

// ActionError wraps a failure raised by an external collaborator while running an action.
type ActionError struct {
	Action ActionKind
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Failure classifies err into the result recorded on a failed step.
func Failure(err error) FailureResult {
	code := "action_failure"
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = "invalid_argument"
	case errors.Is(err, ErrUnknownAction):
		code = "unknown_action"
	case errors.Is(err, domain.ErrUnavailable):
		code = "unavailable"
	}
	return FailureResult{Error: err.Error(), Code: code}
}
