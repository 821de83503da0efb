// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Event types pushed to clients whenever a plan changes.
const (
	EventPlanGenerated = "rescue.plan.generated"
	EventPlanApproved  = "rescue.plan.approved"
	EventPlanCancelled = "rescue.plan.cancelled"
	EventPlanExecuting = "rescue.plan.executing"
	EventStepFinished  = "rescue.step.finished"
	EventPlanFinished  = "rescue.plan.finished"
	EventPlansCleared  = "rescue.plans.cleared"
)

// PlanEvent is the payload for plan lifecycle events.
type PlanEvent struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
	StepID string `json:"step_id,omitempty"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Nop discards every event.
type Nop struct{}

// BroadcastEvent implements Broadcaster.
func (Nop) BroadcastEvent(context.Context, string, any) {}
