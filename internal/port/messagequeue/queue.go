// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subjects used by RescueDesk. Every subject lives under "rescue." so one stream captures them all.
const (
	// SubjectTrigger carries upstream alerts that should produce a rescue plan.
	SubjectTrigger = "rescue.trigger"

	// SubjectPlanPrefix prefixes lifecycle events: rescue.plan.{generated,approved,...}.
	SubjectPlanPrefix = "rescue.plan."

	SubjectPlanGenerated = SubjectPlanPrefix + "generated"
	SubjectPlanApproved  = SubjectPlanPrefix + "approved"
	SubjectPlanCancelled = SubjectPlanPrefix + "cancelled"
	SubjectPlanExecuting = SubjectPlanPrefix + "executing"
	SubjectPlanFinished  = SubjectPlanPrefix + "finished"
	SubjectPlanStep      = SubjectPlanPrefix + "step"
)

// HeaderRequestID carries the originating request id across the queue.
const HeaderRequestID = "X-Request-ID"
