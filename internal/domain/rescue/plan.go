// Package rescue defines the rescue-plan domain: plans, steps, the closed set of
// remediation actions, and the event classifier that turns a trigger into a plan template.
package rescue

import "time"

// Status represents the lifecycle state of a rescue plan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusExecuting Status = "executing"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every plan status in lifecycle order.
var Statuses = []Status{
	StatusPending, StatusApproved, StatusExecuting,
	StatusSucceeded, StatusFailed, StatusCancelled,
}

// ParseStatus returns the Status named by s, or false if s is not a plan status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal returns true for succeeded, failed and cancelled.
// No automatic transition leaves a terminal state; failed may only be
// re-entered through an explicit execute (operator retry).
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// transitions is the legal transition graph:
//
//	pending   -> approved, cancelled
//	approved  -> executing, cancelled
//	executing -> succeeded, failed
//	failed    -> executing   (explicit retry, resumes at the first non-terminal step)
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusCancelled},
	StatusApproved:  {StatusExecuting, StatusCancelled},
	StatusExecuting: {StatusSucceeded, StatusFailed},
	StatusFailed:    {StatusExecuting},
}

// CanTransitionTo reports whether moving from s to target is a legal edge.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// CanExecute reports whether execute may be called on a plan in status s.
// A plan left in executing (not currently in flight) resumes.
func (s Status) CanExecute() bool {
	return s == StatusExecuting || s.CanTransitionTo(StatusExecuting)
}

// StepStatus represents the execution state of a single step.
type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// Done reports whether the step must not be invoked again on resume.
func (s StepStatus) Done() bool {
	return s == StepStatusSuccess || s == StepStatusSkipped
}

// Plan is an ordered remediation workflow generated from a trigger event.
// Steps are fixed at generation: never added, removed or reordered.
type Plan struct {
	ID               string     `json:"id"`
	Event            string     `json:"event"`
	Description      string     `json:"description"`
	Steps            []Step     `json:"steps"`
	RequiresApproval bool       `json:"requires_approval"`
	Status           Status     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	User             string     `json:"user"`
}

// Clone returns a copy of p whose step slice is independent of p.
// Timestamps are replaced, never mutated in place, so sharing the pointers is safe.
func (p *Plan) Clone() Plan {
	cp := *p
	cp.Steps = make([]Step, len(p.Steps))
	copy(cp.Steps, p.Steps)
	return cp
}

// NextStep returns the index of the first step that still has to run, or -1.
func (p *Plan) NextStep() int {
	for i := range p.Steps {
		if !p.Steps[i].Status.Done() {
			return i
		}
	}
	return -1
}

// stamp returns a pointer to a copy of t.
func stamp(t time.Time) *time.Time {
	return &t
}

// MarkApproved moves a pending plan to approved.
func (p *Plan) MarkApproved(now time.Time) error {
	if err := p.transition(StatusApproved); err != nil {
		return err
	}
	p.ApprovedAt = stamp(now)
	return nil
}

// MarkCancelled moves a pending or approved plan to cancelled.
func (p *Plan) MarkCancelled(now time.Time) error {
	if err := p.transition(StatusCancelled); err != nil {
		return err
	}
	p.CancelledAt = stamp(now)
	return nil
}

// MarkExecuting enters (or re-enters) executing. StartedAt is only set once.
func (p *Plan) MarkExecuting(now time.Time) error {
	if !p.Status.CanExecute() {
		return &TransitionError{PlanID: p.ID, From: p.Status, To: StatusExecuting}
	}
	p.Status = StatusExecuting
	p.EndedAt = nil
	if p.StartedAt == nil {
		p.StartedAt = stamp(now)
	}
	return nil
}

// Finish closes an executing plan as succeeded or failed.
func (p *Plan) Finish(status Status, now time.Time) error {
	if err := p.transition(status); err != nil {
		return err
	}
	p.EndedAt = stamp(now)
	return nil
}

func (p *Plan) transition(to Status) error {
	if !p.Status.CanTransitionTo(to) {
		return &TransitionError{PlanID: p.ID, From: p.Status, To: to}
	}
	p.Status = to
	return nil
}
