package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	rdotel "github.com/Strob0t/RescueDesk/internal/adapter/otel"
	"github.com/Strob0t/RescueDesk/internal/config"
	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
	"github.com/Strob0t/RescueDesk/internal/port/broadcast"
	"github.com/Strob0t/RescueDesk/internal/port/messagequeue"
	"github.com/Strob0t/RescueDesk/internal/port/planstore"
)

const (
	minEventLength = 3
	maxListLimit   = 1000
)

// RescueService generates rescue plans from trigger events and drives them
// through approval and step-by-step execution.
type RescueService struct {
	store       planstore.Store
	actions     ActionInvoker
	hub         broadcast.Broadcaster
	audit       *AuditService
	queue       messagequeue.Queue
	metrics     *rdotel.Metrics
	defaults    rescue.TemplateDefaults
	defaultUser string
	listLimit   int
	now         func() time.Time
	newStepID   func() string

	mu       sync.Mutex // guards inFlight
	inFlight map[string]struct{}
}

// NewRescueService creates a RescueService with its required dependencies.
func NewRescueService(
	store planstore.Store,
	actions ActionInvoker,
	hub broadcast.Broadcaster,
	cfg config.Rescue,
) *RescueService {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &RescueService{
		store:       store,
		actions:     actions,
		hub:         hub,
		defaults:    rescue.TemplateDefaults{DepositUSD: cfg.DefaultDepositUSD},
		defaultUser: cfg.DefaultUser,
		listLimit:   cfg.ListDefaultLimit,
		now:         time.Now,
		newStepID:   shortID,
		inFlight:    make(map[string]struct{}),
	}
}

// SetAudit attaches the audit log.
func (s *RescueService) SetAudit(a *AuditService) {
	s.audit = a
}

// SetQueue publishes lifecycle events to q.
func (s *RescueService) SetQueue(q messagequeue.Queue) {
	s.queue = q
}

// SetMetrics attaches metric instruments.
func (s *RescueService) SetMetrics(m *rdotel.Metrics) {
	s.metrics = m
}

// shortID returns the first 8 hex digits of a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Generate classifies event into a plan template and stores the resulting
// pending plan. It returns rescue.ErrNoTemplate when nothing matches; in that
// case nothing is stored.
func (s *RescueService) Generate(ctx context.Context, event, user string) (rescue.Plan, error) {
	event = strings.TrimSpace(event)
	if len([]rune(event)) < minEventLength {
		return rescue.Plan{}, fmt.Errorf("%w: event must be at least %d characters", domain.ErrValidation, minEventLength)
	}
	user = strings.TrimSpace(user)
	if user == "" {
		user = s.defaultUser
	}

	tmpl, ok := rescue.Match(event, user, s.defaults)
	if !ok {
		slog.InfoContext(ctx, "no rescue template matched", "event", event, "user", user)
		return rescue.Plan{}, fmt.Errorf("generate %q: %w", event, rescue.ErrNoTemplate)
	}

	steps := make([]rescue.Step, len(tmpl.Actions))
	for i, a := range tmpl.Actions {
		steps[i] = rescue.NewStep(s.newStepID(), a)
	}

	p, err := s.store.Append(ctx, rescue.Plan{
		Event:            event,
		Description:      tmpl.Description,
		Steps:            steps,
		RequiresApproval: true,
		Status:           rescue.StatusPending,
		CreatedAt:        s.now().UTC(),
		User:             user,
	})
	if err != nil {
		return rescue.Plan{}, fmt.Errorf("store plan: %w", err)
	}

	slog.InfoContext(ctx, "rescue plan generated", "plan_id", p.ID, "user", user, "steps", len(p.Steps))
	s.audit.Record(ctx, audit.TypeWarning, "Rescue plan generated: "+p.Description, planContext(&p))
	s.metrics.RecordGenerated(ctx, triggerOf(event))
	s.emit(ctx, broadcast.EventPlanGenerated, messagequeue.SubjectPlanGenerated, &p, nil, "")
	return p, nil
}

// Approve moves a pending plan to approved.
func (s *RescueService) Approve(ctx context.Context, id string) (rescue.Plan, error) {
	p, err := s.store.Update(ctx, id, func(p *rescue.Plan) error {
		return p.MarkApproved(s.now().UTC())
	})
	if err != nil {
		return rescue.Plan{}, err
	}

	slog.InfoContext(ctx, "rescue plan approved", "plan_id", p.ID)
	s.audit.Record(ctx, audit.TypeAction, "Plan approved "+p.ID, planContext(&p))
	s.metrics.RecordTransition(ctx, string(p.Status))
	s.emit(ctx, broadcast.EventPlanApproved, messagequeue.SubjectPlanApproved, &p, nil, "")
	return p, nil
}

// Cancel moves a pending or approved plan to cancelled. It never interrupts
// an execution that has already started.
func (s *RescueService) Cancel(ctx context.Context, id string) (rescue.Plan, error) {
	p, err := s.store.Update(ctx, id, func(p *rescue.Plan) error {
		return p.MarkCancelled(s.now().UTC())
	})
	if err != nil {
		return rescue.Plan{}, err
	}

	slog.InfoContext(ctx, "rescue plan cancelled", "plan_id", p.ID)
	s.audit.Record(ctx, audit.TypeInfo, "Plan cancelled "+p.ID, planContext(&p))
	s.metrics.RecordTransition(ctx, string(p.Status))
	s.emit(ctx, broadcast.EventPlanCancelled, messagequeue.SubjectPlanCancelled, &p, nil, "")
	return p, nil
}

// Execute runs the plan's steps in order, starting at the first step that has
// not succeeded. The first failing step stops execution and fails the plan;
// that failure is recorded on the step and the plan is returned without error.
// Errors are returned only for unmet preconditions (unknown plan, illegal
// status, execution already in flight), in which case nothing is mutated.
func (s *RescueService) Execute(ctx context.Context, id string) (rescue.Plan, error) {
	if !s.acquire(id) {
		return rescue.Plan{}, fmt.Errorf("execute %s: %w", id, rescue.ErrExecutionInFlight)
	}
	defer s.release(id)

	p, err := s.store.Update(ctx, id, func(p *rescue.Plan) error {
		return p.MarkExecuting(s.now().UTC())
	})
	if err != nil {
		return rescue.Plan{}, err
	}

	// Steps move money; a caller going away must not abandon one half-done.
	ctx = context.WithoutCancel(ctx)
	ctx, span := rdotel.StartExecuteSpan(ctx, p.ID, p.User)
	defer span.End()
	started := time.Now()

	slog.InfoContext(ctx, "rescue plan executing", "plan_id", p.ID, "next_step", p.NextStep())
	s.metrics.RecordTransition(ctx, string(p.Status))
	s.emit(ctx, broadcast.EventPlanExecuting, messagequeue.SubjectPlanExecuting, &p, nil, "")

	for idx := p.NextStep(); idx >= 0; idx = p.NextStep() {
		p, err = s.runStep(ctx, p, idx)
		if err != nil {
			return rescue.Plan{}, err
		}
		if p.Status == rescue.StatusFailed {
			s.metrics.RecordPlanRun(ctx, string(p.Status), time.Since(started))
			s.emit(ctx, broadcast.EventPlanFinished, messagequeue.SubjectPlanFinished, &p, nil, "")
			return p, nil
		}
	}

	p, err = s.store.Update(ctx, id, func(p *rescue.Plan) error {
		return p.Finish(rescue.StatusSucceeded, s.now().UTC())
	})
	if err != nil {
		return rescue.Plan{}, fmt.Errorf("finish %s: %w", id, err)
	}

	slog.InfoContext(ctx, "rescue plan succeeded", "plan_id", p.ID)
	s.audit.Record(ctx, audit.TypeSuccess, "Rescue plan executed: "+p.Description, planContext(&p))
	s.metrics.RecordTransition(ctx, string(p.Status))
	s.metrics.RecordPlanRun(ctx, string(p.Status), time.Since(started))
	s.emit(ctx, broadcast.EventPlanFinished, messagequeue.SubjectPlanFinished, &p, nil, "")
	return p, nil
}

// runStep attempts step idx of p. The store lock is taken only to record the
// start and the outcome, never while the action runs.
func (s *RescueService) runStep(ctx context.Context, p rescue.Plan, idx int) (rescue.Plan, error) {
	stepID := p.Steps[idx].ID
	action := p.Steps[idx].Action
	kind := ""
	if action != nil {
		kind = string(action.Kind())
	}

	p, err := s.store.Update(ctx, p.ID, func(p *rescue.Plan) error {
		p.Steps[idx].Start(s.now().UTC())
		return nil
	})
	if err != nil {
		return rescue.Plan{}, fmt.Errorf("start step %s: %w", stepID, err)
	}

	stepCtx, span := rdotel.StartStepSpan(ctx, p.ID, stepID, kind)
	began := time.Now()
	result, invokeErr := s.actions.Invoke(stepCtx, action, &p)
	elapsed := time.Since(began)
	if invokeErr != nil {
		span.RecordError(invokeErr)
	}
	span.End()

	p, err = s.store.Update(ctx, p.ID, func(p *rescue.Plan) error {
		now := s.now().UTC()
		if invokeErr == nil {
			p.Steps[idx].Succeed(result, now)
			return nil
		}
		p.Steps[idx].Fail(rescue.Failure(invokeErr), now)
		return p.Finish(rescue.StatusFailed, now)
	})
	if err != nil {
		return rescue.Plan{}, fmt.Errorf("record step %s: %w", stepID, err)
	}

	step := &p.Steps[idx]
	s.metrics.RecordStep(ctx, kind, string(step.Status), elapsed)
	if invokeErr != nil {
		slog.WarnContext(ctx, "rescue step failed", "plan_id", p.ID, "step_id", stepID, "action", kind, "error", invokeErr)
		kv := planContext(&p)
		kv["step_id"] = stepID
		s.audit.Record(ctx, audit.TypeError, fmt.Sprintf("Step %s failed:%v", kind, invokeErr), kv)
		s.metrics.RecordTransition(ctx, string(p.Status))
		s.emit(ctx, broadcast.EventStepFinished, messagequeue.SubjectPlanStep, &p, step, invokeErr.Error())
		return p, nil
	}

	slog.InfoContext(ctx, "rescue step succeeded", "plan_id", p.ID, "step_id", stepID, "action", kind)
	s.emit(ctx, broadcast.EventStepFinished, messagequeue.SubjectPlanStep, &p, step, "")
	return p, nil
}

// List returns plans oldest first. A non-positive limit uses the configured
// default; larger limits are capped at 1000.
func (s *RescueService) List(ctx context.Context, limit int, status rescue.Status) ([]rescue.Plan, error) {
	switch {
	case limit <= 0:
		limit = s.listLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return s.store.List(ctx, planstore.Filter{Limit: limit, Status: status})
}

// Get returns a single plan.
func (s *RescueService) Get(ctx context.Context, id string) (rescue.Plan, error) {
	return s.store.Get(ctx, id)
}

// Count returns the number of stored plans.
func (s *RescueService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Clear removes every plan and resets ids. It is refused while a plan is executing.
func (s *RescueService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "rescue plans cleared")
	s.audit.Record(ctx, audit.TypeInfo, "All rescue plans cleared", nil)
	s.hub.BroadcastEvent(ctx, broadcast.EventPlansCleared, struct{}{})
	return nil
}

// StartTriggerSubscriber generates plans from rescue.trigger messages.
// Events that match no template, or are malformed, are acknowledged and dropped.
func (s *RescueService) StartTriggerSubscriber(ctx context.Context) (func(), error) {
	if s.queue == nil {
		return nil, fmt.Errorf("trigger subscriber: %w: no message queue", domain.ErrUnavailable)
	}
	return s.queue.Subscribe(ctx, messagequeue.SubjectTrigger, func(ctx context.Context, _ string, data []byte) error {
		var msg messagequeue.TriggerPayload
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.WarnContext(ctx, "invalid trigger payload", "error", err)
			return nil
		}
		p, err := s.Generate(ctx, msg.Event, msg.User)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "plan generated from trigger", "plan_id", p.ID, "event", msg.Event)
			return nil
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
			slog.InfoContext(ctx, "trigger dropped", "event", msg.Event, "reason", err)
			return nil
		default:
			return err
		}
	})
}

func (s *RescueService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *RescueService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// emit pushes a lifecycle event to websocket clients and, when configured, the queue.
func (s *RescueService) emit(ctx context.Context, event, subject string, p *rescue.Plan, step *rescue.Step, errMsg string) {
	ev := broadcast.PlanEvent{PlanID: p.ID, Status: string(p.Status), Error: errMsg}
	payload := messagequeue.PlanEventPayload{
		PlanID:      p.ID,
		Event:       p.Event,
		Description: p.Description,
		Status:      string(p.Status),
		User:        p.User,
		Error:       errMsg,
	}
	if step != nil {
		ev.StepID = step.ID
		payload.StepID = step.ID
		payload.StepStatus = string(step.Status)
		if step.Action != nil {
			ev.Action = string(step.Action.Kind())
			payload.Action = ev.Action
		}
	}
	s.hub.BroadcastEvent(ctx, event, ev)

	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal plan event", "plan_id", p.ID, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish plan event failed", "subject", subject, "plan_id", p.ID, "error", err)
	}
}

func planContext(p *rescue.Plan) map[string]any {
	return map[string]any{"plan_id": p.ID, "user": p.User, "status": string(p.Status)}
}

// triggerOf returns the trigger phrase event matched, used as a metric label.
func triggerOf(event string) string {
	ev := strings.ToLower(event)
	for _, t := range rescue.Triggers() {
		if strings.Contains(ev, t) {
			return t
		}
	}
	return "unknown"
}
