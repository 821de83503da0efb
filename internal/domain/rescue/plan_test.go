package rescue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/domain/rescue"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPlan(status rescue.Status) *rescue.Plan {
	return &rescue.Plan{
		ID:     "plan_1",
		Status: status,
		Steps: []rescue.Step{
			rescue.NewStep("a1", rescue.SellProportion{Percent: 30, To: "USDC"}),
			rescue.NewStep("a2", rescue.TransferFunds{Amount: rescue.AutoAmount, To: rescue.AliasJudgeWallet}),
		},
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from rescue.Status
		to   rescue.Status
		want bool
	}{
		{rescue.StatusPending, rescue.StatusApproved, true},
		{rescue.StatusPending, rescue.StatusCancelled, true},
		{rescue.StatusPending, rescue.StatusExecuting, false},
		{rescue.StatusApproved, rescue.StatusExecuting, true},
		{rescue.StatusApproved, rescue.StatusCancelled, true},
		{rescue.StatusApproved, rescue.StatusApproved, false},
		{rescue.StatusExecuting, rescue.StatusSucceeded, true},
		{rescue.StatusExecuting, rescue.StatusFailed, true},
		{rescue.StatusExecuting, rescue.StatusCancelled, false},
		{rescue.StatusFailed, rescue.StatusExecuting, true},
		{rescue.StatusSucceeded, rescue.StatusExecuting, false},
		{rescue.StatusCancelled, rescue.StatusExecuting, false},
		{rescue.StatusCancelled, rescue.StatusApproved, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCanExecute(t *testing.T) {
	want := map[rescue.Status]bool{
		rescue.StatusPending:   false,
		rescue.StatusApproved:  true,
		rescue.StatusExecuting: true,
		rescue.StatusSucceeded: false,
		rescue.StatusFailed:    true,
		rescue.StatusCancelled: false,
	}
	for _, s := range rescue.Statuses {
		if got := s.CanExecute(); got != want[s] {
			t.Errorf("%s.CanExecute() = %v, want %v", s, got, want[s])
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range rescue.Statuses {
		want := s == rescue.StatusSucceeded || s == rescue.StatusFailed || s == rescue.StatusCancelled
		if got := s.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := rescue.ParseStatus("approved"); !ok || s != rescue.StatusApproved {
		t.Fatalf("ParseStatus(approved) = %q, %v", s, ok)
	}
	if _, ok := rescue.ParseStatus("APPROVED"); ok {
		t.Fatal("status match should be exact")
	}
	if _, ok := rescue.ParseStatus("done"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestMarkApproved(t *testing.T) {
	p := newPlan(rescue.StatusPending)
	if err := p.MarkApproved(t0); err != nil {
		t.Fatalf("MarkApproved: %v", err)
	}
	if p.Status != rescue.StatusApproved || p.ApprovedAt == nil || !p.ApprovedAt.Equal(t0) {
		t.Fatalf("unexpected plan after approve: %+v", p)
	}

	err := p.MarkApproved(t0)
	var te *rescue.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError on re-approve, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err.Error() != "plan plan_1 not in a pending state (status approved)" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMarkCancelled(t *testing.T) {
	for _, from := range []rescue.Status{rescue.StatusPending, rescue.StatusApproved} {
		p := newPlan(from)
		if err := p.MarkCancelled(t0); err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
		if p.Status != rescue.StatusCancelled || p.CancelledAt == nil {
			t.Fatalf("cancel from %s: unexpected plan %+v", from, p)
		}
	}

	p := newPlan(rescue.StatusExecuting)
	if err := p.MarkCancelled(t0); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("cancel while executing should fail with ErrInvalidState, got %v", err)
	}
	if p.Status != rescue.StatusExecuting {
		t.Fatalf("failed cancel must not mutate status, got %s", p.Status)
	}
}

func TestMarkExecuting_StartedAtSetOnce(t *testing.T) {
	p := newPlan(rescue.StatusApproved)
	if err := p.MarkExecuting(t0); err != nil {
		t.Fatalf("MarkExecuting: %v", err)
	}
	if err := p.Finish(rescue.StatusFailed, t0.Add(time.Second)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := p.MarkExecuting(t0.Add(time.Minute)); err != nil {
		t.Fatalf("retry from failed: %v", err)
	}
	if !p.StartedAt.Equal(t0) {
		t.Errorf("StartedAt overwritten: %v", p.StartedAt)
	}
	if p.EndedAt != nil {
		t.Errorf("EndedAt should be cleared on re-entry, got %v", p.EndedAt)
	}
}

func TestMarkExecuting_Rejected(t *testing.T) {
	for _, from := range []rescue.Status{rescue.StatusPending, rescue.StatusCancelled, rescue.StatusSucceeded} {
		p := newPlan(from)
		err := p.MarkExecuting(t0)
		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("execute from %s: expected ErrInvalidState, got %v", from, err)
		}
		if p.Status != from || p.StartedAt != nil {
			t.Fatalf("execute from %s mutated the plan: %+v", from, p)
		}
	}
}

func TestFinish_OnlyFromExecuting(t *testing.T) {
	p := newPlan(rescue.StatusApproved)
	if err := p.Finish(rescue.StatusSucceeded, t0); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestNextStep(t *testing.T) {
	p := newPlan(rescue.StatusExecuting)
	if got := p.NextStep(); got != 0 {
		t.Fatalf("NextStep = %d, want 0", got)
	}
	p.Steps[0].Succeed(map[string]any{"simulated": true}, t0)
	if got := p.NextStep(); got != 1 {
		t.Fatalf("NextStep = %d, want 1", got)
	}
	p.Steps[1].Fail(rescue.FailureResult{Error: "boom", Code: "action_failure"}, t0)
	if got := p.NextStep(); got != 1 {
		t.Fatalf("failed step must be retried: NextStep = %d, want 1", got)
	}
	p.Steps[1].Status = rescue.StepStatusSkipped
	if got := p.NextStep(); got != -1 {
		t.Fatalf("NextStep = %d, want -1", got)
	}
}

func TestClone_IndependentSteps(t *testing.T) {
	p := newPlan(rescue.StatusApproved)
	cp := p.Clone()
	cp.Steps[0].Status = rescue.StepStatusSuccess
	if p.Steps[0].Status != rescue.StepStatusPending {
		t.Fatal("mutating a clone leaked into the original")
	}
}
