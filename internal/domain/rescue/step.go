package rescue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Step is one atomic action within a plan.
type Step struct {
	ID        string
	Action    Action
	Status    StepStatus
	Result    any
	StartedAt *time.Time
	EndedAt   *time.Time
}

// NewStep returns a pending step for action.
func NewStep(id string, action Action) Step {
	return Step{ID: id, Action: action, Status: StepStatusPending}
}

// FailureResult is recorded as a step result when its action fails.
type FailureResult struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Start stamps the beginning of an attempt.
func (s *Step) Start(now time.Time) {
	s.StartedAt = stamp(now)
	s.EndedAt = nil
}

// Succeed records a successful attempt.
func (s *Step) Succeed(result any, now time.Time) {
	s.Status = StepStatusSuccess
	s.Result = result
	s.EndedAt = stamp(now)
}

// Fail records a failed attempt.
func (s *Step) Fail(result FailureResult, now time.Time) {
	s.Status = StepStatusFailed
	s.Result = result
	s.EndedAt = stamp(now)
}

// stepJSON is the wire shape: the action is flattened into a name and its params.
type stepJSON struct {
	ID        string          `json:"id"`
	Action    ActionKind      `json:"action"`
	Params    json.RawMessage `json:"params"`
	Status    StepStatus      `json:"status"`
	Result    any             `json:"result"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
}

// MarshalJSON renders the step as {id, action, params, status, result, ...}.
func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		ID:        s.ID,
		Status:    s.Status,
		Result:    s.Result,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Params:    json.RawMessage(`{}`),
	}
	if s.Action != nil {
		out.Action = s.Action.Kind()
		params, err := encodeParams(s.Action)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.ID, err)
		}
		out.Params = params
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a step from the wire form MarshalJSON writes, which is
// what the REST and MCP surfaces return. Action is an interface, so without it
// a Plan read back by a Go client (an operator tool or the API tests) cannot be
// decoded. Action names outside the closed set decode to UnknownAction so the
// registry rejects them at execution time instead of failing the decode.
func (s *Step) UnmarshalJSON(data []byte) error {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	action, err := DecodeAction(in.Action, in.Params)
	if err != nil {
		return fmt.Errorf("step %s: %w", in.ID, err)
	}
	*s = Step{
		ID:        in.ID,
		Action:    action,
		Status:    in.Status,
		Result:    in.Result,
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
	}
	if s.Status == "" {
		s.Status = StepStatusPending
	}
	return nil
}
