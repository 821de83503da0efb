package messagequeue

// TriggerPayload is the schema for rescue.trigger messages.
type TriggerPayload struct {
	Event string `json:"event"`
	User  string `json:"user,omitempty"`
}

// PlanEventPayload is the schema for rescue.plan.* messages.
type PlanEventPayload struct {
	PlanID      string `json:"plan_id"`
	Event       string `json:"event,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	User        string `json:"user,omitempty"`
	StepID      string `json:"step_id,omitempty"`
	Action      string `json:"action,omitempty"`
	StepStatus  string `json:"step_status,omitempty"`
	Error       string `json:"error,omitempty"`
}
