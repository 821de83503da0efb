package messagequeue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case subject == SubjectTrigger:
		var p TriggerPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if strings.TrimSpace(p.Event) == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("event is required"))
		}
	case strings.HasPrefix(subject, SubjectPlanPrefix):
		var p PlanEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.PlanID == "" {
			return fmt.Errorf("schema validation failed for %s: %w", subject, errors.New("plan_id is required"))
		}
	}
	return nil
}
