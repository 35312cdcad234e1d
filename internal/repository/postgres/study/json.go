package study

import (
	"encoding/json"
	"fmt"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// planParam encodes a plan for a JSONB parameter. A nil plan is SQL NULL.
// Strings are used instead of []byte so the simple protocol does not send
// the value as bytea.
func planParam(plan models.DraftPlan) (any, error) {
	if plan == nil {
		return nil, nil
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encode draft plan: %w", err)
	}
	return string(raw), nil
}

func historyParam(history []models.DraftPlan) (string, error) {
	if history == nil {
		history = []models.DraftPlan{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode plan history: %w", err)
	}
	return string(raw), nil
}

func decodePlan(raw []byte) (models.DraftPlan, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var plan models.DraftPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("decode draft plan: %w", err)
	}
	if plan == nil {
		plan = models.DraftPlan{}
	}
	return plan, nil
}

func decodeHistory(raw []byte) ([]models.DraftPlan, error) {
	history := []models.DraftPlan{}
	if len(raw) == 0 {
		return history, nil
	}
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decode plan history: %w", err)
	}
	if history == nil {
		history = []models.DraftPlan{}
	}
	return history, nil
}
