package planning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

// stripCodeFence removes a leading ``` line (with or without a language
// tag) and a trailing ``` line.
func stripCodeFence(response string) string {
	text := strings.TrimSpace(response)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var requiredTopicFields = []string{"order_index", "title", "subtopics"}

// ParsePlan decodes a model response into a DraftPlan. The response must be
// a JSON array of objects that each carry order_index, title and subtopics.
func ParsePlan(response string) (models.DraftPlan, error) {
	text := stripCodeFence(response)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &domain.InvalidPlanFormatError{Reason: "expected a JSON array", Err: err}
	}

	plan := make(models.DraftPlan, 0, len(raw))
	for i, item := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			return nil, &domain.InvalidPlanFormatError{Reason: fmt.Sprintf("topic %d is not an object", i+1), Err: err}
		}
		for _, f := range requiredTopicFields {
			if _, ok := fields[f]; !ok {
				return nil, &domain.InvalidPlanFormatError{
					Reason: fmt.Sprintf("topic %d is missing %s", i+1, f),
				}
			}
		}

		var topic models.DraftTopic
		if err := json.Unmarshal(item, &topic); err != nil {
			return nil, &domain.InvalidPlanFormatError{Reason: fmt.Sprintf("topic %d has invalid fields", i+1), Err: err}
		}
		if topic.Subtopics == nil {
			topic.Subtopics = []string{}
		}
		plan = append(plan, topic)
	}
	return plan, nil
}
