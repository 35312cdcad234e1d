package session

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
	studySvc "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/services/study"
)

// validateCreateRequest validates a create session request
func validateCreateRequest(req *studySvc.CreateSessionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxSessionTitleLength),
			validation.By(notBlank),
		),
		validation.Field(&req.Description, validation.Length(0, config.MaxSessionDescriptionLength)),
	)
}

// validateReviseRequest validates a plan revision request
func validateReviseRequest(req *studySvc.RevisePlanRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Instruction,
			validation.Required,
			validation.Length(1, config.MaxInstructionLength),
			validation.By(notBlank),
		),
	)
}

// validatePlan checks a user-supplied plan: at least one topic, titled
// topics and unique positive order indexes.
func validatePlan(plan models.DraftPlan) error {
	if err := validation.Validate([]models.DraftTopic(plan),
		validation.Required.Error("plan must have at least one topic"),
		validation.Length(1, config.MaxPlanTopics),
	); err != nil {
		return err
	}

	seen := make(map[int]bool, len(plan))
	for i := range plan {
		t := &plan[i]
		err := validation.ValidateStruct(t,
			validation.Field(&t.OrderIndex, validation.Required, validation.Min(1)),
			validation.Field(&t.Title,
				validation.Required,
				validation.Length(1, config.MaxSessionTitleLength),
				validation.By(notBlank),
			),
			validation.Field(&t.Subtopics, validation.Each(validation.By(notBlank))),
		)
		if err != nil {
			return fmt.Errorf("topic %d: %w", i+1, err)
		}
		if seen[t.OrderIndex] {
			return fmt.Errorf("topic %d: duplicate order_index %d", i+1, t.OrderIndex)
		}
		seen[t.OrderIndex] = true
	}
	return nil
}

func notBlank(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be blank")
	}
	return nil
}
