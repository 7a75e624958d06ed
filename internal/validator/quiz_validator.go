package validator

import (
	"fmt"
	"strings"

	"github.com/coachingcourse/course-service/internal/errors"
	"github.com/coachingcourse/course-service/internal/models"
)

// QuizValidator checks quiz definitions that struct tags cannot express
type QuizValidator struct{}

// NewQuizValidator creates a new quiz validator
func NewQuizValidator() *QuizValidator {
	return &QuizValidator{}
}

// ValidateDefinition validates the question set and passing score of a quiz
func (v *QuizValidator) ValidateDefinition(passingScore int, questions []models.Question) errors.ValidationErrors {
	var errs errors.ValidationErrors

	if passingScore < 0 || passingScore > 100 {
		errs = append(errs, *errors.NewValidationErrorWithRule("passingScore", "must be between 0 and 100", "passing_score", passingScore))
	}

	if len(questions) == 0 {
		errs = append(errs, *errors.NewValidationErrorWithRule("questions", "must contain at least 1 question", "min", len(questions)))
		return errs
	}

	for i, q := range questions {
		errs = append(errs, v.ValidateQuestion(i, q)...)
	}

	return errs
}

// ValidateQuestion validates a single question at index i
func (v *QuizValidator) ValidateQuestion(i int, q models.Question) errors.ValidationErrors {
	var errs errors.ValidationErrors
	field := fmt.Sprintf("questions[%d]", i)

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(field+".text", "is required", "required", q.Text))
	}

	if len(q.Options) < 2 {
		errs = append(errs, *errors.NewValidationErrorWithRule(field+".options", "must have at least 2 options", "min", len(q.Options)))
	}

	for j, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = append(errs, *errors.NewValidationError(fmt.Sprintf("%s.options[%d]", field, j), "option text cannot be empty", opt))
		}
	}

	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		errs = append(errs, *errors.NewValidationErrorWithRule(field+".correctAnswer", "must reference one of the options", "oneof", q.CorrectAnswer))
	}

	return errs
}
