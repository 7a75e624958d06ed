package validator

import (
	"errors"
	"testing"

	apperrors "github.com/coachingcourse/course-service/internal/errors"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type levelRequest struct {
	Level  int    `json:"level" validate:"course_level"`
	Role   string `json:"role" validate:"omitempty,user_role"`
	Status string `json:"status" validate:"omitempty,user_status"`
	Type   string `json:"type" validate:"omitempty,resource_type"`
}

func TestValidate_CustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(levelRequest{Level: 1, Role: "admin", Status: "inactive", Type: "pdf"}))
	assert.NoError(t, v.Validate(levelRequest{Level: 3}))

	err := v.Validate(levelRequest{Level: 4, Role: "teacher", Status: "banned", Type: "audio"})
	require.Error(t, err)

	var errs apperrors.ValidationErrors
	require.True(t, errors.As(err, &errs))
	require.Len(t, errs, 4)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"level", "role", "status", "type"}, fields)
}

func TestValidate_CourseLevelZero(t *testing.T) {
	err := New().Validate(levelRequest{Level: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level")
}

func TestQuizValidator_ValidateDefinition(t *testing.T) {
	qv := NewQuizValidator()

	valid := []models.Question{
		{Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: 1},
		{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectAnswer: 0},
	}
	assert.Empty(t, qv.ValidateDefinition(70, valid))

	tests := []struct {
		name         string
		passingScore int
		questions    []models.Question
		field        string
	}{
		{"no questions", 70, nil, "questions"},
		{"passing score too high", 101, valid, "passingScore"},
		{"passing score negative", -1, valid, "passingScore"},
		{"single option", 70, []models.Question{{Text: "q", Options: []string{"a"}, CorrectAnswer: 0}}, "questions[0].options"},
		{"correct answer out of range", 70, []models.Question{{Text: "q", Options: []string{"a", "b"}, CorrectAnswer: 2}}, "questions[0].correctAnswer"},
		{"empty text", 70, []models.Question{{Text: " ", Options: []string{"a", "b"}}}, "questions[0].text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := qv.ValidateDefinition(tt.passingScore, tt.questions)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}
