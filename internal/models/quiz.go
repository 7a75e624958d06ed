package models

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultPassingScore = 70

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type Quiz struct {
	ID           uint                          `json:"id" gorm:"primaryKey"`
	SectionID    uint                          `json:"sectionId" gorm:"not null;uniqueIndex"`
	Title        string                        `json:"title" gorm:"not null;size:200"`
	Description  string                        `json:"description" gorm:"type:text"`
	PassingScore int                           `json:"passingScore" gorm:"not null"`
	Questions    datatypes.JSONSlice[Question] `json:"questions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// AnswerResult is the graded outcome of one question. AnswerIndex is nil when the
// question was left unanswered.
type AnswerResult struct {
	QuestionIndex int  `json:"questionIndex"`
	AnswerIndex   *int `json:"answerIndex"`
	IsCorrect     bool `json:"isCorrect"`
}

// QuizResult is append-only attempt history.
type QuizResult struct {
	ID             uint                              `json:"id" gorm:"primaryKey"`
	UserID         uint                              `json:"userId" gorm:"not null;index"`
	QuizID         uint                              `json:"quizId" gorm:"not null;index"`
	SectionID      uint                              `json:"sectionId" gorm:"not null"`
	ModuleID       uint                              `json:"moduleId" gorm:"not null"`
	Score          int                               `json:"score" gorm:"not null"`
	Passed         bool                              `json:"passed" gorm:"not null"`
	Answers        datatypes.JSONSlice[AnswerResult] `json:"answers"`
	CompletionDate time.Time                         `json:"completionDate" gorm:"not null;index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Quiz *Quiz `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
