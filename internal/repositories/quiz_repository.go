package repositories

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	GetBySection(ctx context.Context, tx *gorm.DB, sectionID uint) (*models.Quiz, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error

	IDsBySections(ctx context.Context, tx *gorm.DB, sectionIDs []uint) ([]uint, error)
}

// QuizResultRepository stores append-only attempt history
type QuizResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.QuizResult, error) // newest first
	List(ctx context.Context, tx *gorm.DB, filters QuizResultFilters) ([]*models.QuizResult, error)

	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	DeleteByQuizzes(ctx context.Context, tx *gorm.DB, quizIDs []uint) (int64, error)
}
