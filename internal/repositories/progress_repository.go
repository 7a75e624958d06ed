package repositories

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

type ProgressRepository interface {
	// Upsert writes the row keyed by (user, module, section) in one statement.
	// CompletionDate keeps the first non-null value ever written.
	Upsert(ctx context.Context, tx *gorm.DB, progress *models.Progress) (*models.Progress, error)
	Get(ctx context.Context, tx *gorm.DB, userID, moduleID, sectionID uint) (*models.Progress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Progress, error)
	ListByUserModule(ctx context.Context, tx *gorm.DB, userID, moduleID uint) ([]*models.Progress, error)

	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
	DeleteBySections(ctx context.Context, tx *gorm.DB, sectionIDs []uint) (int64, error)
}
