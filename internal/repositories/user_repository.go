package repositories

import (
	"context"
	"time"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository is the credential store
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*models.User, error) // username or email
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	ExistsByUsernameOrEmail(ctx context.Context, tx *gorm.DB, username, email string, excludeID *uint) (bool, error)
	UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint, loginTime time.Time) error

	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.User, error)
	Counts(ctx context.Context, tx *gorm.DB) (*UserCounts, error)
}
