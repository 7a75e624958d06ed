package repositories

import (
	"context"
	"time"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

// SubscriptionRepository is the access grant ledger
type SubscriptionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subscription, error)
	Update(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Subscription, error)
	List(ctx context.Context, tx *gorm.DB, filters SubscriptionFilters) ([]*models.Subscription, int64, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Subscription, error)

	// HasActiveForLevel reports an active row for exactly (userID, level)
	HasActiveForLevel(ctx context.Context, tx *gorm.DB, userID uint, level int, excludeID *uint) (bool, error)
	// HasAccess reports an active, unexpired row with courseLevel >= level
	HasAccess(ctx context.Context, tx *gorm.DB, userID uint, level int, now time.Time) (bool, error)

	ExpireOverdue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
	Counts(ctx context.Context, tx *gorm.DB) (*SubscriptionCounts, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error)
}
