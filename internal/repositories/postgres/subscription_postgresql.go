package postgres

import (
	"context"
	"time"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type SubscriptionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSubscriptionPostgreSQL(db *gorm.DB) repositories.SubscriptionRepository {
	return &SubscriptionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func preloadUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "username", "email")
}

func (s *SubscriptionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	return translateError(s.helpers.getDB(ctx, tx).Omit("User").Create(sub).Error)
}

func (s *SubscriptionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.helpers.getDB(ctx, tx).First(&sub, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

func (s *SubscriptionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	return translateError(s.helpers.getDB(ctx, tx).Omit("User").Save(sub).Error)
}

func (s *SubscriptionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.helpers.getDB(ctx, tx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *SubscriptionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SubscriptionFilters) ([]*models.Subscription, int64, error) {
	var subs []*models.Subscription
	var total int64

	query := s.helpers.getDB(ctx, tx).Model(&models.Subscription{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseLevel != nil {
		query = query.Where("course_level = ?", *filters.CourseLevel)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPaginationAndSort(query, "", "desc", nil, "created_at", filters.Limit, filters.Offset)
	if err := query.Preload("User", preloadUserSummary).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (s *SubscriptionPostgreSQL) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.helpers.getDB(ctx, tx).
		Preload("User", preloadUserSummary).
		Order("created_at DESC").
		Limit(limit).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *SubscriptionPostgreSQL) HasActiveForLevel(ctx context.Context, tx *gorm.DB, userID uint, level int, excludeID *uint) (bool, error) {
	var count int64
	query := s.helpers.getDB(ctx, tx).Model(&models.Subscription{}).
		Where("user_id = ? AND course_level = ? AND status = ?", userID, level, models.SubscriptionActive)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SubscriptionPostgreSQL) HasAccess(ctx context.Context, tx *gorm.DB, userID uint, level int, now time.Time) (bool, error) {
	var count int64
	if err := s.helpers.getDB(ctx, tx).Model(&models.Subscription{}).
		Where("user_id = ? AND status = ? AND course_level >= ? AND end_date > ?",
			userID, models.SubscriptionActive, level, now).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SubscriptionPostgreSQL) ExpireOverdue(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	result := s.helpers.getDB(ctx, tx).Model(&models.Subscription{}).
		Where("status = ? AND end_date <= ?", models.SubscriptionActive, now).
		Updates(map[string]interface{}{
			"status":     models.SubscriptionExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (s *SubscriptionPostgreSQL) Counts(ctx context.Context, tx *gorm.DB) (*repositories.SubscriptionCounts, error) {
	var rows []struct {
		CourseLevel int
		Total       int64
	}
	if err := s.helpers.getDB(ctx, tx).Model(&models.Subscription{}).
		Select("course_level, COUNT(*) AS total").
		Where("status = ?", models.SubscriptionActive).
		Group("course_level").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := &repositories.SubscriptionCounts{ActiveByLevel: make(map[int]int64)}
	for level := models.MinCourseLevel; level <= models.MaxCourseLevel; level++ {
		counts.ActiveByLevel[level] = 0
	}
	for _, row := range rows {
		counts.ActiveByLevel[row.CourseLevel] = row.Total
		counts.ActiveTotal += row.Total
	}
	return counts, nil
}

func (s *SubscriptionPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	result := s.helpers.getDB(ctx, tx).Where("user_id = ?", userID).Delete(&models.Subscription{})
	return result.RowsAffected, result.Error
}
