package postgres

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewProgressPostgreSQL(db *gorm.DB) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

var progressKey = []clause.Column{{Name: "user_id"}, {Name: "module_id"}, {Name: "section_id"}}

// Upsert is a single INSERT .. ON CONFLICT statement, so concurrent writers for
// the same key converge on one row.
func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, progress *models.Progress) (*models.Progress, error) {
	db := p.helpers.getDB(ctx, tx)
	err := db.Clauses(clause.OnConflict{
		Columns: progressKey,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed":       gorm.Expr("excluded.completed"),
			"completion_date": gorm.Expr("COALESCE(progress.completion_date, excluded.completion_date)"),
			"updated_at":      gorm.Expr("excluded.updated_at"),
		}),
	}).Create(progress).Error
	if err != nil {
		return nil, translateError(err)
	}
	return p.Get(ctx, tx, progress.UserID, progress.ModuleID, progress.SectionID)
}

func (p *ProgressPostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, moduleID, sectionID uint) (*models.Progress, error) {
	var progress models.Progress
	if err := p.helpers.getDB(ctx, tx).
		Where("user_id = ? AND module_id = ? AND section_id = ?", userID, moduleID, sectionID).
		First(&progress).Error; err != nil {
		return nil, translateError(err)
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.Progress, error) {
	var records []*models.Progress
	if err := p.helpers.getDB(ctx, tx).
		Where("user_id = ?", userID).
		Order("module_id ASC").
		Order("section_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (p *ProgressPostgreSQL) ListByUserModule(ctx context.Context, tx *gorm.DB, userID, moduleID uint) ([]*models.Progress, error) {
	var records []*models.Progress
	if err := p.helpers.getDB(ctx, tx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("section_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (p *ProgressPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	result := p.helpers.getDB(ctx, tx).Where("user_id = ?", userID).Delete(&models.Progress{})
	return result.RowsAffected, result.Error
}

func (p *ProgressPostgreSQL) DeleteBySections(ctx context.Context, tx *gorm.DB, sectionIDs []uint) (int64, error) {
	if len(sectionIDs) == 0 {
		return 0, nil
	}
	result := p.helpers.getDB(ctx, tx).Where("section_id IN ?", sectionIDs).Delete(&models.Progress{})
	return result.RowsAffected, result.Error
}
