package postgres

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type ModulePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewModulePostgreSQL(db *gorm.DB) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (m *ModulePostgreSQL) Create(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	return translateError(m.helpers.getDB(ctx, tx).Omit("Sections").Create(module).Error)
}

func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.helpers.getDB(ctx, tx).First(&module, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &module, nil
}

// GetByIDWithSections loads the module with its sections in display order
func (m *ModulePostgreSQL) GetByIDWithSections(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) {
	var module models.Module
	if err := m.helpers.getDB(ctx, tx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&module, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &module, nil
}

func (m *ModulePostgreSQL) List(ctx context.Context, tx *gorm.DB, courseID *uint) ([]*models.Module, error) {
	var modules []*models.Module
	query := m.helpers.getDB(ctx, tx).Model(&models.Module{})
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}
	if err := query.Order("course_id ASC").Order("sort_order ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (m *ModulePostgreSQL) Update(ctx context.Context, tx *gorm.DB, module *models.Module) error {
	return translateError(m.helpers.getDB(ctx, tx).Omit("Sections").Save(module).Error)
}

func (m *ModulePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) == 1 {
		return deleteByID(m.helpers.getDB(ctx, tx), &models.Module{}, ids[0])
	}
	return m.helpers.getDB(ctx, tx).Delete(&models.Module{}, ids).Error
}

func (m *ModulePostgreSQL) IDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error) {
	var ids []uint
	if err := m.helpers.getDB(ctx, tx).Model(&models.Module{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
