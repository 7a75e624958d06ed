package postgres

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type SectionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSectionPostgreSQL(db *gorm.DB) repositories.SectionRepository {
	return &SectionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SectionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, section *models.Section) error {
	return translateError(s.helpers.getDB(ctx, tx).Create(section).Error)
}

func (s *SectionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error) {
	var section models.Section
	if err := s.helpers.getDB(ctx, tx).First(&section, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &section, nil
}

func (s *SectionPostgreSQL) List(ctx context.Context, tx *gorm.DB, moduleID *uint) ([]*models.Section, error) {
	var sections []*models.Section
	query := s.helpers.getDB(ctx, tx).Model(&models.Section{})
	if moduleID != nil {
		query = query.Where("module_id = ?", *moduleID)
	}
	if err := query.Order("module_id ASC").Order("sort_order ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (s *SectionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, section *models.Section) error {
	return translateError(s.helpers.getDB(ctx, tx).Save(section).Error)
}

func (s *SectionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) == 1 {
		return deleteByID(s.helpers.getDB(ctx, tx), &models.Section{}, ids[0])
	}
	return s.helpers.getDB(ctx, tx).Delete(&models.Section{}, ids).Error
}

func (s *SectionPostgreSQL) IDsByModules(ctx context.Context, tx *gorm.DB, moduleIDs []uint) ([]uint, error) {
	var ids []uint
	if len(moduleIDs) == 0 {
		return ids, nil
	}
	if err := s.helpers.getDB(ctx, tx).Model(&models.Section{}).
		Where("module_id IN ?", moduleIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SectionPostgreSQL) SetQuiz(ctx context.Context, tx *gorm.DB, sectionID uint, quizID *uint) error {
	result := s.helpers.getDB(ctx, tx).Model(&models.Section{}).
		Where("id = ?", sectionID).
		Update("quiz_id", quizID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
