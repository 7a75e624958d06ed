package postgres

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CoursePostgreSQL) Create(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return translateError(c.helpers.getDB(ctx, tx).Omit("Modules").Create(course).Error)
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.helpers.getDB(ctx, tx).First(&course, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &course, nil
}

// GetByIDWithModules loads the course with its modules in display order
func (c *CoursePostgreSQL) GetByIDWithModules(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := c.helpers.getDB(ctx, tx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&course, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &course, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.CourseFilters) ([]*models.Course, error) {
	var courses []*models.Course
	query := c.helpers.getDB(ctx, tx).Model(&models.Course{})
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if err := query.Order("level ASC").Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.Course) error {
	return translateError(c.helpers.getDB(ctx, tx).Omit("Modules").Save(course).Error)
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return deleteByID(c.helpers.getDB(ctx, tx), &models.Course{}, id)
}
