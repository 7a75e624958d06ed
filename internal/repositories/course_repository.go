package repositories

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

type CourseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, course *models.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error)
	GetByIDWithModules(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) // modules by order
	List(ctx context.Context, tx *gorm.DB, filters CourseFilters) ([]*models.Course, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type ModuleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, module *models.Module) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error)
	GetByIDWithSections(ctx context.Context, tx *gorm.DB, id uint) (*models.Module, error) // sections by order
	List(ctx context.Context, tx *gorm.DB, courseID *uint) ([]*models.Module, error)
	Update(ctx context.Context, tx *gorm.DB, module *models.Module) error
	Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error

	IDsByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]uint, error)
}

type SectionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, section *models.Section) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Section, error)
	List(ctx context.Context, tx *gorm.DB, moduleID *uint) ([]*models.Section, error)
	Update(ctx context.Context, tx *gorm.DB, section *models.Section) error
	Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error

	IDsByModules(ctx context.Context, tx *gorm.DB, moduleIDs []uint) ([]uint, error)
	SetQuiz(ctx context.Context, tx *gorm.DB, sectionID uint, quizID *uint) error
}
