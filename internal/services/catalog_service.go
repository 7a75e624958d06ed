package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

type catalogService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	cacheTTL  time.Duration
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewCatalogService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	cacheTTL time.Duration,
	logger *slog.Logger,
	validator *validator.Validator,
) CatalogService {
	return &catalogService{
		repo:      repo,
		cache:     cacheService,
		cacheTTL:  cacheTTL,
		logger:    NewServiceLogger(logger, "catalog"),
		validator: validator,
	}
}

// ===== COURSES =====

func (s *catalogService) ListCourses(ctx context.Context, level *int) ([]*models.Course, error) {
	if level != nil && (*level < models.MinCourseLevel || *level > models.MaxCourseLevel) {
		return nil, ErrInvalidCourseLevel
	}

	if level == nil {
		var cached []*models.Course
		if s.cacheGet(ctx, cache.CourseListKey(), &cached) {
			return cached, nil
		}
	}

	courses, err := s.repo.Course().List(ctx, nil, repositories.CourseFilters{Level: level})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	if level == nil {
		s.cacheSet(ctx, cache.CourseListKey(), courses)
	}
	return courses, nil
}

// GetCourse returns the course with its modules in order. Served from cache when warm.
func (s *catalogService) GetCourse(ctx context.Context, id uint) (*models.Course, error) {
	var cached models.Course
	if s.cacheGet(ctx, cache.CourseDetailKey(id), &cached) {
		return &cached, nil
	}

	course, err := s.repo.Course().GetByIDWithModules(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "get course")
	}

	s.cacheSet(ctx, cache.CourseDetailKey(id), course)
	return course, nil
}

func (s *catalogService) CreateCourse(ctx context.Context, req *CourseRequest) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Level:       req.Level,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.Course().Create(ctx, nil, course); err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "create course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, id uint, req *CourseUpdateRequest) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "get course")
	}

	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Price != nil {
		course.Price = *req.Price
	}

	if err := s.repo.Course().Update(ctx, nil, course); err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "update course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// DeleteCourse removes the course and everything it owns in one transaction
func (s *catalogService) DeleteCourse(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Course().GetByID(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrCourseNotFound, "get course")
		}

		moduleIDs, err := s.repo.Module().IDsByCourse(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to list course modules: %w", err)
		}
		if err := s.deleteModulesTx(ctx, tx, moduleIDs); err != nil {
			return err
		}

		return mapRepoError(s.repo.Course().Delete(ctx, tx, id), ErrCourseNotFound, "delete course")
	})
	if err != nil {
		return err
	}

	s.invalidateCatalog(ctx)
	return nil
}

// ===== MODULES =====

func (s *catalogService) ListModules(ctx context.Context, courseID *uint) ([]*models.Module, error) {
	modules, err := s.repo.Module().List(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

func (s *catalogService) GetModule(ctx context.Context, id uint) (*models.Module, error) {
	module, err := s.repo.Module().GetByIDWithSections(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrModuleNotFound, "get module")
	}
	return module, nil
}

func (s *catalogService) CreateModule(ctx context.Context, req *ModuleRequest) (*models.Module, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Course().GetByID(ctx, nil, req.CourseID); err != nil {
		return nil, mapRepoError(err, ErrCourseNotFound, "get course")
	}

	module := &models.Module{
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Order:       req.Order,
	}
	if err := s.repo.Module().Create(ctx, nil, module); err != nil {
		return nil, orderConflict(err, ErrModuleNotFound, "create module")
	}

	s.invalidateCatalog(ctx)
	return module, nil
}

func (s *catalogService) UpdateModule(ctx context.Context, id uint, req *ModuleUpdateRequest) (*models.Module, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	module, err := s.repo.Module().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrModuleNotFound, "get module")
	}

	if req.Title != nil {
		module.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		module.Description = *req.Description
	}
	if req.Order != nil {
		module.Order = *req.Order
	}

	if err := s.repo.Module().Update(ctx, nil, module); err != nil {
		return nil, orderConflict(err, ErrModuleNotFound, "update module")
	}

	s.invalidateCatalog(ctx)
	return module, nil
}

func (s *catalogService) DeleteModule(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Module().GetByID(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrModuleNotFound, "get module")
		}
		return s.deleteModulesTx(ctx, tx, []uint{id})
	})
	if err != nil {
		return err
	}

	s.invalidateCatalog(ctx)
	return nil
}

// ===== SECTIONS =====

func (s *catalogService) ListSections(ctx context.Context, moduleID *uint) ([]*models.Section, error) {
	sections, err := s.repo.Section().List(ctx, nil, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}

func (s *catalogService) GetSection(ctx context.Context, id uint) (*models.Section, error) {
	section, err := s.repo.Section().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrSectionNotFound, "get section")
	}
	return section, nil
}

func (s *catalogService) CreateSection(ctx context.Context, req *SectionRequest) (*models.Section, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Module().GetByID(ctx, nil, req.ModuleID); err != nil {
		return nil, mapRepoError(err, ErrModuleNotFound, "get module")
	}

	section := &models.Section{
		ModuleID:  req.ModuleID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		VideoURL:  req.VideoURL,
		Resources: req.Resources,
		Order:     req.Order,
	}
	if section.Resources == nil {
		section.Resources = []models.Resource{}
	}
	if err := s.repo.Section().Create(ctx, nil, section); err != nil {
		return nil, orderConflict(err, ErrSectionNotFound, "create section")
	}
	return section, nil
}

func (s *catalogService) UpdateSection(ctx context.Context, id uint, req *SectionUpdateRequest) (*models.Section, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	section, err := s.repo.Section().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrSectionNotFound, "get section")
	}

	if req.Title != nil {
		section.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		section.Content = *req.Content
	}
	if req.VideoURL != nil {
		section.VideoURL = req.VideoURL
	}
	if req.Resources != nil {
		section.Resources = req.Resources
	}
	if req.Order != nil {
		section.Order = *req.Order
	}

	if err := s.repo.Section().Update(ctx, nil, section); err != nil {
		return nil, orderConflict(err, ErrSectionNotFound, "update section")
	}
	return section, nil
}

func (s *catalogService) DeleteSection(ctx context.Context, id uint) error {
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.Section().GetByID(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrSectionNotFound, "get section")
		}
		return s.deleteSectionsTx(ctx, tx, []uint{id})
	})
}

// ===== CASCADES =====

func (s *catalogService) deleteModulesTx(ctx context.Context, tx *gorm.DB, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	sectionIDs, err := s.repo.Section().IDsByModules(ctx, tx, moduleIDs)
	if err != nil {
		return fmt.Errorf("failed to list module sections: %w", err)
	}
	if err := s.deleteSectionsTx(ctx, tx, sectionIDs); err != nil {
		return err
	}
	if err := s.repo.Module().Delete(ctx, tx, moduleIDs...); err != nil {
		return mapRepoError(err, ErrModuleNotFound, "delete modules")
	}
	return nil
}

// deleteSectionsTx removes sections with their quizzes, quiz results and progress rows
func (s *catalogService) deleteSectionsTx(ctx context.Context, tx *gorm.DB, sectionIDs []uint) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	quizIDs, err := s.repo.Quiz().IDsBySections(ctx, tx, sectionIDs)
	if err != nil {
		return fmt.Errorf("failed to list section quizzes: %w", err)
	}
	if _, err := s.repo.QuizResult().DeleteByQuizzes(ctx, tx, quizIDs); err != nil {
		return fmt.Errorf("failed to delete quiz results: %w", err)
	}
	if err := s.repo.Quiz().Delete(ctx, tx, quizIDs...); err != nil {
		return mapRepoError(err, ErrQuizNotFound, "delete quizzes")
	}
	if _, err := s.repo.Progress().DeleteBySections(ctx, tx, sectionIDs); err != nil {
		return fmt.Errorf("failed to delete section progress: %w", err)
	}
	if err := s.repo.Section().Delete(ctx, tx, sectionIDs...); err != nil {
		return mapRepoError(err, ErrSectionNotFound, "delete sections")
	}
	return nil
}

// ===== CACHE =====

func (s *catalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Logger().WarnContext(ctx, "Catalog cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *catalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Logger().WarnContext(ctx, "Catalog cache write failed", "key", key, "error", err)
	}
}

func (s *catalogService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cache.CoursePattern()); err != nil {
		s.logger.Logger().WarnContext(ctx, "Catalog cache invalidation failed", "error", err)
	}
}

// orderConflict reports a unique (parent, order) violation as ErrDuplicateOrder
func orderConflict(err error, notFound error, op string) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateOrder)
	}
	return mapRepoError(err, notFound, op)
}
