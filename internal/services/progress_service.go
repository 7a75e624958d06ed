package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

type progressService struct {
	repo      repositories.Repository
	notifier  EventNotifier
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewProgressService(repo repositories.Repository, notifier EventNotifier, logger *slog.Logger, validator *validator.Validator) ProgressService {
	return &progressService{
		repo:      repo,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "progress"),
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record upserts the caller's progress on a section of a module
func (s *progressService) Record(ctx context.Context, userID uint, req *ProgressRequest) (*models.Progress, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	section, err := s.repo.Section().GetByID(ctx, nil, req.SectionID)
	if err != nil {
		return nil, mapRepoError(err, ErrSectionNotFound, "get section")
	}
	if section.ModuleID != req.ModuleID {
		return nil, ErrSectionNotInModule
	}

	progress, err := recordProgress(ctx, s.repo, nil, userID, req.ModuleID, req.SectionID, req.Completed, s.now())
	if err != nil {
		return nil, err
	}

	if progress.Completed {
		s.notifier.NotifySectionCompleted(ctx, progress)
	}
	return progress, nil
}

func (s *progressService) ListForUser(ctx context.Context, userID uint, actor *models.User) ([]*models.Progress, error) {
	if err := requireSelfOrAdmin(actor, userID, "progress", "list"); err != nil {
		return nil, err
	}
	records, err := s.repo.Progress().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return records, nil
}

func (s *progressService) ListForUserModule(ctx context.Context, userID, moduleID uint, actor *models.User) ([]*models.Progress, error) {
	if err := requireSelfOrAdmin(actor, userID, "progress", "list"); err != nil {
		return nil, err
	}
	records, err := s.repo.Progress().ListByUserModule(ctx, nil, userID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list module progress: %w", err)
	}
	return records, nil
}

// ResetUser deletes all progress and quiz results of a user in one transaction
func (s *progressService) ResetUser(ctx context.Context, userID uint) (*ResetProgressResponse, error) {
	resp := &ResetProgressResponse{UserID: userID}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.User().GetByID(ctx, tx, userID); err != nil {
			return mapRepoError(err, ErrUserNotFound, "get user")
		}

		var err error
		if resp.ProgressDeleted, err = s.repo.Progress().DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}
		if resp.QuizResultsDeleted, err = s.repo.QuizResult().DeleteByUser(ctx, tx, userID); err != nil {
			return fmt.Errorf("failed to delete quiz results: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Logger().InfoContext(ctx, "Progress reset",
		"user_id", userID,
		"progress_deleted", resp.ProgressDeleted,
		"quiz_results_deleted", resp.QuizResultsDeleted)
	return resp, nil
}

// recordProgress performs the keyed upsert. CompletionDate is only offered when
// completed; the store keeps the first one it ever saw.
func recordProgress(ctx context.Context, repo repositories.Repository, tx *gorm.DB, userID, moduleID, sectionID uint, completed bool, now time.Time) (*models.Progress, error) {
	progress := &models.Progress{
		UserID:    userID,
		ModuleID:  moduleID,
		SectionID: sectionID,
		Completed: completed,
	}
	if completed {
		progress.CompletionDate = &now
	}

	stored, err := repo.Progress().Upsert(ctx, tx, progress)
	if err != nil {
		return nil, fmt.Errorf("failed to record progress: %w", err)
	}
	return stored, nil
}

// requireSelfOrAdmin allows admins and the owner of userID
func requireSelfOrAdmin(actor *models.User, userID uint, resource, action string) error {
	if actor == nil {
		return ErrUnauthorized
	}
	if actor.IsAdmin() || actor.ID == userID {
		return nil
	}
	return NewPermissionError(actor.ID, userID, resource, action, "not owner")
}
