package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

const (
	defaultUserPageSize = 20
	recentStatsLimit    = 5
)

type adminService struct {
	repo      repositories.Repository
	notifier  EventNotifier
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewAdminService(repo repositories.Repository, notifier EventNotifier, logger *slog.Logger, validator *validator.Validator) AdminService {
	return &adminService{
		repo:      repo,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "admin"),
		validator: validator,
	}
}

func (s *adminService) ListUsers(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultUserPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{
		Users:  users,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

func (s *adminService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrUserNotFound, "get user")
	}
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uint, actor *models.User, req *UpdateUserRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrUserNotFound, "get user")
	}

	changed := map[string]any{}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
		changed["name"] = user.Name
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
		changed["username"] = user.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
		changed["email"] = user.Email
	}
	if req.Role != nil {
		if actor != nil && actor.ID == id && *req.Role != models.RoleAdmin {
			return nil, NewBusinessRuleError("self_demotion", "admins cannot remove their own admin role", nil)
		}
		user.Role = *req.Role
		changed["role"] = user.Role
	}
	if req.Status != nil {
		if actor != nil && actor.ID == id && *req.Status != models.UserStatusActive {
			return nil, NewBusinessRuleError("self_deactivation", "admins cannot deactivate themselves", nil)
		}
		user.Status = *req.Status
		changed["status"] = user.Status
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		changed["password"] = "changed"
	}

	if req.Username != nil || req.Email != nil {
		exists, err := s.repo.User().ExistsByUsernameOrEmail(ctx, nil, user.Username, user.Email, &user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			return nil, ErrUserExists
		}
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, mapRepoError(err, ErrUserNotFound, "update user")
	}

	s.logger.LogAudit(ctx, AuditEvent{
		Type:         AuditEventUpdate,
		ActorID:      actorID(actor),
		ResourceID:   user.ID,
		ResourceType: "user",
		Metadata:     changed,
	})
	return user, nil
}

// DeleteUser removes the user together with quiz results, progress and
// subscriptions in one transaction.
func (s *adminService) DeleteUser(ctx context.Context, id uint, actor *models.User) error {
	if actor != nil && actor.ID == id {
		return NewBusinessRuleError("self_delete", "admins cannot delete their own account", nil)
	}

	var removed map[string]any
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.User().GetByID(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrUserNotFound, "get user")
		}

		results, err := s.repo.QuizResult().DeleteByUser(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to delete quiz results: %w", err)
		}
		progress, err := s.repo.Progress().DeleteByUser(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}
		subs, err := s.repo.Subscription().DeleteByUser(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to delete subscriptions: %w", err)
		}
		if err := s.repo.User().Delete(ctx, tx, id); err != nil {
			return mapRepoError(err, ErrUserNotFound, "delete user")
		}

		removed = map[string]any{
			"quiz_results":  results,
			"progress":      progress,
			"subscriptions": subs,
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.LogAudit(ctx, AuditEvent{
		Type:         AuditEventDelete,
		ActorID:      actorID(actor),
		ResourceID:   id,
		ResourceType: "user",
		Metadata:     removed,
	})
	s.notifier.NotifyUserDeleted(ctx, id, actorID(actor))
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*StatsResponse, error) {
	users, err := s.repo.User().Counts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	subs, err := s.repo.Subscription().Counts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	recentUsers, err := s.repo.User().ListRecent(ctx, nil, recentStatsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	recentSubs, err := s.repo.Subscription().ListRecent(ctx, nil, recentStatsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent subscriptions: %w", err)
	}

	return &StatsResponse{
		Users:               *users,
		Subscriptions:       *subs,
		RecentUsers:         recentUsers,
		RecentSubscriptions: recentSubs,
	}, nil
}

func actorID(actor *models.User) uint {
	if actor == nil {
		return 0
	}
	return actor.ID
}
