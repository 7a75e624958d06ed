package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

const (
	defaultCurrency      = "USD"
	defaultPaymentMethod = "credit_card"
)

type subscriptionService struct {
	repo      repositories.Repository
	notifier  EventNotifier
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewSubscriptionService(repo repositories.Repository, notifier EventNotifier, logger *slog.Logger, validator *validator.Validator) SubscriptionService {
	return &subscriptionService{
		repo:      repo,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "subscription"),
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create subscribes the actor, or the named user when the actor is an admin.
func (s *subscriptionService) Create(ctx context.Context, actor *models.User, req *CreateSubscriptionRequest) (*models.Subscription, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID := actor.ID
	if req.UserID != nil && *req.UserID != actor.ID {
		if !actor.IsAdmin() {
			return nil, NewPermissionError(actor.ID, *req.UserID, "subscription", "create", "not owner")
		}
		userID = *req.UserID
	}

	now := s.now()
	end := now.AddDate(1, 0, 0)
	sub := &models.Subscription{
		UserID:      userID,
		CourseLevel: req.CourseLevel,
		Status:      models.SubscriptionActive,
		StartDate:   now,
		EndDate:     &end,
		PaymentInfo: datatypes.NewJSONType(paymentInfo(&req.PaymentInfo)),
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.User().GetByID(ctx, tx, userID); err != nil {
			return mapRepoError(err, ErrUserNotFound, "get user")
		}

		exists, err := s.repo.Subscription().HasActiveForLevel(ctx, tx, userID, req.CourseLevel, nil)
		if err != nil {
			return fmt.Errorf("failed to check active subscriptions: %w", err)
		}
		if exists {
			return ErrActiveSubscriptionExists
		}

		if err := s.repo.Subscription().Create(ctx, tx, sub); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrActiveSubscriptionExists
			}
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogAudit(ctx, AuditEvent{
		Type:         AuditEventCreate,
		ActorID:      actor.ID,
		ResourceID:   sub.ID,
		ResourceType: "subscription",
		Metadata:     map[string]any{"user_id": userID, "course_level": sub.CourseLevel},
	})
	s.notifier.NotifySubscription(ctx, events.EventSubscriptionCreated, sub)
	return sub, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, id uint, actor *models.User) (*models.Subscription, error) {
	sub, err := s.loadOwned(ctx, id, actor, "cancel")
	if err != nil {
		return nil, err
	}

	sub.Status = models.SubscriptionCancelled
	if err := s.repo.Subscription().Update(ctx, nil, sub); err != nil {
		return nil, mapRepoError(err, ErrSubscriptionNotFound, "cancel subscription")
	}

	s.logger.LogAudit(ctx, AuditEvent{
		Type:         AuditEventUpdate,
		ActorID:      actor.ID,
		ResourceID:   sub.ID,
		ResourceType: "subscription",
		Metadata:     map[string]any{"status": sub.Status},
	})
	s.notifier.NotifySubscription(ctx, events.EventSubscriptionCancelled, sub)
	return sub, nil
}

// Renew reactivates the subscription for a year from now. Payment info is
// replaced only when provided.
func (s *subscriptionService) Renew(ctx context.Context, id uint, actor *models.User, req *RenewSubscriptionRequest) (*models.Subscription, error) {
	if req != nil && req.PaymentInfo != nil {
		if err := s.validator.Validate(req.PaymentInfo); err != nil {
			return nil, err
		}
	}

	sub, err := s.loadOwned(ctx, id, actor, "renew")
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		exists, err := s.repo.Subscription().HasActiveForLevel(ctx, tx, sub.UserID, sub.CourseLevel, &sub.ID)
		if err != nil {
			return fmt.Errorf("failed to check active subscriptions: %w", err)
		}
		if exists {
			return ErrActiveSubscriptionExists
		}

		now := s.now()
		end := now.AddDate(1, 0, 0)
		sub.Status = models.SubscriptionActive
		sub.StartDate = now
		sub.EndDate = &end
		if req != nil && req.PaymentInfo != nil {
			sub.PaymentInfo = datatypes.NewJSONType(paymentInfo(req.PaymentInfo))
		}

		if err := s.repo.Subscription().Update(ctx, tx, sub); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrActiveSubscriptionExists
			}
			return mapRepoError(err, ErrSubscriptionNotFound, "renew subscription")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogAudit(ctx, AuditEvent{
		Type:         AuditEventUpdate,
		ActorID:      actor.ID,
		ResourceID:   sub.ID,
		ResourceType: "subscription",
		Metadata:     map[string]any{"status": sub.Status, "end_date": sub.EndDate},
	})
	s.notifier.NotifySubscription(ctx, events.EventSubscriptionRenewed, sub)
	return sub, nil
}

func (s *subscriptionService) ListMine(ctx context.Context, userID uint) ([]*models.Subscription, error) {
	subs, err := s.repo.Subscription().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *subscriptionService) ListAll(ctx context.Context, filters repositories.SubscriptionFilters) (*SubscriptionListResponse, error) {
	subs, total, err := s.repo.Subscription().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &SubscriptionListResponse{Subscriptions: subs, Total: total}, nil
}

// HasAccess reports whether user may open content of the given level. Admins
// always may.
func (s *subscriptionService) HasAccess(ctx context.Context, user *models.User, level int) (bool, error) {
	if level < models.MinCourseLevel || level > models.MaxCourseLevel {
		return false, ErrInvalidCourseLevel
	}
	if user == nil {
		return false, ErrUnauthorized
	}
	if user.IsAdmin() {
		return true, nil
	}

	ok, err := s.repo.Subscription().HasAccess(ctx, nil, user.ID, level, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return ok, nil
}

func (s *subscriptionService) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.Subscription().ExpireOverdue(ctx, nil, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}

	s.logger.Logger().InfoContext(ctx, "Expired overdue subscriptions", "count", count, "at", now)
	if count > 0 {
		s.notifier.NotifySubscriptionsExpired(ctx, count, now)
	}
	return count, nil
}

// loadOwned fetches a subscription the actor owns or administers
func (s *subscriptionService) loadOwned(ctx context.Context, id uint, actor *models.User, action string) (*models.Subscription, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	sub, err := s.repo.Subscription().GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err, ErrSubscriptionNotFound, "get subscription")
	}
	if !actor.IsAdmin() && sub.UserID != actor.ID {
		return nil, NewPermissionError(actor.ID, id, "subscription", action, "not owner")
	}
	return sub, nil
}

func paymentInfo(req *PaymentInfoRequest) models.PaymentInfo {
	info := models.PaymentInfo{
		Amount:        req.Amount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		TransactionID: req.TransactionID,
	}
	if info.Currency == "" {
		info.Currency = defaultCurrency
	}
	if info.PaymentMethod == "" {
		info.PaymentMethod = defaultPaymentMethod
	}
	return info
}
