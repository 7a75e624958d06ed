package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	tokens    *auth.TokenManager
	cache     cache.CacheService
	notifier  EventNotifier
	logger    *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewAuthService(
	repo repositories.Repository,
	tokens *auth.TokenManager,
	cacheService cache.CacheService,
	notifier EventNotifier,
	logger *slog.Logger,
	validator *validator.Validator,
) AuthService {
	return &authService{
		repo:      repo,
		tokens:    tokens,
		cache:     cacheService,
		notifier:  notifier,
		logger:    NewServiceLogger(logger, "auth"),
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	op := s.logger.WithOperation(ctx, "register", 0)

	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		op.LogResult(0, "user", err)
		return nil, err
	}

	exists, err := s.repo.User().ExistsByUsernameOrEmail(ctx, nil, req.Username, req.Email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		op.LogResult(0, "user", ErrUserExists)
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             req.Name,
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     hash,
		Role:             models.RoleStudent,
		Status:           models.UserStatusActive,
		RegistrationDate: s.now(),
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	op.LogResult(user.ID, "user", nil)
	s.notifier.NotifyUserRegistered(ctx, user)
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = normalizeEmail(req.Email)
	} else if strings.Contains(login, "@") {
		login = normalizeEmail(login)
	}

	user, err := s.repo.User().GetByLogin(ctx, nil, login)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.LogSecurity(ctx, SecurityEventLoginFailed, "unknown login", "login", login)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.logger.LogSecurity(ctx, SecurityEventLoginFailed, "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.logger.LogSecurity(ctx, SecurityEventInactiveLogin, "inactive user login", "user_id", user.ID)
		return nil, ErrUserInactive
	}

	now := s.now()
	if err := s.repo.User().UpdateLastLogin(ctx, nil, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	token, claims, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	if token == "" {
		return nil, nil, ErrUnauthorized
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.LogSecurity(ctx, SecurityEventInvalidToken, "token rejected", "reason", err.Error())
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if s.cache != nil {
		revoked, err := s.cache.Exists(ctx, cache.RevokedTokenKey(claims.ID))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			s.logger.LogSecurity(ctx, SecurityEventRevokedToken, "revoked token presented", "user_id", claims.UserID)
			return nil, nil, ErrInvalidToken
		}
	}

	user, err := s.repo.User().GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to load token user: %w", err)
	}
	if !user.IsActive() {
		return nil, nil, ErrUserInactive
	}

	return user, claims, nil
}

// Logout denylists the token id until the token would have expired anyway
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.cache == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, cache.RevokedTokenKey(claims.ID), claims.UserID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
