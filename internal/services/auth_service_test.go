package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/models"
)

func newAuthService(env *testEnv) *authService {
	return NewAuthService(env.repo, env.tokens, env.cache, env.notifier, env.logger, env.validator).(*authService)
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{
		Name:     " Ada ",
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Len(t, env.publisher.EventsOfType(events.EventUserRegistered), 1)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "Other", Username: "ada", Email: "other@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUserExists)
		assert.True(t, IsConflict(err))
	})

	t.Run("duplicate email differs only in case", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "Other", Username: "other", Email: "ADA@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "X", Username: "x", Email: "not-an-email", Password: "1"})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	user := env.seedUser(t, "grace", models.RoleStudent)

	t.Run("by username", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginRequest{Username: "grace", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.ID, resp.User.ID)
		require.NotNil(t, resp.User.LastLogin)

		stored, err := env.repo.User().GetByID(ctx, nil, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLogin)
	})

	t.Run("by email", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "GRACE@example.com", Password: "secret123"})
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Username: "grace", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Username: "nobody", Password: "secret123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("missing identifier", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Password: "secret123"})
		assert.True(t, IsValidation(err))
	})

	t.Run("inactive user", func(t *testing.T) {
		user.Status = models.UserStatusInactive
		require.NoError(t, env.repo.User().Update(ctx, nil, user))

		_, err := svc.Login(ctx, &LoginRequest{Username: "grace", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUserInactive)
		assert.True(t, IsForbidden(err))
	})
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	env.seedUser(t, "linus", models.RoleAdmin)

	resp, err := svc.Login(ctx, &LoginRequest{Username: "linus", Password: "secret123"})
	require.NoError(t, err)

	user, claims, err := svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "linus", user.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.True(t, env.cache.has(cache.RevokedTokenKey(claims.ID)))

	_, _, err = svc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, IsUnauthorized(err))
}

func TestAuthService_AuthenticateFailures(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env)
	ctx := context.Background()
	user := env.seedUser(t, "ken", models.RoleStudent)

	token, _, err := env.tokens.Generate(user)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "")
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, _, err := svc.Authenticate(ctx, "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("cache unavailable fails closed", func(t *testing.T) {
		env.cache.err = errors.New("redis down")
		defer func() { env.cache.err = nil }()

		_, _, err := svc.Authenticate(ctx, token)
		require.Error(t, err)
		assert.False(t, IsUnauthorized(err))
	})

	t.Run("inactive user", func(t *testing.T) {
		user.Status = models.UserStatusInactive
		require.NoError(t, env.repo.User().Update(ctx, nil, user))

		_, _, err := svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrUserInactive)
	})

	t.Run("user deleted", func(t *testing.T) {
		require.NoError(t, env.repo.User().Delete(ctx, nil, user.ID))

		_, _, err := svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
