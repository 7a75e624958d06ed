package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
)

func newSubscriptionService(env *testEnv) *subscriptionService {
	return NewSubscriptionService(env.repo, env.notifier, env.logger, env.validator).(*subscriptionService)
}

func TestSubscriptionService_CreateDefaultsAndConflict(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()
	student := env.seedUser(t, "student", models.RoleStudent)

	sub, err := svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 2, PaymentInfo: PaymentInfoRequest{Amount: 99}})
	require.NoError(t, err)
	assert.Equal(t, student.ID, sub.UserID)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.EndDate)
	assert.WithinDuration(t, sub.StartDate.AddDate(1, 0, 0), *sub.EndDate, time.Second)

	info := sub.PaymentInfo.Data()
	assert.Equal(t, "USD", info.Currency)
	assert.Equal(t, "credit_card", info.PaymentMethod)
	assert.Len(t, env.publisher.EventsOfType(events.EventSubscriptionCreated), 1)

	_, err = svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 2})
	assert.ErrorIs(t, err, ErrActiveSubscriptionExists)
	assert.True(t, IsConflict(err))

	_, err = svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 3})
	require.NoError(t, err)

	_, err = svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 4})
	assert.True(t, IsValidation(err))
}

func TestSubscriptionService_CreateForAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()
	student := env.seedUser(t, "student", models.RoleStudent)
	other := env.seedUser(t, "other", models.RoleStudent)
	admin := env.seedUser(t, "admin", models.RoleAdmin)

	_, err := svc.Create(ctx, student, &CreateSubscriptionRequest{UserID: uintPtr(other.ID), CourseLevel: 1})
	assert.True(t, IsForbidden(err))

	sub, err := svc.Create(ctx, admin, &CreateSubscriptionRequest{UserID: uintPtr(other.ID), CourseLevel: 1})
	require.NoError(t, err)
	assert.Equal(t, other.ID, sub.UserID)

	_, err = svc.Create(ctx, admin, &CreateSubscriptionRequest{UserID: uintPtr(999), CourseLevel: 1})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubscriptionService_HasAccess(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()
	student := env.seedUser(t, "student", models.RoleStudent)
	admin := env.seedUser(t, "admin", models.RoleAdmin)

	ok, err := svc.HasAccess(ctx, student, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 2})
	require.NoError(t, err)

	for level, want := range map[int]bool{1: true, 2: true, 3: false} {
		ok, err := svc.HasAccess(ctx, student, level)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "level %d", level)
	}

	ok, err = svc.HasAccess(ctx, admin, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.HasAccess(ctx, student, 0)
	assert.ErrorIs(t, err, ErrInvalidCourseLevel)

	// a year and a day later the grant has lapsed
	svc.now = func() time.Time { return time.Now().UTC().AddDate(1, 0, 1) }
	ok, err = svc.HasAccess(ctx, student, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriptionService_CancelAndRenew(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()
	student := env.seedUser(t, "student", models.RoleStudent)
	other := env.seedUser(t, "other", models.RoleStudent)
	admin := env.seedUser(t, "admin", models.RoleAdmin)

	sub, err := svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 1})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, sub.ID, other)
	assert.True(t, IsForbidden(err))

	cancelled, err := svc.Cancel(ctx, sub.ID, student)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)

	ok, err := svc.HasAccess(ctx, student, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Renew(ctx, sub.ID, other, nil)
	assert.True(t, IsForbidden(err))

	// a fresh active subscription for the same level blocks renewing the old one
	fresh, err := svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 1})
	require.NoError(t, err)
	_, err = svc.Renew(ctx, sub.ID, student, nil)
	assert.ErrorIs(t, err, ErrActiveSubscriptionExists)

	_, err = svc.Cancel(ctx, fresh.ID, admin)
	require.NoError(t, err)

	renewed, err := svc.Renew(ctx, sub.ID, admin, &RenewSubscriptionRequest{
		PaymentInfo: &PaymentInfoRequest{Amount: 10, Currency: "eur", PaymentMethod: "paypal"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, renewed.Status)
	assert.Equal(t, "EUR", renewed.PaymentInfo.Data().Currency)
	assert.Len(t, env.publisher.EventsOfType(events.EventSubscriptionRenewed), 1)

	_, err = svc.Cancel(ctx, 999, admin)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestSubscriptionService_ListAndExpire(t *testing.T) {
	env := newTestEnv(t)
	svc := newSubscriptionService(env)
	ctx := context.Background()
	student := env.seedUser(t, "student", models.RoleStudent)
	other := env.seedUser(t, "other", models.RoleStudent)

	_, err := svc.Create(ctx, student, &CreateSubscriptionRequest{CourseLevel: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, &CreateSubscriptionRequest{CourseLevel: 3})
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListAll(ctx, repositories.SubscriptionFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	count, err := svc.ExpireOverdue(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, env.publisher.EventsOfType(events.EventSubscriptionExpired))

	count, err = svc.ExpireOverdue(ctx, time.Now().UTC().AddDate(2, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, env.publisher.EventsOfType(events.EventSubscriptionExpired), 1)

	mine, err = svc.ListMine(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, mine[0].Status)
}
