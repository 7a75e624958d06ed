package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/models"
)

// EventNotifier publishes domain events after the state change has committed.
// Publishing failures are logged and never fail the caller.
type EventNotifier interface {
	NotifyUserRegistered(ctx context.Context, user *models.User)
	NotifyUserDeleted(ctx context.Context, userID, deletedBy uint)
	NotifyQuizSubmitted(ctx context.Context, result *models.QuizResult)
	NotifySectionCompleted(ctx context.Context, progress *models.Progress)
	NotifySubscription(ctx context.Context, eventType events.EventType, sub *models.Subscription)
	NotifySubscriptionsExpired(ctx context.Context, count int64, at time.Time)
}

type eventNotifier struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEventNotifier(publisher events.EventPublisher, logger *slog.Logger) EventNotifier {
	return &eventNotifier{
		publisher: publisher,
		logger:    logger,
	}
}

func (n *eventNotifier) NotifyUserRegistered(ctx context.Context, user *models.User) {
	n.publish(ctx, events.NewUserRegisteredEvent(user.ID, user.Username, user.Email))
}

func (n *eventNotifier) NotifyUserDeleted(ctx context.Context, userID, deletedBy uint) {
	n.publish(ctx, events.NewUserDeletedEvent(userID, deletedBy))
}

func (n *eventNotifier) NotifyQuizSubmitted(ctx context.Context, result *models.QuizResult) {
	n.publish(ctx, events.NewQuizSubmittedEvent(events.QuizSubmittedEvent{
		ResultID:  result.ID,
		QuizID:    result.QuizID,
		UserID:    result.UserID,
		ModuleID:  result.ModuleID,
		SectionID: result.SectionID,
		Score:     result.Score,
		Passed:    result.Passed,
	}))
}

func (n *eventNotifier) NotifySectionCompleted(ctx context.Context, progress *models.Progress) {
	completedAt := time.Now().UTC()
	if progress.CompletionDate != nil {
		completedAt = *progress.CompletionDate
	}
	n.publish(ctx, events.NewSectionCompletedEvent(progress.UserID, progress.ModuleID, progress.SectionID, completedAt))
}

func (n *eventNotifier) NotifySubscription(ctx context.Context, eventType events.EventType, sub *models.Subscription) {
	n.publish(ctx, events.NewSubscriptionEvent(eventType, events.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		CourseLevel:    sub.CourseLevel,
		Status:         string(sub.Status),
		EndDate:        sub.EndDate,
	}))
}

func (n *eventNotifier) NotifySubscriptionsExpired(ctx context.Context, count int64, at time.Time) {
	n.publish(ctx, events.NewSubscriptionsExpiredEvent(count, at))
}

func (n *eventNotifier) publish(ctx context.Context, event *events.DomainEvent) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish domain event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}
