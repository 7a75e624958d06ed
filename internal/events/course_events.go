package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the service emits
type EventType string

const (
	// User events
	EventUserRegistered EventType = "user.registered"
	EventUserDeleted    EventType = "user.deleted"

	// Learning events
	EventQuizSubmitted    EventType = "quiz.submitted"
	EventSectionCompleted EventType = "section.completed"

	// Subscription events
	EventSubscriptionCreated   EventType = "subscription.created"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventSubscriptionRenewed   EventType = "subscription.renewed"
	EventSubscriptionExpired   EventType = "subscription.expired"
)

const (
	eventSource  = "course-service"
	eventVersion = "1.0"
)

// DomainEvent is the envelope for every event published by the service
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type UserRegisteredEvent struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserDeletedEvent struct {
	UserID    uint `json:"user_id"`
	DeletedBy uint `json:"deleted_by"`
}

type QuizSubmittedEvent struct {
	ResultID  uint `json:"result_id"`
	QuizID    uint `json:"quiz_id"`
	UserID    uint `json:"user_id"`
	ModuleID  uint `json:"module_id"`
	SectionID uint `json:"section_id"`
	Score     int  `json:"score"`
	Passed    bool `json:"passed"`
}

type SectionCompletedEvent struct {
	UserID      uint      `json:"user_id"`
	ModuleID    uint      `json:"module_id"`
	SectionID   uint      `json:"section_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type SubscriptionEvent struct {
	SubscriptionID uint       `json:"subscription_id"`
	UserID         uint       `json:"user_id"`
	CourseLevel    int        `json:"course_level"`
	Status         string     `json:"status"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

type SubscriptionsExpiredEvent struct {
	Count     int64     `json:"count"`
	ExpiredAt time.Time `json:"expired_at"`
}

// NewEvent wraps a payload in a DomainEvent envelope
func NewEvent(eventType EventType, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewUserRegisteredEvent(userID uint, username, email string) *DomainEvent {
	return NewEvent(EventUserRegistered, UserRegisteredEvent{UserID: userID, Username: username, Email: email})
}

func NewUserDeletedEvent(userID, deletedBy uint) *DomainEvent {
	return NewEvent(EventUserDeleted, UserDeletedEvent{UserID: userID, DeletedBy: deletedBy})
}

func NewQuizSubmittedEvent(payload QuizSubmittedEvent) *DomainEvent {
	return NewEvent(EventQuizSubmitted, payload)
}

func NewSectionCompletedEvent(userID, moduleID, sectionID uint, completedAt time.Time) *DomainEvent {
	return NewEvent(EventSectionCompleted, SectionCompletedEvent{
		UserID:      userID,
		ModuleID:    moduleID,
		SectionID:   sectionID,
		CompletedAt: completedAt,
	})
}

func NewSubscriptionEvent(eventType EventType, payload SubscriptionEvent) *DomainEvent {
	return NewEvent(eventType, payload)
}

func NewSubscriptionsExpiredEvent(count int64, at time.Time) *DomainEvent {
	return NewEvent(EventSubscriptionExpired, SubscriptionsExpiredEvent{Count: count, ExpiredAt: at})
}
