package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

type PaymentInfo struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
	TransactionID *string `json:"transactionId"`
}

// Subscription grants access to a course level and every level below it.
// The partial unique index allows a single active row per (user, level).
type Subscription struct {
	ID          uint                             `json:"id" gorm:"primaryKey"`
	UserID      uint                             `json:"userId" gorm:"not null;index;uniqueIndex:idx_subscriptions_active_level,where:status = 'active'"`
	CourseLevel int                              `json:"courseLevel" gorm:"not null;uniqueIndex:idx_subscriptions_active_level,where:status = 'active'"`
	Status      SubscriptionStatus               `json:"status" gorm:"not null;default:active;size:20;index"`
	StartDate   time.Time                        `json:"startDate" gorm:"not null;index"`
	EndDate     *time.Time                       `json:"endDate" gorm:"index"`
	PaymentInfo datatypes.JSONType[PaymentInfo] `json:"paymentInfo"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// GrantsLevel reports whether the subscription currently confers access to level.
func (s *Subscription) GrantsLevel(level int, now time.Time) bool {
	return s.Status == SubscriptionActive &&
		s.CourseLevel >= level &&
		s.EndDate != nil && s.EndDate.After(now)
}
