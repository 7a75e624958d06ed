package repositories

import (
	"context"
	"errors"

	"github.com/coachingcourse/course-service/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Repository aggregates every store the services depend on. Each method takes
// an optional tx; nil means the connection pool.
type Repository interface {
	User() UserRepository
	Course() CourseRepository
	Module() ModuleRepository
	Section() SectionRepository
	Quiz() QuizRepository
	QuizResult() QuizResultRepository
	Subscription() SubscriptionRepository
	Progress() ProgressRepository

	// WithTransaction runs fn in a single database transaction. Returning an
	// error from fn rolls back every write made through tx.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role      *models.UserRole   `json:"role"`
	Status    *models.UserStatus `json:"status"`
	Search    string             `json:"search"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "registration_date", "name", "username"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type CourseFilters struct {
	Level *int `json:"level"`
}

type SubscriptionFilters struct {
	UserID      *uint                      `json:"user_id"`
	Status      *models.SubscriptionStatus `json:"status"`
	CourseLevel *int                       `json:"course_level"`
	Limit       int                        `json:"limit"`
	Offset      int                        `json:"offset"`
}

type QuizResultFilters struct {
	UserID *uint `json:"user_id"`
	QuizID *uint `json:"quiz_id"`
	Passed *bool `json:"passed"`
	Limit  int   `json:"limit"`
}

// ===== SHARED STATISTICS STRUCTS =====

type UserCounts struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type SubscriptionCounts struct {
	ActiveTotal   int64         `json:"activeTotal"`
	ActiveByLevel map[int]int64 `json:"activeByLevel"`
}
