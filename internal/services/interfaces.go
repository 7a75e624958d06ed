package services

import (
	"bytes"
	"context"
	"time"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	// Authenticate resolves a bearer token to a live user
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type CatalogService interface {
	ListCourses(ctx context.Context, level *int) ([]*models.Course, error)
	GetCourse(ctx context.Context, id uint) (*models.Course, error)
	CreateCourse(ctx context.Context, req *CourseRequest) (*models.Course, error)
	UpdateCourse(ctx context.Context, id uint, req *CourseUpdateRequest) (*models.Course, error)
	DeleteCourse(ctx context.Context, id uint) error

	ListModules(ctx context.Context, courseID *uint) ([]*models.Module, error)
	GetModule(ctx context.Context, id uint) (*models.Module, error)
	CreateModule(ctx context.Context, req *ModuleRequest) (*models.Module, error)
	UpdateModule(ctx context.Context, id uint, req *ModuleUpdateRequest) (*models.Module, error)
	DeleteModule(ctx context.Context, id uint) error

	ListSections(ctx context.Context, moduleID *uint) ([]*models.Section, error)
	GetSection(ctx context.Context, id uint) (*models.Section, error)
	CreateSection(ctx context.Context, req *SectionRequest) (*models.Section, error)
	UpdateSection(ctx context.Context, id uint, req *SectionUpdateRequest) (*models.Section, error)
	DeleteSection(ctx context.Context, id uint) error
}

type QuizService interface {
	List(ctx context.Context) ([]*models.Quiz, error)
	Get(ctx context.Context, id uint, viewer *models.User) (*QuizView, error)
	Create(ctx context.Context, req *QuizRequest) (*models.Quiz, error)
	Update(ctx context.Context, id uint, req *QuizUpdateRequest) (*models.Quiz, error)
	Delete(ctx context.Context, id uint) error

	Submit(ctx context.Context, quizID, userID uint, req *SubmitQuizRequest) (*QuizSubmissionResponse, error)
	ListResults(ctx context.Context, userID uint, actor *models.User) ([]*models.QuizResult, error)
}

type ProgressService interface {
	Record(ctx context.Context, userID uint, req *ProgressRequest) (*models.Progress, error)
	ListForUser(ctx context.Context, userID uint, actor *models.User) ([]*models.Progress, error)
	ListForUserModule(ctx context.Context, userID, moduleID uint, actor *models.User) ([]*models.Progress, error)
	ResetUser(ctx context.Context, userID uint) (*ResetProgressResponse, error)
}

type SubscriptionService interface {
	Create(ctx context.Context, actor *models.User, req *CreateSubscriptionRequest) (*models.Subscription, error)
	Cancel(ctx context.Context, id uint, actor *models.User) (*models.Subscription, error)
	Renew(ctx context.Context, id uint, actor *models.User, req *RenewSubscriptionRequest) (*models.Subscription, error)
	ListMine(ctx context.Context, userID uint) ([]*models.Subscription, error)
	ListAll(ctx context.Context, filters repositories.SubscriptionFilters) (*SubscriptionListResponse, error)
	HasAccess(ctx context.Context, user *models.User, level int) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, actor *models.User, req *UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id uint, actor *models.User) error
	Stats(ctx context.Context) (*StatsResponse, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, filters repositories.QuizResultFilters) (*bytes.Buffer, error)
	ExportUsers(ctx context.Context) (*bytes.Buffer, error)
}

// ===== AUTH DTOs =====

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest accepts either username or email as the identifier
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// ===== CATALOG DTOs =====

type CourseRequest struct {
	Level       int     `json:"level" validate:"course_level"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type CourseUpdateRequest struct {
	Level       *int     `json:"level" validate:"omitempty,course_level"`
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,min=1"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}

type ModuleRequest struct {
	CourseID    uint   `json:"courseId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Order       int    `json:"order" validate:"gte=0"`
}

type ModuleUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
}

type SectionRequest struct {
	ModuleID  uint              `json:"moduleId" validate:"required"`
	Title     string            `json:"title" validate:"required,max=200"`
	Content   string            `json:"content" validate:"required"`
	VideoURL  *string           `json:"videoUrl" validate:"omitempty,url"`
	Resources []models.Resource `json:"resources" validate:"omitempty,dive"`
	Order     int               `json:"order" validate:"gte=0"`
}

type SectionUpdateRequest struct {
	Title     *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Content   *string           `json:"content" validate:"omitempty,min=1"`
	VideoURL  *string           `json:"videoUrl" validate:"omitempty,url"`
	Resources []models.Resource `json:"resources" validate:"omitempty,dive"`
	Order     *int              `json:"order" validate:"omitempty,gte=0"`
}

// ===== QUIZ DTOs =====

type QuizRequest struct {
	SectionID    uint              `json:"sectionId" validate:"required"`
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description"`
	PassingScore *int              `json:"passingScore"`
	Questions    []models.Question `json:"questions"`
}

type QuizUpdateRequest struct {
	Title        *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string           `json:"description"`
	PassingScore *int              `json:"passingScore"`
	Questions    []models.Question `json:"questions"`
}

// QuizView is a quiz as shown to a caller. Students never see answers.
type QuizView struct {
	ID           uint           `json:"id"`
	SectionID    uint           `json:"sectionId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PassingScore int            `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
}

type QuestionView struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// SubmitQuizRequest holds one option index per question; null means unanswered.
// ModuleID is optional and must match the quiz section's module when present.
type SubmitQuizRequest struct {
	Answers  []*int `json:"answers" validate:"required"`
	ModuleID *uint  `json:"moduleId"`
}

type QuizSubmissionResponse struct {
	ResultID       uint                  `json:"resultId"`
	Score          int                   `json:"score"`
	Passed         bool                  `json:"passed"`
	PassingScore   int                   `json:"passingScore"`
	CorrectCount   int                   `json:"correctCount"`
	TotalQuestions int                   `json:"totalQuestions"`
	Answers        []models.AnswerResult `json:"answers"`
}

// ===== PROGRESS DTOs =====

type ProgressRequest struct {
	ModuleID  uint `json:"moduleId" validate:"required"`
	SectionID uint `json:"sectionId" validate:"required"`
	Completed bool `json:"completed"`
}

type ResetProgressResponse struct {
	UserID             uint  `json:"userId"`
	ProgressDeleted    int64 `json:"progressDeleted"`
	QuizResultsDeleted int64 `json:"quizResultsDeleted"`
}

// ===== SUBSCRIPTION DTOs =====

type PaymentInfoRequest struct {
	Amount        float64 `json:"amount" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`
	PaymentMethod string  `json:"paymentMethod" validate:"omitempty,max=50"`
	TransactionID *string `json:"transactionId" validate:"omitempty,max=100"`
}

// CreateSubscriptionRequest subscribes the caller. Admins may name another user.
type CreateSubscriptionRequest struct {
	UserID      *uint              `json:"userId"`
	CourseLevel int                `json:"courseLevel" validate:"course_level"`
	PaymentInfo PaymentInfoRequest `json:"paymentInfo"`
}

type RenewSubscriptionRequest struct {
	PaymentInfo *PaymentInfoRequest `json:"paymentInfo"`
}

type SubscriptionListResponse struct {
	Subscriptions []*models.Subscription `json:"subscriptions"`
	Total         int64                  `json:"total"`
}

// ===== ADMIN DTOs =====

type UpdateUserRequest struct {
	Name     *string            `json:"name" validate:"omitempty,min=1,max=100"`
	Username *string            `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string            `json:"email" validate:"omitempty,email,max=255"`
	Role     *models.UserRole   `json:"role" validate:"omitempty,user_role"`
	Status   *models.UserStatus `json:"status" validate:"omitempty,user_status"`
	Password *string            `json:"password" validate:"omitempty,min=6,max=72"`
}

type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type StatsResponse struct {
	Users               repositories.UserCounts         `json:"users"`
	Subscriptions       repositories.SubscriptionCounts `json:"subscriptions"`
	RecentUsers         []*models.User                  `json:"recentUsers"`
	RecentSubscriptions []*models.Subscription          `json:"recentSubscriptions"`
}
