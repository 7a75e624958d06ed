package services

import (
	"log/slog"
	"time"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/validator"
)

// ServiceManager exposes every service the HTTP layer needs
type ServiceManager interface {
	Auth() AuthService
	Catalog() CatalogService
	Quiz() QuizService
	Progress() ProgressService
	Subscription() SubscriptionService
	Admin() AdminService
	Export() ExportService
}

type Dependencies struct {
	Repo            repositories.Repository
	Tokens          *auth.TokenManager
	Cache           cache.CacheService
	Publisher       events.EventPublisher
	Logger          *slog.Logger
	Validator       *validator.Validator
	CatalogCacheTTL time.Duration
}

type serviceManager struct {
	auth         AuthService
	catalog      CatalogService
	quiz         QuizService
	progress     ProgressService
	subscription SubscriptionService
	admin        AdminService
	export       ExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	notifier := NewEventNotifier(deps.Publisher, deps.Logger)

	return &serviceManager{
		auth:         NewAuthService(deps.Repo, deps.Tokens, deps.Cache, notifier, deps.Logger, deps.Validator),
		catalog:      NewCatalogService(deps.Repo, deps.Cache, deps.CatalogCacheTTL, deps.Logger, deps.Validator),
		quiz:         NewQuizService(deps.Repo, notifier, deps.Logger, deps.Validator),
		progress:     NewProgressService(deps.Repo, notifier, deps.Logger, deps.Validator),
		subscription: NewSubscriptionService(deps.Repo, notifier, deps.Logger, deps.Validator),
		admin:        NewAdminService(deps.Repo, notifier, deps.Logger, deps.Validator),
		export:       NewExportService(deps.Repo, deps.Logger),
	}
}

func (m *serviceManager) Auth() AuthService                 { return m.auth }
func (m *serviceManager) Catalog() CatalogService           { return m.catalog }
func (m *serviceManager) Quiz() QuizService                 { return m.quiz }
func (m *serviceManager) Progress() ProgressService         { return m.progress }
func (m *serviceManager) Subscription() SubscriptionService { return m.subscription }
func (m *serviceManager) Admin() AdminService               { return m.admin }
func (m *serviceManager) Export() ExportService             { return m.export }
