package postgres

import (
	"context"
	"fmt"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB

	user         repositories.UserRepository
	course       repositories.CourseRepository
	module       repositories.ModuleRepository
	section      repositories.SectionRepository
	quiz         repositories.QuizRepository
	quizResult   repositories.QuizResultRepository
	subscription repositories.SubscriptionRepository
	progress     repositories.ProgressRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:           db,
		user:         NewUserPostgreSQL(db),
		course:       NewCoursePostgreSQL(db),
		module:       NewModulePostgreSQL(db),
		section:      NewSectionPostgreSQL(db),
		quiz:         NewQuizPostgreSQL(db),
		quizResult:   NewQuizResultPostgreSQL(db),
		subscription: NewSubscriptionPostgreSQL(db),
		progress:     NewProgressPostgreSQL(db),
	}
}

func (r *Repository) User() repositories.UserRepository                 { return r.user }
func (r *Repository) Course() repositories.CourseRepository             { return r.course }
func (r *Repository) Module() repositories.ModuleRepository             { return r.module }
func (r *Repository) Section() repositories.SectionRepository           { return r.section }
func (r *Repository) Quiz() repositories.QuizRepository                 { return r.quiz }
func (r *Repository) QuizResult() repositories.QuizResultRepository     { return r.quizResult }
func (r *Repository) Subscription() repositories.SubscriptionRepository { return r.subscription }
func (r *Repository) Progress() repositories.ProgressRepository         { return r.progress }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate creates or updates every table and index the service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Module{},
		&models.Section{},
		&models.Quiz{},
		&models.QuizResult{},
		&models.Subscription{},
		&models.Progress{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
