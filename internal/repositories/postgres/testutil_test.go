package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coachingcourse/course-service/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedUser(t *testing.T, repo *Repository, username string) *models.User {
	t.Helper()
	user := &models.User{
		Name:             username,
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     "hash",
		Role:             models.RoleStudent,
		Status:           models.UserStatusActive,
		RegistrationDate: time.Now().UTC(),
	}
	require.NoError(t, repo.User().Create(context.Background(), nil, user))
	return user
}

type catalogFixture struct {
	Course  *models.Course
	Module  *models.Module
	Section *models.Section
	Quiz    *models.Quiz
}

func seedCatalog(t *testing.T, repo *Repository, level int) *catalogFixture {
	t.Helper()
	ctx := context.Background()

	course := &models.Course{Level: level, Title: "Course", Description: "desc", Price: 49}
	require.NoError(t, repo.Course().Create(ctx, nil, course))

	module := &models.Module{CourseID: course.ID, Title: "Module", Description: "desc", Order: 1}
	require.NoError(t, repo.Module().Create(ctx, nil, module))

	section := &models.Section{ModuleID: module.ID, Title: "Section", Content: "content", Order: 1}
	require.NoError(t, repo.Section().Create(ctx, nil, section))

	quiz := &models.Quiz{
		SectionID:    section.ID,
		Title:        "Quiz",
		PassingScore: 70,
		Questions: []models.Question{
			{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1},
		},
	}
	require.NoError(t, repo.Quiz().Create(ctx, nil, quiz))
	require.NoError(t, repo.Section().SetQuiz(ctx, nil, section.ID, &quiz.ID))
	section.QuizID = &quiz.ID

	return &catalogFixture{Course: course, Module: module, Section: section, Quiz: quiz}
}
