package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coachingcourse/course-service/internal/auth"
	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/events"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"github.com/coachingcourse/course-service/internal/repositories/postgres"
	"github.com/coachingcourse/course-service/internal/validator"
)

// memoryCache is an in-process cache.CacheService for tests
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	data, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return c.err
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
		}
	}
	return c.err
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	cache     *memoryCache
	publisher *events.MockEventPublisher
	notifier  EventNotifier
	validator *validator.Validator
	logger    *slog.Logger
	tokens    *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
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

	require.NoError(t, postgres.Migrate(db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(log)

	return &testEnv{
		db:        db,
		repo:      postgres.NewRepository(db),
		cache:     newMemoryCache(),
		publisher: publisher,
		notifier:  NewEventNotifier(publisher, log),
		validator: validator.New(),
		logger:    log,
		tokens:    auth.NewTokenManager("test-secret", "course-service", time.Hour),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	user := &models.User{
		Name:             username,
		Username:         username,
		Email:            username + "@example.com",
		PasswordHash:     hash,
		Role:             role,
		Status:           models.UserStatusActive,
		RegistrationDate: time.Now().UTC(),
	}
	require.NoError(t, e.repo.User().Create(context.Background(), nil, user))
	return user
}

type catalogFixture struct {
	Course  *models.Course
	Module  *models.Module
	Section *models.Section
	Quiz    *models.Quiz
}

// seedCatalog creates course > module > section with a two question quiz
// (correct answers 1 and 0, passing score 70)
func (e *testEnv) seedCatalog(t *testing.T, level int) *catalogFixture {
	t.Helper()
	ctx := context.Background()

	course := &models.Course{Level: level, Title: "Course", Description: "desc", Price: 49}
	require.NoError(t, e.repo.Course().Create(ctx, nil, course))

	module := &models.Module{CourseID: course.ID, Title: "Module", Description: "desc", Order: 1}
	require.NoError(t, e.repo.Module().Create(ctx, nil, module))

	section := &models.Section{ModuleID: module.ID, Title: "Section", Content: "content", Order: 1}
	require.NoError(t, e.repo.Section().Create(ctx, nil, section))

	quiz := &models.Quiz{
		SectionID:    section.ID,
		Title:        "Quiz",
		PassingScore: 70,
		Questions: []models.Question{
			{Text: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1, Explanation: "b is right"},
			{Text: "q2", Options: []string{"c", "d"}, CorrectAnswer: 0},
		},
	}
	require.NoError(t, e.repo.Quiz().Create(ctx, nil, quiz))
	require.NoError(t, e.repo.Section().SetQuiz(ctx, nil, section.ID, &quiz.ID))
	section.QuizID = &quiz.ID

	return &catalogFixture{Course: course, Module: module, Section: section, Quiz: quiz}
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func intPtrs(values ...int) []*int {
	out := make([]*int, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }
