package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
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
	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
	"github.com/coachingcourse/course-service/internal/validator"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	return nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

type testServer struct {
	router *gin.Engine
	repo   repositories.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.Migrate(db))

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := postgres.NewRepository(db)
	manager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Tokens:    auth.NewTokenManager("handler-secret", "course-service", time.Hour),
		Cache:     &memCache{data: make(map[string][]byte)},
		Publisher: events.NewMockEventPublisher(slogger),
		Logger:    slogger,
		Validator: validator.New(),
	})

	appLogger := utils.NewSlogLogger(slogger)
	health := NewHealthHandler("course-service", map[string]Pinger{"database": PingFunc(repo.Ping)})
	router := NewRouter(appLogger, []string{"*"})
	NewHandlerManager(manager, health, appLogger).SetupRoutes(router)

	return &testServer{router: router, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedUser(t *testing.T, username string, role models.UserRole) *models.User {
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
	require.NoError(t, s.repo.User().Create(context.Background(), nil, user))
	return user
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp services.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "username": "ada", "email": "ada@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "passwordHash")
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))

	w = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "username": "ada", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeConflict, decode[ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := s.login(t, "ada")

	w = s.do(t, http.MethodGet, "/api/auth/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada", decode[models.User](t, w).Username)

	w = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/user", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuards(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "student", models.RoleStudent)
	s.seedUser(t, "root", models.RoleAdmin)
	studentToken := s.login(t, "student")
	adminToken := s.login(t, "root")

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"malformed token", "garbage", http.StatusUnauthorized},
		{"student", studentToken, http.StatusForbidden},
		{"admin", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/api/admin/users", tt.token, nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	t.Run("public catalog", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/courses", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/courses/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing course", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/courses/42", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Course not found", decode[ErrorResponse](t, w).Message)
	})
}

func TestCourseQuizProgressFlow(t *testing.T) {
	s := newTestServer(t)
	student := s.seedUser(t, "student", models.RoleStudent)
	peer := s.seedUser(t, "peer", models.RoleStudent)
	s.seedUser(t, "root", models.RoleAdmin)
	adminToken := s.login(t, "root")
	studentToken := s.login(t, "student")
	peerToken := s.login(t, "peer")

	w := s.do(t, http.MethodPost, "/api/courses", adminToken, map[string]interface{}{
		"level": 1, "title": "Basics", "description": "intro", "price": 19.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	course := decode[models.Course](t, w)

	w = s.do(t, http.MethodPost, "/api/courses", studentToken, map[string]interface{}{
		"level": 1, "title": "Nope", "description": "x",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/modules", adminToken, map[string]interface{}{
		"courseId": course.ID, "title": "Module", "description": "d", "order": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	module := decode[models.Module](t, w)

	w = s.do(t, http.MethodPost, "/api/modules", adminToken, map[string]interface{}{
		"courseId": course.ID, "title": "Clash", "description": "d", "order": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeConflict, decode[ErrorResponse](t, w).Code)

	w = s.do(t, http.MethodPost, "/api/sections", adminToken, map[string]interface{}{
		"moduleId": module.ID, "title": "Section", "content": "text", "order": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	section := decode[models.Section](t, w)

	w = s.do(t, http.MethodPost, "/api/quizzes", adminToken, map[string]interface{}{
		"sectionId": section.ID,
		"title":     "Check",
		"questions": []map[string]interface{}{
			{"text": "2+2", "options": []string{"3", "4"}, "correctAnswer": 1, "explanation": "math"},
			{"text": "3+3", "options": []string{"6", "7"}, "correctAnswer": 0},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := decode[models.Quiz](t, w)
	assert.Equal(t, 70, quiz.PassingScore)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctAnswer")
	assert.NotContains(t, w.Body.String(), "math")

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "correctAnswer")

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), studentToken, map[string]interface{}{
		"answers": []interface{}{1, nil},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	failed := decode[services.QuizSubmissionResponse](t, w)
	assert.Equal(t, 50, failed.Score)
	assert.False(t, failed.Passed)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), studentToken, map[string]interface{}{
		"answers":  []int{1, 0},
		"moduleId": module.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	passed := decode[services.QuizSubmissionResponse](t, w)
	assert.Equal(t, 100, passed.Score)
	assert.True(t, passed.Passed)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/quizzes/%d/submit", quiz.ID), studentToken, map[string]interface{}{
		"answers":  []int{1, 0},
		"moduleId": module.ID + 50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/progress/user/%d/module/%d", student.ID, module.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[[]models.Progress](t, w)
	require.Len(t, progress, 1)
	assert.True(t, progress[0].Completed)
	assert.NotNil(t, progress[0].CompletionDate)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/progress/user/%d", student.ID), peerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/results/user/%d", student.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.QuizResult](t, w), 2)

	w = s.do(t, http.MethodPost, "/api/progress", peerToken, map[string]interface{}{
		"moduleId": module.ID, "sectionId": section.ID, "completed": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/progress/user/%d", peer.ID), studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/progress/user/%d", peer.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[services.ResetProgressResponse](t, w)
	assert.Equal(t, int64(1), reset.ProgressDeleted)

	w = s.do(t, http.MethodGet, "/api/admin/exports/quiz-results", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "quiz-results-")
	assert.NotZero(t, w.Body.Len())

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/quizzes/%d", quiz.ID), studentToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "student", models.RoleStudent)
	s.seedUser(t, "peer", models.RoleStudent)
	s.seedUser(t, "root", models.RoleAdmin)
	studentToken := s.login(t, "student")
	peerToken := s.login(t, "peer")
	adminToken := s.login(t, "root")

	w := s.do(t, http.MethodGet, "/api/subscriptions/access/2", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[AccessResponse](t, w).HasAccess)

	w = s.do(t, http.MethodPost, "/api/subscriptions", studentToken, map[string]interface{}{
		"courseLevel": 2,
		"paymentInfo": map[string]interface{}{"amount": 99},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[models.Subscription](t, w)
	assert.Equal(t, "USD", sub.PaymentInfo.Data().Currency)

	w = s.do(t, http.MethodPost, "/api/subscriptions", studentToken, map[string]interface{}{"courseLevel": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeConflict, decode[ErrorResponse](t, w).Code)

	for level, want := range map[string]bool{"1": true, "2": true, "3": false} {
		w = s.do(t, http.MethodGet, "/api/subscriptions/access/"+level, studentToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, decode[AccessResponse](t, w).HasAccess, "level %s", level)
	}

	w = s.do(t, http.MethodGet, "/api/subscriptions/access/9", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d/cancel", sub.ID), peerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d/cancel", sub.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SubscriptionCancelled, decode[models.Subscription](t, w).Status)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/subscriptions/%d/renew", sub.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.SubscriptionActive, decode[models.Subscription](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/subscriptions/me", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Subscription](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/admin/subscriptions", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[services.SubscriptionListResponse](t, w)
	assert.Equal(t, int64(1), list.Total)
	require.NotNil(t, list.Subscriptions[0].User)
	assert.Equal(t, "student", list.Subscriptions[0].User.Username)

	w = s.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.StatsResponse](t, w)
	assert.Equal(t, int64(3), stats.Users.Total)
	assert.Equal(t, int64(1), stats.Subscriptions.ActiveTotal)
}

func TestAdminUserManagement(t *testing.T) {
	s := newTestServer(t)
	student := s.seedUser(t, "student", models.RoleStudent)
	admin := s.seedUser(t, "root", models.RoleAdmin)
	studentToken := s.login(t, "student")
	adminToken := s.login(t, "root")

	w := s.do(t, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", student.ID), adminToken, map[string]interface{}{
		"status": "inactive",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/auth/user", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "student", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", admin.ID), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", student.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/users/%d", student.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/exports/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	appLogger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		check  PingFunc
		status int
	}{
		{"healthy", func(context.Context) error { return nil }, http.StatusOK},
		{"redis down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(appLogger, nil)
			router.GET("/health", NewHealthHandler("course-service", map[string]Pinger{"redis": tt.check}).Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("abc"))
}
