package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachingcourse/course-service/internal/cache"
	"github.com/coachingcourse/course-service/internal/models"
)

func newCatalogService(env *testEnv) CatalogService {
	return NewCatalogService(env.repo, env.cache, 0, env.logger, env.validator)
}

func TestCatalogService_CourseCacheLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, &CourseRequest{Level: 1, Title: "Basics", Description: "intro", Price: 10})
	require.NoError(t, err)

	list, err := svc.ListCourses(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, env.cache.has(cache.CourseListKey()))

	_, err = svc.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, env.cache.has(cache.CourseDetailKey(course.ID)))

	title := "Renamed"
	_, err = svc.UpdateCourse(ctx, course.ID, &CourseUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.False(t, env.cache.has(cache.CourseListKey()))
	assert.False(t, env.cache.has(cache.CourseDetailKey(course.ID)))

	got, err := svc.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	level := 3
	filtered, err := svc.ListCourses(ctx, &level)
	require.NoError(t, err)
	assert.Empty(t, filtered)

	bad := 7
	_, err = svc.ListCourses(ctx, &bad)
	assert.ErrorIs(t, err, ErrInvalidCourseLevel)

	_, err = svc.CreateCourse(ctx, &CourseRequest{Level: 0, Title: "Bad", Description: "x"})
	assert.True(t, IsValidation(err))
}

func TestCatalogService_ModuleOrdering(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env)
	ctx := context.Background()

	course, err := svc.CreateCourse(ctx, &CourseRequest{Level: 1, Title: "Basics", Description: "intro"})
	require.NoError(t, err)

	second, err := svc.CreateModule(ctx, &ModuleRequest{CourseID: course.ID, Title: "Two", Description: "d", Order: 2})
	require.NoError(t, err)
	_, err = svc.CreateModule(ctx, &ModuleRequest{CourseID: course.ID, Title: "One", Description: "d", Order: 1})
	require.NoError(t, err)

	_, err = svc.CreateModule(ctx, &ModuleRequest{CourseID: course.ID, Title: "Clash", Description: "d", Order: 2})
	assert.ErrorIs(t, err, ErrDuplicateOrder)
	assert.True(t, IsConflict(err))

	_, err = svc.CreateModule(ctx, &ModuleRequest{CourseID: 999, Title: "Orphan", Description: "d", Order: 1})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	detail, err := svc.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, detail.Modules, 2)
	assert.Equal(t, "One", detail.Modules[0].Title)
	assert.Equal(t, "Two", detail.Modules[1].Title)

	_, err = svc.CreateSection(ctx, &SectionRequest{ModuleID: second.ID, Title: "S2", Content: "c", Order: 2})
	require.NoError(t, err)
	_, err = svc.CreateSection(ctx, &SectionRequest{
		ModuleID:  second.ID,
		Title:     "S1",
		Content:   "c",
		Order:     1,
		Resources: []models.Resource{{Title: "Slides", URL: "https://example.com/s.pdf", Type: models.ResourcePDF}},
	})
	require.NoError(t, err)

	module, err := svc.GetModule(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, module.Sections, 2)
	assert.Equal(t, "S1", module.Sections[0].Title)
	require.Len(t, module.Sections[0].Resources, 1)
	assert.Equal(t, models.ResourcePDF, module.Sections[0].Resources[0].Type)

	_, err = svc.CreateSection(ctx, &SectionRequest{
		ModuleID:  second.ID,
		Title:     "Bad",
		Content:   "c",
		Order:     3,
		Resources: []models.Resource{{Title: "x", URL: "not a url", Type: "audio"}},
	})
	assert.True(t, IsValidation(err))
}

func TestCatalogService_DeleteCourseCascades(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env)
	quizzes := newQuizService(env)
	ctx := context.Background()

	fx := env.seedCatalog(t, 1)
	keep := env.seedCatalog(t, 2)
	student := env.seedUser(t, "student", models.RoleStudent)

	_, err := quizzes.Submit(ctx, fx.Quiz.ID, student.ID, &SubmitQuizRequest{Answers: intPtrs(1, 0)})
	require.NoError(t, err)
	_, err = quizzes.Submit(ctx, keep.Quiz.ID, student.ID, &SubmitQuizRequest{Answers: intPtrs(1, 0)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCourse(ctx, fx.Course.ID))

	_, err = svc.GetCourse(ctx, fx.Course.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
	_, err = svc.GetModule(ctx, fx.Module.ID)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	_, err = svc.GetSection(ctx, fx.Section.ID)
	assert.ErrorIs(t, err, ErrSectionNotFound)

	assert.Equal(t, int64(1), env.count(t, &models.Course{}))
	assert.Equal(t, int64(1), env.count(t, &models.Module{}))
	assert.Equal(t, int64(1), env.count(t, &models.Section{}))
	assert.Equal(t, int64(1), env.count(t, &models.Quiz{}))
	assert.Equal(t, int64(1), env.count(t, &models.QuizResult{}))
	assert.Equal(t, int64(1), env.count(t, &models.Progress{}))

	assert.ErrorIs(t, svc.DeleteCourse(ctx, fx.Course.ID), ErrCourseNotFound)
}

func TestCatalogService_DeleteSection(t *testing.T) {
	env := newTestEnv(t)
	svc := newCatalogService(env)
	ctx := context.Background()
	fx := env.seedCatalog(t, 1)

	require.NoError(t, svc.DeleteSection(ctx, fx.Section.ID))
	assert.Equal(t, int64(0), env.count(t, &models.Quiz{}))
	assert.Equal(t, int64(1), env.count(t, &models.Module{}))

	require.NoError(t, svc.DeleteModule(ctx, fx.Module.ID))
	assert.Equal(t, int64(0), env.count(t, &models.Module{}))
	assert.ErrorIs(t, svc.DeleteModule(ctx, fx.Module.ID), ErrModuleNotFound)
}
