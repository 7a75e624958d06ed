package postgres

import (
	"context"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return translateError(q.helpers.getDB(ctx, tx).Create(quiz).Error)
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.getDB(ctx, tx).First(&quiz, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetBySection(ctx context.Context, tx *gorm.DB, sectionID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.getDB(ctx, tx).Where("section_id = ?", sectionID).First(&quiz).Error; err != nil {
		return nil, translateError(err)
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	if err := q.helpers.getDB(ctx, tx).Order("id ASC").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return translateError(q.helpers.getDB(ctx, tx).Save(quiz).Error)
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) == 1 {
		return deleteByID(q.helpers.getDB(ctx, tx), &models.Quiz{}, ids[0])
	}
	return q.helpers.getDB(ctx, tx).Delete(&models.Quiz{}, ids).Error
}

func (q *QuizPostgreSQL) IDsBySections(ctx context.Context, tx *gorm.DB, sectionIDs []uint) ([]uint, error) {
	var ids []uint
	if len(sectionIDs) == 0 {
		return ids, nil
	}
	if err := q.helpers.getDB(ctx, tx).Model(&models.Quiz{}).
		Where("section_id IN ?", sectionIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

type QuizResultPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizResultPostgreSQL(db *gorm.DB) repositories.QuizResultRepository {
	return &QuizResultPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *QuizResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	return translateError(r.helpers.getDB(ctx, tx).Omit("User", "Quiz").Create(result).Error)
}

func (r *QuizResultPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*models.QuizResult, error) {
	var results []*models.QuizResult
	if err := r.helpers.getDB(ctx, tx).
		Where("user_id = ?", userID).
		Preload("Quiz", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "section_id", "title", "passing_score")
		}).
		Order("completion_date DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *QuizResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizResultFilters) ([]*models.QuizResult, error) {
	var results []*models.QuizResult
	query := r.helpers.getDB(ctx, tx).Model(&models.QuizResult{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "username", "email")
		}).
		Preload("Quiz", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "section_id", "title", "passing_score")
		}).
		Order("completion_date DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *QuizResultPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) (int64, error) {
	result := r.helpers.getDB(ctx, tx).Where("user_id = ?", userID).Delete(&models.QuizResult{})
	return result.RowsAffected, result.Error
}

func (r *QuizResultPostgreSQL) DeleteByQuizzes(ctx context.Context, tx *gorm.DB, quizIDs []uint) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}
	result := r.helpers.getDB(ctx, tx).Where("quiz_id IN ?", quizIDs).Delete(&models.QuizResult{})
	return result.RowsAffected, result.Error
}
