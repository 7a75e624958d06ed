package postgres

import (
	"context"
	"time"

	"github.com/coachingcourse/course-service/internal/models"
	"github.com/coachingcourse/course-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

var userSortColumns = map[string]string{
	"registration_date": "registration_date",
	"name":              "name",
	"username":          "username",
	"last_login":        "last_login",
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return translateError(u.helpers.getDB(ctx, tx).Create(user).Error)
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := u.helpers.getDB(ctx, tx).First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByLogin(ctx context.Context, tx *gorm.DB, login string) (*models.User, error) {
	var user models.User
	if err := u.helpers.getDB(ctx, tx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return translateError(u.helpers.getDB(ctx, tx).Save(user).Error)
}

func (u *UserPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return deleteByID(u.helpers.getDB(ctx, tx), &models.User{}, id)
}

func (u *UserPostgreSQL) ExistsByUsernameOrEmail(ctx context.Context, tx *gorm.DB, username, email string, excludeID *uint) (bool, error) {
	var count int64
	query := u.helpers.getDB(ctx, tx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) UpdateLastLogin(ctx context.Context, tx *gorm.DB, id uint, loginTime time.Time) error {
	return u.helpers.getDB(ctx, tx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", loginTime).Error
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := u.helpers.getDB(ctx, tx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Search != "" {
		pattern := likePattern(filters.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = u.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, userSortColumns, "registration_date", filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (u *UserPostgreSQL) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*models.User, error) {
	var users []*models.User
	if err := u.helpers.getDB(ctx, tx).
		Order("registration_date DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserPostgreSQL) Counts(ctx context.Context, tx *gorm.DB) (*repositories.UserCounts, error) {
	var counts repositories.UserCounts
	db := u.helpers.getDB(ctx, tx)
	if err := db.Model(&models.User{}).Count(&counts.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("status = ?", models.UserStatusActive).Count(&counts.Active).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
