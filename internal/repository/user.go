package repository

import (
	"context"
	"strings"

	"github.com/BodiAli/blog-api/internal/cache"
	"github.com/BodiAli/blog-api/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	user.Email = normalizeEmail(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("A user with this email already exists.", err)
		}
		return translateError(err, "User")
	}
	return nil
}

// GetByID returns the public profile. Profiles are cached, so the returned
// user carries no email or password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return readDB(r.db).WithContext(ctx).First(&user, id).Error
	})
	if err != nil {
		return nil, translateError(err, "User")
	}
	user.Email, user.Password = "", ""
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translateError(err, "User")
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var found uint
	err := r.db.WithContext(ctx).Model(&models.User{}).Select("id").Where("id = ?", id).Limit(1).Scan(&found).Error
	if err != nil {
		return false, translateError(err, "User")
	}
	return found == id && id != 0, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case models.IsCode(err, models.CodeNotFound):
		return false, nil
	default:
		return false, err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

