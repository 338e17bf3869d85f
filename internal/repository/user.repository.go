package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateUser   = errors.New("username or api key already exists")
	ErrDuplicateRecord = errors.New("record already exists")
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	entity := toUserEntity(u)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	if apiKey == "" {
		return nil, ErrUserNotFound
	}
	var entity UserEntity
	err := r.Read(ctx).Where("api_key = ?", apiKey).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return toUserModel(&entity), nil
}

// ApproveSenderID marks the user's sender id as approved and returns the
// updated user.
func (r *UserRepository) ApproveSenderID(ctx context.Context, id int64) (*model.User, error) {
	res := r.Write(ctx).
		Model(&UserEntity{}).
		Where("id = ?", id).
		Update("sender_approved", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// isUniqueViolation matches the unique constraint errors of postgres and
// sqlite.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
