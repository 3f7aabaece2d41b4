package repository

import (
	"context"
	"errors"
	"time"

	"shulehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFilter struct {
	SchoolID *uuid.UUID
	Role     *entity.Role
	Status   *entity.Status
	Limit    int
	Offset   int
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	EmailTaken(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	VerifyEmail(ctx context.Context, userID uuid.UUID) error
	RecordFailedLogin(ctx context.Context, userID uuid.UUID, attempts int, lockedUntil *time.Time) error
	RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, status entity.Status) error
	List(ctx context.Context, filter UserFilter) ([]entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail excludes soft-deleted rows; deleted accounts must look
// identical to unknown emails at login.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND status <> ?", email, entity.StatusDeleted).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken checks against every row, deleted included: email is
// globally unique across tenants for the lifetime of the row.
func (r *userRepository) EmailTaken(ctx context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("email_verified_at", &now).
		Error
}

func (r *userRepository) RecordFailedLogin(ctx context.Context, userID uuid.UUID, attempts int, lockedUntil *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"login_attempts": attempts,
			"locked_until":   lockedUntil,
		}).Error
}

func (r *userRepository) RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"login_attempts": 0,
			"locked_until":   nil,
			"last_login_at":  at,
		}).Error
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, status entity.Status) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("status", status).
		Error
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]entity.User, error) {
	query := r.db.WithContext(ctx).Model(&entity.User{}).Order("created_at DESC")
	if filter.SchoolID != nil {
		query = query.Where("school_id = ?", *filter.SchoolID)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else {
		query = query.Where("status <> ?", entity.StatusDeleted)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	var users []entity.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
