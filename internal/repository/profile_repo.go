package repository

import (
	"context"
	"errors"

	"shulehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SchoolAdminRepository interface {
	Create(ctx context.Context, admin *entity.SchoolAdmin) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SchoolAdmin, error)
}

type TeacherRepository interface {
	Create(ctx context.Context, teacher *entity.TeacherProfile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.TeacherProfile, error)
	TSCNumberTaken(ctx context.Context, schoolID uuid.UUID, tscNumber string, excludeID *uuid.UUID) (bool, error)
}

type ParentRepository interface {
	Create(ctx context.Context, parent *entity.ParentProfile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.ParentProfile, error)
}

type schoolAdminRepository struct {
	db *gorm.DB
}

func (r *schoolAdminRepository) Create(ctx context.Context, admin *entity.SchoolAdmin) error {
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *schoolAdminRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.SchoolAdmin, error) {
	var admin entity.SchoolAdmin
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

type teacherRepository struct {
	db *gorm.DB
}

func (r *teacherRepository) Create(ctx context.Context, teacher *entity.TeacherProfile) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *teacherRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.TeacherProfile, error) {
	var teacher entity.TeacherProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&teacher).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// TSCNumberTaken is scoped to one school; the same TSC number may exist
// under different tenants.
func (r *teacherRepository) TSCNumberTaken(ctx context.Context, schoolID uuid.UUID, tscNumber string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.TeacherProfile{}).
		Where("school_id = ? AND tsc_number = ?", schoolID, tscNumber)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type parentRepository struct {
	db *gorm.DB
}

func (r *parentRepository) Create(ctx context.Context, parent *entity.ParentProfile) error {
	return r.db.WithContext(ctx).Create(parent).Error
}

func (r *parentRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.ParentProfile, error) {
	var parent entity.ParentProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &parent, nil
}
