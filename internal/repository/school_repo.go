package repository

import (
	"context"
	"errors"

	"shulehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SchoolRepository interface {
	Create(ctx context.Context, school *entity.School) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.School, error)
	CodeTaken(ctx context.Context, code string) (bool, error)
}

type schoolRepository struct {
	db *gorm.DB
}

func (r *schoolRepository) Create(ctx context.Context, school *entity.School) error {
	return r.db.WithContext(ctx).Create(school).Error
}

func (r *schoolRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.School, error) {
	var school entity.School
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepository) CodeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.School{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}
