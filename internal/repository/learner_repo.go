package repository

import (
	"context"

	"shulehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LearnerRepository interface {
	Create(ctx context.Context, learner *entity.Learner) error
	AdmissionNumberTaken(ctx context.Context, schoolID uuid.UUID, admissionNumber string, excludeID *uuid.UUID) (bool, error)
	CreateLink(ctx context.Context, link *entity.LearnerParent) error
	ListBySchool(ctx context.Context, schoolID uuid.UUID, limit, offset int) ([]entity.Learner, error)
}

type learnerRepository struct {
	db *gorm.DB
}

func (r *learnerRepository) Create(ctx context.Context, learner *entity.Learner) error {
	return r.db.WithContext(ctx).Create(learner).Error
}

func (r *learnerRepository) AdmissionNumberTaken(ctx context.Context, schoolID uuid.UUID, admissionNumber string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.Learner{}).
		Where("school_id = ? AND admission_number = ?", schoolID, admissionNumber)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *learnerRepository) CreateLink(ctx context.Context, link *entity.LearnerParent) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *learnerRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID, limit, offset int) ([]entity.Learner, error) {
	query := r.db.WithContext(ctx).
		Where("school_id = ? AND active = true", schoolID).
		Order("admission_number ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var learners []entity.Learner
	if err := query.Find(&learners).Error; err != nil {
		return nil, err
	}
	return learners, nil
}
