package entity

import (
	"time"

	"github.com/google/uuid"
)

// Learner is a non-authenticating record scoped to a school. Admission
// numbers are unique within the school, not globally.
type Learner struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SchoolID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_learner_admission_school"`
	School   School

	AdmissionNumber string `gorm:"type:varchar(50);not null;uniqueIndex:idx_learner_admission_school"`

	FirstName   string     `gorm:"type:varchar(100);not null"`
	LastName    string     `gorm:"type:varchar(100);not null"`
	DateOfBirth *time.Time `gorm:"type:date"`
	Gender      string     `gorm:"type:varchar(20)"`
	Grade       string     `gorm:"type:varchar(50)"`

	Active bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LearnerParent links a learner to a parent profile.
type LearnerParent struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_learner_parent"`
	Learner   Learner   `gorm:"constraint:OnDelete:CASCADE"`

	ParentID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_learner_parent"`
	Parent   ParentProfile `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`

	IsPrimary    bool   `gorm:"default:false"`
	Relationship string `gorm:"type:varchar(50)"`

	CreatedAt time.Time
}
