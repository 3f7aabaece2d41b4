package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Role profiles extend User one-to-one with role-specific fields. A user
// holds at most one profile, matching its Role.

type SchoolAdmin struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	SchoolID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title          *string `gorm:"type:varchar(100)"`
	EmployeeNumber *string `gorm:"type:varchar(50)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TeacherProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User     User      `gorm:"constraint:OnDelete:CASCADE"`
	SchoolID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_teacher_tsc_school"`

	TSCNumber     string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_teacher_tsc_school"`
	Subjects      datatypes.JSON `gorm:"type:jsonb"`
	Qualification *string        `gorm:"type:varchar(100)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ParentProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	NationalID *string `gorm:"type:varchar(30)"`
	Occupation *string `gorm:"type:varchar(100)"`
	Address    *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
