package entity

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleSchoolAdmin Role = "school_admin"
	RoleTeacher     Role = "teacher"
	RoleParent      Role = "parent"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// User is the identity record. Rows are never physically deleted;
// Status carries the lifecycle instead.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`

	FirstName string  `gorm:"type:varchar(100);not null"`
	LastName  string  `gorm:"type:varchar(100);not null"`
	Phone     *string `gorm:"type:varchar(20)"`

	Role   Role   `gorm:"type:varchar(20);not null;index"`
	Status Status `gorm:"type:varchar(20);not null;default:'pending';index"`

	// Null for super_admin only; every other role belongs to exactly one school.
	SchoolID *uuid.UUID `gorm:"type:uuid;index"`
	School   *School

	EmailVerifiedAt  *time.Time
	TwoFactorEnabled bool `gorm:"default:false"`

	LoginAttempts int `gorm:"default:0"`
	LockedUntil   *time.Time
	LastLoginAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions  []Session
	MFASecret *MFASecret
}

func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
