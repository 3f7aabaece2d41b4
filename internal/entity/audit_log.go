package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	LoginSuccess    AuditAction = "login_success"
	LoginFailed     AuditAction = "login_failed"
	AccountLocked   AuditAction = "account_locked"
	Logout          AuditAction = "logout"
	PasswordResetOK AuditAction = "password_reset"
	PasswordChanged AuditAction = "password_changed"
	StatusChanged   AuditAction = "status_changed"
	UserRegistered  AuditAction = "user_registered"
	MFAFailed       AuditAction = "mfa_failed"
	SessionRevoked  AuditAction = "session_revoked"
)

type AuditLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	SchoolID *uuid.UUID `gorm:"type:uuid;index"`

	IPAddress *string     `gorm:"type:varchar(45)"`
	Action    AuditAction `gorm:"type:varchar(40);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
