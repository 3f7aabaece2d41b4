package service

import (
	"context"
	"time"

	"shulehub/internal/entity"

	"github.com/google/uuid"
)

type AuthConfig struct {
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	VerificationTokenTTL time.Duration
	ResetTokenTTL        time.Duration
	MFATokenTTL          time.Duration
	MaxLoginAttempts     int
	LockoutDuration      time.Duration
	RequireVerifiedEmail bool
	MFAIssuer            string
}

func (c AuthConfig) maxLoginAttempts() int {
	if c.MaxLoginAttempts > 0 {
		return c.MaxLoginAttempts
	}
	return 5
}

func (c AuthConfig) lockoutDuration() time.Duration {
	if c.LockoutDuration > 0 {
		return c.LockoutDuration
	}
	return 30 * time.Minute
}

type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email string, token string) error
	SendPasswordResetEmail(ctx context.Context, email string, token string) error
	SendParentInvite(ctx context.Context, email string, tempPassword string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error)
}

type MFATokenIssuer interface {
	IssueMFAToken(userID uuid.UUID) (string, time.Duration, error)
	ParseMFAToken(token string) (uuid.UUID, error)
}

type MFAProvider interface {
	GenerateSecret() (string, error)
	QRCodeURL(email string, issuer string, secret string) (string, error)
	ValidateCode(secret string, code string) bool
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// Principal is the authenticated identity attached to a request after
// session validation. RoleProfileID points at the role-specific profile
// (school admin, teacher or parent); nil for super_admin.
type Principal struct {
	UserID        uuid.UUID
	Email         string
	Role          entity.Role
	SchoolID      *uuid.UUID
	RoleProfileID *uuid.UUID
	SessionID     uuid.UUID
}
