package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"shulehub/internal/entity"
	"shulehub/internal/repository"
	"shulehub/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Burned at startup so unknown emails cost one bcrypt compare, same as
// known emails with a wrong password.
const dummyPasswordHash = "$2a$12$CwTycUXWue0Thq9StjUM0uJ8yQbWc1x9uxw2sQ2sXUNx5x9xJ9F2S"

type AuthService struct {
	store        repository.Store
	emailSender  EmailSender
	passwordHash PasswordHasher
	accessTokens AccessTokenIssuer
	mfaTokens    MFATokenIssuer
	mfaProvider  MFAProvider
	clock        Clock
	config       AuthConfig
}

func NewAuthService(
	store repository.Store,
	emailSender EmailSender,
	passwordHash PasswordHasher,
	accessTokens AccessTokenIssuer,
	mfaTokens MFATokenIssuer,
	mfaProvider MFAProvider,
	clock Clock,
	config AuthConfig,
) *AuthService {
	return &AuthService{
		store:        store,
		emailSender:  emailSender,
		passwordHash: passwordHash,
		accessTokens: accessTokens,
		mfaTokens:    mfaTokens,
		mfaProvider:  mfaProvider,
		clock:        clock,
		config:       config,
	}
}

// Login enforces the lockout policy before the password check: a locked
// account answers 423 even when the password is correct. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Password) == "" {
		return nil, ErrInvalidInput
	}

	email := utils.NormalizeEmail(input.Email)
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.passwordHash.Verify(dummyPasswordHash, input.Password)
		_ = s.audit(ctx, nil, nil, input.IPAddress, entity.LoginFailed, map[string]any{"email": email})
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		_ = s.audit(ctx, &user.ID, user.SchoolID, input.IPAddress, entity.LoginFailed, map[string]any{"locked": true})
		return nil, ErrAccountLocked
	}

	if !s.passwordHash.Verify(user.PasswordHash, input.Password) {
		return nil, s.recordFailedAttempt(ctx, user, input.IPAddress)
	}

	switch user.Status {
	case entity.StatusSuspended:
		return nil, ErrAccountSuspended
	case entity.StatusPending:
		return nil, ErrAccountPending
	}

	if s.config.RequireVerifiedEmail && user.EmailVerifiedAt == nil {
		return nil, ErrEmailNotVerified
	}

	if user.TwoFactorEnabled && s.mfaProvider != nil && s.mfaTokens != nil {
		mfaToken, expiresIn, err := s.mfaTokens.IssueMFAToken(user.ID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{
			MFARequired:       true,
			MFAToken:          mfaToken,
			MFATokenExpiresIn: int64(expiresIn.Seconds()),
		}, nil
	}

	result, err := s.createSessionAndTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}
	_ = s.audit(ctx, &user.ID, user.SchoolID, input.IPAddress, entity.LoginSuccess, nil)
	return result, nil
}

func (s *AuthService) LoginWithMFA(ctx context.Context, input LoginMFAInput) (*LoginResult, error) {
	if s.mfaProvider == nil || s.mfaTokens == nil {
		return nil, ErrMFANotConfigured
	}
	if strings.TrimSpace(input.MFAToken) == "" || strings.TrimSpace(input.Code) == "" {
		return nil, ErrInvalidInput
	}
	userID, err := s.mfaTokens.ParseMFAToken(input.MFAToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return nil, ErrInvalidToken
	}

	secret, err := s.store.MFASecrets().FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if secret == nil || secret.EnabledAt == nil {
		return nil, ErrMFARequired
	}
	if !s.mfaProvider.ValidateCode(secret.Secret, input.Code) {
		_ = s.audit(ctx, &user.ID, user.SchoolID, input.IPAddress, entity.MFAFailed, nil)
		return nil, ErrInvalidMFACode
	}

	result, err := s.createSessionAndTokens(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}
	_ = s.audit(ctx, &user.ID, user.SchoolID, input.IPAddress, entity.LoginSuccess, map[string]any{"mfa": true})
	return result, nil
}

// Refresh exchanges a valid refresh token for a new access token and a
// rotated refresh token. The old refresh token is dead after this call.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidInput
	}

	now := s.now()
	session, err := s.store.Sessions().FindValidByTokenHash(ctx, utils.HashToken(refreshToken), now)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return nil, ErrInvalidToken
	}
	if user.Status == entity.StatusSuspended {
		return nil, ErrAccountSuspended
	}

	newToken, newHash, newExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		return tx.Sessions().RotateToken(ctx, session.ID, newHash, newExpiry)
	})
	if err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     newToken,
		RefreshExpiresIn: int64(newExpiry.Sub(now).Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, principal *Principal, ipAddress *string) error {
	if principal == nil {
		return ErrInvalidToken
	}
	if err := s.store.Sessions().Revoke(ctx, principal.SessionID); err != nil {
		return err
	}
	_ = s.audit(ctx, &principal.UserID, principal.SchoolID, ipAddress, entity.Logout, nil)
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}
	verification, err := s.store.VerificationTokens().FindValid(ctx, utils.HashToken(token), entity.EmailVerify, s.now())
	if err != nil {
		return err
	}
	if verification == nil {
		return ErrInvalidToken
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().VerifyEmail(ctx, verification.UserID); err != nil {
			return err
		}
		return tx.VerificationTokens().MarkUsed(ctx, verification.ID)
	})
}

// RequestPasswordReset answers identically whether or not the email
// exists, to prevent account enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrInvalidInput
	}
	user, err := s.store.Users().FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	token, err := s.createVerificationToken(ctx, user.ID, entity.PasswordReset, s.resetTokenTTL())
	if err != nil {
		return err
	}
	if s.emailSender != nil {
		if err := s.emailSender.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}
	if violations := (PasswordPolicy{}).Validate(newPassword); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	verification, err := s.store.VerificationTokens().FindValid(ctx, utils.HashToken(token), entity.PasswordReset, s.now())
	if err != nil {
		return err
	}
	if verification == nil {
		return ErrInvalidToken
	}

	user, err := s.store.Users().FindByID(ctx, verification.UserID)
	if err != nil {
		return err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return ErrInvalidToken
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Update(ctx, user); err != nil {
			return err
		}
		return tx.VerificationTokens().MarkUsed(ctx, verification.ID)
	})
	if err != nil {
		return err
	}

	_ = s.store.Sessions().RevokeAllByUser(ctx, user.ID)
	_ = s.audit(ctx, &user.ID, user.SchoolID, nil, entity.PasswordResetOK, nil)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return ErrNotFound
	}
	if !s.passwordHash.Verify(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	if violations := (PasswordPolicy{}).Validate(newPassword); len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}

	hash, err := s.passwordHash.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	_ = s.store.Sessions().RevokeAllByUser(ctx, user.ID)
	_ = s.audit(ctx, &user.ID, user.SchoolID, nil, entity.PasswordChanged, nil)
	return nil
}

// ResolvePrincipal loads the user behind verified access-token claims and
// applies the per-request lifecycle checks: missing or deleted users are
// indistinguishable from a bad token, suspension and pending approval are
// reported distinctly.
func (s *AuthService) ResolvePrincipal(ctx context.Context, claims *utils.AccessClaims) (*Principal, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status == entity.StatusDeleted {
		return nil, ErrInvalidToken
	}
	switch user.Status {
	case entity.StatusSuspended:
		return nil, ErrAccountSuspended
	case entity.StatusPending:
		return nil, ErrAccountPending
	}

	principal := &Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SchoolID:  user.SchoolID,
		SessionID: sessionID,
	}

	switch user.Role {
	case entity.RoleSchoolAdmin:
		profile, err := s.store.SchoolAdmins().FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			principal.RoleProfileID = &profile.ID
		}
	case entity.RoleTeacher:
		profile, err := s.store.Teachers().FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			principal.RoleProfileID = &profile.ID
		}
	case entity.RoleParent:
		profile, err := s.store.Parents().FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			principal.RoleProfileID = &profile.ID
		}
	}
	return principal, nil
}

func (s *AuthService) EnableMFA(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.mfaProvider == nil {
		return "", ErrMFANotConfigured
	}
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotFound
	}

	secret, err := s.mfaProvider.GenerateSecret()
	if err != nil {
		return "", err
	}
	mfaSecret := &entity.MFASecret{
		UserID:    user.ID,
		Secret:    secret,
		EnabledAt: nil,
	}
	if err := s.store.MFASecrets().Upsert(ctx, mfaSecret); err != nil {
		return "", err
	}
	return s.mfaProvider.QRCodeURL(user.Email, s.config.MFAIssuer, secret)
}

func (s *AuthService) VerifyMFA(ctx context.Context, userID uuid.UUID, code string) error {
	if s.mfaProvider == nil {
		return ErrMFANotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return ErrInvalidInput
	}
	secret, err := s.store.MFASecrets().FindByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrMFARequired
	}
	if !s.mfaProvider.ValidateCode(secret.Secret, code) {
		return ErrInvalidMFACode
	}

	now := s.now()
	secret.EnabledAt = &now
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.MFASecrets().Upsert(ctx, secret); err != nil {
			return err
		}
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		user.TwoFactorEnabled = true
		return tx.Users().Update(ctx, user)
	})
}

func (s *AuthService) DisableMFA(ctx context.Context, userID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.MFASecrets().Delete(ctx, userID); err != nil {
			return err
		}
		user, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		user.TwoFactorEnabled = false
		return tx.Users().Update(ctx, user)
	})
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, user *entity.User, ipAddress *string) error {
	attempts := user.LoginAttempts + 1
	var lockedUntil *time.Time
	if attempts >= s.config.maxLoginAttempts() {
		until := s.now().Add(s.config.lockoutDuration())
		lockedUntil = &until
	}
	if err := s.store.Users().RecordFailedLogin(ctx, user.ID, attempts, lockedUntil); err != nil {
		return err
	}
	if lockedUntil != nil {
		_ = s.audit(ctx, &user.ID, user.SchoolID, ipAddress, entity.AccountLocked, map[string]any{"attempts": attempts})
	} else {
		_ = s.audit(ctx, &user.ID, user.SchoolID, ipAddress, entity.LoginFailed, map[string]any{"attempts": attempts})
	}
	return ErrInvalidCredentials
}

// createSessionAndTokens spans one transaction: the session insert and
// the login-state reset commit together or not at all.
func (s *AuthService) createSessionAndTokens(ctx context.Context, user *entity.User, ipAddress, userAgent *string) (*LoginResult, error) {
	refreshToken, refreshHash, refreshExpiry, err := s.buildRefreshToken()
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: refreshHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: refreshExpiry,
	}
	now := s.now()
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}
		return tx.Users().RecordLogin(ctx, user.ID, now)
	})
	if err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.accessTokens.IssueAccessToken(*user, session.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(expiresIn.Seconds()),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshExpiry.Sub(now).Seconds()),
	}, nil
}

func (s *AuthService) createVerificationToken(ctx context.Context, userID uuid.UUID, typeValue entity.VerificationType, ttl time.Duration) (string, error) {
	rawToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		return "", err
	}
	verification := &entity.VerificationToken{
		UserID:    userID,
		TokenHash: utils.HashToken(rawToken),
		Type:      typeValue,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.store.VerificationTokens().Create(ctx, verification); err != nil {
		return "", err
	}
	return rawToken, nil
}

func (s *AuthService) buildRefreshToken() (string, string, time.Time, error) {
	rawToken, err := utils.GenerateRandomToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.refreshTokenTTL())
	return rawToken, utils.HashToken(rawToken), expiresAt, nil
}

func (s *AuthService) audit(ctx context.Context, userID, schoolID *uuid.UUID, ipAddress *string, action entity.AuditAction, metadata map[string]any) error {
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(bytes)
	}
	return s.store.Audit().Log(ctx, &entity.AuditLog{
		UserID:    userID,
		SchoolID:  schoolID,
		IPAddress: ipAddress,
		Action:    action,
		Metadata:  payload,
	})
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *AuthService) refreshTokenTTL() time.Duration {
	if s.config.RefreshTokenTTL > 0 {
		return s.config.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

func (s *AuthService) resetTokenTTL() time.Duration {
	if s.config.ResetTokenTTL > 0 {
		return s.config.ResetTokenTTL
	}
	return 30 * time.Minute
}
