package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store bundles the repositories behind one handle so a whole unit of
// work can run against a single transaction.
type Store interface {
	Users() UserRepository
	Schools() SchoolRepository
	SchoolAdmins() SchoolAdminRepository
	Teachers() TeacherRepository
	Parents() ParentRepository
	Learners() LearnerRepository
	Sessions() SessionRepository
	VerificationTokens() VerificationTokenRepository
	MFASecrets() MFASecretRepository
	Audit() AuditLogRepository

	// InTx runs fn against a Store bound to one database transaction.
	// Any error rolls back every write made through that Store.
	InTx(ctx context.Context, fn func(Store) error) error

	// SetTenant propagates the tenant school id to the persistence layer
	// for the current transaction, so row-security policies apply even to
	// queries that forget an explicit school filter. Scoped to the
	// transaction (set_config local=true), never leaked across pooled
	// connections. Valid only on a Store handed to an InTx callback.
	SetTenant(ctx context.Context, schoolID uuid.UUID) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                           { return &userRepository{db: s.db} }
func (s *gormStore) Schools() SchoolRepository                       { return &schoolRepository{db: s.db} }
func (s *gormStore) SchoolAdmins() SchoolAdminRepository             { return &schoolAdminRepository{db: s.db} }
func (s *gormStore) Teachers() TeacherRepository                     { return &teacherRepository{db: s.db} }
func (s *gormStore) Parents() ParentRepository                       { return &parentRepository{db: s.db} }
func (s *gormStore) Learners() LearnerRepository                     { return &learnerRepository{db: s.db} }
func (s *gormStore) Sessions() SessionRepository                     { return &sessionRepository{db: s.db} }
func (s *gormStore) VerificationTokens() VerificationTokenRepository { return &verificationTokenRepository{db: s.db} }
func (s *gormStore) MFASecrets() MFASecretRepository                 { return &mfaSecretRepository{db: s.db} }
func (s *gormStore) Audit() AuditLogRepository                       { return &auditLogRepository{db: s.db} }

func (s *gormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) SetTenant(ctx context.Context, schoolID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Exec("SELECT set_config('app.school_id', ?, true)", schoolID.String()).
		Error
}
