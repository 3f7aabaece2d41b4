package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shulehub/internal/entity"
	"shulehub/internal/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory repository.Store. InTx snapshots the data and
// restores it on error, so transactional rollback behavior is observable
// in tests. Failures can be injected per operation via failures.
type memData struct {
	users        map[uuid.UUID]entity.User
	schools      map[uuid.UUID]entity.School
	schoolAdmins map[uuid.UUID]entity.SchoolAdmin
	teachers     map[uuid.UUID]entity.TeacherProfile
	parents      map[uuid.UUID]entity.ParentProfile
	learners     map[uuid.UUID]entity.Learner
	learnerLinks map[uuid.UUID]entity.LearnerParent
	sessions     map[uuid.UUID]entity.Session
	tokens       map[uuid.UUID]entity.VerificationToken
	mfaSecrets   map[uuid.UUID]entity.MFASecret
	audits       []entity.AuditLog

	tenants  []uuid.UUID
	failures map[string]error
}

func newMemData() *memData {
	return &memData{
		users:        make(map[uuid.UUID]entity.User),
		schools:      make(map[uuid.UUID]entity.School),
		schoolAdmins: make(map[uuid.UUID]entity.SchoolAdmin),
		teachers:     make(map[uuid.UUID]entity.TeacherProfile),
		parents:      make(map[uuid.UUID]entity.ParentProfile),
		learners:     make(map[uuid.UUID]entity.Learner),
		learnerLinks: make(map[uuid.UUID]entity.LearnerParent),
		sessions:     make(map[uuid.UUID]entity.Session),
		tokens:       make(map[uuid.UUID]entity.VerificationToken),
		mfaSecrets:   make(map[uuid.UUID]entity.MFASecret),
		failures:     make(map[string]error),
	}
}

func (d *memData) clone() *memData {
	copied := newMemData()
	for k, v := range d.users {
		copied.users[k] = v
	}
	for k, v := range d.schools {
		copied.schools[k] = v
	}
	for k, v := range d.schoolAdmins {
		copied.schoolAdmins[k] = v
	}
	for k, v := range d.teachers {
		copied.teachers[k] = v
	}
	for k, v := range d.parents {
		copied.parents[k] = v
	}
	for k, v := range d.learners {
		copied.learners[k] = v
	}
	for k, v := range d.learnerLinks {
		copied.learnerLinks[k] = v
	}
	for k, v := range d.sessions {
		copied.sessions[k] = v
	}
	for k, v := range d.tokens {
		copied.tokens[k] = v
	}
	for k, v := range d.mfaSecrets {
		copied.mfaSecrets[k] = v
	}
	copied.audits = append(copied.audits, d.audits...)
	copied.tenants = append(copied.tenants, d.tenants...)
	copied.failures = d.failures
	return copied
}

func (d *memData) replaceWith(other *memData) {
	d.users = other.users
	d.schools = other.schools
	d.schoolAdmins = other.schoolAdmins
	d.teachers = other.teachers
	d.parents = other.parents
	d.learners = other.learners
	d.learnerLinks = other.learnerLinks
	d.sessions = other.sessions
	d.tokens = other.tokens
	d.mfaSecrets = other.mfaSecrets
	d.audits = other.audits
	d.tenants = other.tenants
}

type memStore struct {
	data *memData
	inTx bool
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

func (s *memStore) Users() repository.UserRepository                           { return memUserRepo{s.data} }
func (s *memStore) Schools() repository.SchoolRepository                       { return memSchoolRepo{s.data} }
func (s *memStore) SchoolAdmins() repository.SchoolAdminRepository             { return memSchoolAdminRepo{s.data} }
func (s *memStore) Teachers() repository.TeacherRepository                     { return memTeacherRepo{s.data} }
func (s *memStore) Parents() repository.ParentRepository                       { return memParentRepo{s.data} }
func (s *memStore) Learners() repository.LearnerRepository                     { return memLearnerRepo{s.data} }
func (s *memStore) Sessions() repository.SessionRepository                     { return memSessionRepo{s.data} }
func (s *memStore) VerificationTokens() repository.VerificationTokenRepository { return memTokenRepo{s.data} }
func (s *memStore) MFASecrets() repository.MFASecretRepository                 { return memMFARepo{s.data} }
func (s *memStore) Audit() repository.AuditLogRepository                       { return memAuditRepo{s.data} }

func (s *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	snapshot := s.data.clone()
	txStore := &memStore{data: snapshot, inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}
	s.data.replaceWith(snapshot)
	return nil
}

func (s *memStore) SetTenant(_ context.Context, schoolID uuid.UUID) error {
	if !s.inTx {
		return errors.New("SetTenant outside transaction")
	}
	s.data.tenants = append(s.data.tenants, schoolID)
	return nil
}

func (d *memData) fail(op string) error {
	if err, ok := d.failures[op]; ok {
		return err
	}
	return nil
}

type memUserRepo struct{ d *memData }

func (r memUserRepo) Create(_ context.Context, user *entity.User) error {
	if err := r.d.fail("users.create"); err != nil {
		return err
	}
	for _, existing := range r.d.users {
		if existing.Email == user.Email {
			return fmt.Errorf("unique constraint: users.email %q", user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.d.users[user.ID] = *user
	return nil
}

func (r memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if user, ok := r.d.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range r.d.users {
		if user.Email == email && user.Status != entity.StatusDeleted {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) EmailTaken(_ context.Context, email string, excludeID *uuid.UUID) (bool, error) {
	for id, user := range r.d.users {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.d.users[user.ID] = *user
	return nil
}

func (r memUserRepo) VerifyEmail(_ context.Context, userID uuid.UUID) error {
	user, ok := r.d.users[userID]
	if !ok {
		return nil
	}
	now := time.Now()
	user.EmailVerifiedAt = &now
	r.d.users[userID] = user
	return nil
}

func (r memUserRepo) RecordFailedLogin(_ context.Context, userID uuid.UUID, attempts int, lockedUntil *time.Time) error {
	user, ok := r.d.users[userID]
	if !ok {
		return nil
	}
	user.LoginAttempts = attempts
	user.LockedUntil = lockedUntil
	r.d.users[userID] = user
	return nil
}

func (r memUserRepo) RecordLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	user, ok := r.d.users[userID]
	if !ok {
		return nil
	}
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &at
	r.d.users[userID] = user
	return nil
}

func (r memUserRepo) UpdateStatus(_ context.Context, userID uuid.UUID, status entity.Status) error {
	user, ok := r.d.users[userID]
	if !ok {
		return nil
	}
	user.Status = status
	r.d.users[userID] = user
	return nil
}

func (r memUserRepo) List(_ context.Context, filter repository.UserFilter) ([]entity.User, error) {
	var users []entity.User
	for _, user := range r.d.users {
		if filter.SchoolID != nil && (user.SchoolID == nil || *user.SchoolID != *filter.SchoolID) {
			continue
		}
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Status != nil {
			if user.Status != *filter.Status {
				continue
			}
		} else if user.Status == entity.StatusDeleted {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

type memSchoolRepo struct{ d *memData }

func (r memSchoolRepo) Create(_ context.Context, school *entity.School) error {
	if err := r.d.fail("schools.create"); err != nil {
		return err
	}
	if school.ID == uuid.Nil {
		school.ID = uuid.New()
	}
	r.d.schools[school.ID] = *school
	return nil
}

func (r memSchoolRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.School, error) {
	if school, ok := r.d.schools[id]; ok {
		copied := school
		return &copied, nil
	}
	return nil, nil
}

func (r memSchoolRepo) CodeTaken(_ context.Context, code string) (bool, error) {
	for _, school := range r.d.schools {
		if school.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type memSchoolAdminRepo struct{ d *memData }

func (r memSchoolAdminRepo) Create(_ context.Context, admin *entity.SchoolAdmin) error {
	if err := r.d.fail("schoolAdmins.create"); err != nil {
		return err
	}
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	r.d.schoolAdmins[admin.ID] = *admin
	return nil
}

func (r memSchoolAdminRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.SchoolAdmin, error) {
	for _, admin := range r.d.schoolAdmins {
		if admin.UserID == userID {
			copied := admin
			return &copied, nil
		}
	}
	return nil, nil
}

type memTeacherRepo struct{ d *memData }

func (r memTeacherRepo) Create(_ context.Context, teacher *entity.TeacherProfile) error {
	if err := r.d.fail("teachers.create"); err != nil {
		return err
	}
	if teacher.ID == uuid.Nil {
		teacher.ID = uuid.New()
	}
	r.d.teachers[teacher.ID] = *teacher
	return nil
}

func (r memTeacherRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.TeacherProfile, error) {
	for _, teacher := range r.d.teachers {
		if teacher.UserID == userID {
			copied := teacher
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memTeacherRepo) TSCNumberTaken(_ context.Context, schoolID uuid.UUID, tscNumber string, excludeID *uuid.UUID) (bool, error) {
	for id, teacher := range r.d.teachers {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if teacher.SchoolID == schoolID && teacher.TSCNumber == tscNumber {
			return true, nil
		}
	}
	return false, nil
}

type memParentRepo struct{ d *memData }

func (r memParentRepo) Create(_ context.Context, parent *entity.ParentProfile) error {
	if err := r.d.fail("parents.create"); err != nil {
		return err
	}
	if parent.ID == uuid.Nil {
		parent.ID = uuid.New()
	}
	r.d.parents[parent.ID] = *parent
	return nil
}

func (r memParentRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.ParentProfile, error) {
	for _, parent := range r.d.parents {
		if parent.UserID == userID {
			copied := parent
			return &copied, nil
		}
	}
	return nil, nil
}

type memLearnerRepo struct{ d *memData }

func (r memLearnerRepo) Create(_ context.Context, learner *entity.Learner) error {
	if err := r.d.fail("learners.create"); err != nil {
		return err
	}
	if learner.ID == uuid.Nil {
		learner.ID = uuid.New()
	}
	r.d.learners[learner.ID] = *learner
	return nil
}

func (r memLearnerRepo) AdmissionNumberTaken(_ context.Context, schoolID uuid.UUID, admissionNumber string, excludeID *uuid.UUID) (bool, error) {
	for id, learner := range r.d.learners {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if learner.SchoolID == schoolID && learner.AdmissionNumber == admissionNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r memLearnerRepo) CreateLink(_ context.Context, link *entity.LearnerParent) error {
	if err := r.d.fail("learners.createLink"); err != nil {
		return err
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	r.d.learnerLinks[link.ID] = *link
	return nil
}

func (r memLearnerRepo) ListBySchool(_ context.Context, schoolID uuid.UUID, limit, offset int) ([]entity.Learner, error) {
	var learners []entity.Learner
	for _, learner := range r.d.learners {
		if learner.SchoolID == schoolID && learner.Active {
			learners = append(learners, learner)
		}
	}
	return learners, nil
}

type memSessionRepo struct{ d *memData }

func (r memSessionRepo) Create(_ context.Context, session *entity.Session) error {
	if err := r.d.fail("sessions.create"); err != nil {
		return err
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.d.sessions[session.ID] = *session
	return nil
}

func (r memSessionRepo) FindValidByTokenHash(_ context.Context, hash string, now time.Time) (*entity.Session, error) {
	for _, session := range r.d.sessions {
		if session.TokenHash == hash && session.RevokedAt == nil && session.ExpiresAt.After(now) {
			copied := session
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memSessionRepo) RotateToken(_ context.Context, sessionID uuid.UUID, newHash string, newExpiry time.Time) error {
	session, ok := r.d.sessions[sessionID]
	if !ok {
		return nil
	}
	session.TokenHash = newHash
	session.ExpiresAt = newExpiry
	r.d.sessions[sessionID] = session
	return nil
}

func (r memSessionRepo) Revoke(_ context.Context, sessionID uuid.UUID) error {
	session, ok := r.d.sessions[sessionID]
	if !ok {
		return nil
	}
	now := time.Now()
	session.RevokedAt = &now
	r.d.sessions[sessionID] = session
	return nil
}

func (r memSessionRepo) RevokeAllByUser(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for id, session := range r.d.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
			r.d.sessions[id] = session
		}
	}
	return nil
}

func (r memSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, session := range r.d.sessions {
		if session.ExpiresAt.Before(now) || session.RevokedAt != nil {
			delete(r.d.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type memTokenRepo struct{ d *memData }

func (r memTokenRepo) Create(_ context.Context, token *entity.VerificationToken) error {
	if err := r.d.fail("tokens.create"); err != nil {
		return err
	}
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.d.tokens[token.ID] = *token
	return nil
}

func (r memTokenRepo) FindValid(_ context.Context, tokenHash string, tokenType entity.VerificationType, now time.Time) (*entity.VerificationToken, error) {
	for _, token := range r.d.tokens {
		if token.TokenHash == tokenHash && token.Type == tokenType && token.UsedAt == nil && token.ExpiresAt.After(now) {
			copied := token
			return &copied, nil
		}
	}
	return nil, nil
}

func (r memTokenRepo) MarkUsed(_ context.Context, id uuid.UUID) error {
	token, ok := r.d.tokens[id]
	if !ok {
		return nil
	}
	now := time.Now()
	token.UsedAt = &now
	r.d.tokens[id] = token
	return nil
}

func (r memTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, token := range r.d.tokens {
		if token.ExpiresAt.Before(now) || token.UsedAt != nil {
			delete(r.d.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

type memMFARepo struct{ d *memData }

func (r memMFARepo) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.MFASecret, error) {
	if secret, ok := r.d.mfaSecrets[userID]; ok {
		copied := secret
		return &copied, nil
	}
	return nil, nil
}

func (r memMFARepo) Upsert(_ context.Context, secret *entity.MFASecret) error {
	if secret.ID == uuid.Nil {
		secret.ID = uuid.New()
	}
	r.d.mfaSecrets[secret.UserID] = *secret
	return nil
}

func (r memMFARepo) Delete(_ context.Context, userID uuid.UUID) error {
	delete(r.d.mfaSecrets, userID)
	return nil
}

type memAuditRepo struct{ d *memData }

func (r memAuditRepo) Log(_ context.Context, log *entity.AuditLog) error {
	r.d.audits = append(r.d.audits, *log)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// recordingEmailSender captures outgoing mail instead of sending it.
type recordingEmailSender struct {
	verifications map[string]string // email -> raw token
	resets        map[string]string
	invites       map[string]string // email -> temp password
	err           error
}

func newRecordingEmailSender() *recordingEmailSender {
	return &recordingEmailSender{
		verifications: make(map[string]string),
		resets:        make(map[string]string),
		invites:       make(map[string]string),
	}
}

func (s *recordingEmailSender) SendVerificationEmail(_ context.Context, email string, token string) error {
	if s.err != nil {
		return s.err
	}
	s.verifications[email] = token
	return nil
}

func (s *recordingEmailSender) SendPasswordResetEmail(_ context.Context, email string, token string) error {
	if s.err != nil {
		return s.err
	}
	s.resets[email] = token
	return nil
}

func (s *recordingEmailSender) SendParentInvite(_ context.Context, email string, tempPassword string) error {
	if s.err != nil {
		return s.err
	}
	s.invites[email] = tempPassword
	return nil
}
