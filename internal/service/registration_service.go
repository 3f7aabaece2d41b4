package service

import (
	"context"
	"encoding/json"
	"time"

	"shulehub/internal/entity"
	"shulehub/internal/repository"
	"shulehub/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// RegistrationService performs the multi-entity registration flows. Each
// flow is one transaction: any failure rolls back every row it wrote.
// The uniqueness pre-checks only exist for friendly 409s; the database
// unique constraints are the real guarantee under concurrency.
type RegistrationService struct {
	store        repository.Store
	passwordHash PasswordHasher
	policy       PasswordPolicy
	emailSender  EmailSender
	clock        Clock
	config       AuthConfig
	logger       *logrus.Logger
}

func NewRegistrationService(
	store repository.Store,
	passwordHash PasswordHasher,
	emailSender EmailSender,
	clock Clock,
	config AuthConfig,
	logger *logrus.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:        store,
		passwordHash: passwordHash,
		emailSender:  emailSender,
		clock:        clock,
		config:       config,
		logger:       logger,
	}
}

type SchoolAdminRegistration struct {
	SchoolName    string
	SchoolCode    string
	SchoolLevel   string
	County        string
	SubCounty     string
	Ward          string
	Address       *string
	PostalAddress *string
	SchoolPhone   string
	SchoolEmail   string

	// Primary contact for the school; gets its own pending account when
	// it differs from the administrator email.
	PrimaryEmail string

	AdminFirstName string
	AdminLastName  string
	AdminEmail     string
	AdminPhone     *string
	AdminPassword  string
	AdminTitle     *string
}

type SchoolAdminResult struct {
	School    *entity.School
	Admin     *entity.User
	Secondary *entity.User
}

// RegisterSchoolAdmin creates the tenant and its first administrator.
// The verification email goes out only after the transaction commits;
// a send failure is logged, never unwound.
func (s *RegistrationService) RegisterSchoolAdmin(ctx context.Context, input SchoolAdminRegistration) (*SchoolAdminResult, error) {
	adminEmail := utils.NormalizeEmail(input.AdminEmail)
	primaryEmail := utils.NormalizeEmail(input.PrimaryEmail)
	schoolEmail := utils.NormalizeEmail(input.SchoolEmail)
	if adminEmail == "" || primaryEmail == "" || schoolEmail == "" {
		return nil, ErrInvalidInput
	}
	if violations := s.policy.Validate(input.AdminPassword); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	taken, err := s.store.Users().EmailTaken(ctx, adminEmail, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	if primaryEmail != adminEmail {
		taken, err = s.store.Users().EmailTaken(ctx, primaryEmail, nil)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	codeTaken, err := s.store.Schools().CodeTaken(ctx, input.SchoolCode)
	if err != nil {
		return nil, err
	}
	if codeTaken {
		return nil, ErrSchoolCodeTaken
	}

	hash, err := s.passwordHash.Hash(input.AdminPassword)
	if err != nil {
		return nil, err
	}

	result := &SchoolAdminResult{}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		school := &entity.School{
			ID:            uuid.New(),
			Name:          input.SchoolName,
			Code:          input.SchoolCode,
			Level:         input.SchoolLevel,
			County:        input.County,
			SubCounty:     input.SubCounty,
			Ward:          input.Ward,
			Address:       input.Address,
			PostalAddress: input.PostalAddress,
			Phone:         input.SchoolPhone,
			Email:         schoolEmail,
			Active:        true,
		}
		if err := tx.Schools().Create(ctx, school); err != nil {
			return err
		}
		if err := tx.SetTenant(ctx, school.ID); err != nil {
			return err
		}

		admin := &entity.User{
			ID:           uuid.New(),
			Email:        adminEmail,
			PasswordHash: hash,
			FirstName:    input.AdminFirstName,
			LastName:     input.AdminLastName,
			Phone:        input.AdminPhone,
			Role:         entity.RoleSchoolAdmin,
			Status:       entity.StatusActive,
			SchoolID:     &school.ID,
		}
		if err := tx.Users().Create(ctx, admin); err != nil {
			return err
		}

		profile := &entity.SchoolAdmin{
			UserID:   admin.ID,
			SchoolID: school.ID,
			Title:    input.AdminTitle,
		}
		if err := tx.SchoolAdmins().Create(ctx, profile); err != nil {
			return err
		}

		if primaryEmail != adminEmail {
			tempPassword, err := utils.GenerateTempPassword(14)
			if err != nil {
				return err
			}
			tempHash, err := s.passwordHash.Hash(tempPassword)
			if err != nil {
				return err
			}
			secondary := &entity.User{
				ID:           uuid.New(),
				Email:        primaryEmail,
				PasswordHash: tempHash,
				FirstName:    input.SchoolName,
				LastName:     "Contact",
				Role:         entity.RoleSchoolAdmin,
				Status:       entity.StatusPending,
				SchoolID:     &school.ID,
			}
			if err := tx.Users().Create(ctx, secondary); err != nil {
				return err
			}
			result.Secondary = secondary
		}

		result.School = school
		result.Admin = admin
		return s.logRegistration(ctx, tx, admin, map[string]any{"flow": "school_admin", "school_code": school.Code})
	})
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, result.Admin)
	return result, nil
}

type TeacherRegistration struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         *string
	Password      string
	TSCNumber     string
	Subjects      []string
	Qualification *string
}

// RegisterTeacher creates a pending teacher account for the caller's
// school; a school admin must approve it before login works.
func (s *RegistrationService) RegisterTeacher(ctx context.Context, schoolID uuid.UUID, input TeacherRegistration) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.TSCNumber == "" {
		return nil, ErrInvalidInput
	}
	if violations := s.policy.Validate(input.Password); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	taken, err := s.store.Users().EmailTaken(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	tscTaken, err := s.store.Teachers().TSCNumberTaken(ctx, schoolID, input.TSCNumber, nil)
	if err != nil {
		return nil, err
	}
	if tscTaken {
		return nil, ErrTSCNumberTaken
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	var subjects datatypes.JSON
	if len(input.Subjects) > 0 {
		raw, err := json.Marshal(input.Subjects)
		if err != nil {
			return nil, err
		}
		subjects = datatypes.JSON(raw)
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         entity.RoleTeacher,
		Status:       entity.StatusPending,
		SchoolID:     &schoolID,
	}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.SetTenant(ctx, schoolID); err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		profile := &entity.TeacherProfile{
			UserID:        user.ID,
			SchoolID:      schoolID,
			TSCNumber:     input.TSCNumber,
			Subjects:      subjects,
			Qualification: input.Qualification,
		}
		if err := tx.Teachers().Create(ctx, profile); err != nil {
			return err
		}
		return s.logRegistration(ctx, tx, user, map[string]any{"flow": "teacher"})
	})
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

type ParentRegistration struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      *string
	Password   string
	NationalID *string
	Occupation *string
	Address    *string
}

// RegisterParent is public self-registration; the account stays pending
// until approved.
func (s *RegistrationService) RegisterParent(ctx context.Context, input ParentRegistration) (*entity.User, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	if violations := s.policy.Validate(input.Password); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	taken, err := s.store.Users().EmailTaken(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         entity.RoleParent,
		Status:       entity.StatusPending,
	}
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		profile := &entity.ParentProfile{
			UserID:     user.ID,
			NationalID: input.NationalID,
			Occupation: input.Occupation,
			Address:    input.Address,
		}
		if err := tx.Parents().Create(ctx, profile); err != nil {
			return err
		}
		return s.logRegistration(ctx, tx, user, map[string]any{"flow": "parent"})
	})
	if err != nil {
		return nil, err
	}

	s.sendVerification(ctx, user)
	return user, nil
}

type LearnerRegistration struct {
	FirstName       string
	LastName        string
	AdmissionNumber string
	DateOfBirth     *time.Time
	Gender          string
	Grade           string

	ParentEmail        string
	ParentFirstName    string
	ParentLastName     string
	ParentPhone        *string
	ParentRelationship string
}

type LearnerResult struct {
	Learner       *entity.Learner
	ParentUser    *entity.User
	ParentCreated bool
}

// RegisterLearner creates the learner and its primary-parent link. The
// find-or-create of the parent runs inside the same transaction as the
// learner insert so a parent failure never leaves an orphaned learner.
func (s *RegistrationService) RegisterLearner(ctx context.Context, schoolID uuid.UUID, input LearnerRegistration) (*LearnerResult, error) {
	parentEmail := utils.NormalizeEmail(input.ParentEmail)
	if parentEmail == "" || input.AdmissionNumber == "" {
		return nil, ErrInvalidInput
	}

	taken, err := s.store.Learners().AdmissionNumberTaken(ctx, schoolID, input.AdmissionNumber, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrAdmissionNumberTaken
	}

	result := &LearnerResult{}
	var tempPassword string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.SetTenant(ctx, schoolID); err != nil {
			return err
		}

		parentUser, err := tx.Users().FindByEmail(ctx, parentEmail)
		if err != nil {
			return err
		}
		if parentUser != nil && parentUser.Role != entity.RoleParent {
			return ErrEmailTaken
		}

		var parentProfile *entity.ParentProfile
		if parentUser == nil {
			tempPassword, err = utils.GenerateTempPassword(14)
			if err != nil {
				return err
			}
			hash, err := s.passwordHash.Hash(tempPassword)
			if err != nil {
				return err
			}
			parentUser = &entity.User{
				ID:           uuid.New(),
				Email:        parentEmail,
				PasswordHash: hash,
				FirstName:    input.ParentFirstName,
				LastName:     input.ParentLastName,
				Phone:        input.ParentPhone,
				Role:         entity.RoleParent,
				Status:       entity.StatusActive,
			}
			if err := tx.Users().Create(ctx, parentUser); err != nil {
				return err
			}
			parentProfile = &entity.ParentProfile{
				ID:     uuid.New(),
				UserID: parentUser.ID,
			}
			if err := tx.Parents().Create(ctx, parentProfile); err != nil {
				return err
			}
			result.ParentCreated = true
		} else {
			parentProfile, err = tx.Parents().FindByUserID(ctx, parentUser.ID)
			if err != nil {
				return err
			}
			if parentProfile == nil {
				parentProfile = &entity.ParentProfile{
					ID:     uuid.New(),
					UserID: parentUser.ID,
				}
				if err := tx.Parents().Create(ctx, parentProfile); err != nil {
					return err
				}
			}
		}

		learner := &entity.Learner{
			ID:              uuid.New(),
			SchoolID:        schoolID,
			AdmissionNumber: input.AdmissionNumber,
			FirstName:       input.FirstName,
			LastName:        input.LastName,
			DateOfBirth:     input.DateOfBirth,
			Gender:          input.Gender,
			Grade:           input.Grade,
			Active:          true,
		}
		if err := tx.Learners().Create(ctx, learner); err != nil {
			return err
		}

		link := &entity.LearnerParent{
			LearnerID:    learner.ID,
			ParentID:     parentProfile.ID,
			IsPrimary:    true,
			Relationship: input.ParentRelationship,
		}
		if err := tx.Learners().CreateLink(ctx, link); err != nil {
			return err
		}

		result.Learner = learner
		result.ParentUser = parentUser
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Temp credentials go out-of-band once the rows are committed.
	if result.ParentCreated && s.emailSender != nil {
		if err := s.emailSender.SendParentInvite(ctx, parentEmail, tempPassword); err != nil {
			s.log().WithError(err).WithField("email", parentEmail).Warn("parent invite email failed")
		}
	}
	return result, nil
}

func (s *RegistrationService) sendVerification(ctx context.Context, user *entity.User) {
	if s.emailSender == nil {
		return
	}
	rawToken, err := utils.GenerateRandomToken(32)
	if err != nil {
		s.log().WithError(err).Error("verification token generation failed")
		return
	}
	verification := &entity.VerificationToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(rawToken),
		Type:      entity.EmailVerify,
		ExpiresAt: s.now().Add(s.verificationTokenTTL()),
	}
	if err := s.store.VerificationTokens().Create(ctx, verification); err != nil {
		s.log().WithError(err).Error("verification token persist failed")
		return
	}
	if err := s.emailSender.SendVerificationEmail(ctx, user.Email, rawToken); err != nil {
		s.log().WithError(err).WithField("email", user.Email).Warn("verification email failed")
	}
}

func (s *RegistrationService) logRegistration(ctx context.Context, tx repository.Store, user *entity.User, metadata map[string]any) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	return tx.Audit().Log(ctx, &entity.AuditLog{
		UserID:   &user.ID,
		SchoolID: user.SchoolID,
		Action:   entity.UserRegistered,
		Metadata: datatypes.JSON(raw),
	})
}

func (s *RegistrationService) log() *logrus.Logger {
	if s.logger == nil {
		return logrus.StandardLogger()
	}
	return s.logger
}

func (s *RegistrationService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *RegistrationService) verificationTokenTTL() time.Duration {
	if s.config.VerificationTokenTTL > 0 {
		return s.config.VerificationTokenTTL
	}
	return 24 * time.Hour
}
