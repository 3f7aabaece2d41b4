package dto

import (
	"time"

	"shulehub/internal/entity"
)

type SchoolAdminRegisterRequest struct {
	School struct {
		Name          string  `json:"name" validate:"required"`
		Code          string  `json:"code" validate:"required"`
		Level         string  `json:"level" validate:"required"`
		County        string  `json:"county" validate:"required"`
		SubCounty     string  `json:"subCounty"`
		Ward          string  `json:"ward"`
		Address       *string `json:"address"`
		PostalAddress *string `json:"postalAddress"`
		Phone         string  `json:"phone" validate:"required"`
		Email         string  `json:"email" validate:"required,email"`
	} `json:"school" validate:"required"`

	PrimaryEmail string `json:"primaryEmail" validate:"required,email"`

	Administrator struct {
		FirstName string  `json:"firstName" validate:"required"`
		LastName  string  `json:"lastName" validate:"required"`
		Email     string  `json:"email" validate:"required,email"`
		Phone     *string `json:"phone"`
		Password  string  `json:"password" validate:"required"`
		Title     *string `json:"title"`
	} `json:"administrator" validate:"required"`
}

type SchoolAdminRegisterResponse struct {
	SchoolID      string `json:"schoolId"`
	SchoolCode    string `json:"schoolCode"`
	AdminUserID   string `json:"adminUserId"`
	PrimaryUserID string `json:"primaryUserId,omitempty"`
}

type TeacherRegisterRequest struct {
	FirstName     string   `json:"firstName" validate:"required"`
	LastName      string   `json:"lastName" validate:"required"`
	Email         string   `json:"email" validate:"required,email"`
	Phone         *string  `json:"phone"`
	Password      string   `json:"password" validate:"required"`
	TSCNumber     string   `json:"tscNumber" validate:"required"`
	Subjects      []string `json:"subjects"`
	Qualification *string  `json:"qualification"`
}

type ParentRegisterRequest struct {
	FirstName  string  `json:"firstName" validate:"required"`
	LastName   string  `json:"lastName" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      *string `json:"phone"`
	Password   string  `json:"password" validate:"required"`
	NationalID *string `json:"nationalId"`
	Occupation *string `json:"occupation"`
	Address    *string `json:"address"`
}

type LearnerRegisterRequest struct {
	FirstName       string     `json:"firstName" validate:"required"`
	LastName        string     `json:"lastName" validate:"required"`
	AdmissionNumber string     `json:"admissionNumber" validate:"required"`
	DateOfBirth     *time.Time `json:"dateOfBirth"`
	Gender          string     `json:"gender" validate:"omitempty,oneof=male female other"`
	Grade           string     `json:"grade"`

	Parent struct {
		Email        string  `json:"email" validate:"required,email"`
		FirstName    string  `json:"firstName"`
		LastName     string  `json:"lastName"`
		Phone        *string `json:"phone"`
		Relationship string  `json:"relationship" validate:"required"`
	} `json:"parent" validate:"required"`
}

type LearnerRegisterResponse struct {
	LearnerID       string `json:"learnerId"`
	AdmissionNumber string `json:"admissionNumber"`
	ParentUserID    string `json:"parentUserId"`
	ParentCreated   bool   `json:"parentCreated"`
}

type LearnerResponse struct {
	ID              string     `json:"id"`
	AdmissionNumber string     `json:"admissionNumber"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Grade           string     `json:"grade"`
	Gender          string     `json:"gender"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Active          bool       `json:"active"`
}

func LearnerResponseFromEntity(learner *entity.Learner) LearnerResponse {
	return LearnerResponse{
		ID:              learner.ID.String(),
		AdmissionNumber: learner.AdmissionNumber,
		FirstName:       learner.FirstName,
		LastName:        learner.LastName,
		Grade:           learner.Grade,
		Gender:          learner.Gender,
		DateOfBirth:     learner.DateOfBirth,
		Active:          learner.Active,
	}
}
