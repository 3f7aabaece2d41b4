package handler

import (
	"net/http"

	"shulehub/api/middleware"
	"shulehub/internal/dto"
	"shulehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type RegistrationHandler struct {
	Registration *service.RegistrationService
	Validate     *validator.Validate
	Logger       *logrus.Logger
	Production   bool
}

func NewRegistrationHandler(registration *service.RegistrationService, validate *validator.Validate, logger *logrus.Logger, production bool) *RegistrationHandler {
	return &RegistrationHandler{Registration: registration, Validate: validate, Logger: logger, Production: production}
}

func (h *RegistrationHandler) RegisterSchoolAdmin(c echo.Context) error {
	var req dto.SchoolAdminRegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}

	input := service.SchoolAdminRegistration{
		SchoolName:     req.School.Name,
		SchoolCode:     req.School.Code,
		SchoolLevel:    req.School.Level,
		County:         req.School.County,
		SubCounty:      req.School.SubCounty,
		Ward:           req.School.Ward,
		Address:        req.School.Address,
		PostalAddress:  req.School.PostalAddress,
		SchoolPhone:    req.School.Phone,
		SchoolEmail:    req.School.Email,
		PrimaryEmail:   req.PrimaryEmail,
		AdminFirstName: req.Administrator.FirstName,
		AdminLastName:  req.Administrator.LastName,
		AdminEmail:     req.Administrator.Email,
		AdminPhone:     req.Administrator.Phone,
		AdminPassword:  req.Administrator.Password,
		AdminTitle:     req.Administrator.Title,
	}
	result, err := h.Registration.RegisterSchoolAdmin(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}

	response := dto.SchoolAdminRegisterResponse{
		SchoolID:    result.School.ID.String(),
		SchoolCode:  result.School.Code,
		AdminUserID: result.Admin.ID.String(),
	}
	if result.Secondary != nil {
		response.PrimaryUserID = result.Secondary.ID.String()
	}
	return respond(c, http.StatusCreated, "School registered; verification email sent to the administrator", response)
}

func (h *RegistrationHandler) RegisterTeacher(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok || principal.SchoolID == nil {
		return respond(c, http.StatusForbidden, "No school context", nil)
	}
	var req dto.TeacherRegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}

	input := service.TeacherRegistration{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Password:      req.Password,
		TSCNumber:     req.TSCNumber,
		Subjects:      req.Subjects,
		Qualification: req.Qualification,
	}
	user, err := h.Registration.RegisterTeacher(c.Request().Context(), *principal.SchoolID, input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusCreated, "Teacher registered, pending approval", dto.UserResponseFromEntity(user))
}

func (h *RegistrationHandler) RegisterParent(c echo.Context) error {
	var req dto.ParentRegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}

	input := service.ParentRegistration{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		NationalID: req.NationalID,
		Occupation: req.Occupation,
		Address:    req.Address,
	}
	user, err := h.Registration.RegisterParent(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusCreated, "Parent registered, pending approval", dto.UserResponseFromEntity(user))
}

func (h *RegistrationHandler) RegisterLearner(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok || principal.SchoolID == nil {
		return respond(c, http.StatusForbidden, "No school context", nil)
	}
	var req dto.LearnerRegisterRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}

	input := service.LearnerRegistration{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		AdmissionNumber:    req.AdmissionNumber,
		DateOfBirth:        req.DateOfBirth,
		Gender:             req.Gender,
		Grade:              req.Grade,
		ParentEmail:        req.Parent.Email,
		ParentFirstName:    req.Parent.FirstName,
		ParentLastName:     req.Parent.LastName,
		ParentPhone:        req.Parent.Phone,
		ParentRelationship: req.Parent.Relationship,
	}
	result, err := h.Registration.RegisterLearner(c.Request().Context(), *principal.SchoolID, input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	response := dto.LearnerRegisterResponse{
		LearnerID:       result.Learner.ID.String(),
		AdmissionNumber: result.Learner.AdmissionNumber,
		ParentUserID:    result.ParentUser.ID.String(),
		ParentCreated:   result.ParentCreated,
	}
	return respond(c, http.StatusCreated, "Learner registered", response)
}
