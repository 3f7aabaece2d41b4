package handler

import (
	"net/http"
	"strconv"

	"shulehub/api/middleware"
	"shulehub/internal/dto"
	"shulehub/internal/entity"
	"shulehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	Users      *service.UserService
	Validate   *validator.Validate
	Logger     *logrus.Logger
	Production bool
}

func NewUserHandler(users *service.UserService, validate *validator.Validate, logger *logrus.Logger, production bool) *UserHandler {
	return &UserHandler{Users: users, Validate: validate, Logger: logger, Production: production}
}

// ListUsers is always scoped to the caller's school; query parameters
// filter within that scope, never widen it.
func (h *UserHandler) ListUsers(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	input := service.UserListInput{}
	if role := c.QueryParam("role"); role != "" {
		value := entity.Role(role)
		input.Role = &value
	}
	if status := c.QueryParam("status"); status != "" {
		value := entity.Status(status)
		input.Status = &value
	}
	if schoolID := c.QueryParam("school_id"); schoolID != "" {
		if id, err := uuid.Parse(schoolID); err == nil {
			input.SchoolID = &id
		}
	}
	input.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	input.Offset, _ = strconv.Atoi(c.QueryParam("offset"))

	users, err := h.Users.ListUsers(c.Request().Context(), principal, input)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Users retrieved", dto.UserResponsesFromEntities(users))
}

func (h *UserHandler) ListLearners(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}

	var schoolID *uuid.UUID
	if value := c.QueryParam("school_id"); value != "" {
		if id, err := uuid.Parse(value); err == nil {
			schoolID = &id
		}
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	learners, err := h.Users.ListLearners(c.Request().Context(), principal, schoolID, limit, offset)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	responses := make([]dto.LearnerResponse, 0, len(learners))
	for i := range learners {
		responses = append(responses, dto.LearnerResponseFromEntity(&learners[i]))
	}
	return respond(c, http.StatusOK, "Learners retrieved", responses)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondViolations(c, "Validation failed", []string{"userId must be a valid UUID"})
	}
	user, err := h.Users.GetUser(c.Request().Context(), principal, targetID)
	if err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "User retrieved", dto.UserResponseFromEntity(user))
}

func (h *UserHandler) UpdateUserStatus(c echo.Context) error {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Authentication required", nil)
	}
	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondViolations(c, "Validation failed", []string{"userId must be a valid UUID"})
	}
	var req dto.UpdateStatusRequest
	if err := decodeJSON(c, &req); err != nil {
		return respondViolations(c, "Validation failed", []string{"request body must be valid JSON"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return respondViolations(c, "Validation failed", violationsFromValidator(err))
	}

	if err := h.Users.UpdateUserStatus(c.Request().Context(), principal, targetID, entity.Status(req.Status)); err != nil {
		return writeServiceError(c, h.Logger, h.Production, err)
	}
	return respond(c, http.StatusOK, "Status updated", nil)
}
