package dto

import (
	"time"

	"shulehub/internal/entity"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginMFARequest struct {
	MFAToken string `json:"mfaToken" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

type LoginResponse struct {
	AccessToken       string `json:"accessToken,omitempty"`
	ExpiresIn         int64  `json:"expiresIn,omitempty"`
	RefreshToken      string `json:"refreshToken,omitempty"`
	RefreshExpiresIn  int64  `json:"refreshExpiresIn,omitempty"`
	MFARequired       bool   `json:"mfaRequired,omitempty"`
	MFAToken          string `json:"mfaToken,omitempty"`
	MFATokenExpiresIn int64  `json:"mfaTokenExpiresIn,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type PasswordForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type MFAEnableResponse struct {
	OTPAuthURL string `json:"otpAuthUrl"`
}

type MFAVerifyRequest struct {
	Code string `json:"code" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended deleted"`
}

type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Phone            *string    `json:"phone,omitempty"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	SchoolID         *string    `json:"schoolId,omitempty"`
	EmailVerified    bool       `json:"emailVerified"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func UserResponseFromEntity(user *entity.User) UserResponse {
	response := UserResponse{
		ID:               user.ID.String(),
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Phone:            user.Phone,
		Role:             string(user.Role),
		Status:           string(user.Status),
		EmailVerified:    user.EmailVerifiedAt != nil,
		TwoFactorEnabled: user.TwoFactorEnabled,
		LastLoginAt:      user.LastLoginAt,
		CreatedAt:        user.CreatedAt,
	}
	if user.SchoolID != nil {
		id := user.SchoolID.String()
		response.SchoolID = &id
	}
	return response
}

func UserResponsesFromEntities(users []entity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, UserResponseFromEntity(&users[i]))
	}
	return responses
}
