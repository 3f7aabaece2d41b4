package service

import (
	"time"

	"shulehub/internal/entity"
	"shulehub/internal/utils"

	"github.com/google/uuid"
)

type JWTAccessIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTAccessIssuer) IssueAccessToken(user entity.User, sessionID uuid.UUID) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, ErrInvalidToken
	}
	schoolID := ""
	if user.SchoolID != nil {
		schoolID = user.SchoolID.String()
	}
	return j.Manager.IssueAccessToken(user.ID.String(), user.Email, string(user.Role), schoolID, sessionID.String())
}
