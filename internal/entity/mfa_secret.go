package entity

import (
	"time"

	"github.com/google/uuid"
)

type MFASecret struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	Secret    string `gorm:"type:text;not null" json:"-"`
	EnabledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
