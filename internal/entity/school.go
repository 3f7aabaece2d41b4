package entity

import (
	"time"

	"github.com/google/uuid"
)

// School is the tenant boundary. Every non-super-admin query must be
// scoped to one school id.
type School struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"type:varchar(255);not null"`
	Code string    `gorm:"type:varchar(50);uniqueIndex;not null"`

	Level     string `gorm:"type:varchar(50)"`
	County    string `gorm:"type:varchar(100)"`
	SubCounty string `gorm:"type:varchar(100)"`
	Ward      string `gorm:"type:varchar(100)"`

	Address       *string `gorm:"type:text"`
	PostalAddress *string `gorm:"type:varchar(100)"`
	Phone         string  `gorm:"type:varchar(20)"`
	Email         string  `gorm:"type:varchar(255);not null"`

	Active bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
