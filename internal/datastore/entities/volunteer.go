package entities

import (
	"time"

	"github.com/google/uuid"
)

// Volunteer is the normalized volunteer profile.
type Volunteer struct {
	ID              uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	LegacyEntityID  *int64     `gorm:"uniqueIndex:idx_volunteers_legacy_entity"`
	OwnerIdentityID *uuid.UUID `gorm:"type:varchar(36);uniqueIndex:idx_volunteers_owner"`
	Name            string     `gorm:"size:255;not null;default:''"`
	Phone           string     `gorm:"size:20"`
	Email           string     `gorm:"size:320"`
	City            string     `gorm:"size:120"`
	State           string     `gorm:"type:varchar(2);index"`
	Skills          StringList `gorm:"type:text"`
	Availability    string     `gorm:"size:120"`
	RegisteredAt    time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Volunteer) TableName() string {
	return "volunteers"
}
