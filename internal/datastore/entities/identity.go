package entities

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated user of the new application. LegacyAuthorID
// points at the CMS user that authored the person's legacy posts.
type Identity struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	LegacyAuthorID *int64    `gorm:"index"`
	Email          string    `gorm:"size:320;not null;uniqueIndex:idx_identities_email"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Identity) TableName() string {
	return "identities"
}
