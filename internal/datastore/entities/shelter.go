package entities

import (
	"time"

	"github.com/google/uuid"
)

// ShelterType is the organisational category a shelter reports itself under.
type ShelterType string

const (
	ShelterTypePublic      ShelterType = "public"      // run by a municipality or state body
	ShelterTypePrivate     ShelterType = "private"     // NGO or association
	ShelterTypeMixed       ShelterType = "mixed"       // public-private partnership
	ShelterTypeIndependent ShelterType = "independent" // independent rescuer (protetor independente)
	ShelterTypeUnknown     ShelterType = "unknown"
)

// AllShelterTypes lists the categories in display order.
var AllShelterTypes = []ShelterType{
	ShelterTypePublic,
	ShelterTypePrivate,
	ShelterTypeMixed,
	ShelterTypeIndependent,
	ShelterTypeUnknown,
}

// Shelter is the normalized shelter profile.
type Shelter struct {
	ID              uuid.UUID   `gorm:"type:varchar(36);primaryKey"`
	LegacyEntityID  *int64      `gorm:"uniqueIndex:idx_shelters_legacy_entity"`
	OwnerIdentityID *uuid.UUID  `gorm:"type:varchar(36);uniqueIndex:idx_shelters_owner"`
	Name            string      `gorm:"size:255;not null;default:''"`
	ShelterType     ShelterType `gorm:"type:varchar(20);not null;default:'unknown';index"`
	Document        string      `gorm:"size:20"` // CNPJ or CPF, digits only
	Phone           string      `gorm:"size:20"` // digits only
	Email           string      `gorm:"size:320"`
	District        string      `gorm:"size:120"`
	City            string      `gorm:"size:120"`
	State           string      `gorm:"type:varchar(2);index"` // UF code
	Collaborators   IDList      `gorm:"type:text"`              // legacy author ids of team members
	RegisteredAt    time.Time   `gorm:"index"`
	CreatedAt       time.Time   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Shelter) TableName() string {
	return "shelters"
}
