package entities

import (
	"time"

	"github.com/google/uuid"
)

// Vacancy is a volunteering opportunity published by a shelter.
type Vacancy struct {
	ID             uuid.UUID  `gorm:"type:varchar(36);primaryKey"`
	LegacyEntityID *int64     `gorm:"uniqueIndex:idx_vacancies_legacy_entity"`
	ShelterID      *uuid.UUID `gorm:"type:varchar(36);index"`
	Title          string     `gorm:"size:255;not null;default:''"`
	Description    string     `gorm:"type:text"`
	Quantity       int        `gorm:"not null;default:0"`
	PostedAt       time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (Vacancy) TableName() string {
	return "vacancies"
}
