package entities

import (
	"time"

	"github.com/google/uuid"
)

// MigrationLedger records, per legacy post, which normalized row it was
// migrated into and how often the migration touched it.
type MigrationLedger struct {
	LegacyEntityID  int64     `gorm:"primaryKey;autoIncrement:false"`
	Kind            string    `gorm:"type:varchar(32);not null;index"`
	TargetID        uuid.UUID `gorm:"type:varchar(36);not null"`
	FirstMigratedAt time.Time `gorm:"not null"`
	LastMigratedAt  time.Time `gorm:"not null"`
	Runs            int       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM.
func (MigrationLedger) TableName() string {
	return "migration_ledger"
}
