package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
)

// LedgerRepository stores the migration ledger.
type LedgerRepository interface {
	// Record notes that legacyID was written to targetID at the given time.
	// The first call creates the entry; later calls bump Runs and LastMigratedAt.
	Record(ctx context.Context, kind string, legacyID int64, targetID uuid.UUID, at time.Time) error
	Get(ctx context.Context, legacyID int64) (*entities.MigrationLedger, error)
	CountByKind(ctx context.Context) (map[string]int64, error)
}

// ledgerRepository implements LedgerRepository.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Record upserts the ledger entry of a legacy post.
func (r *ledgerRepository) Record(ctx context.Context, kind string, legacyID int64, targetID uuid.UUID, at time.Time) error {
	at = at.UTC()
	entry := entities.MigrationLedger{
		LegacyEntityID:  legacyID,
		Kind:            kind,
		TargetID:        targetID,
		FirstMigratedAt: at,
		LastMigratedAt:  at,
		Runs:            1,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "legacy_entity_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"kind":             kind,
				"target_id":        targetID,
				"last_migrated_at": at,
				"runs":             gorm.Expr("migration_ledger.runs + 1"),
			}),
		}).
		Create(&entry).Error
}

// Get retrieves the ledger entry of a legacy post.
func (r *ledgerRepository) Get(ctx context.Context, legacyID int64) (*entities.MigrationLedger, error) {
	var entry entities.MigrationLedger
	err := r.db.WithContext(ctx).
		Where("legacy_entity_id = ?", legacyID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLedgerEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountByKind returns the number of migrated legacy posts per kind.
func (r *ledgerRepository) CountByKind(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Kind  string
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&entities.MigrationLedger{}).
		Select("kind, COUNT(*) AS total").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Total
	}
	return counts, nil
}
