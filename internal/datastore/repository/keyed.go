package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
)

// KeyedRepository is the store interface shared by every table whose rows
// originate from legacy posts and are keyed by legacy_entity_id.
type KeyedRepository[T any] interface {
	// GetByLegacyID returns the row migrated from legacyID.
	GetByLegacyID(ctx context.Context, legacyID int64) (*T, error)
	// Create inserts row. A second row for the same legacy id fails with ErrDuplicateKey.
	Create(ctx context.Context, row *T) error
	// UpdateFields applies a partial update; columns absent from fields are untouched.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// GetAll returns every row.
	GetAll(ctx context.Context) ([]*T, error)
	// Count returns the number of rows.
	Count(ctx context.Context) (int64, error)
	// LegacyIDMap maps each migrated legacy id to the id of its row.
	LegacyIDMap(ctx context.Context) (map[int64]uuid.UUID, error)
}

// VacancyRepository stores vacancies.
type VacancyRepository = KeyedRepository[entities.Vacancy]

// PopulationEventRepository stores population events.
type PopulationEventRepository = KeyedRepository[entities.PopulationEvent]

// keyedRepository implements KeyedRepository.
type keyedRepository[T any] struct {
	db       *gorm.DB
	notFound error
}

// NewVacancyRepository creates a new VacancyRepository.
func NewVacancyRepository(db *gorm.DB) VacancyRepository {
	return &keyedRepository[entities.Vacancy]{db: db, notFound: ErrVacancyNotFound}
}

// NewPopulationEventRepository creates a new PopulationEventRepository.
func NewPopulationEventRepository(db *gorm.DB) PopulationEventRepository {
	return &keyedRepository[entities.PopulationEvent]{db: db, notFound: ErrPopulationEventNotFound}
}

// GetByLegacyID retrieves the row migrated from the given legacy post.
func (r *keyedRepository[T]) GetByLegacyID(ctx context.Context, legacyID int64) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).
		Where("legacy_entity_id = ?", legacyID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.notFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new row.
func (r *keyedRepository[T]) Create(ctx context.Context, row *T) error {
	err := r.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}
	return err
}

// UpdateFields updates only the given columns of the row with id.
func (r *keyedRepository[T]) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Updates(fields).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}
	return err
}

// GetAll retrieves all rows.
func (r *keyedRepository[T]) GetAll(ctx context.Context) ([]*T, error) {
	var rows []*T
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

// Count returns the total number of rows.
func (r *keyedRepository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

// legacyKeyRow is the projection used by LegacyIDMap.
type legacyKeyRow struct {
	ID             uuid.UUID
	LegacyEntityID int64
}

// LegacyIDMap returns legacy id -> row id for every migrated row.
func (r *keyedRepository[T]) LegacyIDMap(ctx context.Context) (map[int64]uuid.UUID, error) {
	var rows []legacyKeyRow
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Select("id", "legacy_entity_id").
		Where("legacy_entity_id IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]uuid.UUID, len(rows))
	for _, row := range rows {
		ids[row.LegacyEntityID] = row.ID
	}
	return ids, nil
}
