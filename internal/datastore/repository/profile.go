package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
)

// ProfileRepository stores profiles that a person can claim: shelters and volunteers.
type ProfileRepository[T any] interface {
	KeyedRepository[T]

	// ClaimByLegacyID sets owner_identity_id on the profile migrated from
	// legacyID, provided the profile is unowned and the identity owns no other
	// profile in this table. The check and the write are one UPDATE statement.
	// It reports whether a row was claimed.
	ClaimByLegacyID(ctx context.Context, legacyID int64, identityID uuid.UUID) (bool, error)

	// GetByOwner returns the profile owned by identityID.
	GetByOwner(ctx context.Context, identityID uuid.UUID) (*T, error)

	// CountByOwner returns how many profiles identityID owns.
	CountByOwner(ctx context.Context, identityID uuid.UUID) (int64, error)
}

// ShelterRepository stores shelter profiles.
type ShelterRepository = ProfileRepository[entities.Shelter]

// VolunteerRepository stores volunteer profiles.
type VolunteerRepository = ProfileRepository[entities.Volunteer]

// profileRepository implements ProfileRepository.
type profileRepository[T any] struct {
	keyedRepository[T]
	table string
}

// NewShelterRepository creates a new ShelterRepository.
func NewShelterRepository(db *gorm.DB) ShelterRepository {
	return &profileRepository[entities.Shelter]{
		keyedRepository: keyedRepository[entities.Shelter]{db: db, notFound: ErrShelterNotFound},
		table:           entities.Shelter{}.TableName(),
	}
}

// NewVolunteerRepository creates a new VolunteerRepository.
func NewVolunteerRepository(db *gorm.DB) VolunteerRepository {
	return &profileRepository[entities.Volunteer]{
		keyedRepository: keyedRepository[entities.Volunteer]{db: db, notFound: ErrVolunteerNotFound},
		table:           entities.Volunteer{}.TableName(),
	}
}

// ClaimByLegacyID links identityID to the unowned profile of legacyID.
//
// The ownership check is wrapped in a derived table so MySQL accepts a
// subquery on the table being updated. The unique index on
// owner_identity_id backs the statement up when two claims race.
func (r *profileRepository[T]) ClaimByLegacyID(ctx context.Context, legacyID int64, identityID uuid.UUID) (bool, error) {
	ownedSubquery := fmt.Sprintf(
		"NOT EXISTS (SELECT 1 FROM (SELECT id FROM %s WHERE owner_identity_id = ?) AS owned)",
		r.table)

	result := r.db.WithContext(ctx).
		Model(new(T)).
		Where("legacy_entity_id = ? AND owner_identity_id IS NULL", legacyID).
		Where(ownedSubquery, identityID).
		Updates(map[string]any{
			"owner_identity_id": identityID,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, fmt.Errorf("%w: %w", ErrDuplicateKey, result.Error)
		}
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetByOwner retrieves the profile owned by the identity.
func (r *profileRepository[T]) GetByOwner(ctx context.Context, identityID uuid.UUID) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).
		Where("owner_identity_id = ?", identityID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.notFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountByOwner counts the profiles owned by the identity.
func (r *profileRepository[T]) CountByOwner(ctx context.Context, identityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(new(T)).
		Where("owner_identity_id = ?", identityID).
		Count(&count).Error
	return count, err
}
