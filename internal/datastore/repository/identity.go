package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
)

// IdentityRepository stores authenticated user identities.
type IdentityRepository interface {
	// GetOrCreate returns the identity for email, creating it on first use.
	// created reports whether this call inserted the row.
	GetOrCreate(ctx context.Context, email string, legacyAuthorID *int64) (identity *entities.Identity, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Identity, error)
	GetByEmail(ctx context.Context, email string) (*entities.Identity, error)
	// SetLegacyAuthor records the legacy author of an identity that has none yet.
	SetLegacyAuthor(ctx context.Context, id uuid.UUID, legacyAuthorID int64) error
}

// identityRepository implements IdentityRepository.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

// normalizeEmail lower-cases and trims an e-mail address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetOrCreate retrieves an existing identity or creates a new one.
func (r *identityRepository) GetOrCreate(ctx context.Context, email string, legacyAuthorID *int64) (*entities.Identity, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, ErrInvalidInput
	}

	existing, err := r.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, false, err
	}

	identity := entities.Identity{
		ID:             uuid.New(),
		Email:          email,
		LegacyAuthorID: legacyAuthorID,
	}

	createErr := r.db.WithContext(ctx).Create(&identity).Error
	if createErr != nil {
		// Handle race condition - a concurrent login may have created it.
		existing, findErr := r.GetByEmail(ctx, email)
		if findErr != nil {
			return nil, false, createErr
		}
		return existing, false, nil
	}

	return &identity, true, nil
}

// GetByID retrieves an identity by its ID.
func (r *identityRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Identity, error) {
	var identity entities.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetByEmail retrieves an identity by e-mail address.
func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*entities.Identity, error) {
	var identity entities.Identity
	err := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// SetLegacyAuthor sets legacy_author_id only while it is still NULL.
func (r *identityRepository) SetLegacyAuthor(ctx context.Context, id uuid.UUID, legacyAuthorID int64) error {
	return r.db.WithContext(ctx).
		Model(&entities.Identity{}).
		Where("id = ? AND legacy_author_id IS NULL", id).
		Update("legacy_author_id", legacyAuthorID).Error
}
