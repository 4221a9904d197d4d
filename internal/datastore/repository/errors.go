// Package repository provides the repository interfaces and GORM
// implementations of the normalized registry store.
package repository

import "github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"

// Sentinel errors for repository operations.
// These typed errors enable callers to distinguish between different
// failure modes without relying on string matching or GORM-specific errors.
var (
	// ErrShelterNotFound indicates the requested shelter does not exist.
	ErrShelterNotFound = errors.NewStd("shelter not found")

	// ErrVolunteerNotFound indicates the requested volunteer does not exist.
	ErrVolunteerNotFound = errors.NewStd("volunteer not found")

	// ErrVacancyNotFound indicates the requested vacancy does not exist.
	ErrVacancyNotFound = errors.NewStd("vacancy not found")

	// ErrPopulationEventNotFound indicates the requested population event does not exist.
	ErrPopulationEventNotFound = errors.NewStd("population event not found")

	// ErrIdentityNotFound indicates the requested identity does not exist.
	ErrIdentityNotFound = errors.NewStd("identity not found")

	// ErrLedgerEntryNotFound indicates the legacy id was never migrated.
	ErrLedgerEntryNotFound = errors.NewStd("ledger entry not found")

	// ErrDuplicateKey indicates a unique constraint violation.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidInput indicates invalid input parameters.
	ErrInvalidInput = errors.NewStd("invalid input")
)
