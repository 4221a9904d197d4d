// Package migration copies legacy CMS posts into the normalized store. Each
// legacy post maps to at most one normalized row, keyed by its legacy id, so
// a run can be repeated any number of times.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/mapping"
)

// Result describes the outcome of one upsert.
type Result struct {
	Created   bool
	ProfileID uuid.UUID
}

// keyedRow is implemented by every normalized entity written by the migration.
type keyedRow[T any] interface {
	*T
	PrimaryKey() uuid.UUID
	AssignKeys(id uuid.UUID, legacyID int64)
}

// Repositories groups the store repositories the writer needs.
type Repositories struct {
	Shelters   repository.ShelterRepository
	Volunteers repository.VolunteerRepository
	Vacancies  repository.VacancyRepository
	Events     repository.PopulationEventRepository
	Ledger     repository.LedgerRepository // optional
}

// Writer performs idempotent upserts keyed by legacy id. It keeps no state
// between records and is safe for concurrent use.
type Writer struct {
	repos  Repositories
	logger logger.Logger
	now    func() time.Time
}

// NewWriter creates a Writer over repos.
func NewWriter(repos Repositories, log logger.Logger) *Writer {
	return &Writer{
		repos:  repos,
		logger: log.Module("writer"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpsertShelter writes a mapped shelter.
func (w *Writer) UpsertShelter(ctx context.Context, legacyID int64, m mapping.Mapped[entities.Shelter]) (Result, error) {
	return upsert(ctx, w, w.repos.Shelters, legacy.EntityShelter, legacyID, m)
}

// UpsertVolunteer writes a mapped volunteer.
func (w *Writer) UpsertVolunteer(ctx context.Context, legacyID int64, m mapping.Mapped[entities.Volunteer]) (Result, error) {
	return upsert(ctx, w, w.repos.Volunteers, legacy.EntityVolunteer, legacyID, m)
}

// UpsertVacancy writes a mapped vacancy.
func (w *Writer) UpsertVacancy(ctx context.Context, legacyID int64, m mapping.Mapped[entities.Vacancy]) (Result, error) {
	return upsert(ctx, w, w.repos.Vacancies, legacy.EntityVacancy, legacyID, m)
}

// UpsertPopulationEvent writes a mapped population report.
func (w *Writer) UpsertPopulationEvent(ctx context.Context, legacyID int64, m mapping.Mapped[entities.PopulationEvent]) (Result, error) {
	return upsert(ctx, w, w.repos.Events, legacy.EntityPopulationEvent, legacyID, m)
}

// Exists reports whether legacyID was already migrated as kind.
func (w *Writer) Exists(ctx context.Context, kind legacy.EntityType, legacyID int64) (bool, error) {
	var err error
	switch kind {
	case legacy.EntityShelter:
		_, err = w.repos.Shelters.GetByLegacyID(ctx, legacyID)
	case legacy.EntityVolunteer:
		_, err = w.repos.Volunteers.GetByLegacyID(ctx, legacyID)
	case legacy.EntityVacancy:
		_, err = w.repos.Vacancies.GetByLegacyID(ctx, legacyID)
	case legacy.EntityPopulationEvent:
		_, err = w.repos.Events.GetByLegacyID(ctx, legacyID)
	default:
		return false, fmt.Errorf("unknown entity type %q", kind)
	}
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) || isNotFound(err) {
		return false, nil
	}
	return false, err
}

// isNotFound matches the repository not-found sentinels.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrShelterNotFound) ||
		errors.Is(err, repository.ErrVolunteerNotFound) ||
		errors.Is(err, repository.ErrVacancyNotFound) ||
		errors.Is(err, repository.ErrPopulationEventNotFound)
}

// upsert inserts the row of legacyID or partially updates the existing one.
// A concurrent insert of the same legacy id loses on the unique index; the
// loser re-reads the winner's row and applies its fields as an update.
func upsert[T any, P keyedRow[T]](
	ctx context.Context,
	w *Writer,
	repo repository.KeyedRepository[T],
	kind legacy.EntityType,
	legacyID int64,
	m mapping.Mapped[T],
) (Result, error) {
	existing, err := repo.GetByLegacyID(ctx, legacyID)
	switch {
	case err == nil:
		return w.update(ctx, repo, kind, legacyID, P(existing).PrimaryKey(), m.Fields)
	case !isNotFound(err):
		return Result{}, writeError(err, kind, legacyID, "lookup")
	}

	row := m.Row
	if row == nil {
		row = new(T)
	}
	id := uuid.New()
	P(row).AssignKeys(id, legacyID)

	if err := repo.Create(ctx, row); err != nil {
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return Result{}, writeError(err, kind, legacyID, "insert")
		}
		winner, findErr := repo.GetByLegacyID(ctx, legacyID)
		if findErr != nil {
			return Result{}, writeError(err, kind, legacyID, "insert")
		}
		w.logger.Debug("concurrent insert detected, updating instead",
			logger.Int64("legacy_id", legacyID),
			logger.String("kind", string(kind)))
		return w.update(ctx, repo, kind, legacyID, P(winner).PrimaryKey(), m.Fields)
	}

	w.record(ctx, kind, legacyID, id)
	return Result{Created: true, ProfileID: id}, nil
}

// update applies fields to the row with id.
func (w *Writer) update(ctx context.Context, repo updater, kind legacy.EntityType, legacyID int64, id uuid.UUID, fields mapping.Fields) (Result, error) {
	if err := repo.UpdateFields(ctx, id, fields); err != nil {
		return Result{}, writeError(err, kind, legacyID, "update")
	}
	w.record(ctx, kind, legacyID, id)
	return Result{Created: false, ProfileID: id}, nil
}

// updater is the part of KeyedRepository used by update.
type updater interface {
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
}

// record writes the ledger entry. A ledger failure does not undo the row
// write and is only logged.
func (w *Writer) record(ctx context.Context, kind legacy.EntityType, legacyID int64, id uuid.UUID) {
	if w.repos.Ledger == nil {
		return
	}
	if err := w.repos.Ledger.Record(ctx, string(kind), legacyID, id, w.now()); err != nil {
		w.logger.Warn("failed to record migration ledger entry",
			logger.Int64("legacy_id", legacyID),
			logger.String("kind", string(kind)),
			logger.Error(err))
	}
}

// writeError tags a failed store write with the offending legacy id.
func writeError(err error, kind legacy.EntityType, legacyID int64, operation string) error {
	return errors.New(fmt.Errorf("%s %s %d: %w", operation, kind, legacyID, err)).
		Component("migration").
		Category(errors.CategoryDatabase).
		LegacyContext(legacyID, string(kind)).
		Context("operation", operation).
		Build()
}
