package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/mapping"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
)

// DefaultBatchSize is the page size used when Options.BatchSize is unset.
const DefaultBatchSize = 500

// Options controls a migration run.
type Options struct {
	DryRun        bool // map and count without writing
	Limit         int  // max records examined per kind; 0 means all
	IncludeDrafts bool // migrate non-published posts too
	BatchSize     int  // records read per page
}

// Runner drives extraction, mapping and upserting of legacy posts.
type Runner struct {
	extractor *legacy.Extractor
	writer    *Writer
	metrics   *metrics.MigrationMetrics
	logger    logger.Logger
}

// NewRunner creates a Runner. m may be nil.
func NewRunner(extractor *legacy.Extractor, writer *Writer, m *metrics.MigrationMetrics, log logger.Logger) *Runner {
	return &Runner{
		extractor: extractor,
		writer:    writer,
		metrics:   m,
		logger:    log.Module("migration"),
	}
}

// Run migrates every kind in order. A failed record is counted and skipped;
// a failed read from either database aborts the run and returns the partial
// report together with the error.
func (r *Runner) Run(ctx context.Context, kinds []legacy.EntityType, opts Options) (*Report, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	report := &Report{DryRun: opts.DryRun, StartTime: time.Now()}
	defer func() { report.EndTime = time.Now() }()

	r.logger.Info("migration run started",
		logger.Time("started_at", report.StartTime),
		logger.Int("kinds", len(kinds)),
		logger.Int("batch_size", opts.BatchSize),
		logger.Bool("dry_run", opts.DryRun))

	for _, kind := range kinds {
		if err := r.runKind(ctx, kind, opts, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

// runState is the per-kind bookkeeping of a run.
type runState struct {
	opts   Options
	report *KindReport

	// shelterIDs maps migrated legacy shelter ids to their row id; loaded on
	// first use. In a dry run, shelters that would be created map to uuid.Nil.
	shelterIDs map[int64]uuid.UUID
	// authorShelter maps a legacy author to the lowest id of the shelters
	// they wrote; loaded on first use.
	authorShelter map[int64]int64
}

// plannedShelters carries the shelters a dry run would create over to the
// kinds processed after them.
type plannedShelters map[int64]struct{}

func (r *Runner) runKind(ctx context.Context, kind legacy.EntityType, opts Options, report *Report) error {
	start := time.Now()
	state := &runState{opts: opts, report: report.Kind(kind)}
	defer func() {
		state.report.Duration = time.Since(start)
		r.metrics.ObserveRun(string(kind), state.report.Duration)
	}()

	r.logger.Info("migrating legacy records",
		logger.String("kind", string(kind)),
		logger.Bool("dry_run", opts.DryRun),
		logger.Int("limit", opts.Limit))

	var afterID int64
	examined := 0
	for {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("migration").
				Category(errors.CategoryCancellation).
				Build()
		}

		size := opts.BatchSize
		if opts.Limit > 0 {
			remaining := opts.Limit - examined
			if remaining <= 0 {
				break
			}
			size = min(size, remaining)
		}

		page, err := r.extractor.Page(ctx, kind, afterID, size)
		if err != nil {
			r.logger.Error("legacy read failed, aborting run",
				logger.String("kind", string(kind)),
				logger.Int64("after_id", afterID),
				logger.Error(err))
			return err
		}

		for i := range page {
			rec := &page[i]
			afterID = rec.Entity.ID
			examined++
			if err := r.process(ctx, kind, rec, state, report); err != nil {
				return err
			}
		}

		if len(page) < size {
			break
		}
	}

	elapsed := time.Since(start)
	var rate float64
	if elapsed > 0 {
		rate = float64(examined) / elapsed.Seconds()
	}
	r.logger.Info("legacy records migrated",
		logger.String("kind", string(kind)),
		logger.Int("created", state.report.Created),
		logger.Int("updated", state.report.Updated),
		logger.Int("skipped", state.report.Skipped),
		logger.Int("failed", state.report.Failed),
		logger.Duration("elapsed", elapsed),
		logger.Float64("records_per_second", rate))
	return nil
}

// process migrates one record. Only errors that must abort the run are
// returned; write failures are counted.
func (r *Runner) process(ctx context.Context, kind legacy.EntityType, rec *legacy.Record, state *runState, report *Report) error {
	legacyID := rec.Entity.ID

	if !state.opts.IncludeDrafts && !rec.Entity.Published() {
		r.logger.Debug("skipping unpublished legacy record",
			logger.Int64("legacy_id", legacyID),
			logger.String("status", string(rec.Entity.Status)))
		r.count(state, kind, metrics.OutcomeSkipped)
		return nil
	}

	if state.opts.DryRun {
		return r.plan(ctx, kind, rec, state, report)
	}

	var (
		result Result
		err    error
	)
	switch kind {
	case legacy.EntityShelter:
		result, err = r.writer.UpsertShelter(ctx, legacyID, mapping.MapShelter(rec))
	case legacy.EntityVolunteer:
		result, err = r.writer.UpsertVolunteer(ctx, legacyID, mapping.MapVolunteer(rec))
	case legacy.EntityVacancy:
		shelterID, ok, resolveErr := r.resolveShelter(ctx, rec, state, report)
		if resolveErr != nil {
			return resolveErr
		}
		if !ok {
			r.skipUnresolved(state, kind, legacyID)
			return nil
		}
		m := mapping.MapVacancy(rec)
		m.Row.ShelterID = &shelterID
		m.Fields["shelter_id"] = shelterID
		result, err = r.writer.UpsertVacancy(ctx, legacyID, m)
	case legacy.EntityPopulationEvent:
		shelterID, ok, resolveErr := r.resolveShelter(ctx, rec, state, report)
		if resolveErr != nil {
			return resolveErr
		}
		if !ok {
			r.skipUnresolved(state, kind, legacyID)
			return nil
		}
		m := mapping.MapPopulationEvent(rec)
		m.Row.ShelterID = shelterID
		m.Fields["shelter_id"] = shelterID
		result, err = r.writer.UpsertPopulationEvent(ctx, legacyID, m)
	default:
		return fmt.Errorf("unknown entity type %q", kind)
	}

	if err != nil {
		r.logger.Error("failed to migrate legacy record",
			logger.Int64("legacy_id", legacyID),
			logger.String("kind", string(kind)),
			logger.Error(err))
		state.report.FailedIDs = append(state.report.FailedIDs, legacyID)
		r.count(state, kind, metrics.OutcomeFailed)
		return nil
	}

	if result.Created {
		r.count(state, kind, metrics.OutcomeCreated)
	} else {
		r.count(state, kind, metrics.OutcomeUpdated)
	}
	return nil
}

// plan counts what a write would do without performing it.
func (r *Runner) plan(ctx context.Context, kind legacy.EntityType, rec *legacy.Record, state *runState, report *Report) error {
	legacyID := rec.Entity.ID

	if kind == legacy.EntityVacancy || kind == legacy.EntityPopulationEvent {
		_, ok, err := r.resolveShelter(ctx, rec, state, report)
		if err != nil {
			return err
		}
		if !ok {
			r.skipUnresolved(state, kind, legacyID)
			return nil
		}
	}

	exists, err := r.writer.Exists(ctx, kind, legacyID)
	if err != nil {
		return errors.New(err).
			Component("migration").
			Category(errors.CategorySourceRead).
			LegacyContext(legacyID, string(kind)).
			Build()
	}

	r.logger.Debug("dry run",
		logger.Int64("legacy_id", legacyID),
		logger.String("kind", string(kind)),
		logger.Bool("exists", exists))

	if exists {
		r.count(state, kind, metrics.OutcomeUpdated)
		return nil
	}
	if kind == legacy.EntityShelter {
		report.planned()[legacyID] = struct{}{}
	}
	r.count(state, kind, metrics.OutcomeCreated)
	return nil
}

func (r *Runner) skipUnresolved(state *runState, kind legacy.EntityType, legacyID int64) {
	r.logger.Warn("skipping legacy record without a migrated shelter",
		logger.Int64("legacy_id", legacyID),
		logger.String("kind", string(kind)))
	r.count(state, kind, metrics.OutcomeSkipped)
}

func (r *Runner) count(state *runState, kind legacy.EntityType, outcome string) {
	switch outcome {
	case metrics.OutcomeCreated:
		state.report.Created++
	case metrics.OutcomeUpdated:
		state.report.Updated++
	case metrics.OutcomeSkipped:
		state.report.Skipped++
	case metrics.OutcomeFailed:
		state.report.Failed++
	}
	r.metrics.RecordOutcome(string(kind), outcome)
}

// resolveShelter finds the normalized shelter a vacancy or population report
// belongs to: the shelter named by abrigo_id, else the lowest id shelter of
// the post's author.
func (r *Runner) resolveShelter(ctx context.Context, rec *legacy.Record, state *runState, report *Report) (uuid.UUID, bool, error) {
	legacyShelterID, ok := mapping.ShelterRef(rec.Attributes)
	if !ok {
		if state.authorShelter == nil {
			byAuthor, err := r.authorShelters(ctx)
			if err != nil {
				return uuid.Nil, false, err
			}
			state.authorShelter = byAuthor
		}
		legacyShelterID, ok = state.authorShelter[rec.Entity.AuthorID]
		if !ok {
			return uuid.Nil, false, nil
		}
	}

	if state.shelterIDs == nil {
		ids, err := r.writer.repos.Shelters.LegacyIDMap(ctx)
		if err != nil {
			return uuid.Nil, false, errors.New(err).
				Component("migration").
				Category(errors.CategorySourceRead).
				Context("operation", "load_shelter_ids").
				Build()
		}
		for planned := range report.planned() {
			if _, migrated := ids[planned]; !migrated {
				ids[planned] = uuid.Nil
			}
		}
		state.shelterIDs = ids
	}

	id, ok := state.shelterIDs[legacyShelterID]
	return id, ok, nil
}

// authorShelters maps each legacy author to their lowest id shelter post.
func (r *Runner) authorShelters(ctx context.Context) (map[int64]int64, error) {
	shelters, err := r.extractor.Source().EntitiesByType(ctx, legacy.EntityShelter)
	if err != nil {
		return nil, err
	}
	byAuthor := make(map[int64]int64, len(shelters))
	for i := range shelters {
		s := &shelters[i]
		if current, ok := byAuthor[s.AuthorID]; !ok || s.ID < current {
			byAuthor[s.AuthorID] = s.ID
		}
	}
	return byAuthor, nil
}
