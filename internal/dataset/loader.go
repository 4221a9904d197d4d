package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/mapping"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
)

// ErrLoadFailed marks a dataset that could not be built because a source
// was unreadable. It is never returned alongside a partial dataset.
var ErrLoadFailed = errors.NewStd("dataset load failed")

// Provider builds datasets. Loader and CachedLoader implement it.
type Provider interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Options tunes which legacy posts the loader merges.
type Options struct {
	// IncludeDrafts merges unpublished legacy posts, matching a migration
	// run with the same flag.
	IncludeDrafts bool
}

// Loader merges the normalized store with the legacy CMS on every call.
type Loader struct {
	shelters  repository.ShelterRepository
	events    repository.PopulationEventRepository
	extractor *legacy.Extractor
	opts      Options
	metrics   *metrics.DatasetMetrics
	logger    logger.Logger
}

// NewLoader creates a Loader. m may be nil.
func NewLoader(
	shelters repository.ShelterRepository,
	events repository.PopulationEventRepository,
	extractor *legacy.Extractor,
	opts Options,
	m *metrics.DatasetMetrics,
	log logger.Logger,
) *Loader {
	return &Loader{
		shelters:  shelters,
		events:    events,
		extractor: extractor,
		opts:      opts,
		metrics:   m,
		logger:    log.Module("dataset"),
	}
}

// normalizedRows is what the loader reads from the normalized store.
type normalizedRows struct {
	shelters []*entities.Shelter
	events   []*entities.PopulationEvent
}

// legacyRows is what the loader reads from the legacy CMS.
type legacyRows struct {
	shelters []legacy.Record
	events   []legacy.Record
}

// Load reads both sources concurrently and merges them. A failure of either
// source cancels the other and is returned wrapped in ErrLoadFailed.
func (l *Loader) Load(ctx context.Context) (ds *Dataset, err error) {
	start := time.Now()
	defer func() { l.metrics.ObserveLoad(time.Since(start), err) }()

	var (
		norm normalizedRows
		leg  legacyRows
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if norm.shelters, err = l.shelters.GetAll(gctx); err != nil {
			return fmt.Errorf("read normalized shelters: %w", err)
		}
		if norm.events, err = l.events.GetAll(gctx); err != nil {
			return fmt.Errorf("read normalized population events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if leg.shelters, err = l.extractor.Load(gctx, legacy.EntityShelter); err != nil {
			return fmt.Errorf("read legacy shelters: %w", err)
		}
		if leg.events, err = l.extractor.Load(gctx, legacy.EntityPopulationEvent); err != nil {
			return fmt.Errorf("read legacy population events: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.logger.Error("dataset load failed", logger.Error(err))
		return nil, errors.New(fmt.Errorf("%w: %w", ErrLoadFailed, err)).
			Component("dataset").
			Category(errors.CategoryDatabase).
			Timing("dataset_load", time.Since(start)).
			Build()
	}

	ds = l.merge(norm, leg)
	l.record(ds)

	l.logger.Debug("dataset loaded",
		logger.Int("shelters", len(ds.Shelters)),
		logger.Int("events", len(ds.Events)),
		logger.Duration("elapsed", time.Since(start)))
	return ds, nil
}

// merge builds the dataset. Normalized rows are taken as-is; a legacy post
// is mapped and added only when no normalized row carries its id.
func (l *Loader) merge(norm normalizedRows, leg legacyRows) *Dataset {
	ds := &Dataset{
		Shelters: make([]entities.Shelter, 0, len(norm.shelters)+len(leg.shelters)),
		Events:   make([]entities.PopulationEvent, 0, len(norm.events)+len(leg.events)),
		origins:  make(map[uuid.UUID]Origin, len(norm.shelters)+len(norm.events)+len(leg.shelters)+len(leg.events)),
	}

	// shelterIDs resolves a legacy shelter id to its dataset id.
	shelterIDs := make(map[int64]uuid.UUID, len(norm.shelters)+len(leg.shelters))
	for _, s := range norm.shelters {
		ds.Shelters = append(ds.Shelters, *s)
		ds.origins[s.ID] = OriginNormalized
		if s.LegacyEntityID != nil {
			shelterIDs[*s.LegacyEntityID] = s.ID
		}
	}

	migratedEvents := make(map[int64]struct{}, len(norm.events))
	for _, e := range norm.events {
		ds.Events = append(ds.Events, *e)
		ds.origins[e.ID] = OriginNormalized
		if e.LegacyEntityID != nil {
			migratedEvents[*e.LegacyEntityID] = struct{}{}
		}
	}

	authorShelter := make(map[int64]int64)
	for i := range leg.shelters {
		rec := &leg.shelters[i]
		legacyID := rec.Entity.ID
		if current, ok := authorShelter[rec.Entity.AuthorID]; !ok || legacyID < current {
			authorShelter[rec.Entity.AuthorID] = legacyID
		}
		if _, migrated := shelterIDs[legacyID]; migrated {
			continue
		}

		// An excluded shelter stays unresolved so its events are dropped,
		// as the migration does.
		if !l.include(rec) {
			continue
		}
		id := LegacyID(legacy.EntityShelter, legacyID)
		shelterIDs[legacyID] = id
		row := mapping.MapShelter(rec).Row
		row.AssignKeys(id, legacyID)
		ds.Shelters = append(ds.Shelters, *row)
		ds.origins[id] = OriginLegacy
	}

	for i := range leg.events {
		rec := &leg.events[i]
		legacyID := rec.Entity.ID
		if _, migrated := migratedEvents[legacyID]; migrated || !l.include(rec) {
			continue
		}

		legacyShelterID, ok := mapping.ShelterRef(rec.Attributes)
		if !ok {
			legacyShelterID, ok = authorShelter[rec.Entity.AuthorID]
		}
		shelterID, resolved := shelterIDs[legacyShelterID]
		if !ok || !resolved {
			l.logger.Debug("legacy population event without a shelter",
				logger.Int64("legacy_id", legacyID))
			continue
		}

		row := mapping.MapPopulationEvent(rec).Row
		id := LegacyID(legacy.EntityPopulationEvent, legacyID)
		row.AssignKeys(id, legacyID)
		row.ShelterID = shelterID
		ds.Events = append(ds.Events, *row)
		ds.origins[id] = OriginLegacy
	}

	ds.index()
	return ds
}

func (l *Loader) include(rec *legacy.Record) bool {
	return l.opts.IncludeDrafts || rec.Entity.Published()
}

func (l *Loader) record(ds *Dataset) {
	for _, origin := range []Origin{OriginNormalized, OriginLegacy} {
		shelters, events := ds.Count(origin)
		l.metrics.SetRecords("shelter", string(origin), shelters)
		l.metrics.SetRecords("population_event", string(origin), events)
	}
}
