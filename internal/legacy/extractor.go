package legacy

import (
	"context"
	"time"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// Extractor assembles legacy entities and their normalized attributes.
type Extractor struct {
	source Source
	logger logger.Logger
}

// NewExtractor creates an Extractor reading from source.
func NewExtractor(source Source, log logger.Logger) *Extractor {
	return &Extractor{source: source, logger: log.Module("legacy")}
}

// Source returns the underlying legacy source.
func (e *Extractor) Source() Source {
	return e.source
}

// Extract returns the attributes of the requested ids, keyed by id. Ids that
// do not exist or are not of type t are omitted. An entity without metadata
// maps to an empty, non-nil Attributes.
func (e *Extractor) Extract(ctx context.Context, ids []int64, t EntityType) (map[int64]Attributes, error) {
	entities, err := e.source.EntitiesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	matching := entities[:0:0]
	for i := range entities {
		if entities[i].Type == t {
			matching = append(matching, entities[i])
		}
	}

	records, err := e.attach(ctx, matching)
	if err != nil {
		return nil, err
	}

	out := make(map[int64]Attributes, len(records))
	for i := range records {
		out[records[i].Entity.ID] = records[i].Attributes
	}
	return out, nil
}

// Load returns every entity of type t with its attributes, ordered by id.
func (e *Extractor) Load(ctx context.Context, t EntityType) ([]Record, error) {
	start := time.Now()
	entities, err := e.source.EntitiesByType(ctx, t)
	if err != nil {
		return nil, err
	}

	records, err := e.attach(ctx, entities)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("loaded legacy records",
		logger.String("type", string(t)),
		logger.Int("count", len(records)),
		logger.Duration("elapsed", time.Since(start)))
	return records, nil
}

// Page returns up to limit records of type t with id greater than afterID.
func (e *Extractor) Page(ctx context.Context, t EntityType, afterID int64, limit int) ([]Record, error) {
	entities, err := e.source.EntitiesPage(ctx, t, afterID, limit)
	if err != nil {
		return nil, err
	}
	return e.attach(ctx, entities)
}

// attach fetches and normalizes the attributes of entities.
func (e *Extractor) attach(ctx context.Context, entities []Entity) ([]Record, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(entities))
	records := make([]Record, len(entities))
	index := make(map[int64]int, len(entities))
	for i := range entities {
		ids[i] = entities[i].ID
		records[i] = Record{Entity: entities[i], Attributes: Attributes{}}
		index[entities[i].ID] = i
	}

	attrs, err := e.source.AttributesByEntityIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range attrs {
		pos, ok := index[attrs[i].EntityID]
		if !ok {
			continue
		}
		records[pos].Attributes.set(attrs[i].Key, attrs[i].Value)
	}
	return records, nil
}
