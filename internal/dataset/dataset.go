// Package dataset builds the unified in-memory view the dashboard aggregates
// over: normalized rows plus legacy posts that were never migrated. A legacy
// id appears at most once; the normalized copy wins.
package dataset

import (
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// Origin tells where a dataset record came from.
type Origin string

const (
	OriginNormalized Origin = "normalized"
	OriginLegacy     Origin = "legacy"
)

// Dataset is the merged view. It is rebuilt on every load and never
// persisted. Record order is unspecified.
type Dataset struct {
	Shelters []entities.Shelter
	Events   []entities.PopulationEvent
	// Years lists the distinct event and registration years, ascending.
	Years []int
	// States lists the distinct shelter UF codes, ascending.
	States []string

	origins map[uuid.UUID]Origin
}

// Origin returns where the record with id came from.
func (d *Dataset) Origin(id uuid.UUID) (Origin, bool) {
	o, ok := d.origins[id]
	return o, ok
}

// Empty reports whether the dataset holds no shelters and no events.
func (d *Dataset) Empty() bool {
	return len(d.Shelters) == 0 && len(d.Events) == 0
}

// ShelterByLegacyID returns the shelter carrying legacyID.
func (d *Dataset) ShelterByLegacyID(legacyID int64) (*entities.Shelter, bool) {
	for i := range d.Shelters {
		s := &d.Shelters[i]
		if s.LegacyEntityID != nil && *s.LegacyEntityID == legacyID {
			return s, true
		}
	}
	return nil, false
}

// Count returns how many shelters and events came from origin.
func (d *Dataset) Count(origin Origin) (shelters, events int) {
	for i := range d.Shelters {
		if d.origins[d.Shelters[i].ID] == origin {
			shelters++
		}
	}
	for i := range d.Events {
		if d.origins[d.Events[i].ID] == origin {
			events++
		}
	}
	return shelters, events
}

// index fills Years and States.
func (d *Dataset) index() {
	years := make(map[int]struct{})
	states := make(map[string]struct{})

	for i := range d.Shelters {
		s := &d.Shelters[i]
		if !s.RegisteredAt.IsZero() {
			years[s.RegisteredAt.Year()] = struct{}{}
		}
		if s.State != "" {
			states[s.State] = struct{}{}
		}
	}
	for i := range d.Events {
		if p := d.Events[i].Period; !p.IsZero() {
			years[p.Year()] = struct{}{}
		}
	}

	d.Years = sortedKeys(years)
	d.States = sortedKeys(states)
}

func sortedKeys[K int | string](m map[K]struct{}) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// legacyNamespace seeds the ids of legacy records merged without migration.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("registry.legacy"))

// LegacyID returns the stable id a legacy record gets in the dataset when no
// normalized row exists for it.
func LegacyID(kind legacy.EntityType, legacyID int64) uuid.UUID {
	return uuid.NewSHA1(legacyNamespace, []byte(string(kind)+":"+strconv.FormatInt(legacyID, 10)))
}
