// Package legacy reads the inherited CMS database, where every shelter,
// volunteer, vacancy and population report is a generic post with free-form
// key/value post metadata. The package is read-only: nothing here writes to
// the legacy tables.
package legacy

import (
	"strings"
	"time"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
)

// EntityType is the domain type of a legacy post.
type EntityType string

const (
	EntityShelter         EntityType = "shelter"
	EntityVolunteer       EntityType = "volunteer"
	EntityVacancy         EntityType = "vacancy"
	EntityPopulationEvent EntityType = "population_event"
)

// AllEntityTypes lists the entity types in migration order: shelters first,
// since vacancies and population events reference them.
var AllEntityTypes = []EntityType{
	EntityShelter,
	EntityVolunteer,
	EntityVacancy,
	EntityPopulationEvent,
}

// ParseEntityType maps a user supplied name to an EntityType.
func ParseEntityType(s string) (EntityType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shelter", "shelters":
		return EntityShelter, true
	case "volunteer", "volunteers":
		return EntityVolunteer, true
	case "vacancy", "vacancies":
		return EntityVacancy, true
	case "population_event", "population_events", "event", "events":
		return EntityPopulationEvent, true
	default:
		return "", false
	}
}

// Status is the publication state of a legacy post.
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusOther     Status = "other"
)

// parseStatus maps the CMS post_status column.
func parseStatus(postStatus string) Status {
	switch postStatus {
	case "publish":
		return StatusPublished
	case "draft", "pending", "auto-draft", "future":
		return StatusDraft
	default:
		return StatusOther
	}
}

// Entity is one legacy post.
type Entity struct {
	ID        int64
	AuthorID  int64
	Type      EntityType
	Status    Status
	Title     string
	CreatedAt time.Time
}

// Published reports whether the post was live in the CMS.
func (e *Entity) Published() bool {
	return e.Status == StatusPublished
}

// Attribute is one post metadata row. Value is nil for SQL NULL.
type Attribute struct {
	EntityID int64
	Key      string
	Value    *string
}

// TypeMap translates between CMS post_type strings and entity types.
type TypeMap struct {
	toPostType map[EntityType]string
	toEntity   map[string]EntityType
}

// NewTypeMap builds a TypeMap from settings.
func NewTypeMap(cfg conf.PostTypeSettings) TypeMap {
	pairs := map[EntityType]string{
		EntityShelter:         cfg.Shelter,
		EntityVolunteer:       cfg.Volunteer,
		EntityVacancy:         cfg.Vacancy,
		EntityPopulationEvent: cfg.PopulationEvent,
	}
	tm := TypeMap{
		toPostType: make(map[EntityType]string, len(pairs)),
		toEntity:   make(map[string]EntityType, len(pairs)),
	}
	for entityType, postType := range pairs {
		postType = strings.TrimSpace(postType)
		tm.toPostType[entityType] = postType
		tm.toEntity[postType] = entityType
	}
	return tm
}

// PostType returns the CMS post_type of an entity type.
func (tm TypeMap) PostType(t EntityType) (string, bool) {
	postType, ok := tm.toPostType[t]
	return postType, ok
}

// EntityType returns the entity type of a CMS post_type.
func (tm TypeMap) EntityType(postType string) (EntityType, bool) {
	t, ok := tm.toEntity[postType]
	return t, ok
}
