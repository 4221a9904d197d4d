package entities

import (
	"time"

	"github.com/google/uuid"
)

// PopulationEvent is one monthly population report of a shelter. Count
// columns are nullable: a shelter may leave a category blank, and a blank
// category contributes zero to every aggregate.
type PopulationEvent struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primaryKey"`
	LegacyEntityID *int64    `gorm:"uniqueIndex:idx_population_events_legacy_entity"`
	ShelterID      uuid.UUID `gorm:"type:varchar(36);not null;index"`
	Period         time.Time `gorm:"not null;index"` // first day of the reporting month, UTC

	EntriesDogs         *int
	EntriesCats         *int
	AdoptionsDogs       *int
	AdoptionsCats       *int
	ReturnsDogs         *int // animals handed back by the adopter
	ReturnsCats         *int
	NaturalDeathsDogs   *int
	NaturalDeathsCats   *int
	EuthanasiasDogs     *int
	EuthanasiasCats     *int
	ReturnsToOriginDogs *int // animals returned to where they were found
	ReturnsToOriginCats *int

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (PopulationEvent) TableName() string {
	return "population_events"
}

// SpeciesCount is a pair of dog and cat counts.
type SpeciesCount struct {
	Dogs int `json:"dogs"`
	Cats int `json:"cats"`
}

// Total returns dogs plus cats.
func (c SpeciesCount) Total() int {
	return c.Dogs + c.Cats
}

// Add returns the element-wise sum.
func (c SpeciesCount) Add(o SpeciesCount) SpeciesCount {
	return SpeciesCount{Dogs: c.Dogs + o.Dogs, Cats: c.Cats + o.Cats}
}

// Count dereferences a nullable count. Nil and negative values count as zero.
func Count(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func pair(dogs, cats *int) SpeciesCount {
	return SpeciesCount{Dogs: Count(dogs), Cats: Count(cats)}
}

// Entries returns the animals taken in during the period.
func (e *PopulationEvent) Entries() SpeciesCount {
	return pair(e.EntriesDogs, e.EntriesCats)
}

// Adoptions returns the adoptions of the period.
func (e *PopulationEvent) Adoptions() SpeciesCount {
	return pair(e.AdoptionsDogs, e.AdoptionsCats)
}

// Returns returns the animals handed back to the shelter's care by adopters.
func (e *PopulationEvent) Returns() SpeciesCount {
	return pair(e.ReturnsDogs, e.ReturnsCats)
}

// NaturalDeaths returns the natural deaths of the period.
func (e *PopulationEvent) NaturalDeaths() SpeciesCount {
	return pair(e.NaturalDeathsDogs, e.NaturalDeathsCats)
}

// Euthanasias returns the euthanasias of the period.
func (e *PopulationEvent) Euthanasias() SpeciesCount {
	return pair(e.EuthanasiasDogs, e.EuthanasiasCats)
}

// ReturnsToOrigin returns the animals released back to their origin.
func (e *PopulationEvent) ReturnsToOrigin() SpeciesCount {
	return pair(e.ReturnsToOriginDogs, e.ReturnsToOriginCats)
}

// Exits returns every outcome of the period: adoptions, returns, natural
// deaths, euthanasias and returns to origin.
func (e *PopulationEvent) Exits() SpeciesCount {
	return e.Adoptions().
		Add(e.Returns()).
		Add(e.NaturalDeaths()).
		Add(e.Euthanasias()).
		Add(e.ReturnsToOrigin())
}
