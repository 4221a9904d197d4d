package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 0, Count(intPtr(-3)))
	assert.Equal(t, 7, Count(intPtr(7)))
}

func TestPopulationEventTotalsTreatNullAsZero(t *testing.T) {
	t.Parallel()

	e := &PopulationEvent{
		EntriesDogs:         intPtr(10),
		AdoptionsDogs:       intPtr(3),
		AdoptionsCats:       intPtr(2),
		ReturnsCats:         intPtr(1),
		NaturalDeathsDogs:   nil,
		EuthanasiasCats:     intPtr(1),
		ReturnsToOriginDogs: intPtr(4),
	}

	assert.Equal(t, SpeciesCount{Dogs: 10, Cats: 0}, e.Entries())
	assert.Equal(t, SpeciesCount{Dogs: 3, Cats: 2}, e.Adoptions())
	assert.Equal(t, SpeciesCount{Dogs: 7, Cats: 4}, e.Exits())
	assert.Equal(t, 11, e.Exits().Total())
}

func TestEmptyPopulationEvent(t *testing.T) {
	t.Parallel()

	var e PopulationEvent
	assert.Equal(t, SpeciesCount{}, e.Entries())
	assert.Equal(t, SpeciesCount{}, e.Exits())
}
