package entities

import "github.com/google/uuid"

// PrimaryKey returns the row id.
func (s *Shelter) PrimaryKey() uuid.UUID { return s.ID }

// AssignKeys sets the row id and the originating legacy post id.
func (s *Shelter) AssignKeys(id uuid.UUID, legacyID int64) {
	s.ID = id
	s.LegacyEntityID = &legacyID
}

// PrimaryKey returns the row id.
func (v *Volunteer) PrimaryKey() uuid.UUID { return v.ID }

// AssignKeys sets the row id and the originating legacy post id.
func (v *Volunteer) AssignKeys(id uuid.UUID, legacyID int64) {
	v.ID = id
	v.LegacyEntityID = &legacyID
}

// PrimaryKey returns the row id.
func (v *Vacancy) PrimaryKey() uuid.UUID { return v.ID }

// AssignKeys sets the row id and the originating legacy post id.
func (v *Vacancy) AssignKeys(id uuid.UUID, legacyID int64) {
	v.ID = id
	v.LegacyEntityID = &legacyID
}

// PrimaryKey returns the row id.
func (e *PopulationEvent) PrimaryKey() uuid.UUID { return e.ID }

// AssignKeys sets the row id and the originating legacy post id.
func (e *PopulationEvent) AssignKeys(id uuid.UUID, legacyID int64) {
	e.ID = id
	e.LegacyEntityID = &legacyID
}
