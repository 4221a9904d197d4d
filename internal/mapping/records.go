package mapping

import (
	"strings"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// Fields maps column names to values for a partial update. Only columns
// backed by a present legacy attribute appear.
type Fields map[string]any

// Columns returns the column names in f.
func (f Fields) Columns() []string {
	cols := make([]string, 0, len(f))
	for col := range f {
		cols = append(cols, col)
	}
	return cols
}

// Mapped is one legacy record translated to a normalized row. Row is fully
// populated and serves inserts and read-time merging; Fields drives the
// partial update of an already migrated row.
type Mapped[T any] struct {
	Row    *T
	Fields Fields
}

// MapShelter translates a legacy shelter post.
func MapShelter(rec *legacy.Record) Mapped[entities.Shelter] {
	attrs := rec.Attributes
	row := &entities.Shelter{
		ShelterType:  entities.ShelterTypeUnknown,
		RegisteredAt: registeredAt(rec),
	}
	fields := Fields{"registered_at": row.RegisteredAt}

	if v, ok := ShelterName(rec); ok {
		row.Name = v
		fields["name"] = v
	}
	if v, ok := ShelterKind(attrs); ok {
		row.ShelterType = v
		fields["shelter_type"] = v
	}
	if v, ok := ShelterDocument(attrs); ok {
		row.Document = v
		fields["document"] = v
	}
	if v, ok := ShelterPhone(attrs); ok {
		row.Phone = v
		fields["phone"] = v
	}
	if v, ok := email(attrs, ShelterEmailKeys); ok {
		row.Email = v
		fields["email"] = v
	}
	if v, ok := ShelterDistrict(attrs); ok {
		row.District = v
		fields["district"] = v
	}
	if v, ok := clipped(attrs, ShelterCityKeys, PlaceSize); ok {
		row.City = v
		fields["city"] = v
	}
	if v, ok := StateCode(attrs); ok {
		row.State = v
		fields["state"] = v
	}
	if v, ok := Collaborators(attrs); ok {
		row.Collaborators = v
		fields["collaborators"] = entities.IDList(v)
	}

	return Mapped[entities.Shelter]{Row: row, Fields: fields}
}

// MapVolunteer translates a legacy volunteer post.
func MapVolunteer(rec *legacy.Record) Mapped[entities.Volunteer] {
	attrs := rec.Attributes
	row := &entities.Volunteer{RegisteredAt: rec.Entity.CreatedAt.UTC()}
	fields := Fields{"registered_at": row.RegisteredAt}

	if v, ok := titleFallback(rec, VolunteerNameKeys); ok {
		row.Name = v
		fields["name"] = v
	}
	if v, ok := phone(attrs, VolunteerPhoneKeys); ok {
		row.Phone = v
		fields["phone"] = v
	}
	if v, ok := email(attrs, ShelterEmailKeys); ok {
		row.Email = v
		fields["email"] = v
	}
	if v, ok := clipped(attrs, ShelterCityKeys, PlaceSize); ok {
		row.City = v
		fields["city"] = v
	}
	if v, ok := StateCode(attrs); ok {
		row.State = v
		fields["state"] = v
	}
	if v, ok := FirstNonAbsent(attrs, VolunteerSkillKeys...); ok {
		if skills := List(v); len(skills) > 0 {
			row.Skills = skills
			fields["skills"] = entities.StringList(skills)
		}
	}
	if v, ok := clipped(attrs, AvailabilityKeys, PlaceSize); ok {
		row.Availability = v
		fields["availability"] = v
	}

	return Mapped[entities.Volunteer]{Row: row, Fields: fields}
}

// MapVacancy translates a legacy vacancy post. The owning shelter is
// resolved by the caller through ShelterRef.
func MapVacancy(rec *legacy.Record) Mapped[entities.Vacancy] {
	attrs := rec.Attributes
	row := &entities.Vacancy{PostedAt: rec.Entity.CreatedAt.UTC()}
	fields := Fields{"posted_at": row.PostedAt}

	if v, ok := titleFallback(rec, VacancyTitleKeys); ok {
		row.Title = v
		fields["title"] = v
	}
	if v, ok := FirstNonAbsent(attrs, VacancyTextKeys...); ok {
		row.Description = strings.TrimSpace(v)
		fields["description"] = row.Description
	}
	if v, ok := FirstNonAbsent(attrs, VacancyQuantityKeys...); ok {
		if n, ok := ParseCount(v); ok {
			row.Quantity = n
			fields["quantity"] = n
		}
	}

	return Mapped[entities.Vacancy]{Row: row, Fields: fields}
}

// countColumn binds a legacy count key to its column.
type countColumn struct {
	key    string
	column string
	field  func(*entities.PopulationEvent) **int
}

// countColumns lists every population count in column order.
var countColumns = []countColumn{
	{"entrada_caes", "entries_dogs", func(e *entities.PopulationEvent) **int { return &e.EntriesDogs }},
	{"entrada_gatos", "entries_cats", func(e *entities.PopulationEvent) **int { return &e.EntriesCats }},
	{"adocao_caes", "adoptions_dogs", func(e *entities.PopulationEvent) **int { return &e.AdoptionsDogs }},
	{"adocao_gatos", "adoptions_cats", func(e *entities.PopulationEvent) **int { return &e.AdoptionsCats }},
	{"devolucao_caes", "returns_dogs", func(e *entities.PopulationEvent) **int { return &e.ReturnsDogs }},
	{"devolucao_gatos", "returns_cats", func(e *entities.PopulationEvent) **int { return &e.ReturnsCats }},
	{"obito_caes", "natural_deaths_dogs", func(e *entities.PopulationEvent) **int { return &e.NaturalDeathsDogs }},
	{"obito_gatos", "natural_deaths_cats", func(e *entities.PopulationEvent) **int { return &e.NaturalDeathsCats }},
	{"eutanasia_caes", "euthanasias_dogs", func(e *entities.PopulationEvent) **int { return &e.EuthanasiasDogs }},
	{"eutanasia_gatos", "euthanasias_cats", func(e *entities.PopulationEvent) **int { return &e.EuthanasiasCats }},
	{"retorno_origem_caes", "returns_to_origin_dogs", func(e *entities.PopulationEvent) **int { return &e.ReturnsToOriginDogs }},
	{"retorno_origem_gatos", "returns_to_origin_cats", func(e *entities.PopulationEvent) **int { return &e.ReturnsToOriginCats }},
}

// CountKeys returns the legacy metadata keys of every population count.
func CountKeys() []string {
	keys := make([]string, len(countColumns))
	for i, c := range countColumns {
		keys[i] = c.key
	}
	return keys
}

// MapPopulationEvent translates a legacy population report. Counts whose
// attribute is absent or unparsable stay nil. The owning shelter is resolved
// by the caller through ShelterRef.
func MapPopulationEvent(rec *legacy.Record) Mapped[entities.PopulationEvent] {
	row := &entities.PopulationEvent{Period: Period(rec)}
	fields := Fields{"period": row.Period}

	for _, c := range countColumns {
		v, ok := rec.Attributes.Get(c.key)
		if !ok {
			continue
		}
		n, ok := ParseCount(v)
		if !ok {
			continue
		}
		*c.field(row) = &n
		fields[c.column] = n
	}

	return Mapped[entities.PopulationEvent]{Row: row, Fields: fields}
}
