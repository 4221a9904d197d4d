package stats

import (
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/dataset"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
)

// MonthsPerYear is the number of buckets every monthly series carries.
const MonthsPerYear = 12

// Overview counts the shelters that pass a filter.
type Overview struct {
	TotalShelters int                          `json:"total_shelters"`
	ByType        map[entities.ShelterType]int `json:"by_type"`
}

// MonthlyFlow is the intake and outcome total of one month.
type MonthlyFlow struct {
	Month   int `json:"month"` // 0 is January
	Entries int `json:"entries"`
	Exits   int `json:"exits"`
}

// MonthlySpecies is a dog and cat count of one month.
type MonthlySpecies struct {
	Month int `json:"month"`
	Dogs  int `json:"dogs"`
	Cats  int `json:"cats"`
}

// MonthlyOutcomes splits the exits of one month by outcome category.
type MonthlyOutcomes struct {
	Month           int `json:"month"`
	Adoptions       int `json:"adoptions"`
	Returns         int `json:"returns"`
	NaturalDeaths   int `json:"natural_deaths"`
	Euthanasias     int `json:"euthanasias"`
	ReturnsToOrigin int `json:"returns_to_origin"`
}

// ComputeOverview counts the shelters passing f by shelter type. Every type
// is present in ByType, zero when no shelter has it.
// A shelter without a state or a registration date is counted only where
// the missing dimension is the sentinel, so the AllYears/AllStates overview
// can exceed the sum of the concrete (year, state) overviews.
func ComputeOverview(ds *dataset.Dataset, f Filter) Overview {
	o := Overview{ByType: make(map[entities.ShelterType]int, len(entities.AllShelterTypes))}
	for _, t := range entities.AllShelterTypes {
		o.ByType[t] = 0
	}

	for i := range ds.Shelters {
		s := &ds.Shelters[i]
		if !f.MatchShelter(s) {
			continue
		}
		o.TotalShelters++
		kind := s.ShelterType
		if _, known := o.ByType[kind]; !known {
			kind = entities.ShelterTypeUnknown
		}
		o.ByType[kind]++
	}
	return o
}

// monthly sums one species pair per month over the events passing f.
func monthly(ds *dataset.Dataset, f Filter, pick func(*entities.PopulationEvent) entities.SpeciesCount) []MonthlySpecies {
	var sums [MonthsPerYear]entities.SpeciesCount
	for e := range events(ds, f) {
		m := monthIndex(e)
		sums[m] = sums[m].Add(pick(e))
	}

	out := make([]MonthlySpecies, MonthsPerYear)
	for m := range out {
		out[m] = MonthlySpecies{Month: m, Dogs: sums[m].Dogs, Cats: sums[m].Cats}
	}
	return out
}

func monthIndex(e *entities.PopulationEvent) int {
	return int(e.Period.Month()) - 1
}

// ComputeMonthlyAnimalFlow returns entries and exits for months 0 to 11.
func ComputeMonthlyAnimalFlow(ds *dataset.Dataset, f Filter) []MonthlyFlow {
	entries := ComputeMonthlySpeciesEntries(ds, f)
	exits := ComputeMonthlyAnimalExits(ds, f)

	out := make([]MonthlyFlow, MonthsPerYear)
	for m := range out {
		out[m] = MonthlyFlow{
			Month:   m,
			Entries: entries[m].Dogs + entries[m].Cats,
			Exits:   exits[m].Dogs + exits[m].Cats,
		}
	}
	return out
}

// ComputeMonthlySpeciesEntries returns the intake per species and month.
func ComputeMonthlySpeciesEntries(ds *dataset.Dataset, f Filter) []MonthlySpecies {
	return monthly(ds, f, (*entities.PopulationEvent).Entries)
}

// ComputeMonthlyAnimalExits returns every exit per species and month.
func ComputeMonthlyAnimalExits(ds *dataset.Dataset, f Filter) []MonthlySpecies {
	return monthly(ds, f, (*entities.PopulationEvent).Exits)
}

// ComputeMonthlyAdoptionsByType returns the adoptions per species and month.
func ComputeMonthlyAdoptionsByType(ds *dataset.Dataset, f Filter) []MonthlySpecies {
	return monthly(ds, f, (*entities.PopulationEvent).Adoptions)
}

// ComputeMonthlyOutcomes returns the exits per outcome category and month.
func ComputeMonthlyOutcomes(ds *dataset.Dataset, f Filter) []MonthlyOutcomes {
	out := make([]MonthlyOutcomes, MonthsPerYear)
	for m := range out {
		out[m].Month = m
	}
	for e := range events(ds, f) {
		o := &out[monthIndex(e)]
		o.Adoptions += e.Adoptions().Total()
		o.Returns += e.Returns().Total()
		o.NaturalDeaths += e.NaturalDeaths().Total()
		o.Euthanasias += e.Euthanasias().Total()
		o.ReturnsToOrigin += e.ReturnsToOrigin().Total()
	}
	return out
}

// Summary bundles every aggregate for one filter. HasData is false when no
// shelter and no event passed the filter, which is distinct from a failed
// dataset load.
type Summary struct {
	Filter          Filter            `json:"filter"`
	HasData         bool              `json:"has_data"`
	Overview        Overview          `json:"overview"`
	Flow            []MonthlyFlow     `json:"flow"`
	SpeciesEntries  []MonthlySpecies  `json:"species_entries"`
	Exits           []MonthlySpecies  `json:"exits"`
	Outcomes        []MonthlyOutcomes `json:"outcomes"`
	AdoptionsByType []MonthlySpecies  `json:"adoptions_by_type"`
}

// ComputeSummary computes every aggregate for f.
func ComputeSummary(ds *dataset.Dataset, f Filter) Summary {
	s := Summary{
		Filter:          f,
		Overview:        ComputeOverview(ds, f),
		Flow:            ComputeMonthlyAnimalFlow(ds, f),
		SpeciesEntries:  ComputeMonthlySpeciesEntries(ds, f),
		Exits:           ComputeMonthlyAnimalExits(ds, f),
		Outcomes:        ComputeMonthlyOutcomes(ds, f),
		AdoptionsByType: ComputeMonthlyAdoptionsByType(ds, f),
	}
	s.HasData = HasData(ds, f)
	return s
}

// HasData reports whether any shelter or event passes f.
func HasData(ds *dataset.Dataset, f Filter) bool {
	for i := range ds.Shelters {
		if f.MatchShelter(&ds.Shelters[i]) {
			return true
		}
	}
	for range events(ds, f) {
		return true
	}
	return false
}
