// Package stats computes the dashboard aggregates over a unified dataset.
// Every function is pure and safe for concurrent use.
package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/dataset"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
)

// Sentinels that match every year or every state.
const (
	AllYears  = 0
	AllStates = ""
)

// allToken is accepted in place of an empty value by ParseFilter.
const allToken = "all"

// Filter selects the records an aggregate covers.
type Filter struct {
	Year  int    `json:"year"`  // AllYears or a calendar year
	State string `json:"state"` // AllStates or a UF code, compared trimmed and case-insensitively
}

// ParseFilter builds a Filter from user input. Empty values and "all" map to
// the sentinels.
func ParseFilter(year, state string) (Filter, error) {
	f := Filter{Year: AllYears, State: AllStates}

	year = strings.TrimSpace(year)
	if year != "" && !strings.EqualFold(year, allToken) {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1900 || y > 9999 {
			return f, errors.New(fmt.Errorf("invalid year %q", year)).
				Component("stats").
				Category(errors.CategoryValidation).
				Build()
		}
		f.Year = y
	}

	state = strings.TrimSpace(state)
	if !strings.EqualFold(state, allToken) {
		f.State = state
	}
	return f, nil
}

func (f Filter) allStates() bool {
	return strings.TrimSpace(f.State) == AllStates
}

func (f Filter) matchYear(year int) bool {
	return f.Year == AllYears || f.Year == year
}

// matchState reports whether state passes the filter. A record without a
// state passes only the AllStates sentinel.
func (f Filter) matchState(state string) bool {
	if f.allStates() {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(state), strings.TrimSpace(f.State))
}

// MatchShelter reports whether s is registered in the filtered year and lies
// in the filtered state.
func (f Filter) MatchShelter(s *entities.Shelter) bool {
	return f.matchYear(s.RegisteredAt.Year()) && f.matchState(s.State)
}

// scope resolves event filtering against the shelters of one dataset.
type scope struct {
	filter Filter
	states map[uuid.UUID]string
}

func newScope(ds *dataset.Dataset, f Filter) scope {
	sc := scope{filter: f}
	if !f.allStates() {
		sc.states = make(map[uuid.UUID]string, len(ds.Shelters))
		for i := range ds.Shelters {
			sc.states[ds.Shelters[i].ID] = ds.Shelters[i].State
		}
	}
	return sc
}

// matchEvent reports whether e falls in the filtered year and belongs to a
// shelter in the filtered state.
func (sc scope) matchEvent(e *entities.PopulationEvent) bool {
	if !sc.filter.matchYear(e.Period.Year()) {
		return false
	}
	if sc.filter.allStates() {
		return true
	}
	state, ok := sc.states[e.ShelterID]
	return ok && sc.filter.matchState(state)
}

// events yields the events of ds that pass f.
func events(ds *dataset.Dataset, f Filter) func(yield func(*entities.PopulationEvent) bool) {
	sc := newScope(ds, f)
	return func(yield func(*entities.PopulationEvent) bool) {
		for i := range ds.Events {
			e := &ds.Events[i]
			if sc.matchEvent(e) && !yield(e) {
				return
			}
		}
	}
}
