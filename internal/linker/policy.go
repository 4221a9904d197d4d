package linker

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/conf"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
)

// CandidatePolicy picks the legacy entity to link when an author wrote
// several of the same type.
type CandidatePolicy interface {
	Name() string
	// Choose returns the chosen candidate. candidates are ordered by id.
	Choose(candidates []legacy.Entity) (legacy.Entity, bool)
}

// FirstMatch picks the lowest legacy id.
type FirstMatch struct{}

// Name implements CandidatePolicy.
func (FirstMatch) Name() string { return conf.PolicyFirstMatch }

// Choose implements CandidatePolicy.
func (FirstMatch) Choose(candidates []legacy.Entity) (legacy.Entity, bool) {
	if len(candidates) == 0 {
		return legacy.Entity{}, false
	}
	return slices.MinFunc(candidates, func(a, b legacy.Entity) int {
		return cmp.Compare(a.ID, b.ID)
	}), true
}

// MostRecentPublished picks the newest published post, newest id on a tie.
// Without any published candidate it behaves like FirstMatch.
type MostRecentPublished struct{}

// Name implements CandidatePolicy.
func (MostRecentPublished) Name() string { return conf.PolicyMostRecentPublished }

// Choose implements CandidatePolicy.
func (MostRecentPublished) Choose(candidates []legacy.Entity) (legacy.Entity, bool) {
	var (
		best  legacy.Entity
		found bool
	)
	for _, c := range candidates {
		if !c.Published() {
			continue
		}
		if !found || c.CreatedAt.After(best.CreatedAt) ||
			(c.CreatedAt.Equal(best.CreatedAt) && c.ID > best.ID) {
			best, found = c, true
		}
	}
	if found {
		return best, true
	}
	return FirstMatch{}.Choose(candidates)
}

// PolicyByName returns the policy configured under name.
func PolicyByName(name string) (CandidatePolicy, error) {
	switch strings.TrimSpace(name) {
	case "", conf.PolicyFirstMatch:
		return FirstMatch{}, nil
	case conf.PolicyMostRecentPublished:
		return MostRecentPublished{}, nil
	default:
		return nil, fmt.Errorf("unknown candidate policy %q", name)
	}
}
