// Package linker attaches a newly authenticated identity to the profiles
// migrated from the posts its legacy author wrote. Linking is monotonic: a
// profile once owned is never re-assigned here.
package linker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/legacy"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/observability/metrics"
)

// Status is the result of linking one profile kind.
type Status string

const (
	// Linked means the identity now owns the profile.
	Linked Status = metrics.OutcomeLinked
	// AlreadyLinked means the guard refused the write: the profile has an
	// owner or the identity owns another profile of the kind.
	AlreadyLinked Status = metrics.OutcomeAlreadyLinked
	// NoCandidate means there was nothing to link.
	NoCandidate Status = metrics.OutcomeNoCandidate
)

// Outcome reports the link attempt for one profile kind.
type Outcome struct {
	Kind           legacy.EntityType `json:"kind"`
	Status         Status            `json:"status"`
	LegacyEntityID int64             `json:"legacy_entity_id,omitempty"`
	Candidates     int               `json:"candidates"`
}

// Linker links identities to migrated shelter and volunteer profiles.
type Linker struct {
	source  legacy.Source
	targets []target
	policy  CandidatePolicy
	metrics *metrics.LinkerMetrics
	logger  logger.Logger
}

type target struct {
	kind   legacy.EntityType
	claim  func(ctx context.Context, legacyID int64, identityID uuid.UUID) (bool, error)
	exists func(ctx context.Context, legacyID int64) (bool, error)
}

func newTarget[T any](kind legacy.EntityType, repo repository.ProfileRepository[T], notFound error) target {
	return target{
		kind:  kind,
		claim: repo.ClaimByLegacyID,
		exists: func(ctx context.Context, legacyID int64) (bool, error) {
			_, err := repo.GetByLegacyID(ctx, legacyID)
			if errors.Is(err, notFound) {
				return false, nil
			}
			return err == nil, err
		},
	}
}

// New creates a Linker. m may be nil.
func New(
	source legacy.Source,
	shelters repository.ShelterRepository,
	volunteers repository.VolunteerRepository,
	policy CandidatePolicy,
	m *metrics.LinkerMetrics,
	log logger.Logger,
) *Linker {
	if policy == nil {
		policy = FirstMatch{}
	}
	return &Linker{
		source: source,
		targets: []target{
			newTarget(legacy.EntityShelter, shelters, repository.ErrShelterNotFound),
			newTarget(legacy.EntityVolunteer, volunteers, repository.ErrVolunteerNotFound),
		},
		policy:  policy,
		metrics: m,
		logger:  log.Module("linker"),
	}
}

// ResolveAuthor returns the legacy author of identity: the stored id, else
// the CMS user with the same e-mail.
func (l *Linker) ResolveAuthor(ctx context.Context, identity *entities.Identity) (int64, bool, error) {
	if identity.LegacyAuthorID != nil {
		return *identity.LegacyAuthorID, true, nil
	}
	authorID, err := l.source.AuthorIDByEmail(ctx, identity.Email)
	if errors.Is(err, legacy.ErrAuthorNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return authorID, true, nil
}

// Link attempts to link identity to one profile of each kind. Finding
// nothing to link is not an error.
func (l *Linker) Link(ctx context.Context, identity *entities.Identity) ([]Outcome, error) {
	authorID, ok, err := l.ResolveAuthor(ctx, identity)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(l.targets))
	for _, t := range l.targets {
		outcome := Outcome{Kind: t.kind, Status: NoCandidate}
		if ok {
			outcome, err = l.linkKind(ctx, t, identity.ID, authorID)
			if err != nil {
				return nil, err
			}
		}
		l.metrics.RecordOutcome(string(t.kind), string(outcome.Status))
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (l *Linker) linkKind(ctx context.Context, t target, identityID uuid.UUID, authorID int64) (Outcome, error) {
	outcome := Outcome{Kind: t.kind, Status: NoCandidate}

	candidates, err := l.source.EntitiesByAuthor(ctx, authorID, t.kind)
	if err != nil {
		return outcome, err
	}
	outcome.Candidates = len(candidates)
	if len(candidates) > 1 {
		l.logger.Debug("legacy author has several candidate posts",
			logger.String("kind", string(t.kind)),
			logger.Int64("author_id", authorID),
			logger.Int("candidates", len(candidates)),
			logger.String("policy", l.policy.Name()))
	}

	chosen, ok := l.policy.Choose(candidates)
	if !ok {
		return outcome, nil
	}
	outcome.LegacyEntityID = chosen.ID

	claimed, err := t.claim(ctx, chosen.ID, identityID)
	switch {
	case errors.Is(err, repository.ErrDuplicateKey):
		outcome.Status = AlreadyLinked
	case err != nil:
		return outcome, errors.New(fmt.Errorf("claim %s %d: %w", t.kind, chosen.ID, err)).
			Component("linker").
			Category(errors.CategoryDatabase).
			LegacyContext(chosen.ID, string(t.kind)).
			Build()
	case claimed:
		outcome.Status = Linked
	default:
		outcome.Status, err = l.refusal(ctx, t, chosen.ID)
		if err != nil {
			return outcome, err
		}
	}

	l.logger.Info("identity link attempted",
		logger.String("kind", string(t.kind)),
		logger.String("identity_id", identityID.String()),
		logger.Int64("legacy_id", chosen.ID),
		logger.String("status", string(outcome.Status)))
	return outcome, nil
}

// refusal classifies a claim that touched no row: the profile was never
// migrated, or the guard refused.
func (l *Linker) refusal(ctx context.Context, t target, legacyID int64) (Status, error) {
	exists, err := t.exists(ctx, legacyID)
	if err != nil {
		return "", err
	}
	if !exists {
		return NoCandidate, nil
	}
	return AlreadyLinked, nil
}
