// Package identity registers authenticated users and hooks the legacy
// profile linker into the first login.
package identity

import (
	"context"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/entities"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/datastore/repository"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/linker"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/logger"
)

// Login is the result of EnsureIdentity.
type Login struct {
	Identity *entities.Identity `json:"identity"`
	Created  bool               `json:"created"`
	Outcomes []linker.Outcome   `json:"outcomes"`
	// LinkError is set when linking failed. The identity is still valid.
	LinkError error `json:"-"`
}

// Service owns identity registration.
type Service struct {
	identities repository.IdentityRepository
	linker     *linker.Linker
	logger     logger.Logger
}

// NewService creates a Service.
func NewService(identities repository.IdentityRepository, l *linker.Linker, log logger.Logger) *Service {
	return &Service{
		identities: identities,
		linker:     l,
		logger:     log.Module("identity"),
	}
}

// EnsureIdentity returns the identity for email, creating it on first use,
// records its legacy author and links it to the profiles that author wrote.
// legacyAuthorID may be nil; the author is then looked up by e-mail.
//
// A failed link does not fail the login: it is logged and reported in
// Login.LinkError.
func (s *Service) EnsureIdentity(ctx context.Context, email string, legacyAuthorID *int64) (*Login, error) {
	identity, created, err := s.identities.GetOrCreate(ctx, email, legacyAuthorID)
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, repository.ErrInvalidInput) {
			category = errors.CategoryValidation
		}
		return nil, errors.New(err).
			Component("identity").
			Category(category).
			Context("operation", "get_or_create").
			Build()
	}

	login := &Login{Identity: identity, Created: created}

	// An existing identity recorded without an author adopts the one
	// supplied now.
	if identity.LegacyAuthorID == nil && legacyAuthorID != nil {
		if err := s.identities.SetLegacyAuthor(ctx, identity.ID, *legacyAuthorID); err != nil {
			return s.linkFailed(login, err), nil
		}
		authorID := *legacyAuthorID
		identity.LegacyAuthorID = &authorID
	}

	if identity.LegacyAuthorID == nil {
		authorID, found, err := s.linker.ResolveAuthor(ctx, identity)
		switch {
		case err != nil:
			return s.linkFailed(login, err), nil
		case found:
			if err := s.identities.SetLegacyAuthor(ctx, identity.ID, authorID); err != nil {
				return s.linkFailed(login, err), nil
			}
			identity.LegacyAuthorID = &authorID
		}
	}

	outcomes, err := s.linker.Link(ctx, identity)
	if err != nil {
		return s.linkFailed(login, err), nil
	}
	login.Outcomes = outcomes

	s.logger.Info("identity ensured",
		logger.String("identity_id", identity.ID.String()),
		logger.Bool("created", created),
		logger.Bool("has_legacy_author", identity.LegacyAuthorID != nil))
	return login, nil
}

func (s *Service) linkFailed(login *Login, err error) *Login {
	s.logger.Warn("identity link failed",
		logger.String("identity_id", login.Identity.ID.String()),
		logger.Error(err))
	login.LinkError = err
	return login
}
