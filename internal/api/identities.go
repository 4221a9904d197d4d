package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/errors"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/linker"
)

// LoginRequest is the body of POST /api/v1/identities/login. It is sent by
// the authentication front end once a user has proven their e-mail address.
type LoginRequest struct {
	Email          string `json:"email" validate:"required,email,max=320"`
	LegacyAuthorID *int64 `json:"legacy_author_id,omitempty" validate:"omitempty,gt=0"`
}

// LoginResponse describes the identity and the profiles linked to it.
type LoginResponse struct {
	IdentityID     string           `json:"identity_id"`
	Email          string           `json:"email"`
	LegacyAuthorID *int64           `json:"legacy_author_id,omitempty"`
	Created        bool             `json:"created"`
	Outcomes       []linker.Outcome `json:"outcomes"`
	LinkFailed     bool             `json:"link_failed"`
}

// Login handles POST /api/v1/identities/login
func (s *Server) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return s.HandleError(c, err, "Invalid request body", http.StatusBadRequest)
	}
	if err := c.Validate(&req); err != nil {
		return s.HandleError(c, err, "Invalid login request", http.StatusBadRequest)
	}

	login, err := s.deps.Identities.EnsureIdentity(c.Request().Context(), req.Email, req.LegacyAuthorID)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return s.HandleError(c, err, "Invalid login request", http.StatusBadRequest)
		}
		return s.HandleError(c, err, "Failed to register identity", http.StatusInternalServerError)
	}

	resp := LoginResponse{
		IdentityID:     login.Identity.ID.String(),
		Email:          login.Identity.Email,
		LegacyAuthorID: login.Identity.LegacyAuthorID,
		Created:        login.Created,
		Outcomes:       login.Outcomes,
		LinkFailed:     login.LinkError != nil,
	}
	if resp.Outcomes == nil {
		resp.Outcomes = []linker.Outcome{}
	}

	status := http.StatusOK
	if login.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, resp)
}
