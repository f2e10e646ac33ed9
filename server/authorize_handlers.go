package server

import (
	"net/http"
	"net/url"

	"github.com/beaconchat/auth-server/authz"
	"github.com/beaconchat/auth-server/oauth2"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// Authorize begins the authorization flow: it validates the request, persists
// an authorization session, and either completes against an existing browser
// session or redirects to login with a step continuation.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, pkce, err := oauth2.ParseAuthorizationRequest(r.URL.Query())
		if err != nil {
			log.Debug().Err(err).Msg("malformed authorization request")
			s.resolveOutcome(w, r, authz.Recover(oauth2.ErrInvalidRequest, r.URL.Query(), s.clients))
			return
		}

		outcome, err := s.engine.Authorize(r.Context(), s.clients, req, pkce, s.currentBrowserSession(r))
		if err != nil {
			log.Debug().Err(err).Str("client_id", req.ClientID).Msg("authorization failed")
			outcome = authz.Recover(err, r.URL.Query(), s.clients)
		}
		s.resolveOutcome(w, r, outcome)
	}
}

// AuthorizeStep re-enters the authorization flow for an existing session,
// after login, re-auth, or an upstream round trip. It requires an active
// browser session; without one it bounces back through login.
func (s *Server) AuthorizeStep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		browserSession := s.currentBrowserSession(r)
		if browserSession == nil {
			destination := RouteLogin + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
			http.Redirect(w, r, destination, http.StatusSeeOther)
			return
		}

		sessionID, err := ksuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			s.resolveOutcome(w, r, authz.ErrorPage{Err: oauth2.ErrInvalidRequest})
			return
		}

		outcome, err := s.engine.Step(r.Context(), sessionID, browserSession)
		if err != nil {
			log.Debug().Err(err).Str("session_id", sessionID.String()).Msg("authorization step failed")
			outcome = authz.Recover(err, r.URL.Query(), s.clients)
		}
		s.resolveOutcome(w, r, outcome)
	}
}
