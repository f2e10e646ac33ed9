package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beaconchat/auth-server/oauth2"
	"github.com/beaconchat/auth-server/upstream"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	xoauth2 "golang.org/x/oauth2"
)

func (s *Server) upstreamAuthorizeURL(providerID ksuid.KSUID, next string) string {
	path := strings.Replace(RouteUpstreamAuthorize, "{providerID}", providerID.String(), 1)
	return path + "?" + url.Values{"next": {next}}.Encode()
}

func (s *Server) upstreamCallbackURL(providerID ksuid.KSUID) string {
	path := strings.Replace(RouteUpstreamCallback, "{providerID}", providerID.String(), 1)
	return s.config.GetBaseURL() + path
}

// oidcConfigForProvider discovers (once) and caches the OIDC endpoints for an
// upstream provider.
func (s *Server) oidcConfigForProvider(ctx context.Context, provider *upstream.Provider) (OidcConfig, error) {
	s.providerOidcLock.RLock()
	cfg, exists := s.providerOidc[provider.ID]
	s.providerOidcLock.RUnlock()
	if exists {
		return cfg, nil
	}

	discovered, err := oidc.NewProvider(ctx, provider.Issuer)
	if err != nil {
		return OidcConfig{}, errors.Wrapf(err, "[oidcConfigForProvider] discovering %q", provider.Issuer)
	}

	scopes := provider.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID}
	}

	cfg = OidcConfig{
		OidcProvider: discovered,
		OAuth2Config: &xoauth2.Config{
			ClientID:     provider.ClientID,
			ClientSecret: provider.ClientSecret,
			Endpoint:     discovered.Endpoint(),
			RedirectURL:  s.upstreamCallbackURL(provider.ID),
			Scopes:       scopes,
		},
	}

	s.providerOidcLock.Lock()
	s.providerOidc[provider.ID] = cfg
	s.providerOidcLock.Unlock()

	return cfg, nil
}

func (s *Server) providerFromPath(r *http.Request) (*upstream.Provider, bool) {
	id, err := ksuid.Parse(r.PathValue("providerID"))
	if err != nil {
		return nil, false
	}
	return s.providers.Find(id)
}

// UpstreamAuthorize starts a linking attempt against an upstream provider:
// it records a ledger entry in the client-held cookie and redirects the
// browser to the provider's authorization endpoint.
func (s *Server) UpstreamAuthorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := s.providerFromPath(r)
		if !ok {
			s.renderErrorPage(w, oauth2.ErrInvalidRequest)
			return
		}

		cfg, err := s.oidcConfigForProvider(r.Context(), provider)
		if err != nil {
			log.Err(err).Str("provider", provider.Name).Msg("upstream discovery failed")
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		now := time.Now()
		sessionID, err := ksuid.NewRandomWithTime(now)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}
		state := uuid.NewString()

		if err := s.repos.UpstreamFlows.Create(r.Context(), &upstream.Session{
			ID:         sessionID,
			ProviderID: provider.ID,
			Next:       safeNextPath(r.URL.Query().Get("next")),
		}); err != nil {
			log.Err(err).Msg("failed to persist upstream session")
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		ledger := s.cookies.Load(r).Add(sessionID, provider.ID, state)
		if err := s.cookies.Save(w, r, ledger, now); err != nil {
			log.Err(err).Msg("failed to save upstream sessions cookie")
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		http.Redirect(w, r, cfg.OAuth2Config.AuthCodeURL(state), http.StatusSeeOther)
	}
}

// UpstreamCallback handles the provider's redirect back: it matches the
// state against an unlinked ledger entry, exchanges the code, verifies the
// ID token, and turns the entry into a link reachable only by link id.
func (s *Server) UpstreamCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, ok := s.providerFromPath(r)
		if !ok {
			s.renderErrorPage(w, oauth2.ErrInvalidRequest)
			return
		}

		// The IdP may deliver via query (GET) or form_post (POST).
		if err := r.ParseForm(); err != nil {
			s.renderErrorPage(w, oauth2.ErrInvalidRequest)
			return
		}
		state := r.FormValue("state")
		code := r.FormValue("code")

		if errParam := r.FormValue("error"); errParam != "" {
			s.renderErrorPage(w, oauth2.Error{Code: errParam, Description: r.FormValue("error_description")})
			return
		}
		if state == "" || code == "" {
			s.renderErrorPage(w, oauth2.ErrInvalidRequest)
			return
		}

		ledger := s.cookies.Load(r)
		sessionID, err := ledger.FindSession(provider.ID, state)
		if err != nil {
			// Expired, replayed, or unknown: start the upstream flow fresh.
			http.Redirect(w, r, s.upstreamAuthorizeURL(provider.ID, "/"), http.StatusSeeOther)
			return
		}

		cfg, err := s.oidcConfigForProvider(r.Context(), provider)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		exchanged, err := cfg.OAuth2Config.Exchange(r.Context(), code)
		if err != nil {
			log.Err(err).Str("provider", provider.Name).Msg("upstream token exchange failed")
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		rawIDToken, ok := exchanged.Extra("id_token").(string)
		if !ok {
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		idToken, err := cfg.OidcProvider.Verifier(&oidc.Config{ClientID: provider.ClientID}).Verify(r.Context(), rawIDToken)
		if err != nil {
			log.Err(err).Str("provider", provider.Name).Msg("upstream ID token verification failed")
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		link, err := s.repos.UpstreamLinks.FindByProviderSubject(r.Context(), provider.ID, idToken.Subject)
		if err != nil {
			// No local account is linked to this upstream identity;
			// account provisioning is not handled here.
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		ledger, err = ledger.AddLinkToSession(sessionID, link.ID)
		if err != nil {
			http.Redirect(w, r, s.upstreamAuthorizeURL(provider.ID, "/"), http.StatusSeeOther)
			return
		}
		if err := s.cookies.Save(w, r, ledger, time.Now()); err != nil {
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		qs := url.Values{"id": {link.ID.String()}}
		http.Redirect(w, r, RouteUpstreamLink+"?"+qs.Encode(), http.StatusSeeOther)
	}
}

// UpstreamLink finishes a linking attempt: the ledger proves this browser
// owns the link, the link resolves to a local user, and the entry is
// consumed so it can never be replayed.
func (s *Server) UpstreamLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		linkID, err := ksuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrInvalidRequest)
			return
		}

		ledger := s.cookies.Load(r)
		sessionID, err := ledger.LookupLink(linkID)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		link, err := s.repos.UpstreamLinks.Get(r.Context(), linkID)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		flow, err := s.repos.UpstreamFlows.Get(r.Context(), sessionID)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}

		now := time.Now()
		browserSession, err := s.repos.BrowserSessions.Create(r.Context(), link.UserID, now)
		if err != nil {
			log.Err(err).Msg("failed to create browser session from upstream link")
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		ledger, err = ledger.ConsumeLink(linkID)
		if err != nil {
			s.renderErrorPage(w, oauth2.ErrAccessDenied)
			return
		}
		if err := s.cookies.Save(w, r, ledger, now); err != nil {
			s.renderErrorPage(w, oauth2.ErrServerError)
			return
		}

		s.setBrowserSessionCookie(w, r, browserSession.ID)
		http.Redirect(w, r, safeNextPath(flow.Next), http.StatusSeeOther)
	}
}
