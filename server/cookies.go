package server

import (
	"net/http"

	"github.com/beaconchat/auth-server/sessions"
	"github.com/segmentio/ksuid"
)

// browserSessionCookieName carries the id of the authenticated browser
// session.
const browserSessionCookieName = "browser-session"

func (s *Server) setBrowserSessionCookie(w http.ResponseWriter, r *http.Request, sessionID ksuid.KSUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookieName,
		Value:    sessionID.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// currentBrowserSession resolves the browser-session cookie to a live
// session, or nil when the user is not authenticated. A stale or malformed
// cookie is treated the same as no cookie.
func (s *Server) currentBrowserSession(r *http.Request) *sessions.BrowserSession {
	cookie, err := r.Cookie(browserSessionCookieName)
	if err != nil {
		return nil
	}
	id, err := ksuid.Parse(cookie.Value)
	if err != nil {
		return nil
	}
	session, err := s.repos.BrowserSessions.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return session
}
