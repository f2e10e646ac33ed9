package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beaconchat/auth-server/users"
	"github.com/rs/zerolog/log"
)

// loginPageData is the template payload shared by the login and re-auth
// pages.
type loginPageData struct {
	AppName   string
	Next      string
	Error     string
	Username  string
	Providers []loginProvider
}

type loginProvider struct {
	Name string
	URL  string
}

// safeNextPath keeps post-login redirects on this server. Anything that is
// not a local absolute path falls back to "/".
func safeNextPath(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return "/"
}

func (s *Server) loginProviders(next string) []loginProvider {
	providers := make([]loginProvider, 0, len(s.providers))
	for _, p := range s.providers {
		providers = append(providers, loginProvider{
			Name: p.Name,
			URL:  s.upstreamAuthorizeURL(p.ID, next),
		})
	}
	return providers
}

// LoginPageHandler serves the login form, listing the configured upstream
// providers as alternatives.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNextPath(r.URL.Query().Get("next"))
		w.Header().Set("Content-Type", contentTypeHTML)
		_ = tmpl.Execute(w, loginPageData{
			AppName:   s.config.GetAppName(),
			Next:      next,
			Providers: s.loginProviders(next),
		})
	}
}

// LoginSubmissionHandler checks the submitted credentials, creates a browser
// session, and continues to the requested destination.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}

		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		next := safeNextPath(r.PostFormValue("next"))

		retry := func(message string) {
			w.Header().Set("Content-Type", contentTypeHTML)
			w.WriteHeader(http.StatusUnauthorized)
			_ = tmpl.Execute(w, loginPageData{
				AppName:   s.config.GetAppName(),
				Next:      next,
				Error:     message,
				Username:  username,
				Providers: s.loginProviders(next),
			})
		}

		user, err := s.repos.Users.GetByUsername(r.Context(), username)
		if err != nil || user.Blocked {
			retry("Invalid username or password")
			return
		}
		if !users.CheckPasswordHash(password, user.PasswordHash) {
			retry("Invalid username or password")
			return
		}

		session, err := s.repos.BrowserSessions.Create(r.Context(), user.ID, time.Now())
		if err != nil {
			log.Err(err).Msg("failed to create browser session")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		s.setBrowserSessionCookie(w, r, session.ID)
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// ReauthPageHandler asks an already-authenticated user to confirm their
// password again, for flows whose max_age bound outdates the session.
func (s *Server) ReauthPageHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("reauth.html")
	if err != nil {
		panic("Failed to parse reauth template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if s.currentBrowserSession(r) == nil {
			qs := url.Values{"next": {safeNextPath(r.URL.Query().Get("next"))}}
			http.Redirect(w, r, RouteLogin+"?"+qs.Encode(), http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		_ = tmpl.Execute(w, loginPageData{
			AppName: s.config.GetAppName(),
			Next:    safeNextPath(r.URL.Query().Get("next")),
		})
	}
}

// ReauthSubmissionHandler verifies the password for the current browser
// session's user and refreshes its last-authentication timestamp.
func (s *Server) ReauthSubmissionHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("reauth.html")
	if err != nil {
		panic("Failed to parse reauth template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		session := s.currentBrowserSession(r)
		if session == nil {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form submission", http.StatusBadRequest)
			return
		}
		next := safeNextPath(r.PostFormValue("next"))

		user, err := s.repos.Users.GetByID(r.Context(), session.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if !users.CheckPasswordHash(r.PostFormValue("password"), user.PasswordHash) {
			w.Header().Set("Content-Type", contentTypeHTML)
			w.WriteHeader(http.StatusUnauthorized)
			_ = tmpl.Execute(w, loginPageData{
				AppName: s.config.GetAppName(),
				Next:    next,
				Error:   "Incorrect password",
			})
			return
		}

		if err := s.repos.BrowserSessions.Authenticate(r.Context(), session.ID, time.Now()); err != nil {
			log.Err(err).Msg("failed to refresh browser session authentication")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}
