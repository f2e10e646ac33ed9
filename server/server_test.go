package server_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	authzrepofakes "github.com/beaconchat/auth-server/authz/repofakes"
	"github.com/beaconchat/auth-server/clients"
	"github.com/beaconchat/auth-server/internal/config"
	"github.com/beaconchat/auth-server/server"
	sessionrepofakes "github.com/beaconchat/auth-server/sessions/repofakes"
	tokenrepofakes "github.com/beaconchat/auth-server/token/repofakes"
	upstreamrepofakes "github.com/beaconchat/auth-server/upstream/repofakes"
	"github.com/beaconchat/auth-server/users"
	userrepofakes "github.com/beaconchat/auth-server/users/repofakes"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	srv   *server.Server
	users *userrepofakes.FakeUserRepo
}

func setupServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	userRepo := userrepofakes.NewFakeUserRepo()
	hash, err := users.HashPassword("s3cret")
	require.NoError(t, err)
	userRepo.Add(&users.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
	})

	repos := server.Repos{
		Authz:           authzrepofakes.NewFakeAuthzRepo(),
		Tokens:          tokenrepofakes.NewFakeTokenRepo(),
		BrowserSessions: sessionrepofakes.NewFakeBrowserSessionRepo(),
		Users:           userRepo,
		UpstreamLinks:   upstreamrepofakes.NewFakeLinkRepo(),
		UpstreamFlows:   upstreamrepofakes.NewFakeUpstreamSessionRepo(),
	}

	registry := clients.Registry{
		{
			ID:           "web-client",
			Type:         clients.ClientTypeConfidential,
			RedirectURIs: []string{"https://rp.example/cb"},
			Scopes:       []string{"openid"},
		},
	}

	srv, err := server.New(config.New(), repos, registry, nil)
	require.NoError(t, err)

	return &serverFixture{srv: srv, users: userRepo}
}

func (f *serverFixture) do(r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, r)
	return w
}

func TestAuthorizationCodeFlowOverHTTP(t *testing.T) {
	f := setupServerFixture(t)

	// Unauthenticated authorization request bounces through login with a
	// continuation back into the flow.
	authorizeURL := "/oauth2/authorize?" + url.Values{
		"client_id":     {"web-client"},
		"redirect_uri":  {"https://rp.example/cb"},
		"response_type": {"code"},
		"scope":         {"openid"},
		"state":         {"st-123"},
	}.Encode()

	resp := f.do(httptest.NewRequest(http.MethodGet, authorizeURL, nil))
	require.Equal(t, http.StatusSeeOther, resp.Code)

	loginLocation, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login", loginLocation.Path)
	next := loginLocation.Query().Get("next")
	require.True(t, strings.HasPrefix(next, "/oauth2/authorize/step?"))

	// Login creates a browser session cookie and redirects to the
	// continuation.
	form := url.Values{
		"username": {"alice"},
		"password": {"s3cret"},
		"next":     {next},
	}
	loginReq := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	loginReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp = f.do(loginReq)
	require.Equal(t, http.StatusSeeOther, resp.Code)
	require.Equal(t, next, resp.Header().Get("Location"))

	cookies := resp.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The continuation completes the flow and delivers the code to the
	// client's redirect URI with the state echoed.
	stepReq := httptest.NewRequest(http.MethodGet, next, nil)
	for _, c := range cookies {
		stepReq.AddCookie(c)
	}
	resp = f.do(stepReq)
	require.Equal(t, http.StatusSeeOther, resp.Code)

	final, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", final.Host)
	require.Equal(t, "/cb", final.Path)
	require.Len(t, final.Query().Get("code"), 32)
	require.Equal(t, "st-123", final.Query().Get("state"))
}

func TestAuthorizeWithWrongPasswordStaysOnLogin(t *testing.T) {
	f := setupServerFixture(t)

	form := url.Values{
		"username": {"alice"},
		"password": {"wrong"},
		"next":     {"/oauth2/authorize/step?id=abc"},
	}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := f.do(req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	require.Contains(t, resp.Body.String(), "Invalid username or password")
	require.Empty(t, resp.Result().Cookies())
}

func TestAuthorizeUnknownClientShowsLocalErrorPage(t *testing.T) {
	f := setupServerFixture(t)

	authorizeURL := "/oauth2/authorize?" + url.Values{
		"client_id":     {"nobody"},
		"redirect_uri":  {"https://attacker.example/"},
		"response_type": {"code"},
	}.Encode()

	resp := f.do(httptest.NewRequest(http.MethodGet, authorizeURL, nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotContains(t, resp.Header().Get("Location"), "attacker.example")
}

func TestStepWithoutBrowserSessionRedirectsToLogin(t *testing.T) {
	f := setupServerFixture(t)

	resp := f.do(httptest.NewRequest(http.MethodGet, "/oauth2/authorize/step?id=abc", nil))
	require.Equal(t, http.StatusSeeOther, resp.Code)

	location, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/login", location.Path)
	require.Equal(t, "/oauth2/authorize/step?id=abc", location.Query().Get("next"))
}
