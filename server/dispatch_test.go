package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/beaconchat/auth-server/authz"
	"github.com/beaconchat/auth-server/oauth2"
	"github.com/stretchr/testify/require"
)

func dispatchOutcome(t *testing.T, o authz.BackToClient) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/oauth2/authorize", nil)
	require.NoError(t, backToClient(w, r, o))
	return w
}

func TestBackToClientQueryMerge(t *testing.T) {
	w := dispatchOutcome(t, authz.BackToClient{
		RedirectURI:  "https://rp.example/cb?a=1",
		ResponseMode: oauth2.QueryResponseMode,
		State:        "xyz",
		Params:       url.Values{"b": {"2"}},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "rp.example", location.Host)

	query := location.Query()
	require.Equal(t, "1", query.Get("a"))
	require.Equal(t, "2", query.Get("b"))
	require.Equal(t, "xyz", query.Get("state"))
}

func TestBackToClientQueryCollisionNewWins(t *testing.T) {
	w := dispatchOutcome(t, authz.BackToClient{
		RedirectURI:  "https://rp.example/cb?code=old",
		ResponseMode: oauth2.QueryResponseMode,
		Params:       url.Values{"code": {"fresh"}},
	})

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "fresh", location.Query().Get("code"))
}

func TestBackToClientStateEchoedVerbatim(t *testing.T) {
	state := "a b+c%20d"
	w := dispatchOutcome(t, authz.BackToClient{
		RedirectURI:  "https://rp.example/cb",
		ResponseMode: oauth2.QueryResponseMode,
		State:        state,
		Params:       url.Values{"code": {"abc"}},
	})

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, state, location.Query().Get("state"))
}

func TestBackToClientFragment(t *testing.T) {
	w := dispatchOutcome(t, authz.BackToClient{
		RedirectURI:  "https://rp.example/cb",
		ResponseMode: oauth2.FragmentResponseMode,
		State:        "xyz",
		Params: url.Values{
			"access_token": {"tok"},
			"token_type":   {"Bearer"},
		},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Empty(t, location.RawQuery)

	fragment, err := url.ParseQuery(location.Fragment)
	require.NoError(t, err)
	require.Equal(t, "tok", fragment.Get("access_token"))
	require.Equal(t, "Bearer", fragment.Get("token_type"))
	require.Equal(t, "xyz", fragment.Get("state"))
}

func TestBackToClientFormPost(t *testing.T) {
	w := dispatchOutcome(t, authz.BackToClient{
		RedirectURI:  "https://rp.example/cb",
		ResponseMode: oauth2.FormPostResponseMode,
		State:        "xyz",
		Params:       url.Values{"code": {"abc"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	require.Contains(t, body, `action="https://rp.example/cb"`)
	require.Contains(t, body, `name="code" value="abc"`)
	require.Contains(t, body, `name="state" value="xyz"`)
	require.True(t, strings.Contains(body, "submit()"))
}

func TestBackToClientInvalidRedirectURI(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/oauth2/authorize", nil)
	err := backToClient(w, r, authz.BackToClient{
		RedirectURI:  "://not-a-url",
		ResponseMode: oauth2.QueryResponseMode,
	})
	require.Error(t, err)
}
