package authz

import (
	"net/url"

	"github.com/beaconchat/auth-server/clients"
	"github.com/beaconchat/auth-server/oauth2"
	"github.com/pkg/errors"
)

// Recover translates a late-stage failure into something safe to show the
// user, working from the raw, unvalidated request parameters. It only builds
// a client-directed error redirect when the declared client id resolves to a
// registered client AND the declared redirect URI passes that client's
// allow-list; any earlier failure falls back to a local error page, so an
// attacker-chosen URI can never become a redirect target.
//
// The error response mode is "fragment" when the raw response_type is
// recoverable and contains token or id_token (query is forbidden for those),
// and "query" otherwise.
func Recover(failure error, raw url.Values, registry clients.Registry) Outcome {
	oauthErr := translate(failure)

	clientID := raw.Get("client_id")
	if clientID == "" {
		return ErrorPage{Err: oauthErr}
	}

	client, ok := registry.Find(clientID)
	if !ok {
		return ErrorPage{Err: oauthErr}
	}

	redirectURI, err := client.ResolveRedirectURI(raw.Get("redirect_uri"))
	if err != nil {
		return ErrorPage{Err: oauthErr}
	}

	responseMode := oauth2.QueryResponseMode
	if responseTypes, err := oauth2.ParseResponseTypes(raw.Get("response_type")); err == nil {
		if responseTypes.Contains(oauth2.TokenResponseType) || responseTypes.Contains(oauth2.IDTokenResponseType) {
			responseMode = oauth2.FragmentResponseMode
		}
	}

	return BackToClient{
		RedirectURI:  redirectURI.String(),
		ResponseMode: responseMode,
		State:        raw.Get("state"),
		Params:       oauthErr.Values(),
	}
}

// translate maps engine failures onto the standard OAuth2 error vocabulary.
// Client mistakes are reported as such; only genuinely unexpected failures
// fall through to server_error.
func translate(failure error) oauth2.Error {
	switch {
	case errors.Is(failure, UnknownClientErr),
		errors.Is(failure, InvalidRedirectURIErr),
		errors.Is(failure, SessionNotFoundErr):
		return oauth2.ErrInvalidRequest
	case errors.Is(failure, IDTokenUnsupportedErr):
		return oauth2.ErrUnsupportedResponseType
	case errors.Is(failure, SessionMismatchErr),
		errors.Is(failure, MissingBrowserSessionErr):
		return oauth2.ErrAccessDenied
	}
	return oauth2.AsError(failure)
}
