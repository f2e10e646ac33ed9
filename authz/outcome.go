package authz

import (
	"net/url"

	"github.com/beaconchat/auth-server/oauth2"
)

// Outcome is the closed result type of the authorization engine: either a
// direct redirect within this server, a parameter set to deliver to the
// client's redirect URI, or an error page that must be rendered locally
// because no trustworthy redirect target is known. The HTTP boundary resolves
// it into a concrete response.
type Outcome interface {
	isOutcome()
}

// SeeOther redirects the browser within this server (login, re-auth, or the
// step continuation).
type SeeOther struct {
	Location string
}

func (SeeOther) isOutcome() {}

// BackToClient delivers a parameter bag to the client's redirect URI using
// the given response mode. State, when present, is echoed verbatim.
type BackToClient struct {
	RedirectURI  string
	ResponseMode oauth2.ResponseMode
	State        string
	Params       url.Values
}

func (BackToClient) isOutcome() {}

// ErrorPage is a failure that must never be redirected to the client, shown
// as a local error page instead.
type ErrorPage struct {
	Err oauth2.Error
}

func (ErrorPage) isOutcome() {}
