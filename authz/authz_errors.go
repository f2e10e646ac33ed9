package authz

import "github.com/pkg/errors"

var (
	UnknownClientErr         = errors.New("unknown client")
	SessionNotFoundErr       = errors.New("authorization session not found")
	SessionMismatchErr       = errors.New("authorization session already bound to a different browser session")
	IDTokenUnsupportedErr    = errors.New("id_token issuance is not implemented")
	MissingBrowserSessionErr = errors.New("an active browser session is required")
	InvalidRedirectURIErr    = errors.New("invalid redirect URI")
)
