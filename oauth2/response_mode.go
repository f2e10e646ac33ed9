package oauth2

// ResolveResponseMode decides which response mode an authorization request
// must use, given the requested response types and the mode suggested by the
// client (empty when the client suggested none).
//
// When the response type includes "token" or "id_token" the default mode is
// "fragment" and "query" must not be used: tokens delivered in a query string
// would end up in the client server's request logs. For pure code requests all
// modes are allowed, defaulting to "query".
//
// The resolved mode is stored on the authorization session before anything is
// persisted, since it later drives how the response is dispatched.
func ResolveResponseMode(responseTypes ResponseTypeSet, suggested ResponseMode) (ResponseMode, error) {
	if responseTypes.Contains(TokenResponseType) || responseTypes.Contains(IDTokenResponseType) {
		switch suggested {
		case "":
			return FragmentResponseMode, nil
		case QueryResponseMode:
			return "", ErrInvalidResponseMode
		default:
			return suggested, nil
		}
	}
	if suggested == "" {
		return QueryResponseMode, nil
	}
	return suggested, nil
}
