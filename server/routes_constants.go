package server

// Route path constants. All routes are defined here to keep handler wiring
// and URL building consistent.
const (
	// OAuth2 authorization endpoint and its re-entry continuation
	RouteOAuth2Authorize     = "/oauth2/authorize"
	RouteOAuth2AuthorizeStep = "/oauth2/authorize/step"

	// Local authentication surfaces
	RouteLogin  = "/login"
	RouteReauth = "/reauth"

	// Upstream identity-provider flow
	RouteUpstreamAuthorize = "/upstream/authorize/{providerID}"
	RouteUpstreamCallback  = "/upstream/callback/{providerID}"
	RouteUpstreamLink      = "/upstream/link"
)
