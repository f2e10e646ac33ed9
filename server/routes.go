package server

import (
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// OAuth2 authorization endpoint
	s.RegisterRouteFunc("GET "+RouteOAuth2Authorize, s.Authorize())
	s.RegisterRouteFunc("GET "+RouteOAuth2AuthorizeStep, s.AuthorizeStep())

	// Local authentication
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginPageHandler())
	s.RegisterRouteFunc("POST "+RouteLogin, s.LoginSubmissionHandler())
	s.RegisterRouteFunc("GET "+RouteReauth, s.ReauthPageHandler())
	s.RegisterRouteFunc("POST "+RouteReauth, s.ReauthSubmissionHandler())

	// Upstream identity providers
	s.RegisterRouteFunc("GET "+RouteUpstreamAuthorize, s.UpstreamAuthorize())
	s.RegisterRouteFunc("GET "+RouteUpstreamCallback, s.UpstreamCallback())
	s.RegisterRouteFunc("POST "+RouteUpstreamCallback, s.UpstreamCallback()) // form_post from the IdP
	s.RegisterRouteFunc("GET "+RouteUpstreamLink, s.UpstreamLink())
}

func (s *Server) logRoutes() {
	if s.config.GetEnv() != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}
