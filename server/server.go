package server

import (
	"net/http"
	"sync"

	"github.com/beaconchat/auth-server/authz"
	"github.com/beaconchat/auth-server/clients"
	"github.com/beaconchat/auth-server/internal/config"
	"github.com/beaconchat/auth-server/sessions"
	"github.com/beaconchat/auth-server/token"
	"github.com/beaconchat/auth-server/upstream"
	"github.com/beaconchat/auth-server/users"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"golang.org/x/oauth2"
)

// OidcConfig caches the discovered endpoints and verifier for one upstream
// provider.
type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Repos holds the persistence contracts consumed by the server.
type Repos struct {
	Authz           authz.Repository
	Tokens          token.Repo
	BrowserSessions sessions.Repo
	Users           users.Repo
	UpstreamLinks   upstream.LinkRepo
	UpstreamFlows   upstream.SessionRepo
}

type Server struct {
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	engine    *authz.Service
	repos     Repos
	clients   clients.Registry
	providers upstream.Registry
	cookies   *upstream.Codec

	providerOidc     map[ksuid.KSUID]OidcConfig
	providerOidcLock sync.RWMutex
}

func New(cfg config.Config, repos Repos, clientRegistry clients.Registry, providers upstream.Registry) (*Server, error) {
	tokens, err := token.New(repos.Tokens, cfg.GetTokenSigningKey(), cfg.GetBaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "[server.New] token manager")
	}

	engine, err := authz.NewService(repos.Authz, tokens,
		authz.WithPaths(RouteLogin, RouteReauth, RouteOAuth2AuthorizeStep))
	if err != nil {
		return nil, errors.Wrap(err, "[server.New] authorization engine")
	}

	cookies, err := upstream.NewCodec(cfg.GetCookieEncryptionKey())
	if err != nil {
		return nil, errors.Wrap(err, "[server.New] upstream cookie codec")
	}

	s := &Server{
		mux:          http.NewServeMux(),
		config:       cfg,
		engine:       engine,
		repos:        repos,
		clients:      clientRegistry,
		providers:    providers,
		cookies:      cookies,
		providerOidc: make(map[ksuid.KSUID]OidcConfig),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, ChainMiddleware(http.HandlerFunc(handler), RequestLogger()))
}
