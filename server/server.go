package server

import (
	"net/http"

	"github.com/maintops/go-maint-auth/identity"
	"github.com/maintops/go-maint-auth/internal/config"
	"github.com/maintops/go-maint-auth/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Server is the HTTP boundary of the auth core. It is the only layer that
// maps the core's typed errors to transport status codes.
type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	controller *session.Controller
	identities identity.Repo
	logger     zerolog.Logger
	limiter    *ipRateLimiter
	sso        *ssoFlow
}

func New(cfg config.Config, controller *session.Controller, identities identity.Repo, logger zerolog.Logger) (*Server, error) {
	if controller == nil {
		return nil, errors.New("[Server.New] controller is required")
	}
	if identities == nil {
		return nil, errors.New("[Server.New] identities repo is required")
	}

	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		config:     cfg,
		controller: controller,
		identities: identities,
		logger:     logger,
	}

	if cfg.GetEnableRateLimiting() {
		s.limiter = newIPRateLimiter(cfg.GetRateLimitPerSecond())
	}

	if cfg.GetSSOIssuerURL() != "" {
		flow, err := newSSOFlow(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "[Server.New] SSO setup")
		}
		s.sso = flow
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
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.logger.Debug().Str("route", route).Msg("registered")
	}
}
