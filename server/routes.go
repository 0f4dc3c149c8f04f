package server

import "github.com/maintops/go-maint-auth/internal/obs"

const (
	RouteLogin          = "/auth/login"
	RouteRefresh        = "/auth/refresh"
	RouteLogout         = "/auth/logout"
	RouteChangePassword = "/auth/password"
	RouteIntrospect     = "/auth/introspect"
	RouteSSOLogin       = "/auth/sso/login"
	RouteSSOCallback    = "/auth/sso/callback"
	RouteHealth         = "/health"
	RouteMetrics        = "/metrics"
)

func (s *Server) initRoutes() {
	api := s.APIMiddleware()

	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), api...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.AuthenticatedMiddleware(api)...))
	s.RegisterRouteFunc("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.AuthenticatedMiddleware(api)...))
	s.RegisterRouteFunc("GET "+RouteIntrospect, ChainMiddleware(s.IntrospectHandler(), api...))

	if s.sso != nil {
		s.RegisterRouteFunc("GET "+RouteSSOLogin, ChainMiddleware(s.SSOLoginHandler(), api...))
		s.RegisterRouteFunc("GET "+RouteSSOCallback, ChainMiddleware(s.SSOCallbackHandler(), api...))
	}

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, obs.Handler())
}
