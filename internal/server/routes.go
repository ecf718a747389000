package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/middleware"
	"github.com/it-all/slim-postgres/internal/utils"
)

// Access is the gate a route sits behind
type Access int

const (
	// AccessPublic routes are open to everyone
	AccessPublic Access = iota
	// AccessGuest routes redirect logged in administrators to the admin home
	AccessGuest
	// AccessAuthenticated routes need a logged in administrator
	AccessAuthenticated
	// AccessProtected routes also need the permission mapped to the route name
	AccessProtected
)

func (a Access) String() string {
	switch a {
	case AccessGuest:
		return "guest"
	case AccessAuthenticated:
		return "authenticated"
	case AccessProtected:
		return "protected"
	default:
		return "public"
	}
}

// Route is a named route. Names are used for redirects and as the keys of the
// route permission map.
type Route struct {
	Name    string
	Method  string
	Pattern string
	Access  Access
}

// entityRoutes returns the list, filter, reset, insert and update routes of a
// view below /admin/<path>. Read-only views only get the first three.
func entityRoutes(path, index, post, reset, insert, update, updatePut, del string) []Route {
	base := constants.AdminPath + "/" + path
	routes := []Route{
		{index, http.MethodGet, base, AccessProtected},
		{post, http.MethodPost, base, AccessProtected},
		{reset, http.MethodGet, base + "/reset", AccessProtected},
	}
	if insert == "" {
		return routes
	}
	item := base + "/{" + constants.ParamID + "}"
	return append(routes,
		Route{insert, http.MethodPost, base + "/insert", AccessProtected},
		Route{update, http.MethodGet, item, AccessProtected},
		Route{updatePut, http.MethodPut, item, AccessProtected},
		Route{del, http.MethodDelete, item, AccessProtected},
	)
}

// DefaultRoutes returns every named route of the back office
func DefaultRoutes() []Route {
	routes := []Route{
		{constants.RouteHome, http.MethodGet, constants.HomePath, AccessPublic},
		{constants.RouteLogin, http.MethodGet, constants.LoginPath, AccessGuest},
		{constants.RouteLoginPost, http.MethodPost, constants.LoginPath, AccessGuest},
		{constants.RouteAdminHome, http.MethodGet, constants.AdminPath, AccessAuthenticated},
		{constants.RouteLogout, http.MethodGet, constants.AdminPath + "/logout", AccessAuthenticated},
	}

	routes = append(routes, entityRoutes("systemEvents",
		constants.RouteSystemEvents, constants.RouteSystemEventsPost, constants.RouteSystemEventsReset,
		"", "", "", "")...)
	routes = append(routes, entityRoutes("logins",
		constants.RouteLoginAttempts, constants.RouteLoginAttemptsPost, constants.RouteLoginAttemptsReset,
		"", "", "", "")...)
	routes = append(routes, entityRoutes("administrators",
		constants.RouteAdministrators, constants.RouteAdministratorsPost, constants.RouteAdministratorsReset,
		constants.RouteAdministratorsInsert, constants.RouteAdministratorsUpdate,
		constants.RouteAdministratorsUpdatePut, constants.RouteAdministratorsDelete)...)
	routes = append(routes, entityRoutes("roles",
		constants.RouteRoles, constants.RouteRolesPost, constants.RouteRolesReset,
		constants.RouteRolesInsert, constants.RouteRolesUpdate,
		constants.RouteRolesUpdatePut, constants.RouteRolesDelete)...)
	routes = append(routes, entityRoutes("permissions",
		constants.RoutePermissions, constants.RoutePermissionsPost, constants.RoutePermissionsReset,
		constants.RoutePermissionsInsert, constants.RoutePermissionsUpdate,
		constants.RoutePermissionsUpdatePut, constants.RoutePermissionsDelete)...)

	return append(routes, Route{
		constants.RouteTables, http.MethodGet,
		constants.AdminPath + "/tables/{" + constants.ParamTable + "}", AccessProtected,
	})
}

// Routes resolves route names to paths
type Routes struct {
	ordered []Route
	byName  map[string]Route
}

// NewRoutes indexes routes by name. Names must be unique.
func NewRoutes(routes []Route) (*Routes, error) {
	byName := make(map[string]Route, len(routes))
	for _, route := range routes {
		if _, exists := byName[route.Name]; exists {
			return nil, fmt.Errorf("duplicate route name: %s", route.Name)
		}
		byName[route.Name] = route
	}
	return &Routes{ordered: routes, byName: byName}, nil
}

// All returns the routes in registration order
func (rs *Routes) All() []Route {
	return rs.ordered
}

// Pattern returns the chi pattern of a named route
func (rs *Routes) Pattern(name string) (string, bool) {
	route, ok := rs.byName[name]
	return route.Pattern, ok
}

// URLFor builds the path of a named route, filling its placeholders with params
// in order. Unknown names resolve to the home path.
func (rs *Routes) URLFor(name string, params ...string) string {
	route, ok := rs.byName[name]
	if !ok {
		log.Error().Str("route", name).Msg("URL requested for unknown route")
		return constants.HomePath
	}

	path := route.Pattern
	for _, param := range params {
		start := strings.Index(path, "{")
		end := strings.Index(path, "}")
		if start < 0 || end < start {
			break
		}
		path = path[:start] + url.PathEscape(param) + path[end+1:]
	}
	return path
}

// ProtectedNames returns the sorted names of the routes that need a permission
func (rs *Routes) ProtectedNames() []string {
	var names []string
	for _, route := range rs.ordered {
		if route.Access == AccessProtected {
			names = append(names, route.Name)
		}
	}
	sort.Strings(names)
	return names
}

// SetupRoutes builds the router: global middleware, the unnamed system
// endpoints and then every named route behind its access gate.
func (s *Server) SetupRoutes() error {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger)
	}
	r.Use(middleware.Recovery(s.reporter))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(constants.MaxRequestBodySize))

	r.NotFound(s.notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	// System endpoints do not touch the session
	r.Get(constants.HealthPath, s.healthCheck)
	r.Get(constants.VersionPath, s.version)
	if !s.Config.App.IsProduction() {
		r.Get(constants.RoutesPath, s.GetAPIRoutes)
	}

	handlers := s.routeHandlers()
	r.Group(func(r chi.Router) {
		r.Use(s.store.LoadAndSave)
		for _, route := range s.routes.All() {
			handler, ok := handlers[route.Name]
			if !ok {
				// caught below; chi cannot register a nil handler
				continue
			}
			r.With(s.gate(route)...).Method(route.Method, route.Pattern, handler)
		}
	})

	for _, route := range s.routes.All() {
		if _, ok := handlers[route.Name]; !ok {
			return fmt.Errorf("no handler for route %s", route.Name)
		}
	}

	s.router = r
	return nil
}

// gate returns the middleware enforcing a route's access level
func (s *Server) gate(route Route) []func(http.Handler) http.Handler {
	switch route.Access {
	case AccessGuest:
		return []func(http.Handler) http.Handler{
			middleware.Guest(s.store, s.routes.URLFor(constants.RouteAdminHome)),
		}
	case AccessAuthenticated:
		return []func(http.Handler) http.Handler{s.authenticate()}
	case AccessProtected:
		return []func(http.Handler) http.Handler{
			s.authenticate(),
			middleware.Authorize(route.Name, s.authorizer, s.store, s.auditSink, s.reporter),
		}
	default:
		return nil
	}
}

func (s *Server) authenticate() func(http.Handler) http.Handler {
	return middleware.Authenticate(s.store, s.authService, s.auditSink, s.reporter, s.routes.URLFor(constants.RouteLogin))
}

// routeHandlers maps every route name to its controller action
func (s *Server) routeHandlers() map[string]http.HandlerFunc {
	h := s.Handlers
	return map[string]http.HandlerFunc{
		constants.RouteHome:      s.home,
		constants.RouteLogin:     h.Auth.LoginForm,
		constants.RouteLoginPost: h.Auth.Login,
		constants.RouteAdminHome: h.Auth.AdminHome,
		constants.RouteLogout:    h.Auth.Logout,

		constants.RouteSystemEvents:      h.SystemEvents.Index,
		constants.RouteSystemEventsPost:  h.SystemEvents.Filter,
		constants.RouteSystemEventsReset: h.SystemEvents.Reset,

		constants.RouteLoginAttempts:      h.LoginAttempts.Index,
		constants.RouteLoginAttemptsPost:  h.LoginAttempts.Filter,
		constants.RouteLoginAttemptsReset: h.LoginAttempts.Reset,

		constants.RouteAdministrators:          h.AdministratorList.Index,
		constants.RouteAdministratorsPost:      h.AdministratorList.Filter,
		constants.RouteAdministratorsReset:     h.AdministratorList.Reset,
		constants.RouteAdministratorsInsert:    h.Administrators.Insert,
		constants.RouteAdministratorsUpdate:    h.Administrators.UpdateForm,
		constants.RouteAdministratorsUpdatePut: h.Administrators.Update,
		constants.RouteAdministratorsDelete:    h.Administrators.Delete,

		constants.RouteRoles:          h.RoleList.Index,
		constants.RouteRolesPost:      h.RoleList.Filter,
		constants.RouteRolesReset:     h.RoleList.Reset,
		constants.RouteRolesInsert:    h.Roles.Insert,
		constants.RouteRolesUpdate:    h.Roles.UpdateForm,
		constants.RouteRolesUpdatePut: h.Roles.Update,
		constants.RouteRolesDelete:    h.Roles.Delete,

		constants.RoutePermissions:          h.PermissionList.Index,
		constants.RoutePermissionsPost:      h.PermissionList.Filter,
		constants.RoutePermissionsReset:     h.PermissionList.Reset,
		constants.RoutePermissionsInsert:    h.Permissions.Insert,
		constants.RoutePermissionsUpdate:    h.Permissions.UpdateForm,
		constants.RoutePermissionsUpdatePut: h.Permissions.Update,
		constants.RoutePermissionsDelete:    h.Permissions.Delete,

		constants.RouteTables: h.Tables.Index,
	}
}

// GetRouter returns the configured router
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// HomeView is the public landing page
type HomeView struct {
	Name     string `json:"name"`
	Business string `json:"business,omitempty"`
	LoginURL string `json:"login_url"`
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	utils.View(w, http.StatusOK, HomeView{
		Name:     s.Config.App.Name,
		Business: s.Config.App.BusinessName,
		LoginURL: s.routes.URLFor(constants.RouteLogin),
	}, nil)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.Db.HealthCheck(r.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, "Service is not healthy", nil)
		return
	}

	health := map[string]string{
		"status":  "healthy",
		"version": s.Config.App.Version,
	}
	if s.auditSink != nil {
		health["audit"] = s.auditSink.State()
	}
	utils.JSON(w, http.StatusOK, health)
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"version":     s.Config.App.Version,
		"environment": s.Config.App.Environment,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	utils.NotFound(w, s.Config.App.PageNotFoundText)
}

// RouteInfo documents one named route
type RouteInfo struct {
	Name       string `json:"name"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Access     string `json:"access"`
	Permission string `json:"permission,omitempty"`
}

// GetAPIRoutes lists every named route with the permission guarding it
func (s *Server) GetAPIRoutes(w http.ResponseWriter, r *http.Request) {
	infos := make([]RouteInfo, 0, len(s.routes.All()))
	for _, route := range s.routes.All() {
		info := RouteInfo{
			Name:   route.Name,
			Method: route.Method,
			Path:   route.Pattern,
			Access: route.Access.String(),
		}
		if route.Access == AccessProtected && s.authorizer != nil {
			info.Permission, _ = s.authorizer.Resource(route.Name)
		}
		infos = append(infos, info)
	}
	utils.JSON(w, http.StatusOK, infos)
}
