// Package server wires the back office together and runs it.
//
// NewServer connects to PostgreSQL, migrates and seeds it, introspects the
// registered tables and then builds repositories, services and controllers in
// that order. Every route has a name; redirects and permission checks refer to
// routes by name only, and startup fails when a protected route has no
// permission mapped to it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/auth"
	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/handlers"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils/ratelimit"
	"github.com/it-all/slim-postgres/migrations"
	"github.com/it-all/slim-postgres/scripts"
)

// Handlers contains all HTTP handlers for the application.
type Handlers struct {
	Auth *handlers.AuthHandler

	SystemEvents  *handlers.ListHandler
	LoginAttempts *handlers.ListHandler

	AdministratorList *handlers.ListHandler
	Administrators    *handlers.EntityHandler[*models.AdministratorInput, *models.Administrator]

	RoleList *handlers.ListHandler
	Roles    *handlers.EntityHandler[*models.RoleInput, *models.Role]

	PermissionList *handlers.ListHandler
	Permissions    *handlers.EntityHandler[*models.PermissionInput, *models.Permission]

	Tables *handlers.TablesHandler
}

type repositories struct {
	administrators repository.AdministratorRepository
	roles          repository.RoleRepository
	permissions    repository.PermissionRepository
	systemEvents   repository.SystemEventRepository
	loginAttempts  repository.LoginAttemptRepository
}

type services struct {
	administrators *service.AdministratorService
	roles          *service.RoleService
	permissions    *service.PermissionService
	systemEvents   *service.SystemEventService
	loginAttempts  *service.LoginAttemptService
	database       *service.DatabaseService
}

// Server represents the back office HTTP server.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	router     chi.Router
	routes     *Routes
	httpServer *http.Server
	registry   *database.Registry

	repos    repositories
	services services

	store       *session.Store
	auditSink   *service.AuditSink
	reporter    *service.ErrorReporter
	limiter     *ratelimit.Store
	authService *service.AuthService
	authorizer  *service.Authorizer

	stopMaintenance context.CancelFunc
}

// NewServer creates a new server instance with all required components.
//
// The order is: routes → database → registry → repositories → services →
// handlers → router. Failing any step aborts startup.
func NewServer(ctx context.Context, cfg *config.AppConfig) (*Server, error) {
	routes, err := NewRoutes(DefaultRoutes())
	if err != nil {
		return nil, err
	}

	s := &Server{
		Config: cfg,
		routes: routes,
	}

	if err := s.setupDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := s.setupRegistry(ctx); err != nil {
		s.Db.Close()
		return nil, fmt.Errorf("failed to introspect tables: %w", err)
	}

	s.setupRepositories()

	if err := s.setupServices(); err != nil {
		s.Db.Close()
		return nil, fmt.Errorf("failed to set up services: %w", err)
	}

	s.setupHandlers()

	if err := s.SetupRoutes(); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to set up routes: %w", err)
	}

	if err := s.authorizer.ValidateRoutes(s.routes.ProtectedNames()); err != nil {
		s.close()
		return nil, fmt.Errorf("invalid route permissions: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// PrepareDatabase migrates the schema and seeds the rows the back office
// cannot run without. The top administrator comes from the environment.
func PrepareDatabase(ctx context.Context, db *database.Pool, cfg *config.AppConfig) error {
	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	seeder := scripts.NewSeeder(db, auth.ConfigFromAppConfig(cfg), cfg.Authorization.TopRole, scripts.AdministratorFromEnv())
	if err := seeder.SeedDatabase(ctx); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

func (s *Server) setupDatabase(ctx context.Context) error {
	db, err := database.Connect(ctx, s.Config)
	if err != nil {
		return err
	}
	s.Db = db

	if err := PrepareDatabase(ctx, db, s.Config); err != nil {
		db.Close()
		return err
	}
	return nil
}

// setupRegistry introspects every mapped table once
func (s *Server) setupRegistry(ctx context.Context) error {
	registry, err := database.NewRegistry(ctx, s.Db, repository.TableSpecs()...)
	if err != nil {
		return err
	}
	s.registry = registry
	log.Info().Strs("tables", registry.Tables()).Msg("Table metadata loaded")
	return nil
}

func (s *Server) setupRepositories() {
	s.repos = repositories{
		administrators: repository.NewAdministratorRepository(s.Db, s.registry),
		roles:          repository.NewRoleRepository(s.Db, s.registry),
		permissions:    repository.NewPermissionRepository(s.Db, s.registry),
		systemEvents:   repository.NewSystemEventRepository(s.Db, s.registry),
		loginAttempts:  repository.NewLoginAttemptRepository(s.Db, s.registry),
	}
}

func (s *Server) setupServices() error {
	cfg := s.Config

	auditSink, err := service.NewAuditSink(s.repos.systemEvents, cfg.Audit)
	if err != nil {
		return fmt.Errorf("failed to create audit sink: %w", err)
	}
	s.auditSink = auditSink

	// A nil Mailer keeps the reporter from emailing
	var mailer service.Mailer
	if cfg.Email.SendGridAPIKey != "" {
		emailService, err := service.NewEmailService(cfg.Email)
		if err != nil {
			return fmt.Errorf("failed to create email service: %w", err)
		}
		mailer = emailService
	}
	s.reporter = service.NewErrorReporter(cfg, auditSink, mailer)

	s.limiter = ratelimit.NewStore(cfg.Authentication.LoginRatePerSec, cfg.Authentication.LoginBurst, constants.LoginLimiterMaxKeys)
	s.authService = service.NewAuthService(s.repos.administrators, s.repos.loginAttempts, auditSink, s.limiter, cfg.Authentication)
	s.authorizer = service.NewAuthorizer(s.repos.permissions, cfg.Authorization.TopRole, service.DefaultRoutePermissions())

	trim := cfg.App.TrimAllUserInput
	s.services = services{
		administrators: service.NewAdministratorService(s.repos.administrators, auth.ConfigFromAppConfig(cfg), trim),
		roles:          service.NewRoleService(s.repos.roles, trim),
		permissions:    service.NewPermissionService(s.repos.permissions, trim),
		systemEvents:   service.NewSystemEventService(s.repos.systemEvents),
		loginAttempts:  service.NewLoginAttemptService(s.repos.loginAttempts),
		database:       service.NewDatabaseService(s.registry),
	}

	return nil
}

func (s *Server) setupHandlers() {
	s.store = session.NewStore(session.NewManager(s.Config.Session, s.Config.App.IsProduction()))
	base := handlers.NewBase(s.store, s.auditSink, s.reporter, s.routes)

	s.Handlers = &Handlers{
		Auth: handlers.NewAuthHandler(base, s.authService),

		SystemEvents: handlers.NewListHandler(base, s.services.systemEvents,
			constants.RouteSystemEvents, constants.RouteSystemEventsPost, constants.RouteSystemEventsReset, ""),
		LoginAttempts: handlers.NewListHandler(base, s.services.loginAttempts,
			constants.RouteLoginAttempts, constants.RouteLoginAttemptsPost, constants.RouteLoginAttemptsReset, ""),

		AdministratorList: handlers.NewListHandler(base, s.services.administrators,
			constants.RouteAdministrators, constants.RouteAdministratorsPost, constants.RouteAdministratorsReset,
			constants.RouteAdministratorsInsert),
		Administrators: handlers.NewAdministratorHandler(base, s.services.administrators),

		RoleList: handlers.NewListHandler(base, s.services.roles,
			constants.RouteRoles, constants.RouteRolesPost, constants.RouteRolesReset, constants.RouteRolesInsert),
		Roles: handlers.NewRoleHandler(base, s.services.roles),

		PermissionList: handlers.NewListHandler(base, s.services.permissions,
			constants.RoutePermissions, constants.RoutePermissionsPost, constants.RoutePermissionsReset,
			constants.RoutePermissionsInsert),
		Permissions: handlers.NewPermissionHandler(base, s.services.permissions),

		Tables: handlers.NewTablesHandler(base, s.services.database),
	}
}

// Start starts the HTTP server and blocks until it fails or a SIGINT or
// SIGTERM asks for a graceful shutdown.
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)

	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	s.SetupMaintenanceTasks()

	select {
	case err := <-serverErrors:
		s.close()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(ctx); err != nil {
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown waits for in-flight requests and then releases the audit sink and
// the database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")
	s.close()
	return nil
}

func (s *Server) close() {
	if s.stopMaintenance != nil {
		s.stopMaintenance()
	}

	if s.auditSink != nil {
		if err := s.auditSink.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close audit fallback log")
		}
	}

	s.Db.Close()
	log.Info().Msg("Database connection closed")
}

// SetupMaintenanceTasks starts the background cleanup of the login limiter
// and the daily rotation of the audit fallback file. Both stop when the server
// closes.
func (s *Server) SetupMaintenanceTasks() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopMaintenance = cancel

	go s.limiter.Run(ctx, constants.LoginLimiterCleanup)

	ticker := time.NewTicker(constants.AuditFallbackRotation)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.auditSink.MaintainFallback(); err != nil {
					log.Error().Err(err).Msg("Failed to maintain audit fallback file")
				}
			}
		}
	}()
}
