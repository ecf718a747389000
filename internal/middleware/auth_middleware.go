package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

// AdministratorLoader loads the administrator stored in the session
type AdministratorLoader interface {
	CurrentAdministrator(ctx context.Context, id int64) (*models.Administrator, error)
}

// RouteAuthorizer decides whether an administrator may use a named route
type RouteAuthorizer interface {
	IsAuthorized(ctx context.Context, administrator *models.Administrator, routeName string) (bool, error)
	Resource(routeName string) (string, bool)
}

// Authenticate requires a logged in administrator. Guests get a warning event,
// a notice and a redirect to loginURL; GET requests are remembered so the login
// can return there.
func Authenticate(store *session.Store, loader AdministratorLoader, events service.EventRecorder, reporter ErrorReporter, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := store.AdministratorID(ctx)
			if id > 0 {
				administrator, err := loader.CurrentAdministrator(ctx, id)
				switch {
				case err == nil:
					next.ServeHTTP(w, r.WithContext(session.WithAdministrator(ctx, administrator)))
					return
				case utils.IsNotFoundError(err):
					// deleted or deactivated since login
					log.Info().Int64(constants.AdministratorIDContextKey, id).Msg("Session administrator no longer active")
					if err := store.Logout(ctx); err != nil {
						log.Error().Err(err).Msg("Failed to destroy session")
					}
				default:
					HandleError(w, r, reporter, err)
					return
				}
			}

			events.Record(ctx, RequestInfo(r).NewEvent(models.EventWarning, constants.EventLoginRequired, ""))
			store.SetNotice(ctx, constants.MsgAuthRequired, constants.NoticeFailure)
			if r.Method == http.MethodGet {
				store.SetGotoPath(ctx, r.URL.RequestURI())
			}
			utils.Redirect(w, r, loginURL)
		})
	}
}

// Guest keeps logged in administrators off the login routes
func Guest(store *session.Store, homeURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store.AdministratorID(r.Context()) > 0 {
				utils.Redirect(w, r, homeURL)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authorize requires permission for routeName. It runs after Authenticate.
func Authorize(routeName string, authorizer RouteAuthorizer, store *session.Store, events service.EventRecorder, reporter ErrorReporter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			administrator := session.AdministratorFrom(ctx)

			allowed, err := authorizer.IsAuthorized(ctx, administrator, routeName)
			if err != nil {
				HandleError(w, r, reporter, err)
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			resource, _ := authorizer.Resource(routeName)
			events.Record(ctx, RequestInfo(r).NewEvent(models.EventAlert, constants.EventNoAuthorization, "resource: "+resource))
			store.SetNotice(ctx, constants.MsgAccessDenied, constants.NoticeFailure)
			utils.Forbidden(w, constants.MsgAccessDenied)
		})
	}
}
