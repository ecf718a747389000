package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/middleware"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

// Authenticator verifies logins and records logouts
type Authenticator interface {
	Login(ctx context.Context, creds *models.LoginCredentials, info service.RequestInfo, failedLogins int) (*models.Administrator, int, error)
	Logout(ctx context.Context, info service.RequestInfo)
}

// AuthHandler handles the login form and logout
type AuthHandler struct {
	*Base
	auth Authenticator
}

// LoginView is the response of the login form
type LoginView struct {
	Username  string `json:"username,omitempty"`
	ActionURL string `json:"action_url"`
}

// AdminHomeView is the landing page after login
type AdminHomeView struct {
	Administrator *models.Administrator `json:"administrator"`
	LogoutURL     string                `json:"logout_url"`
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(base *Base, auth Authenticator) *AuthHandler {
	return &AuthHandler{
		Base: base,
		auth: auth,
	}
}

// LoginForm shows the login form
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	utils.View(w, http.StatusOK, LoginView{
		ActionURL: h.urls.URLFor(constants.RouteLoginPost),
	}, h.store.PopNotice(r.Context()))
}

// Login verifies the posted credentials. On success the administrator goes to
// the page that required the login, or the admin home page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.LoginCredentials
	if err := utils.DecodeJSON(r, &creds); err != nil {
		h.handleError(w, r, err)
		return
	}

	ctx := r.Context()
	administrator, failedLogins, err := h.auth.Login(ctx, &creds, middleware.RequestInfo(r), h.store.FailedLogins(ctx))
	h.store.SetFailedLogins(ctx, failedLogins)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.store.Login(ctx, administrator.ID); err != nil {
		h.handleError(w, r, err)
		return
	}

	utils.Redirect(w, r, h.destination(ctx))
}

// destination pops the stored goto path. Only local paths are followed.
func (h *AuthHandler) destination(ctx context.Context) string {
	path := h.store.PopGotoPath(ctx)
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") {
		return path
	}
	return h.urls.URLFor(constants.RouteAdminHome)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.auth.Logout(ctx, middleware.RequestInfo(r))

	if err := h.store.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to destroy session")
	}
	h.redirectWithNotice(w, r, constants.RouteLogin, constants.MsgLogoutSuccess, constants.NoticeSuccess)
}

// AdminHome shows the logged in administrator
func (h *AuthHandler) AdminHome(w http.ResponseWriter, r *http.Request) {
	utils.View(w, http.StatusOK, AdminHomeView{
		Administrator: session.AdministratorFrom(r.Context()),
		LogoutURL:     h.urls.URLFor(constants.RouteLogout),
	}, h.store.PopNotice(r.Context()))
}
