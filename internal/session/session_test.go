package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/session"
)

func newLoadedStore(t *testing.T) (*session.Store, context.Context) {
	t.Helper()

	manager := session.NewManager(config.SessionSettings{}, false)
	ctx, err := manager.Load(context.Background(), "")
	require.NoError(t, err)

	return session.NewStore(manager), ctx
}

func TestNewManager(t *testing.T) {
	manager := session.NewManager(config.SessionSettings{Lifetime: time.Hour, CookieName: "admin"}, true)

	assert.Equal(t, time.Hour, manager.Lifetime)
	assert.Equal(t, "admin", manager.Cookie.Name)
	assert.True(t, manager.Cookie.Secure)
	assert.True(t, manager.Cookie.HttpOnly)

	defaults := session.NewManager(config.SessionSettings{}, false)
	assert.Equal(t, constants.DefaultSessionLifetime, defaults.Lifetime)
	assert.Equal(t, constants.DefaultSessionCookieName, defaults.Cookie.Name)
	assert.False(t, defaults.Cookie.Secure)
}

func TestStore_Login(t *testing.T) {
	store, ctx := newLoadedStore(t)

	assert.Zero(t, store.AdministratorID(ctx))

	store.SetFailedLogins(ctx, 2)
	assert.Equal(t, 2, store.FailedLogins(ctx))

	require.NoError(t, store.Login(ctx, 12))
	assert.Equal(t, int64(12), store.AdministratorID(ctx))
	assert.Zero(t, store.FailedLogins(ctx))

	require.NoError(t, store.Logout(ctx))
	assert.Zero(t, store.AdministratorID(ctx))
}

func TestStore_Notice(t *testing.T) {
	store, ctx := newLoadedStore(t)

	assert.Nil(t, store.PopNotice(ctx))

	store.SetNotice(ctx, "Inserted role manager", constants.NoticeSuccess)
	notice := store.PopNotice(ctx)
	require.NotNil(t, notice)
	assert.Equal(t, "Inserted role manager", notice.Message)
	assert.Equal(t, constants.NoticeSuccess, notice.Status)

	assert.Nil(t, store.PopNotice(ctx), "notice is shown once")
}

func TestStore_GotoPath(t *testing.T) {
	store, ctx := newLoadedStore(t)

	store.SetGotoPath(ctx, "/admin/roles")

	assert.Equal(t, "/admin/roles", store.PopGotoPath(ctx))
	assert.Empty(t, store.PopGotoPath(ctx))
}

func TestStore_Filter(t *testing.T) {
	store, ctx := newLoadedStore(t)
	whitelist := filter.NewWhitelist("", "role", "level")

	_, _, ok := store.Filter(ctx, constants.RouteRoles)
	assert.False(t, ok)

	where, appErr := filter.Parse("level:>=:2,role:is not:null", whitelist)
	require.Nil(t, appErr)
	require.NoError(t, store.SetFilter(ctx, constants.RouteRoles, "level:>=:2,role:is not:null", where))

	text, stored, ok := store.Filter(ctx, constants.RouteRoles)
	require.True(t, ok)
	assert.Equal(t, "level:>=:2,role:is not:null", text)
	assert.Equal(t, where, stored)

	// views keep separate filters
	_, _, ok = store.Filter(ctx, constants.RoutePermissions)
	assert.False(t, ok)

	// rejected text replaces the shown text only
	store.SetFilterText(ctx, constants.RouteRoles, "color:=:red")
	text, stored, ok = store.Filter(ctx, constants.RouteRoles)
	require.True(t, ok)
	assert.Equal(t, "color:=:red", text)
	assert.Equal(t, where, stored)

	store.ClearFilter(ctx, constants.RouteRoles)
	text, _, ok = store.Filter(ctx, constants.RouteRoles)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestStore_LoadAndSave(t *testing.T) {
	manager := session.NewManager(config.SessionSettings{}, false)
	store := session.NewStore(manager)

	mux := http.NewServeMux()
	mux.HandleFunc("/put", func(w http.ResponseWriter, r *http.Request) {
		store.SetGotoPath(r.Context(), "/admin/logins")
	})
	mux.HandleFunc("/pop", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(store.PopGotoPath(r.Context())))
	})
	handler := store.LoadAndSave(mux)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/put", nil))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/pop", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "/admin/logins", rr.Body.String())
}

func TestAdministratorContext(t *testing.T) {
	assert.Nil(t, session.AdministratorFrom(context.Background()))

	administrator := &models.Administrator{ID: 3, Username: "pat"}
	ctx := session.WithAdministrator(context.Background(), administrator)

	assert.Same(t, administrator, session.AdministratorFrom(ctx))
}
