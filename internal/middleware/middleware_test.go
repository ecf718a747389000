package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

const fatalMessage = "Apologies, something broke"

type fakeReporter struct {
	reported []error
	panics   []interface{}
}

func (f *fakeReporter) Report(ctx context.Context, info service.RequestInfo, err error) {
	f.reported = append(f.reported, err)
}

func (f *fakeReporter) ReportPanic(ctx context.Context, info service.RequestInfo, recovered interface{}, stack []byte) {
	f.panics = append(f.panics, recovered)
}

func (f *fakeReporter) FatalMessage() string { return fatalMessage }

type fakeEvents struct {
	events []*models.SystemEvent
}

func (f *fakeEvents) Record(ctx context.Context, event *models.SystemEvent) {
	f.events = append(f.events, event)
}

type fakeLoader struct {
	administrators map[int64]*models.Administrator
	err            error
}

func (f *fakeLoader) CurrentAdministrator(ctx context.Context, id int64) (*models.Administrator, error) {
	if f.err != nil {
		return nil, f.err
	}
	administrator, ok := f.administrators[id]
	if !ok {
		return nil, utils.NewQueryResultsNotFound("active administrators id %d", id)
	}
	return administrator, nil
}

type fakeAuthorizer struct {
	allowed bool
	err     error
}

func (f *fakeAuthorizer) IsAuthorized(ctx context.Context, administrator *models.Administrator, routeName string) (bool, error) {
	return f.allowed, f.err
}

func (f *fakeAuthorizer) Resource(routeName string) (string, bool) {
	return "View Roles", true
}

// newSession returns a store and a request carrying a loaded session
func newSession(t *testing.T, method, target string) (*scs.SessionManager, *session.Store, *http.Request) {
	t.Helper()

	manager := session.NewManager(config.SessionSettings{}, false)
	ctx, err := manager.Load(context.Background(), "")
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, nil).WithContext(ctx)
	return manager, session.NewStore(manager), req
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var errUnexpected = errors.New("unexpected")
