package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/handlers"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

const fatalMessage = "Apologies, something broke"

type fakeURLs struct{}

func (fakeURLs) URLFor(name string, params ...string) string {
	if len(params) == 0 {
		return "/" + name
	}
	return "/" + name + "/" + strings.Join(params, "/")
}

type fakeEvents struct {
	events []*models.SystemEvent
}

func (f *fakeEvents) Record(ctx context.Context, event *models.SystemEvent) {
	f.events = append(f.events, event)
}

func (f *fakeEvents) titles() []string {
	titles := make([]string, len(f.events))
	for i, event := range f.events {
		titles[i] = event.Title
	}
	return titles
}

type fakeReporter struct {
	reported []error
}

func (f *fakeReporter) Report(ctx context.Context, info service.RequestInfo, err error) {
	f.reported = append(f.reported, err)
}

func (f *fakeReporter) ReportPanic(ctx context.Context, info service.RequestInfo, recovered interface{}, stack []byte) {
}

func (f *fakeReporter) FatalMessage() string { return fatalMessage }

type fakeMapper struct{}

func (fakeMapper) Columns() []*database.ColumnMetadata { return nil }

func (fakeMapper) PrimaryKeyColumn() string { return "id" }

func (fakeMapper) FormalTableName(plural bool) string {
	if plural {
		return "Roles"
	}
	return "Role"
}

func (fakeMapper) Whitelist() filter.Whitelist {
	return filter.NewWhitelist("", "role", "level")
}

// harness wires a Base to fakes and a loaded session
type harness struct {
	store    *session.Store
	events   *fakeEvents
	reporter *fakeReporter
	base     *handlers.Base
	ctx      context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	manager := session.NewManager(config.SessionSettings{}, false)
	ctx, err := manager.Load(context.Background(), "")
	require.NoError(t, err)

	h := &harness{
		store:    session.NewStore(manager),
		events:   &fakeEvents{},
		reporter: &fakeReporter{},
		ctx:      ctx,
	}
	h.base = handlers.NewBase(h.store, h.events, h.reporter, fakeURLs{})
	return h
}

// request builds a request on the harness session. params are chi URL
// parameters given as key, value pairs.
func (h *harness) request(method, target, body string, params ...string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(h.ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

type response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *utils.ErrorInfo       `json:"error"`
	Notice  *utils.Notice          `json:"notice"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
