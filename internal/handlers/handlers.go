// Package handlers holds the back office controllers. They decode requests, call
// the services, record system events and answer with JSON views or 303
// redirects carrying a session notice.
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/middleware"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

// URLResolver builds the path of a named route. params fill the route's
// placeholders in order.
type URLResolver interface {
	URLFor(name string, params ...string) string
}

// Base is what every controller shares
type Base struct {
	store    *session.Store
	events   service.EventRecorder
	reporter middleware.ErrorReporter
	urls     URLResolver
}

// NewBase creates a new Base
func NewBase(store *session.Store, events service.EventRecorder, reporter middleware.ErrorReporter, urls URLResolver) *Base {
	return &Base{
		store:    store,
		events:   events,
		reporter: reporter,
		urls:     urls,
	}
}

func (b *Base) record(r *http.Request, eventType models.EventType, title, notes string) {
	b.events.Record(r.Context(), middleware.RequestInfo(r).NewEvent(eventType, title, notes))
}

func (b *Base) redirectWithNotice(w http.ResponseWriter, r *http.Request, routeName, message, status string) {
	b.store.SetNotice(r.Context(), message, status)
	utils.Redirect(w, r, b.urls.URLFor(routeName))
}

func (b *Base) handleError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.HandleError(w, r, b.reporter, err)
}

// ColumnView describes a column to list and form views
type ColumnView struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	MaxLength  int64  `json:"max_length,omitempty"`
	HasDefault bool   `json:"has_default"`
	PrimaryKey bool   `json:"primary_key"`
	Unique     bool   `json:"unique"`
}

func columnViews(mapper repository.EntityMapper) []ColumnView {
	columns := mapper.Columns()
	views := make([]ColumnView, len(columns))
	for i, column := range columns {
		views[i] = ColumnView{
			Name:       column.Name(),
			Type:       column.Type(),
			Nullable:   column.IsNullable(),
			MaxLength:  column.MaxLength(),
			HasDefault: column.HasDefault(),
			PrimaryKey: column.IsPrimaryKey(),
			Unique:     column.IsUnique(),
		}
	}
	return views
}

func idParam(r *http.Request) (int64, error) {
	return utils.ParseID(chi.URLParam(r, constants.ParamID))
}

// lowerFirst turns "Role" into "role" for notices
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
