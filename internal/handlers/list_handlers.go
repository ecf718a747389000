package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
)

// ListSource is a service that can be listed with a filter
type ListSource interface {
	Mapper() repository.EntityMapper
	List(ctx context.Context, where filter.Descriptor) (interface{}, error)
}

// ListView is the response of a list page
type ListView struct {
	Title     string       `json:"title"`
	Filter    string       `json:"filter"`
	Columns   []ColumnView `json:"columns"`
	Rows      interface{}  `json:"rows"`
	FilterURL string       `json:"filter_url"`
	ResetURL  string       `json:"reset_url"`
	InsertURL string       `json:"insert_url,omitempty"`
}

// FilterForm is the posted filter
type FilterForm struct {
	Filter string `json:"filter"`
}

// ListHandler serves a filterable list. The filter of each view is kept in the
// session until it is replaced or reset.
type ListHandler struct {
	*Base
	source      ListSource
	indexRoute  string
	filterRoute string
	resetRoute  string
	insertRoute string
}

// NewListHandler creates a list handler for the view named indexRoute.
// insertRoute may be empty for read-only lists.
func NewListHandler(base *Base, source ListSource, indexRoute, filterRoute, resetRoute, insertRoute string) *ListHandler {
	return &ListHandler{
		Base:        base,
		source:      source,
		indexRoute:  indexRoute,
		filterRoute: filterRoute,
		resetRoute:  resetRoute,
		insertRoute: insertRoute,
	}
}

// Index lists the rows matching the view's stored filter
func (h *ListHandler) Index(w http.ResponseWriter, r *http.Request) {
	text, where, _ := h.store.Filter(r.Context(), h.indexRoute)
	h.render(w, r, text, where, nil)
}

// Filter applies a newly submitted filter. An invalid filter keeps the view's
// last valid filter applied and stores the submitted text for redisplay.
func (h *ListHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var form FilterForm
	if err := utils.DecodeJSON(r, &form); err != nil {
		h.handleError(w, r, err)
		return
	}

	text := strings.TrimSpace(form.Filter)
	where, appErr := filter.Parse(text, h.source.Mapper().Whitelist())
	if appErr != nil {
		_, previous, _ := h.store.Filter(r.Context(), h.indexRoute)
		h.store.SetFilterText(r.Context(), h.indexRoute, form.Filter)
		h.render(w, r, form.Filter, previous, appErr)
		return
	}

	if err := h.store.SetFilter(r.Context(), h.indexRoute, text, where); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.render(w, r, text, where, nil)
}

// Reset clears the view's filter
func (h *ListHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.store.ClearFilter(r.Context(), h.indexRoute)
	utils.Redirect(w, r, h.urls.URLFor(h.indexRoute))
}

func (h *ListHandler) render(w http.ResponseWriter, r *http.Request, text string, where filter.Descriptor, filterErr *utils.AppError) {
	rows, err := h.source.List(r.Context(), where)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	mapper := h.source.Mapper()
	view := ListView{
		Title:     mapper.FormalTableName(true),
		Filter:    text,
		Columns:   columnViews(mapper),
		Rows:      rows,
		FilterURL: h.urls.URLFor(h.filterRoute),
		ResetURL:  h.urls.URLFor(h.resetRoute),
	}
	if h.insertRoute != "" {
		view.InsertURL = h.urls.URLFor(h.insertRoute)
	}

	notice := h.store.PopNotice(r.Context())
	if filterErr == nil {
		utils.View(w, http.StatusOK, view, notice)
		return
	}

	utils.SendJSON(w, filterErr.StatusCode, utils.Response{
		Success: false,
		Data:    view,
		Notice:  notice,
		Error: &utils.ErrorInfo{
			Code:    constants.CodeValidationError,
			Message: filterErr.Message,
			Details: filterErr.Details,
		},
	})
}
