package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/utils"
)

// TableLister lists registered tables generically
type TableLister interface {
	Mapper(table string) (repository.EntityMapper, error)
	GetTableData(ctx context.Context, table string, where filter.Descriptor) (*service.TableListing, error)
}

// TablesHandler serves the read-only listing of any registered table
type TablesHandler struct {
	*Base
	tables TableLister
}

// NewTablesHandler creates a new TablesHandler
func NewTablesHandler(base *Base, tables TableLister) *TablesHandler {
	return &TablesHandler{
		Base:   base,
		tables: tables,
	}
}

// TableView wraps a listing with the filter it was produced by
type TableView struct {
	*service.TableListing
	Filter string `json:"filter,omitempty"`
}

// Index lists the rows of the table in the URL, filtered by the filter query
// parameter when present
func (h *TablesHandler) Index(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, constants.ParamTable)

	mapper, err := h.tables.Mapper(table)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var where filter.Descriptor
	text := strings.TrimSpace(r.URL.Query().Get(constants.FieldFilter))
	if text != "" {
		parsed, appErr := filter.Parse(text, mapper.Whitelist())
		if appErr != nil {
			h.handleError(w, r, appErr)
			return
		}
		where = parsed
	}

	listing, err := h.tables.GetTableData(r.Context(), table, where)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	utils.View(w, http.StatusOK, TableView{TableListing: listing, Filter: text}, h.store.PopNotice(r.Context()))
}
