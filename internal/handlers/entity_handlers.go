package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

// EntityService is what the insert, update and delete controller needs. I is
// the form input and R the stored entity.
type EntityService[I any, R any] interface {
	Mapper() repository.EntityMapper
	Get(ctx context.Context, id int64) (R, error)
	Insert(ctx context.Context, input I) (int64, error)
	Update(ctx context.Context, id int64, input I) (*models.EntityChange, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// FormView is the response of an update form
type FormView struct {
	Title     string       `json:"title"`
	Columns   []ColumnView `json:"columns"`
	Record    interface{}  `json:"record"`
	ActionURL string       `json:"action_url"`
	DeleteURL string       `json:"delete_url"`
}

// EntityHandler inserts, updates and deletes one entity type. Every successful
// change records an info event and redirects to the list with a notice.
type EntityHandler[I any, R any] struct {
	*Base
	service     EntityService[I, R]
	newInput    func() I
	listRoute   string
	updateRoute string
	deleteRoute string
}

// NewEntityHandler creates a new EntityHandler. newInput returns an empty form
// to decode requests into.
func NewEntityHandler[I any, R any](base *Base, svc EntityService[I, R], newInput func() I, listRoute, updateRoute, deleteRoute string) *EntityHandler[I, R] {
	return &EntityHandler[I, R]{
		Base:        base,
		service:     svc,
		newInput:    newInput,
		listRoute:   listRoute,
		updateRoute: updateRoute,
		deleteRoute: deleteRoute,
	}
}

func (h *EntityHandler[I, R]) singular() string {
	return h.service.Mapper().FormalTableName(false)
}

// notFound records a warning for a primary key that matched no row
func (h *EntityHandler[I, R]) notFound(w http.ResponseWriter, r *http.Request, id int64) {
	mapper := h.service.Mapper()
	h.record(r, models.EventWarning, constants.EventQueryNotFound,
		fmt.Sprintf("%s %s: %d", mapper.FormalTableName(true), mapper.PrimaryKeyColumn(), id))
	h.redirectWithNotice(w, r, h.listRoute, fmt.Sprintf("%s not found: id %d", h.singular(), id), constants.NoticeFailure)
}

// Insert validates and inserts the posted form
func (h *EntityHandler[I, R]) Insert(w http.ResponseWriter, r *http.Request) {
	input := h.newInput()
	if err := utils.DecodeJSON(r, input); err != nil {
		h.handleError(w, r, err)
		return
	}

	id, err := h.service.Insert(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	singular := h.singular()
	h.record(r, models.EventInfo, "Inserted "+singular, fmt.Sprintf("id: %d", id))
	h.redirectWithNotice(w, r, h.listRoute, fmt.Sprintf("Inserted %s %d", lowerFirst(singular), id), constants.NoticeSuccess)
}

// UpdateForm returns the stored entity for editing
func (h *EntityHandler[I, R]) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		if utils.IsQueryResultsNotFound(err) {
			h.notFound(w, r, id)
			return
		}
		h.handleError(w, r, err)
		return
	}

	mapper := h.service.Mapper()
	idText := fmt.Sprint(id)
	utils.View(w, http.StatusOK, FormView{
		Title:     "Update " + mapper.FormalTableName(false),
		Columns:   columnViews(mapper),
		Record:    record,
		ActionURL: h.urls.URLFor(h.updateRoute, idText),
		DeleteURL: h.urls.URLFor(h.deleteRoute, idText),
	}, h.store.PopNotice(r.Context()))
}

// Update writes the changed fields of the submitted form
func (h *EntityHandler[I, R]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	input := h.newInput()
	if err := utils.DecodeJSON(r, input); err != nil {
		h.handleError(w, r, err)
		return
	}

	change, err := h.service.Update(r.Context(), id, input)
	switch {
	case utils.IsQueryResultsNotFound(err):
		h.notFound(w, r, id)
		return
	case err != nil:
		h.handleError(w, r, err)
		return
	case change == nil || change.IsEmpty():
		h.redirectWithNotice(w, r, h.listRoute, constants.MsgNoChanges, constants.NoticeFailure)
		return
	}

	singular := h.singular()
	notes, err := json.Marshal(models.EntityChange{
		Columns: utils.SanitizeKeys(change.Columns),
		Roles:   change.Roles,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode change for event notes")
	}
	h.record(r, models.EventInfo, "Updated "+singular, fmt.Sprintf("id: %d %s", id, notes))
	h.redirectWithNotice(w, r, h.listRoute, fmt.Sprintf("Updated %s %d", lowerFirst(singular), id), constants.NoticeSuccess)
}

// Delete removes the entity. Business rule vetoes and query failures are
// recorded and shown as notices rather than errors.
func (h *EntityHandler[I, R]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	singular := h.singular()
	name, err := h.service.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.record(r, models.EventInfo, "Deleted "+singular, name)
		h.redirectWithNotice(w, r, h.listRoute, fmt.Sprintf("Deleted %s %s", lowerFirst(singular), name), constants.NoticeSuccess)
	case utils.IsQueryResultsNotFound(err):
		h.notFound(w, r, id)
	case utils.IsUnallowedAction(err):
		message := utils.ParseError(err).Message
		h.record(r, models.EventWarning, constants.EventUnallowedAction, message)
		h.redirectWithNotice(w, r, h.listRoute, message, constants.NoticeFailure)
	case utils.IsQueryFailure(err):
		log.Error().Err(err).Int64("id", id).Str("entity", singular).Msg("Deletion failed")
		h.record(r, models.EventError, constants.EventDeletionFailure, err.Error())
		h.redirectWithNotice(w, r, h.listRoute, constants.MsgDeletionFailure, constants.NoticeFailure)
	default:
		h.handleError(w, r, err)
	}
}

// NewRoleHandler creates the role controller
func NewRoleHandler(base *Base, svc *service.RoleService) *EntityHandler[*models.RoleInput, *models.Role] {
	return NewEntityHandler[*models.RoleInput, *models.Role](base, svc,
		func() *models.RoleInput { return &models.RoleInput{} },
		constants.RouteRoles, constants.RouteRolesUpdatePut, constants.RouteRolesDelete)
}

// NewPermissionHandler creates the permission controller
func NewPermissionHandler(base *Base, svc *service.PermissionService) *EntityHandler[*models.PermissionInput, *models.Permission] {
	return NewEntityHandler[*models.PermissionInput, *models.Permission](base, svc,
		func() *models.PermissionInput { return &models.PermissionInput{} },
		constants.RoutePermissions, constants.RoutePermissionsUpdatePut, constants.RoutePermissionsDelete)
}

// administratorEntity passes the logged in administrator to Delete so nobody
// deletes their own account
type administratorEntity struct {
	*service.AdministratorService
}

func (a administratorEntity) Delete(ctx context.Context, id int64) (string, error) {
	var currentID int64
	if current := session.AdministratorFrom(ctx); current != nil {
		currentID = current.ID
	}
	return a.AdministratorService.Delete(ctx, id, currentID)
}

// NewAdministratorHandler creates the administrator controller
func NewAdministratorHandler(base *Base, svc *service.AdministratorService) *EntityHandler[*models.AdministratorInput, *models.Administrator] {
	return NewEntityHandler[*models.AdministratorInput, *models.Administrator](base, administratorEntity{svc},
		func() *models.AdministratorInput { return &models.AdministratorInput{} },
		constants.RouteAdministrators, constants.RouteAdministratorsUpdatePut, constants.RouteAdministratorsDelete)
}
