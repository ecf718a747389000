// Package service holds the business logic of the back office. Services validate
// form input, call the entity mappers and record system events; HTTP concerns stay
// in the handlers.
package service

import (
	"context"

	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

// EventRecorder writes system events. Recording is best effort and never fails
// the caller.
type EventRecorder interface {
	Record(ctx context.Context, event *models.SystemEvent)
}

// RequestInfo is the request metadata copied onto system events
type RequestInfo struct {
	AdministratorID int64
	IPAddress       string
	Method          string
	Resource        string
}

// NewEvent creates an event stamped with the request metadata
func (ri RequestInfo) NewEvent(eventType models.EventType, title, notes string) *models.SystemEvent {
	event := models.NewSystemEvent(eventType, title).WithRequest(ri.IPAddress, ri.Method, ri.Resource)
	event.AdministratorID = ri.AdministratorID
	event.Notes = notes
	return event
}

// prepareInput trims and validates a form input
func prepareInput(input interface{}, trim bool) error {
	if trim {
		utils.TrimStringFields(input)
	}
	return utils.ValidateStruct(input)
}
