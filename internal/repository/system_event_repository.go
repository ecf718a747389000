package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

const (
	systemEventsSelect = "se.id, se.created, se.event_type, se.title, se.notes, se.administrator_id, a.name, se.ip_address, se.resource, se.request_method"
	systemEventsFrom   = "system_events se JOIN system_event_types sety ON se.event_type = sety.id LEFT OUTER JOIN administrators a ON se.administrator_id = a.id"
	systemEventsOrder  = "se.created DESC"
)

// SystemEventRepository stores the audit log
type SystemEventRepository interface {
	EntityMapper
	Select(ctx context.Context, where filter.Descriptor) ([]*models.SystemEvent, error)
	Insert(ctx context.Context, event *models.SystemEvent) (int64, error)
}

// PostgresSystemEventRepository is a PostgreSQL implementation of SystemEventRepository
type PostgresSystemEventRepository struct {
	tableView
	db database.Executor
}

// NewSystemEventRepository creates a new SystemEventRepository
func NewSystemEventRepository(db database.Executor, registry *database.Registry) SystemEventRepository {
	return &PostgresSystemEventRepository{
		tableView: tableView{
			registry: registry,
			table:    constants.TableSystemEvents,
			whitelist: filter.Whitelist{
				"id":             "se.id",
				"created":        "se.created",
				"event_type":     "sety.event_type",
				"title":          "se.title",
				"notes":          "se.notes",
				"administrator":  "a.name",
				"ip_address":     "se.ip_address",
				"resource":       "se.resource",
				"request_method": "se.request_method",
			},
		},
		db: db,
	}
}

// Select returns events matching where, newest first
func (r *PostgresSystemEventRepository) Select(ctx context.Context, where filter.Descriptor) ([]*models.SystemEvent, error) {
	records, err := database.NewSelectBuilder(systemEventsSelect, systemEventsFrom, where, systemEventsOrder).Query(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("failed to select system events: %w", err)
	}

	events := make([]*models.SystemEvent, 0, len(records))
	for _, record := range records {
		events = append(events, &models.SystemEvent{
			ID:                asInt64(record[constants.ColumnID]),
			Created:           asTime(record[constants.ColumnCreated]),
			EventType:         models.EventType(asInt64(record[constants.ColumnEventType])),
			Title:             asString(record[constants.ColumnTitle]),
			Notes:             asString(record[constants.ColumnNotes]),
			AdministratorID:   asInt64(record[constants.ColumnAdministratorID]),
			AdministratorName: asString(record[constants.ColumnName]),
			IPAddress:         asString(record[constants.ColumnIPAddress]),
			Resource:          asString(record[constants.ColumnResource]),
			RequestMethod:     asString(record[constants.ColumnRequestMethod]),
		})
	}
	return events, nil
}

// Insert appends an event. Blank notes are stored as NULL and an administrator id
// of zero means no one was logged in.
func (r *PostgresSystemEventRepository) Insert(ctx context.Context, event *models.SystemEvent) (int64, error) {
	title := strings.TrimSpace(event.Title)
	if title == "" {
		return 0, utils.NewValidationError(constants.ColumnTitle, "System event title is required")
	}
	if !event.EventType.IsValid() {
		return 0, utils.NewValidationError(constants.ColumnEventType, fmt.Sprintf("Invalid event type %d", int(event.EventType)))
	}

	var administratorID interface{}
	if event.AdministratorID > 0 {
		administratorID = event.AdministratorID
	}

	values := map[string]interface{}{
		constants.ColumnEventType:       int64(event.EventType),
		constants.ColumnTitle:           title,
		constants.ColumnNotes:           strings.TrimSpace(event.Notes),
		constants.ColumnAdministratorID: administratorID,
		constants.ColumnIPAddress:       event.IPAddress,
		constants.ColumnResource:        event.Resource,
		constants.ColumnRequestMethod:   event.RequestMethod,
	}

	id, err := r.mapper().WithExecutor(r.db).Insert(ctx, values, false)
	if err != nil {
		return 0, fmt.Errorf("failed to insert system event: %w", err)
	}
	return asInt64(id), nil
}
