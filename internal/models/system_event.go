package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/it-all/slim-postgres/internal/constants"
)

// EventType is the severity of a system event. Values match the ids of the
// system_event_types rows.
type EventType int

const (
	EventDebug EventType = iota + 1
	EventInfo
	EventNotice
	EventWarning
	EventError
	EventCritical
	EventAlert
	EventEmergency
)

var eventTypeNames = map[EventType]string{
	EventDebug:     constants.EventTypeDebug,
	EventInfo:      constants.EventTypeInfo,
	EventNotice:    constants.EventTypeNotice,
	EventWarning:   constants.EventTypeWarning,
	EventError:     constants.EventTypeError,
	EventCritical:  constants.EventTypeCritical,
	EventAlert:     constants.EventTypeAlert,
	EventEmergency: constants.EventTypeEmergency,
}

// EventTypes lists every event type in severity order
func EventTypes() []EventType {
	return []EventType{EventDebug, EventInfo, EventNotice, EventWarning, EventError, EventCritical, EventAlert, EventEmergency}
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// IsValid reports whether t is one of the eight severities
func (t EventType) IsValid() bool {
	_, ok := eventTypeNames[t]
	return ok
}

// ParseEventType returns the event type named s, ignoring case
func ParseEventType(s string) (EventType, error) {
	lowered := strings.ToLower(strings.TrimSpace(s))
	for t, name := range eventTypeNames {
		if name == lowered {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type: %q", s)
}

// SystemEvent is an append-only audit log row
type SystemEvent struct {
	ID                int64     `json:"id"`
	Created           time.Time `json:"created"`
	EventType         EventType `json:"event_type"`
	Title             string    `json:"title"`
	Notes             string    `json:"notes,omitempty"`
	AdministratorID   int64     `json:"administrator_id,omitempty"`
	AdministratorName string    `json:"administrator,omitempty"`
	IPAddress         string    `json:"ip_address,omitempty"`
	Resource          string    `json:"resource,omitempty"`
	RequestMethod     string    `json:"request_method,omitempty"`
}

// NewSystemEvent creates an event of the given type and title
func NewSystemEvent(eventType EventType, title string) *SystemEvent {
	return &SystemEvent{
		Created:   time.Now(),
		EventType: eventType,
		Title:     title,
	}
}

// WithRequest copies request metadata onto the event
func (e *SystemEvent) WithRequest(ipAddress, method, resource string) *SystemEvent {
	e.IPAddress = ipAddress
	e.RequestMethod = method
	e.Resource = resource
	return e
}

// MarshalText lets event types render by name in JSON
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses an event type name
func (t *EventType) UnmarshalText(text []byte) error {
	parsed, err := ParseEventType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
