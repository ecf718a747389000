package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

// ErrorReporter handles errors no controller expected: it logs them, records a
// system event and emails the configured recipients.
type ErrorReporter struct {
	events        EventRecorder
	mailer        Mailer
	emailTo       []string
	logToDatabase bool
	appName       string
	fatalMessage  string
}

// NewErrorReporter creates a new ErrorReporter. mailer may be nil, in which case
// nothing is emailed.
func NewErrorReporter(cfg *config.AppConfig, events EventRecorder, mailer Mailer) *ErrorReporter {
	reporter := &ErrorReporter{
		events:        events,
		mailer:        mailer,
		logToDatabase: cfg.Errors.LogToDatabase,
		appName:       cfg.App.Name,
		fatalMessage:  cfg.Errors.FatalMessage,
	}
	if cfg.ShouldEmailErrors() {
		reporter.emailTo = cfg.Errors.EmailTo
	}
	if reporter.fatalMessage == "" {
		reporter.fatalMessage = constants.DefaultFatalMessage
	}
	return reporter
}

// FatalMessage is the apology shown to the administrator
func (r *ErrorReporter) FatalMessage() string {
	return r.fatalMessage
}

// Report records an unexpected error
func (r *ErrorReporter) Report(ctx context.Context, info RequestInfo, err error) {
	eventType, title := models.EventCritical, constants.EventUnhandledError
	if utils.IsQueryFailure(err) {
		eventType, title = models.EventError, constants.EventQueryFailure
	}

	utils.LogError(err, map[string]interface{}{
		"resource":         info.Resource,
		"method":           info.Method,
		"administrator_id": info.AdministratorID,
	})
	r.record(ctx, info.NewEvent(eventType, title, err.Error()))
}

// ReportPanic records a recovered panic with its stack
func (r *ErrorReporter) ReportPanic(ctx context.Context, info RequestInfo, recovered interface{}, stack []byte) {
	utils.LogPanic(recovered, stack)

	notes := fmt.Sprintf("%v\n%s", recovered, stack)
	r.record(ctx, info.NewEvent(models.EventCritical, constants.EventPanic, notes))
}

func (r *ErrorReporter) record(ctx context.Context, event *models.SystemEvent) {
	if r.logToDatabase && r.events != nil {
		r.events.Record(ctx, event)
	}
	r.email(event)
}

func (r *ErrorReporter) email(event *models.SystemEvent) {
	if r.mailer == nil || len(r.emailTo) == 0 {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s: %s\n", event.EventType, event.Title)
	fmt.Fprintf(&body, "Resource: %s %s\n", event.RequestMethod, event.Resource)
	fmt.Fprintf(&body, "IP address: %s\n", event.IPAddress)
	if event.AdministratorID > 0 {
		fmt.Fprintf(&body, "Administrator: %d\n", event.AdministratorID)
	}
	fmt.Fprintf(&body, "\n%s\n", event.Notes)

	subject := fmt.Sprintf("%s %s", r.appName, event.Title)
	if err := r.mailer.Send(r.emailTo, subject, body.String()); err != nil {
		log.Error().Err(err).Msg("Failed to email error report")
	}
}
