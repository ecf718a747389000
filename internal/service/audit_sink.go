package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
	"github.com/it-all/slim-postgres/internal/utils/logfile"
)

// AuditSink records system events in the database behind a circuit breaker.
// Events that cannot be stored are appended as JSON lines to a local fallback
// file instead, so recording an event never fails and never recurses.
type AuditSink struct {
	repo     repository.SystemEventRepository
	breaker  *gobreaker.CircuitBreaker
	fallback zerolog.Logger
	closer   io.Closer

	// set when the fallback is a rotatable file
	file      *logfile.File
	retention time.Duration
}

// NewAuditSink opens the fallback file and creates the sink
func NewAuditSink(repo repository.SystemEventRepository, cfg config.AuditSettings) (*AuditSink, error) {
	path := cfg.FallbackPath
	if path == "" {
		path = constants.DefaultEventFallbackPath
	}

	file, err := logfile.Open(path, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit fallback file: %w", err)
	}

	sink := newAuditSink(repo, cfg, file, file)
	sink.file = file
	sink.retention = cfg.FallbackRetention
	if sink.retention <= 0 {
		sink.retention = constants.DefaultEventFallbackRetention
	}
	return sink, nil
}

func newAuditSink(repo repository.SystemEventRepository, cfg config.AuditSettings, out io.Writer, closer io.Closer) *AuditSink {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = constants.DefaultBreakerMaxFailures
	}

	settings := gobreaker.Settings{
		Name:        constants.TableSystemEvents,
		MaxRequests: cfg.HalfOpenMax,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Audit sink circuit breaker changed state")
		},
		// a rejected event is the caller's fault, not the database's
		IsSuccessful: func(err error) bool {
			return err == nil || utils.IsValidationError(err)
		},
	}

	return &AuditSink{
		repo:     repo,
		breaker:  gobreaker.NewCircuitBreaker(settings),
		fallback: zerolog.New(out).With().Timestamp().Logger(),
		closer:   closer,
	}
}

// Record stores event, falling back to the local file when the database insert
// fails or the breaker is open
func (s *AuditSink) Record(ctx context.Context, event *models.SystemEvent) {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return s.repo.Insert(ctx, event)
	})
	if err == nil {
		return
	}

	s.fallback.Log().
		Str("fallback_id", uuid.NewString()).
		Str("reason", err.Error()).
		Interface("event", event).
		Msg(event.Title)
}

// State reports the breaker state, e.g. for health output
func (s *AuditSink) State() string {
	return s.breaker.State().String()
}

// MaintainFallback rotates the fallback file and deletes rotated copies older
// than the configured retention
func (s *AuditSink) MaintainFallback() error {
	if s.file == nil {
		return nil
	}

	if _, err := s.file.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate audit fallback file: %w", err)
	}

	deleted, err := s.file.Prune(s.retention)
	if err != nil {
		return fmt.Errorf("failed to prune audit fallback files: %w", err)
	}
	if deleted > 0 {
		log.Info().Int("count", deleted).Msg("Deleted expired audit fallback files")
	}
	return nil
}

// Close closes the fallback file
func (s *AuditSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
