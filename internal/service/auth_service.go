package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/auth"
	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
	"github.com/it-all/slim-postgres/internal/utils/ratelimit"
)

// AuthService handles administrator login and logout
type AuthService struct {
	administrators  repository.AdministratorRepository
	attempts        repository.LoginAttemptRepository
	events          EventRecorder
	limiter         *ratelimit.Store
	maxFailedLogins int
}

// NewAuthService creates a new AuthService
func NewAuthService(
	administrators repository.AdministratorRepository,
	attempts repository.LoginAttemptRepository,
	events EventRecorder,
	limiter *ratelimit.Store,
	cfg config.AuthenticationSettings,
) *AuthService {
	maxFailed := cfg.MaxFailedLogins
	if maxFailed <= 0 {
		maxFailed = constants.DefaultMaxFailedLogins
	}
	return &AuthService{
		administrators:  administrators,
		attempts:        attempts,
		events:          events,
		limiter:         limiter,
		maxFailedLogins: maxFailed,
	}
}

// MaxFailedLogins is the number of failures after which a session may not log in
func (s *AuthService) MaxFailedLogins() int {
	return s.maxFailedLogins
}

// Login verifies credentials. failedLogins is the session's count of earlier
// failures; the updated count is returned with the result. Every attempt that
// reaches the password check is recorded in login_attempts.
func (s *AuthService) Login(ctx context.Context, creds *models.LoginCredentials, info RequestInfo, failedLogins int) (*models.Administrator, int, error) {
	if failedLogins >= s.maxFailedLogins {
		return nil, failedLogins, utils.NewTooManyRequestsError(constants.MsgTooManyLogins)
	}
	if s.limiter != nil && !s.limiter.Allow(info.IPAddress) {
		log.Warn().Str("ip_address", info.IPAddress).Msg("Login rate limit exceeded")
		return nil, failedLogins, utils.NewTooManyRequestsError(constants.MsgTooManyLogins)
	}
	if err := utils.ValidateStruct(creds); err != nil {
		return nil, failedLogins, err
	}

	administrator, reason, err := s.verify(ctx, creds)
	if err != nil {
		return nil, failedLogins, err
	}

	attempt := &models.LoginAttempt{
		Username:  creds.Username,
		IPAddress: info.IPAddress,
		Success:   reason == "",
	}
	if administrator != nil {
		attempt.AdministratorID = administrator.ID
	}
	if _, err := s.attempts.Insert(ctx, attempt); err != nil {
		log.Error().Err(err).Str("username", creds.Username).Msg("Failed to record login attempt")
	}

	if reason != "" {
		failedLogins++
		utils.LogAuth(constants.LogEventLogin, attempt.AdministratorID, creds.Username, false, reason)
		s.events.Record(ctx, info.NewEvent(models.EventNotice, constants.EventLoginFailed, "username: "+creds.Username))
		if failedLogins == s.maxFailedLogins {
			s.events.Record(ctx, info.NewEvent(models.EventWarning, constants.EventLoginsExceeded, "username: "+creds.Username))
		}
		return nil, failedLogins, utils.NewInvalidCredentialsError()
	}

	utils.LogAuth(constants.LogEventLogin, administrator.ID, administrator.Username, true, "")
	info.AdministratorID = administrator.ID
	s.events.Record(ctx, info.NewEvent(models.EventInfo, constants.EventLogin, ""))

	return administrator.Sanitize(), 0, nil
}

// verify returns the administrator and an empty reason when the credentials are
// good. A non-empty reason describes why they are not.
func (s *AuthService) verify(ctx context.Context, creds *models.LoginCredentials) (*models.Administrator, string, error) {
	administrator, err := s.administrators.GetByUsername(ctx, creds.Username)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, "administrator not found", nil
		}
		return nil, "", fmt.Errorf("failed to get administrator: %w", err)
	}

	if !administrator.Active {
		return administrator, "administrator inactive", nil
	}

	match, err := auth.VerifyPassword(creds.Password, administrator.PasswordHash)
	if err != nil {
		log.Error().Err(err).Int64("administrator_id", administrator.ID).Msg("Stored password hash is unreadable")
		return administrator, "invalid password hash", nil
	}
	if !match {
		return administrator, "invalid password", nil
	}
	return administrator, "", nil
}

// Logout records the logout event
func (s *AuthService) Logout(ctx context.Context, info RequestInfo) {
	utils.LogAuth("logout", info.AdministratorID, "", true, "")
	s.events.Record(ctx, info.NewEvent(models.EventInfo, constants.EventLogout, ""))
}

// CurrentAdministrator loads the logged in administrator with roles. Inactive or
// deleted administrators are reported as not found.
func (s *AuthService) CurrentAdministrator(ctx context.Context, id int64) (*models.Administrator, error) {
	administrator, err := s.administrators.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !administrator.Active {
		return nil, utils.NewQueryResultsNotFound("active administrators id %d", id)
	}
	return administrator.Sanitize(), nil
}
