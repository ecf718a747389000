// Package session keeps the administrator's per-browser state in an scs session:
// the logged in administrator, failed login count, the one-time notice, the path
// to return to after login and the filter of each list view.
package session

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/config"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/utils"
)

// NewManager creates the scs session manager from the session settings. Cookies
// are marked secure in production.
func NewManager(cfg config.SessionSettings, production bool) *scs.SessionManager {
	manager := scs.New()

	manager.Lifetime = cfg.Lifetime
	if manager.Lifetime <= 0 {
		manager.Lifetime = constants.DefaultSessionLifetime
	}
	manager.Cookie.Name = cfg.CookieName
	if manager.Cookie.Name == "" {
		manager.Cookie.Name = constants.DefaultSessionCookieName
	}
	manager.Cookie.HttpOnly = true
	manager.Cookie.SameSite = http.SameSiteLaxMode
	manager.Cookie.Secure = production

	return manager
}

// Store reads and writes the session values of a request. Every method takes the
// request context that scs LoadAndSave populated.
type Store struct {
	manager *scs.SessionManager
}

// NewStore creates a Store over manager
func NewStore(manager *scs.SessionManager) *Store {
	return &Store{manager: manager}
}

// LoadAndSave is the scs middleware that loads and commits the session
func (s *Store) LoadAndSave(next http.Handler) http.Handler {
	return s.manager.LoadAndSave(next)
}

// AdministratorID returns the logged in administrator, or 0
func (s *Store) AdministratorID(ctx context.Context) int64 {
	return s.manager.GetInt64(ctx, constants.SessionKeyAdministratorID)
}

// Login renews the session token and stores the administrator id. The failed
// login count is cleared.
func (s *Store) Login(ctx context.Context, administratorID int64) error {
	if err := s.manager.RenewToken(ctx); err != nil {
		return err
	}
	s.manager.Put(ctx, constants.SessionKeyAdministratorID, administratorID)
	s.manager.Remove(ctx, constants.SessionKeyFailedLogins)
	return nil
}

// Logout destroys the session
func (s *Store) Logout(ctx context.Context) error {
	return s.manager.Destroy(ctx)
}

// FailedLogins returns the number of failed logins in this session
func (s *Store) FailedLogins(ctx context.Context) int {
	return s.manager.GetInt(ctx, constants.SessionKeyFailedLogins)
}

// SetFailedLogins stores the failed login count
func (s *Store) SetFailedLogins(ctx context.Context, count int) {
	s.manager.Put(ctx, constants.SessionKeyFailedLogins, count)
}

// SetNotice stores a notice for the next response
func (s *Store) SetNotice(ctx context.Context, message, status string) {
	encoded, err := json.Marshal(utils.Notice{Message: message, Status: status})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode notice")
		return
	}
	s.manager.Put(ctx, constants.SessionKeyNotice, string(encoded))
}

// PopNotice returns and removes the stored notice, or nil
func (s *Store) PopNotice(ctx context.Context) *utils.Notice {
	encoded := s.manager.PopString(ctx, constants.SessionKeyNotice)
	if encoded == "" {
		return nil
	}
	var notice utils.Notice
	if err := json.Unmarshal([]byte(encoded), &notice); err != nil {
		log.Error().Err(err).Msg("Failed to decode notice")
		return nil
	}
	return &notice
}

// SetGotoPath stores where to send the administrator after login
func (s *Store) SetGotoPath(ctx context.Context, path string) {
	s.manager.Put(ctx, constants.SessionKeyGotoPath, path)
}

// PopGotoPath returns and removes the stored path
func (s *Store) PopGotoPath(ctx context.Context) string {
	return s.manager.PopString(ctx, constants.SessionKeyGotoPath)
}

// Filter returns the filter text and descriptor last submitted on view. ok is
// false when the view has no filter.
func (s *Store) Filter(ctx context.Context, view string) (text string, where filter.Descriptor, ok bool) {
	text = s.manager.GetString(ctx, filterKey(view, constants.SessionKeyFilterValue))
	encoded := s.manager.GetString(ctx, filterKey(view, constants.SessionKeyFilterColumns))
	if encoded == "" {
		return text, nil, false
	}

	if err := json.Unmarshal([]byte(encoded), &where); err != nil {
		log.Error().Err(err).Str("view", view).Msg("Failed to decode stored filter")
		s.ClearFilter(ctx, view)
		return "", nil, false
	}
	return text, where, true
}

// SetFilter stores the filter of view
func (s *Store) SetFilter(ctx context.Context, view, text string, where filter.Descriptor) error {
	encoded, err := json.Marshal(where)
	if err != nil {
		return err
	}
	s.manager.Put(ctx, filterKey(view, constants.SessionKeyFilterValue), text)
	s.manager.Put(ctx, filterKey(view, constants.SessionKeyFilterColumns), string(encoded))
	return nil
}

// SetFilterText stores the raw filter text of view without touching its
// descriptor, so a rejected filter is redisplayed while the last valid one applies
func (s *Store) SetFilterText(ctx context.Context, view, text string) {
	s.manager.Put(ctx, filterKey(view, constants.SessionKeyFilterValue), text)
}

// ClearFilter removes the filter of view
func (s *Store) ClearFilter(ctx context.Context, view string) {
	s.manager.Remove(ctx, filterKey(view, constants.SessionKeyFilterValue))
	s.manager.Remove(ctx, filterKey(view, constants.SessionKeyFilterColumns))
}

func filterKey(view, suffix string) string {
	return constants.SessionKeyFilterPrefix + view + suffix
}
