package service

import (
	"context"
	"sync"

	"github.com/it-all/slim-postgres/internal/auth"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
)

// fastPasswordConfig keeps argon2 cheap in tests
var fastPasswordConfig = &auth.PasswordConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type recordedEvents struct {
	mu     sync.Mutex
	events []*models.SystemEvent
}

func (r *recordedEvents) Record(ctx context.Context, event *models.SystemEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordedEvents) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.events))
	for i, event := range r.events {
		titles[i] = event.Title
	}
	return titles
}

type fakeAdministrators struct {
	repository.AdministratorRepository
	byUsername map[string]*models.Administrator

	insertedHash string
	updatedHash  string
	updateCalls  int
}

func newFakeAdministrators(administrators ...*models.Administrator) *fakeAdministrators {
	f := &fakeAdministrators{byUsername: make(map[string]*models.Administrator)}
	for _, administrator := range administrators {
		f.byUsername[administrator.Username] = administrator
	}
	return f
}

func (f *fakeAdministrators) GetByUsername(ctx context.Context, username string) (*models.Administrator, error) {
	administrator, ok := f.byUsername[username]
	if !ok {
		return nil, utils.NewQueryResultsNotFound("administrators username %s", username)
	}
	copied := *administrator
	return &copied, nil
}

func (f *fakeAdministrators) GetByID(ctx context.Context, id int64) (*models.Administrator, error) {
	for _, administrator := range f.byUsername {
		if administrator.ID == id {
			copied := *administrator
			return &copied, nil
		}
	}
	return nil, utils.NewQueryResultsNotFound("administrators id %d", id)
}

func (f *fakeAdministrators) Insert(ctx context.Context, input *models.AdministratorInput, passwordHash string) (int64, error) {
	f.insertedHash = passwordHash
	return 10, nil
}

func (f *fakeAdministrators) Update(ctx context.Context, id int64, input *models.AdministratorInput, passwordHash string) (*models.EntityChange, error) {
	f.updateCalls++
	f.updatedHash = passwordHash
	return &models.EntityChange{}, nil
}

type fakeAttempts struct {
	repository.LoginAttemptRepository
	attempts []*models.LoginAttempt
}

func (f *fakeAttempts) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	f.attempts = append(f.attempts, attempt)
	return int64(len(f.attempts)), nil
}

type fakePermissions struct {
	repository.PermissionRepository
	byTitle     map[string]*models.Permission
	insertCalls int
}

func (f *fakePermissions) GetByTitle(ctx context.Context, title string) (*models.Permission, error) {
	permission, ok := f.byTitle[title]
	if !ok {
		return nil, utils.NewQueryResultsNotFound("permissions title %s", title)
	}
	return permission, nil
}

func (f *fakePermissions) Insert(ctx context.Context, input *models.PermissionInput) (int64, error) {
	f.insertCalls++
	return 1, nil
}

func (f *fakePermissions) Select(ctx context.Context, where filter.Descriptor) ([]*models.Permission, error) {
	var permissions []*models.Permission
	for _, permission := range f.byTitle {
		permissions = append(permissions, permission)
	}
	return permissions, nil
}

type fakeSystemEvents struct {
	repository.SystemEventRepository
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeSystemEvents) Insert(ctx context.Context, event *models.SystemEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return int64(f.calls), nil
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to []string, subject, body string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return f.err
}
