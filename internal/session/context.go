package session

import (
	"context"

	"github.com/it-all/slim-postgres/internal/models"
)

type contextKey string

const administratorKey contextKey = "administrator"

// WithAdministrator returns a context carrying the authenticated administrator
func WithAdministrator(ctx context.Context, administrator *models.Administrator) context.Context {
	return context.WithValue(ctx, administratorKey, administrator)
}

// AdministratorFrom returns the authenticated administrator, or nil for guests
func AdministratorFrom(ctx context.Context) *models.Administrator {
	administrator, _ := ctx.Value(administratorKey).(*models.Administrator)
	return administrator
}
