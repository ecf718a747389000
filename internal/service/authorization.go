package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
)

// DefaultRoutePermissions maps each protected route name to the title of the
// permission that guards it.
func DefaultRoutePermissions() map[string]string {
	return map[string]string{
		constants.RouteSystemEvents:      constants.ResourceViewSystemEvents,
		constants.RouteSystemEventsPost:  constants.ResourceViewSystemEvents,
		constants.RouteSystemEventsReset: constants.ResourceViewSystemEvents,

		constants.RouteLoginAttempts:      constants.ResourceViewLoginAttempts,
		constants.RouteLoginAttemptsPost:  constants.ResourceViewLoginAttempts,
		constants.RouteLoginAttemptsReset: constants.ResourceViewLoginAttempts,

		constants.RouteAdministrators:          constants.ResourceViewAdministrators,
		constants.RouteAdministratorsPost:      constants.ResourceViewAdministrators,
		constants.RouteAdministratorsReset:     constants.ResourceViewAdministrators,
		constants.RouteAdministratorsInsert:    constants.ResourceInsertAdministrators,
		constants.RouteAdministratorsUpdate:    constants.ResourceUpdateAdministrators,
		constants.RouteAdministratorsUpdatePut: constants.ResourceUpdateAdministrators,
		constants.RouteAdministratorsDelete:    constants.ResourceDeleteAdministrators,

		constants.RouteRoles:          constants.ResourceViewRoles,
		constants.RouteRolesPost:      constants.ResourceViewRoles,
		constants.RouteRolesReset:     constants.ResourceViewRoles,
		constants.RouteRolesInsert:    constants.ResourceInsertRoles,
		constants.RouteRolesUpdate:    constants.ResourceUpdateRoles,
		constants.RouteRolesUpdatePut: constants.ResourceUpdateRoles,
		constants.RouteRolesDelete:    constants.ResourceDeleteRoles,

		constants.RoutePermissions:          constants.ResourceViewPermissions,
		constants.RoutePermissionsPost:      constants.ResourceViewPermissions,
		constants.RoutePermissionsReset:     constants.ResourceViewPermissions,
		constants.RoutePermissionsInsert:    constants.ResourceInsertPermissions,
		constants.RoutePermissionsUpdate:    constants.ResourceUpdatePermissions,
		constants.RoutePermissionsUpdatePut: constants.ResourceUpdatePermissions,
		constants.RoutePermissionsDelete:    constants.ResourceDeletePermissions,

		constants.RouteTables: constants.ResourceViewTables,
	}
}

// Authorizer decides whether an administrator may use a protected route
type Authorizer struct {
	permissions      repository.PermissionRepository
	topRole          string
	routePermissions map[string]string
}

// NewAuthorizer creates a new Authorizer
func NewAuthorizer(permissions repository.PermissionRepository, topRole string, routePermissions map[string]string) *Authorizer {
	if topRole == "" {
		topRole = constants.DefaultTopRole
	}
	return &Authorizer{
		permissions:      permissions,
		topRole:          topRole,
		routePermissions: routePermissions,
	}
}

// ValidateRoutes checks that every protected route has a permission and that
// every mapped route exists
func (a *Authorizer) ValidateRoutes(protectedRoutes []string) error {
	known := make(map[string]bool, len(protectedRoutes))
	var unmapped []string
	for _, name := range protectedRoutes {
		known[name] = true
		if a.routePermissions[name] == "" {
			unmapped = append(unmapped, name)
		}
	}

	var unknown []string
	for name := range a.routePermissions {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}

	if len(unmapped) == 0 && len(unknown) == 0 {
		return nil
	}
	sort.Strings(unmapped)
	sort.Strings(unknown)
	return fmt.Errorf("route permissions mismatch: routes without permission %v, permissions for unknown routes %v", unmapped, unknown)
}

// Resource returns the permission title guarding routeName
func (a *Authorizer) Resource(routeName string) (string, bool) {
	resource, ok := a.routePermissions[routeName]
	return resource, ok
}

// IsAuthorized reports whether administrator may use routeName. The top role is
// authorized everywhere; otherwise one of the administrator's roles must be
// assigned to the route's permission and the permission must be active.
func (a *Authorizer) IsAuthorized(ctx context.Context, administrator *models.Administrator, routeName string) (bool, error) {
	resource, ok := a.routePermissions[routeName]
	if !ok {
		return false, fmt.Errorf("no permission mapped for route %s", routeName)
	}
	return a.IsAuthorizedForResource(ctx, administrator, resource)
}

// IsAuthorizedForResource is IsAuthorized for a permission title
func (a *Authorizer) IsAuthorizedForResource(ctx context.Context, administrator *models.Administrator, resource string) (bool, error) {
	if administrator == nil {
		return false, nil
	}
	if administrator.HasRole(a.topRole) {
		return true, nil
	}

	permission, err := a.permissions.GetByTitle(ctx, resource)
	if err != nil {
		if utils.IsQueryResultsNotFound(err) {
			log.Warn().Str("resource", resource).Msg("Permission not found")
			return false, nil
		}
		return false, err
	}
	if !permission.Active {
		return false, nil
	}

	for _, role := range administrator.Roles {
		if permission.HasRole(role.ID) {
			return true, nil
		}
	}
	return false, nil
}
