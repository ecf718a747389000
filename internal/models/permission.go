package models

import (
	"sort"
	"time"
)

// Permission is a protected resource, e.g. "View Roles", and the roles allowed to
// use it. Every permission has at least one role.
type Permission struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Created     time.Time `json:"created"`
	Roles       []RoleRef `json:"roles"`
}

// HasRole reports whether roleID is assigned to the permission
func (p *Permission) HasRole(roleID int64) bool {
	for _, role := range p.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

// PermissionInput is the insert/update form for permissions
type PermissionInput struct {
	Title       string  `json:"title" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=255"`
	Active      bool    `json:"active"`
	RoleIDs     []int64 `json:"roles" validate:"required,min=1,unique,dive,gt=0"`
}

// Columns returns the permissions row values of the input
func (in *PermissionInput) Columns() map[string]interface{} {
	return map[string]interface{}{
		"title":       in.Title,
		"description": in.Description,
		"active":      in.Active,
	}
}

// RoleDelta is the change to a permission's role assignments
type RoleDelta struct {
	Add    []int64 `json:"add"`
	Remove []int64 `json:"remove"`
}

// IsEmpty reports whether the delta changes nothing
func (d RoleDelta) IsEmpty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// NewRoleDelta computes which role ids to add and remove to go from current to
// desired. Both results are sorted.
func NewRoleDelta(current, desired []int64) RoleDelta {
	currentSet := make(map[int64]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	desiredSet := make(map[int64]bool, len(desired))
	for _, id := range desired {
		desiredSet[id] = true
	}

	var delta RoleDelta
	for id := range desiredSet {
		if !currentSet[id] {
			delta.Add = append(delta.Add, id)
		}
	}
	for id := range currentSet {
		if !desiredSet[id] {
			delta.Remove = append(delta.Remove, id)
		}
	}
	sort.Slice(delta.Add, func(i, j int) bool { return delta.Add[i] < delta.Add[j] })
	sort.Slice(delta.Remove, func(i, j int) bool { return delta.Remove[i] < delta.Remove[j] })
	return delta
}
