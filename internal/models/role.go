// Package models defines the value objects of the admin back office: roles,
// permissions, administrators, system events and login attempts, together with
// the validated inputs of their insert and update forms.
package models

import (
	"time"
)

// Role groups administrators. A lower level is more privileged; levels need not
// be unique.
type Role struct {
	ID      int64     `json:"id"`
	Role    string    `json:"role"`
	Level   int       `json:"level"`
	Created time.Time `json:"created"`
}

// RoleRef is the short form of a role attached to a permission or administrator
type RoleRef struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// RoleInput is the insert/update form for roles
type RoleInput struct {
	Role  string `json:"role" validate:"required,max=50"`
	Level int    `json:"level" validate:"required,gt=0"`
}

// Columns returns the input keyed by column name
func (in *RoleInput) Columns() map[string]interface{} {
	return map[string]interface{}{
		"role":  in.Role,
		"level": in.Level,
	}
}

// RoleIDs returns the ids of refs
func RoleIDs(refs []RoleRef) []int64 {
	ids := make([]int64, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	return ids
}
