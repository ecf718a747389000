package models

import (
	"time"
)

// Administrator is a back office user
type Administrator struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	Created      time.Time `json:"created"`
	Roles        []RoleRef `json:"roles"`
}

// HasRole reports whether the administrator holds the named role
func (a *Administrator) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

// Sanitize returns a copy without the password hash
func (a *Administrator) Sanitize() *Administrator {
	sanitized := *a
	sanitized.PasswordHash = ""
	return &sanitized
}

// AdministratorInput is the insert/update form for administrators. Password is
// required on insert and optional on update, where blank means unchanged.
type AdministratorInput struct {
	Name     string  `json:"name" validate:"required,max=50"`
	Username string  `json:"username" validate:"required,min=4,max=50"`
	Password string  `json:"password" validate:"omitempty,min=12"`
	Active   bool    `json:"active"`
	RoleIDs  []int64 `json:"roles" validate:"required,min=1,unique,dive,gt=0"`
}

// LoginCredentials is the login form
type LoginCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
