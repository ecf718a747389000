package models

import (
	"time"
)

// LoginAttempt records one submission of the login form
type LoginAttempt struct {
	ID                int64     `json:"id"`
	AdministratorID   int64     `json:"administrator_id,omitempty"`
	AdministratorName string    `json:"administrator,omitempty"`
	Username          string    `json:"username"`
	IPAddress         string    `json:"ip_address"`
	Success           bool      `json:"success"`
	Created           time.Time `json:"created"`
}
