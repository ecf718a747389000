package models

// EntityChange is what an update wrote: the changed columns of the main row and
// the role assignments added or removed.
type EntityChange struct {
	Columns map[string]interface{} `json:"columns"`
	Roles   RoleDelta              `json:"roles"`
}

// IsEmpty reports whether the update changed nothing
func (c *EntityChange) IsEmpty() bool {
	return len(c.Columns) == 0 && c.Roles.IsEmpty()
}
