package types

import (
	"fmt"
	"strings"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// legacyRoleUser is the column default written by older databases.
const legacyRoleUser = "usuario"

// Roles lists every valid role in descending privilege order.
var Roles = []Role{RoleAdmin, RoleEditor, RoleViewer}

// ParseRole converts a stored or user-supplied string into a Role. Matching
// ignores case and surrounding whitespace. The legacy value "usuario" maps to
// RoleViewer.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleEditor):
		return RoleEditor, nil
	case string(RoleViewer), legacyRoleUser:
		return RoleViewer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
