// Package policy decides whether an actor may perform a mutating action.
//
// Every function is pure: the result depends only on the arguments. Callers
// turn a false result into types.ErrPermissionDenied. No other package
// compares roles to make a permission decision.
package policy

import "github.com/mesh-intelligence/marquee/pkg/types"

// CanDelete reports whether actor may delete a movie created by owner.
// Admins may delete anything; everyone else only their own records.
func CanDelete(role types.Role, actor, owner string) bool {
	return role == types.RoleAdmin || actor == owner
}

// CanEdit reports whether actor may edit a movie created by owner. Admins
// and editors may edit any record; viewers only their own.
func CanEdit(role types.Role, actor, owner string) bool {
	return role == types.RoleAdmin || role == types.RoleEditor || actor == owner
}

// CanCreateOrImport reports whether role may add movies, singly or in bulk.
func CanCreateOrImport(role types.Role) bool {
	return role == types.RoleAdmin || role == types.RoleEditor
}

// CanReplaceAllData reports whether role may clear the catalog.
func CanReplaceAllData(role types.Role) bool {
	return role == types.RoleAdmin
}

// CanManageUsers reports whether role may create or update accounts.
func CanManageUsers(role types.Role) bool {
	return role == types.RoleAdmin
}

// CanViewUsers reports whether role may list accounts.
func CanViewUsers(role types.Role) bool {
	return CanManageUsers(role)
}

// CanChangePassword reports whether the actor may set the password of the
// target account.
func CanChangePassword(role types.Role, actorID, targetID int64) bool {
	return role == types.RoleAdmin || actorID == targetID
}
