package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name  string
		role  types.Role
		actor string
		owner string
		want  bool
	}{
		{"admin deletes others", types.RoleAdmin, "admin", "ana", true},
		{"admin deletes own", types.RoleAdmin, "admin", "admin", true},
		{"editor deletes own", types.RoleEditor, "ana", "ana", true},
		{"editor deletes others", types.RoleEditor, "ana", "luis", false},
		{"viewer deletes own", types.RoleViewer, "viewer", "viewer", true},
		{"viewer deletes others", types.RoleViewer, "viewer", "admin", false},
		{"viewer deletes ownerless", types.RoleViewer, "viewer", "", false},
		{"unknown role deletes others", types.Role("root"), "x", "admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDelete(tt.role, tt.actor, tt.owner))
		})
	}
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(types.RoleAdmin, "admin", "ana"))
	assert.True(t, CanEdit(types.RoleEditor, "ana", "luis"))
	assert.True(t, CanEdit(types.RoleViewer, "viewer", "viewer"))
	assert.False(t, CanEdit(types.RoleViewer, "viewer", "admin"))
	assert.False(t, CanEdit(types.Role(""), "x", "y"))
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		role         types.Role
		createImport bool
		replaceAll   bool
		manageUsers  bool
	}{
		{types.RoleAdmin, true, true, true},
		{types.RoleEditor, true, false, false},
		{types.RoleViewer, false, false, false},
		{types.Role("usuario"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.createImport, CanCreateOrImport(tt.role))
			assert.Equal(t, tt.replaceAll, CanReplaceAllData(tt.role))
			assert.Equal(t, tt.manageUsers, CanManageUsers(tt.role))
			assert.Equal(t, tt.manageUsers, CanViewUsers(tt.role))
		})
	}
}

func TestCanChangePassword(t *testing.T) {
	assert.True(t, CanChangePassword(types.RoleAdmin, 1, 7))
	assert.True(t, CanChangePassword(types.RoleViewer, 7, 7))
	assert.False(t, CanChangePassword(types.RoleEditor, 3, 7))
}
