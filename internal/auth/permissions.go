package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermRecordsRead  Permission = "records:read"
	PermRecordsWrite Permission = "records:write"
	PermFieldsManage Permission = "fields:manage"
	PermUserManage   Permission = "user:manage"
	PermAuditRead    Permission = "audit:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
//
// Receptionists manage field definitions themselves; only account
// management and the audit trail are reserved for the admin.
var rolePermissions = map[Role][]Permission{
	RoleReceptionist: {
		PermRecordsRead,
		PermRecordsWrite,
		PermFieldsManage,
	},
	RoleAdmin: {
		PermRecordsRead,
		PermRecordsWrite,
		PermFieldsManage,
		PermUserManage,
		PermAuditRead,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
