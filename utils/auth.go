package utils

// contains checks if a slice of strings contains an element.
func contains(slice []string, item string) bool {
	for _, a := range slice {
		if a == item {
			return true
		}
	}
	return false
}

// IsAdmin reports whether any of the member's roles is a configured admin
// role. An empty admin role list means nobody is an admin.
func IsAdmin(memberRoleIDs, adminRoleIDs []string) bool {
	if len(adminRoleIDs) == 0 {
		return false
	}
	for _, roleID := range memberRoleIDs {
		if contains(adminRoleIDs, roleID) {
			return true
		}
	}
	return false
}
