package domain

import "strings"

// Invite allowances per role.
const (
	InvitesAdmin   = 999
	InvitesPro     = 10
	InvitesGeneral = 5
)

// InAllowList reports whether email is one of the bootstrap administrator
// addresses. Comparison is case-insensitive.
func InAllowList(email string, allowList []string) bool {
	for _, a := range allowList {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}

// DeriveRole computes the authorization tier from scratch. Allow-list
// membership wins over subscription status; an active subscription grants
// pro; everything else is general. Any previously stored role is ignored.
func DeriveRole(identity Identity, status SubscriptionStatus, allowList []string) Role {
	if InAllowList(identity.Email, allowList) {
		return RoleAdmin
	}
	if status == SubscriptionActive {
		return RolePro
	}
	return RoleGeneral
}

// InviteLimit returns the invite allowance for a role.
func InviteLimit(role Role) int {
	switch role {
	case RoleAdmin:
		return InvitesAdmin
	case RolePro:
		return InvitesPro
	default:
		return InvitesGeneral
	}
}
