// Package gate holds the pure feature-gate predicates. Everything here reads
// the derived role off the user object; nothing performs I/O.
package gate

import (
	"github.com/promptdeck/syncengine/internal/domain"
)

// IsAdmin reports whether the user holds the admin tier.
func IsAdmin(u *domain.User) bool {
	return u != nil && u.Role == domain.RoleAdmin
}

// HasProFeatures reports whether pro-tier features are available. Admins
// always have them.
func HasProFeatures(u *domain.User) bool {
	if u == nil {
		return false
	}
	return u.Role == domain.RolePro || u.Role == domain.RoleAdmin
}

// ShouldHidePaymentFeatures reports whether payment/upgrade surfaces should
// be hidden. There is nothing to sell to pro and admin users.
func ShouldHidePaymentFeatures(u *domain.User) bool {
	return HasProFeatures(u)
}

// HasAffiliateAccess reports whether the affiliate dashboard is available.
func HasAffiliateAccess(u *domain.User) bool {
	if u == nil {
		return false
	}
	return u.IsAffiliate || u.Role == domain.RoleAdmin
}

// GetInviteLimit returns the invite allowance for the user's tier.
func GetInviteLimit(u *domain.User) int {
	if u == nil {
		return 0
	}
	return domain.InviteLimit(u.Role)
}

// CanCreatePrivate reports whether the user may create private prompts. The
// free tier's private-prompt quota is zero, so this is a tier check.
func CanCreatePrivate(u *domain.User) bool {
	return HasProFeatures(u)
}
