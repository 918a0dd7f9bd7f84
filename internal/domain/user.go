package domain

// Role is the derived authorization tier. It is recomputed from identity and
// subscription status at every load boundary and never trusted as stored
// truth.
type Role string

const (
	RoleGeneral Role = "general"
	RolePro     Role = "pro"
	RoleAdmin   Role = "admin"
)

// SubscriptionStatus mirrors the billing feed's status values.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

// Identity is what the authentication provider asserts about a session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User is the canonical in-memory user. Role, InvitesRemaining and
// SubscriptionStatus are projections computed at load time.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	Bio         string   `json:"bio,omitempty"`
	Links       []string `json:"links,omitempty"`
	Reputation  int      `json:"reputation"`

	Role               Role               `json:"role"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	InvitesRemaining   int                `json:"invitesRemaining"`
	IsAffiliate        bool               `json:"isAffiliate"`
}
