package domain

// GatedAction names a user action subject to a free-tier quota.
type GatedAction string

const (
	ActionSaves          GatedAction = "saves"
	ActionHearts         GatedAction = "hearts"
	ActionForks          GatedAction = "forks"
	ActionTemplates      GatedAction = "templates"
	ActionExports        GatedAction = "exports"
	ActionPrivatePrompts GatedAction = "privatePrompts"
)

// freeTierQuota is the fixed per-action allowance for general-tier users.
var freeTierQuota = map[GatedAction]int{
	ActionSaves:          10,
	ActionHearts:         5,
	ActionForks:          3,
	ActionTemplates:      2,
	ActionExports:        5,
	ActionPrivatePrompts: 0,
}

// QuotaFor returns the free-tier quota for an action. Unknown actions carry
// no quota (ok == false) and are therefore never blocked.
func QuotaFor(action GatedAction) (int, bool) {
	q, ok := freeTierQuota[action]
	return q, ok
}

// NearQuota reports whether usage has reached 80% of the quota, the point at
// which the upgrade prompt becomes eligible.
func NearQuota(count, quota int) bool {
	return float64(count) >= 0.8*float64(quota)
}
