package syncengine

// Table identifies a monitored backend table. Change events are published
// per-table on their own channel.
type Table string

const (
	TablePrompts       Table = "prompts"
	TableComments      Table = "comments"
	TableReactions     Table = "reactions"
	TableSaves         Table = "saves"
	TableSubscriptions Table = "subscriptions"
)

// Op is the kind of change a ChangeEvent describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeEvent is the wire format of one backend push notification. Events
// carry keys, not entity bodies; consumers fetch detail when they need it.
type ChangeEvent struct {
	Table Table `json:"table"`
	Op    Op    `json:"op"`

	// ID is the row key. For composite-keyed tables (reactions, saves) it is
	// empty and ActorID/TargetID carry the pair instead.
	ID       string `json:"id,omitempty"`
	ActorID  string `json:"actorId,omitempty"`
	TargetID string `json:"targetId,omitempty"`

	// Status is set on subscription table events only.
	Status string `json:"status,omitempty"`
}

// ChannelFor returns the pub/sub channel a table's events are published on.
func ChannelFor(table Table) string {
	return "changes." + string(table)
}

// SubscriptionChannelFor returns the per-user channel for subscription-status
// events. Subscription pushes are scoped to a single user.
func SubscriptionChannelFor(userID string) string {
	return "changes." + string(TableSubscriptions) + "." + userID
}
