package domain

import "time"

// EngagementKind classifies upgrade-prompt interactions.
type EngagementKind string

const (
	EngagementImpression EngagementKind = "impression"
	EngagementClick      EngagementKind = "click"
	EngagementDismiss    EngagementKind = "dismiss"
)

// EngagementEvent is one entry in the local-only engagement log.
type EngagementEvent struct {
	UserID string         `json:"userId"`
	Action GatedAction    `json:"action"`
	Kind   EngagementKind `json:"kind"`
	At     time.Time      `json:"at"`
}
