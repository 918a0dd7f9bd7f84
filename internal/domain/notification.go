package domain

import "time"

// Notification types.
const (
	NotificationSave = "save"
	NotificationFork = "fork"
)

// Notification is created as a side effect of save/fork transitions when the
// actor differs from the prompt owner.
type Notification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipientId"`
	Type        string            `json:"type"`
	Message     string            `json:"message"`
	Read        bool              `json:"read"`
	Data        map[string]string `json:"data,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
