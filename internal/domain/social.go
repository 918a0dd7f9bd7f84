package domain

import "time"

// Reaction ("heart") is composite-keyed by (UserID, PromptID). Row existence
// is the boolean "has this user hearted this prompt".
type Reaction struct {
	UserID    string    `json:"userId"`
	PromptID  string    `json:"promptId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Save is a bookmark, optionally filed into a collection.
type Save struct {
	UserID       string    `json:"userId"`
	PromptID     string    `json:"promptId"`
	CollectionID *string   `json:"collectionId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Follow is composite-keyed by (FollowerID, FollowingID).
type Follow struct {
	FollowerID  string    `json:"followerId"`
	FollowingID string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Collection groups a user's saves.
type Collection struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
