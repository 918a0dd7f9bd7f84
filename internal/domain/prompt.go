package domain

import "time"

// Visibility controls who can list a prompt.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
)

// Prompt is a shared content item. The Is* flags are view-dependent: they are
// computed locally from the current user's reaction/save rows, not stored on
// the server row.
type Prompt struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"authorId"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Body        string     `json:"body"`
	Type        string     `json:"type"`
	Visibility  Visibility `json:"visibility"`

	Compatibility []string `json:"compatibility,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	ViewCount    int `json:"viewCount"`
	HeartCount   int `json:"heartCount"`
	SaveCount    int `json:"saveCount"`
	ForkCount    int `json:"forkCount"`
	CommentCount int `json:"commentCount"`

	// ParentID links a fork to its original.
	ParentID *string `json:"parentId,omitempty"`

	IsHearted bool `json:"isHearted"`
	IsSaved   bool `json:"isSaved"`
	IsForked  bool `json:"isForked"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment is a flat comment on a prompt.
type Comment struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"promptId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
