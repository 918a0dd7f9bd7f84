package models

import "time"

type Profile struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:text"`
	Email              string    `json:"email" gorm:"type:text;uniqueIndex"`
	Username           string    `json:"username" gorm:"type:text"`
	DisplayName        string    `json:"displayName" gorm:"type:text"`
	Bio                string    `json:"bio" gorm:"type:text"`
	Links              []string  `json:"links" gorm:"serializer:json"`
	Reputation         int       `json:"reputation" gorm:"type:integer;default:0"`
	SubscriptionStatus string    `json:"subscriptionStatus" gorm:"type:text;default:'active'"`
	IsAffiliate        bool      `json:"isAffiliate" gorm:"type:boolean;default:false"`
	CDate              time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate              time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

// Subscription is the billing feed's row for a user. Absence means the user
// has never subscribed.
type Subscription struct {
	UserID string    `json:"userId" gorm:"primaryKey;type:text"`
	Status string    `json:"status" gorm:"type:text"`
	MDate  time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Prompt struct {
	ID          string   `json:"id" gorm:"primaryKey;type:text"`
	AuthorID    string   `json:"authorId" gorm:"type:text;index"`
	Title       string   `json:"title" gorm:"type:text"`
	Slug        string   `json:"slug" gorm:"type:text;index"`
	Description string   `json:"description" gorm:"type:text"`
	Body        string   `json:"body" gorm:"type:text"`
	Type        string   `json:"type" gorm:"type:text;index"`
	Visibility  string   `json:"visibility" gorm:"type:text;index"`
	Compat      []string `json:"compatibility" gorm:"serializer:json"`
	Tags        []string `json:"tags" gorm:"serializer:json"`

	ViewCount    int `json:"viewCount" gorm:"type:integer;default:0"`
	HeartCount   int `json:"heartCount" gorm:"type:integer;default:0"`
	SaveCount    int `json:"saveCount" gorm:"type:integer;default:0"`
	ForkCount    int `json:"forkCount" gorm:"type:integer;default:0"`
	CommentCount int `json:"commentCount" gorm:"type:integer;default:0"`

	ParentID *string `json:"parentId" gorm:"type:text;index"`

	CDate time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate time.Time `json:"mdate" gorm:"autoUpdateTime"`
}

type Comment struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	PromptID string    `json:"promptId" gorm:"type:text;index"`
	Prompt   Prompt    `json:"-" gorm:"foreignKey:PromptID;references:ID;constraint:OnDelete:CASCADE;"`
	AuthorID string    `json:"authorId" gorm:"type:text;index"`
	Body     string    `json:"body" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Reaction struct {
	UserID   string    `json:"userId" gorm:"primaryKey;type:text"`
	PromptID string    `json:"promptId" gorm:"primaryKey;type:text"`
	Prompt   Prompt    `json:"-" gorm:"foreignKey:PromptID;references:ID;constraint:OnDelete:CASCADE;"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Save struct {
	UserID       string    `json:"userId" gorm:"primaryKey;type:text"`
	PromptID     string    `json:"promptId" gorm:"primaryKey;type:text"`
	Prompt       Prompt    `json:"-" gorm:"foreignKey:PromptID;references:ID;constraint:OnDelete:CASCADE;"`
	CollectionID *string   `json:"collectionId" gorm:"type:text"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Follow struct {
	FollowerID  string    `json:"followerId" gorm:"primaryKey;type:text"`
	FollowingID string    `json:"followingId" gorm:"primaryKey;type:text"`
	CDate       time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Draft struct {
	ID          string            `json:"id" gorm:"primaryKey;type:text"`
	AuthorID    string            `json:"authorId" gorm:"type:text;index"`
	Title       string            `json:"title" gorm:"type:text"`
	Description string            `json:"description" gorm:"type:text"`
	Body        string            `json:"body" gorm:"type:text"`
	Type        string            `json:"type" gorm:"type:text"`
	Visibility  string            `json:"visibility" gorm:"type:text"`
	Tags        []string          `json:"tags" gorm:"serializer:json"`
	Metadata    map[string]string `json:"metadata" gorm:"serializer:json"`
	LastSaved   time.Time         `json:"lastSaved" gorm:"type:timestamp with time zone"`
}

// Export records one export action for quota accounting. Rows are written by
// the export surface, not by the sync engine.
type Export struct {
	ID       string    `json:"id" gorm:"primaryKey;type:text"`
	UserID   string    `json:"userId" gorm:"type:text;index"`
	PromptID string    `json:"promptId" gorm:"type:text"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}
