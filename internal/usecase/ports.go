package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/promptdeck/syncengine/internal/domain"
)

var tracer = otel.Tracer("usecase")

// ProfileRepository defines durable-profile persistence and the
// subscription-status lookup.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, user domain.User) error
	SubscriptionStatus(ctx context.Context, userID string) (domain.SubscriptionStatus, error)
}

// PromptRepository defines persistence/lookup for prompts.
type PromptRepository interface {
	ListPublic(ctx context.Context) ([]domain.Prompt, error)
	Get(ctx context.Context, id string) (domain.Prompt, error)
	Create(ctx context.Context, p domain.Prompt) error
	Update(ctx context.Context, p domain.Prompt) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines persistence/lookup for comments.
type CommentRepository interface {
	Get(ctx context.Context, id string) (domain.Comment, error)
	Create(ctx context.Context, c domain.Comment) error
}

// EngagementRepository writes reaction/save/follow rows.
type EngagementRepository interface {
	InsertReaction(ctx context.Context, r domain.Reaction) error
	DeleteReaction(ctx context.Context, userID, promptID string) error
	InsertSave(ctx context.Context, s domain.Save) error
	DeleteSave(ctx context.Context, userID, promptID string) error
	InsertFollow(ctx context.Context, f domain.Follow) error
	DeleteFollow(ctx context.Context, followerID, followingID string) error
}

// DraftRepository persists in-progress prompts.
type DraftRepository interface {
	Upsert(ctx context.Context, d domain.Draft) error
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Draft, error)
}

// UsageCounter reports per-user gated-action usage from the backend. The
// limit engine deliberately reads usage here, not from the store; the two are
// allowed to disagree.
type UsageCounter interface {
	Count(ctx context.Context, userID string, action domain.GatedAction) (int, error)
}

// EngagementSink receives upgrade-prompt engagement events. Implementations
// own retention (the log is capped per user).
type EngagementSink interface {
	Record(ev domain.EngagementEvent)
}

// Clock abstracts time for the cooldown policy.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
