package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptdeck/syncengine"
	"github.com/promptdeck/syncengine/gate"
	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/store"
)

// EngageUsecase is the write-through half of the action dispatcher: each
// operation checks its quota, applies the optimistic store transition, then
// persists to the backend. A failed backend write is logged and surfaced but
// the optimistic state stands; the echoed change event or the next full
// refresh reconverges it.
type EngageUsecase struct {
	store       *store.Store
	prompts     PromptRepository
	comments    CommentRepository
	engagements EngagementRepository
	drafts      DraftRepository
	limits      *LimitsUsecase

	hashMu      sync.Mutex
	draftHashes map[string]uint64
}

func NewEngageUsecase(
	st *store.Store,
	prompts PromptRepository,
	comments CommentRepository,
	engagements EngagementRepository,
	drafts DraftRepository,
	limits *LimitsUsecase,
) *EngageUsecase {
	return &EngageUsecase{
		store:       st,
		prompts:     prompts,
		comments:    comments,
		engagements: engagements,
		drafts:      drafts,
		limits:      limits,
	}
}

func (uc *EngageUsecase) currentUser() (*domain.User, error) {
	snapshot := uc.store.Snapshot()
	if snapshot.CurrentUser == nil {
		return nil, fmt.Errorf("no authenticated user")
	}
	return snapshot.CurrentUser, nil
}

// ToggleHeart adds or removes the current user's reaction on a prompt.
func (uc *EngageUsecase) ToggleHeart(ctx context.Context, promptID string) error {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.ToggleHeart")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return err
	}

	snapshot := uc.store.Snapshot()
	hearted := false
	for _, r := range snapshot.Reactions {
		if r.UserID == user.ID && r.PromptID == promptID {
			hearted = true
			break
		}
	}

	if hearted {
		uc.store.Dispatch(store.RemoveReaction{UserID: user.ID, PromptID: promptID})
		if err := uc.engagements.DeleteReaction(ctx, user.ID, promptID); err != nil {
			return uc.writeFailed(span, err, "EngageUsecase.ToggleHeart: delete failed")
		}
		return nil
	}

	if err := uc.checkQuota(ctx, user, domain.ActionHearts); err != nil {
		return err
	}
	reaction := domain.Reaction{UserID: user.ID, PromptID: promptID, CreatedAt: time.Now()}
	uc.store.Dispatch(store.AddReaction{Reaction: reaction})
	if err := uc.engagements.InsertReaction(ctx, reaction); err != nil {
		return uc.writeFailed(span, err, "EngageUsecase.ToggleHeart: insert failed")
	}
	return nil
}

// ToggleSave adds or removes the current user's save, optionally filing it
// into a collection.
func (uc *EngageUsecase) ToggleSave(ctx context.Context, promptID string, collectionID *string) error {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.ToggleSave")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return err
	}

	snapshot := uc.store.Snapshot()
	saved := false
	for _, sv := range snapshot.Saves {
		if sv.UserID == user.ID && sv.PromptID == promptID {
			saved = true
			break
		}
	}

	if saved {
		uc.store.Dispatch(store.RemoveSave{UserID: user.ID, PromptID: promptID})
		if err := uc.engagements.DeleteSave(ctx, user.ID, promptID); err != nil {
			return uc.writeFailed(span, err, "EngageUsecase.ToggleSave: delete failed")
		}
		return nil
	}

	if err := uc.checkQuota(ctx, user, domain.ActionSaves); err != nil {
		return err
	}
	save := domain.Save{UserID: user.ID, PromptID: promptID, CollectionID: collectionID, CreatedAt: time.Now()}
	uc.store.Dispatch(store.AddSave{Save: save})
	if err := uc.engagements.InsertSave(ctx, save); err != nil {
		return uc.writeFailed(span, err, "EngageUsecase.ToggleSave: insert failed")
	}
	return nil
}

// Fork derives a new prompt from an existing one and bumps the original's
// fork counter in one transition.
func (uc *EngageUsecase) Fork(ctx context.Context, originalID string) (domain.Prompt, error) {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.Fork")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return domain.Prompt{}, err
	}
	if err := uc.checkQuota(ctx, user, domain.ActionForks); err != nil {
		return domain.Prompt{}, err
	}

	original, err := uc.lookupPrompt(ctx, originalID)
	if err != nil {
		wrapped := pkgerrors.Wrap(err, "EngageUsecase.Fork: original lookup failed")
		span.RecordError(wrapped)
		return domain.Prompt{}, wrapped
	}

	now := time.Now()
	fork := original
	fork.ID = uuid.NewString()
	fork.AuthorID = user.ID
	fork.Slug = syncengine.Slugify(fork.Title) + "-" + fork.ID[:8]
	fork.ParentID = &originalID
	fork.ViewCount = 0
	fork.HeartCount = 0
	fork.SaveCount = 0
	fork.ForkCount = 0
	fork.CommentCount = 0
	fork.IsHearted = false
	fork.IsSaved = false
	fork.IsForked = false
	fork.CreatedAt = now
	fork.UpdatedAt = now

	uc.store.Dispatch(store.ForkPrompt{OriginalID: originalID, Prompt: fork})
	if err := uc.prompts.Create(ctx, fork); err != nil {
		return fork, uc.writeFailed(span, err, "EngageUsecase.Fork: create failed")
	}
	return fork, nil
}

// Publish turns a draft into a prompt. The draft removal is issued as its own
// explicit transition after the create succeeds.
func (uc *EngageUsecase) Publish(ctx context.Context, draft domain.Draft) (domain.Prompt, error) {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.Publish")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return domain.Prompt{}, err
	}
	if draft.Visibility == domain.VisibilityPrivate {
		if err := uc.checkQuota(ctx, user, domain.ActionPrivatePrompts); err != nil {
			return domain.Prompt{}, err
		}
	}
	if draft.Type == "template" {
		if err := uc.checkQuota(ctx, user, domain.ActionTemplates); err != nil {
			return domain.Prompt{}, err
		}
	}

	now := time.Now()
	visibility := draft.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	prompt := domain.Prompt{
		ID:          uuid.NewString(),
		AuthorID:    user.ID,
		Title:       draft.Title,
		Slug:        syncengine.Slugify(draft.Title),
		Description: draft.Description,
		Body:        draft.Body,
		Type:        draft.Type,
		Visibility:  visibility,
		Tags:        draft.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	uc.store.Dispatch(store.UpsertPrompt{Prompt: prompt})
	if err := uc.prompts.Create(ctx, prompt); err != nil {
		return prompt, uc.writeFailed(span, err, "EngageUsecase.Publish: create failed")
	}

	if draft.ID != "" {
		uc.store.Dispatch(store.RemoveDraft{ID: draft.ID})
		if err := uc.drafts.Delete(ctx, draft.ID); err != nil {
			slog.Error("draft cleanup after publish failed",
				slog.String("draft", draft.ID),
				slog.String("error", err.Error()),
				slog.String("module", "engage"),
			)
		}
	}
	return prompt, nil
}

// SaveDraft persists an autosave snapshot. Unchanged snapshots (by content
// hash) are skipped entirely.
func (uc *EngageUsecase) SaveDraft(ctx context.Context, draft domain.Draft) error {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.SaveDraft")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return err
	}
	draft.AuthorID = user.ID
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	draft.LastSaved = time.Now()

	hash := draftHash(draft)
	uc.hashMu.Lock()
	if uc.draftHashes == nil {
		uc.draftHashes = make(map[string]uint64)
	}
	unchanged := uc.draftHashes[draft.ID] == hash
	uc.hashMu.Unlock()
	if unchanged {
		return nil
	}

	uc.store.Dispatch(store.UpsertDraft{Draft: draft})
	if err := uc.drafts.Upsert(ctx, draft); err != nil {
		return uc.writeFailed(span, err, "EngageUsecase.SaveDraft: upsert failed")
	}

	// Mark clean only once the write lands, so a failed upsert keeps the
	// draft dirty and the next autosave retries it.
	uc.hashMu.Lock()
	uc.draftHashes[draft.ID] = hash
	uc.hashMu.Unlock()
	return nil
}

// Follow follows another user. Self-follows are rejected.
func (uc *EngageUsecase) Follow(ctx context.Context, followingID string) error {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.Follow")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return err
	}
	if user.ID == followingID {
		return fmt.Errorf("cannot follow yourself")
	}
	follow := domain.Follow{FollowerID: user.ID, FollowingID: followingID, CreatedAt: time.Now()}
	uc.store.Dispatch(store.AddFollow{Follow: follow})
	if err := uc.engagements.InsertFollow(ctx, follow); err != nil {
		return uc.writeFailed(span, err, "EngageUsecase.Follow: insert failed")
	}
	return nil
}

// Unfollow removes a follow edge.
func (uc *EngageUsecase) Unfollow(ctx context.Context, followingID string) error {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.Unfollow")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return err
	}
	uc.store.Dispatch(store.RemoveFollow{FollowerID: user.ID, FollowingID: followingID})
	if err := uc.engagements.DeleteFollow(ctx, user.ID, followingID); err != nil {
		return uc.writeFailed(span, err, "EngageUsecase.Unfollow: delete failed")
	}
	return nil
}

// AddComment posts a comment on a prompt.
func (uc *EngageUsecase) AddComment(ctx context.Context, promptID, body string) (domain.Comment, error) {
	ctx, span := tracer.Start(ctx, "Engage.Usecase.AddComment")
	defer span.End()

	user, err := uc.currentUser()
	if err != nil {
		return domain.Comment{}, err
	}
	comment := domain.Comment{
		ID:        uuid.NewString(),
		PromptID:  promptID,
		AuthorID:  user.ID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	uc.store.Dispatch(store.UpsertComment{Comment: comment})
	if err := uc.comments.Create(ctx, comment); err != nil {
		return comment, uc.writeFailed(span, err, "EngageUsecase.AddComment: create failed")
	}
	return comment, nil
}

func (uc *EngageUsecase) checkQuota(ctx context.Context, user *domain.User, action domain.GatedAction) error {
	if gate.HasProFeatures(user) {
		return nil
	}
	blocked, err := uc.limits.IsActionBlocked(ctx, user, action)
	if err != nil {
		// Quota lookups fail open: the backend still enforces its own rules.
		slog.Error("quota check failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
			slog.String("module", "engage"),
		)
		return nil
	}
	if blocked {
		return domain.BlockedError{Action: action}
	}
	return nil
}

func (uc *EngageUsecase) lookupPrompt(ctx context.Context, id string) (domain.Prompt, error) {
	snapshot := uc.store.Snapshot()
	for _, p := range snapshot.Prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return uc.prompts.Get(ctx, id)
}

// writeFailed wraps, records, and logs a backend write failure. The
// optimistic transition has already been applied and is left in place.
func (uc *EngageUsecase) writeFailed(span trace.Span, err error, msg string) error {
	wrapped := pkgerrors.Wrap(err, msg)
	span.RecordError(wrapped)
	slog.Error("backend write failed, optimistic state stands",
		slog.String("error", wrapped.Error()),
		slog.String("module", "engage"),
	)
	return wrapped
}

func draftHash(d domain.Draft) uint64 {
	return xxh3.HashString(d.Title + "\x00" + d.Description + "\x00" + d.Body + "\x00" + d.Type)
}
