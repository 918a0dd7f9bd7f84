package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/promptdeck/syncengine/internal/domain"
	"github.com/promptdeck/syncengine/internal/store"
)

type mockEngagementRepo struct {
	reactions map[string]bool
	saves     map[string]bool
	follows   map[string]bool
	insertErr error
}

func newMockEngagementRepo() *mockEngagementRepo {
	return &mockEngagementRepo{
		reactions: make(map[string]bool),
		saves:     make(map[string]bool),
		follows:   make(map[string]bool),
	}
}

func (m *mockEngagementRepo) InsertReaction(ctx context.Context, r domain.Reaction) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.reactions[r.UserID+"/"+r.PromptID] = true
	return nil
}

func (m *mockEngagementRepo) DeleteReaction(ctx context.Context, userID, promptID string) error {
	delete(m.reactions, userID+"/"+promptID)
	return nil
}

func (m *mockEngagementRepo) InsertSave(ctx context.Context, s domain.Save) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.saves[s.UserID+"/"+s.PromptID] = true
	return nil
}

func (m *mockEngagementRepo) DeleteSave(ctx context.Context, userID, promptID string) error {
	delete(m.saves, userID+"/"+promptID)
	return nil
}

func (m *mockEngagementRepo) InsertFollow(ctx context.Context, f domain.Follow) error {
	m.follows[f.FollowerID+"/"+f.FollowingID] = true
	return nil
}

func (m *mockEngagementRepo) DeleteFollow(ctx context.Context, followerID, followingID string) error {
	delete(m.follows, followerID+"/"+followingID)
	return nil
}

type mockCommentRepo struct {
	byID    map[string]domain.Comment
	created []domain.Comment
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{byID: make(map[string]domain.Comment)}
}

func (m *mockCommentRepo) Get(ctx context.Context, id string) (domain.Comment, error) {
	c, ok := m.byID[id]
	if !ok {
		return domain.Comment{}, domain.NotFoundError{Resource: "comment"}
	}
	return c, nil
}

func (m *mockCommentRepo) Create(ctx context.Context, c domain.Comment) error {
	m.created = append(m.created, c)
	m.byID[c.ID] = c
	return nil
}

type mockDraftRepo struct {
	upserts   []domain.Draft
	deleted   []string
	upsertErr error
}

func (m *mockDraftRepo) Upsert(ctx context.Context, d domain.Draft) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts = append(m.upserts, d)
	return nil
}

func (m *mockDraftRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDraftRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Draft, error) {
	return nil, nil
}

type engageFixture struct {
	store       *store.Store
	prompts     *mockPromptRepo
	comments    *mockCommentRepo
	engagements *mockEngagementRepo
	drafts      *mockDraftRepo
	counter     *mockCounter
	uc          *EngageUsecase
}

func newEngageFixture(t *testing.T) *engageFixture {
	t.Helper()
	f := &engageFixture{
		store:       store.New(),
		prompts:     newMockPromptRepo(),
		comments:    newMockCommentRepo(),
		engagements: newMockEngagementRepo(),
		drafts:      &mockDraftRepo{},
		counter:     &mockCounter{counts: make(map[domain.GatedAction]int)},
	}
	limits := NewLimitsUsecase(f.counter, &mockSink{}, &fakeClock{})
	f.uc = NewEngageUsecase(f.store, f.prompts, f.comments, f.engagements, f.drafts, limits)

	f.store.Dispatch(store.SetUser{User: domain.User{ID: "u1", Email: "u@example.com", Role: domain.RoleGeneral}})
	f.store.Dispatch(store.SetPrompts{Prompts: []domain.Prompt{
		{ID: "p1", AuthorID: "owner", Title: "Hello World", Body: "body"},
	}})
	return f
}

func TestToggleHeartRoundTrip(t *testing.T) {
	f := newEngageFixture(t)

	if err := f.uc.ToggleHeart(context.Background(), "p1"); err != nil {
		t.Fatalf("toggle on failed: %v", err)
	}
	snap := f.store.Snapshot()
	if !snap.Prompts[0].IsHearted || snap.Prompts[0].HeartCount != 1 {
		t.Fatalf("expected optimistic heart applied")
	}
	if !f.engagements.reactions["u1/p1"] {
		t.Fatalf("expected backend write")
	}

	if err := f.uc.ToggleHeart(context.Background(), "p1"); err != nil {
		t.Fatalf("toggle off failed: %v", err)
	}
	snap = f.store.Snapshot()
	if snap.Prompts[0].IsHearted || snap.Prompts[0].HeartCount != 0 {
		t.Fatalf("expected heart removed")
	}
	if f.engagements.reactions["u1/p1"] {
		t.Fatalf("expected backend delete")
	}
}

func TestToggleHeartQuotaBlocked(t *testing.T) {
	f := newEngageFixture(t)
	f.counter.counts[domain.ActionHearts] = 5

	err := f.uc.ToggleHeart(context.Background(), "p1")
	if !errors.Is(err, domain.ErrActionBlocked) {
		t.Fatalf("expected blocked error, got %v", err)
	}
	if f.store.Snapshot().Prompts[0].HeartCount != 0 {
		t.Fatalf("blocked action must not touch the store")
	}
}

func TestToggleHeartWriteFailureKeepsOptimisticState(t *testing.T) {
	f := newEngageFixture(t)
	f.engagements.insertErr = fmt.Errorf("connection refused")

	err := f.uc.ToggleHeart(context.Background(), "p1")
	if err == nil {
		t.Fatalf("expected error surfaced")
	}
	// The optimistic transition stands; reconciliation owns the repair.
	if !f.store.Snapshot().Prompts[0].IsHearted {
		t.Fatalf("expected optimistic state kept after write failure")
	}
}

func TestToggleSave(t *testing.T) {
	f := newEngageFixture(t)

	if err := f.uc.ToggleSave(context.Background(), "p1", nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	snap := f.store.Snapshot()
	if !snap.Prompts[0].IsSaved {
		t.Fatalf("expected save applied")
	}
	// Saving the owner's prompt as a different user notifies the owner.
	if len(snap.Notifications) != 1 {
		t.Fatalf("expected owner notification, got %d", len(snap.Notifications))
	}

	if err := f.uc.ToggleSave(context.Background(), "p1", nil); err != nil {
		t.Fatalf("unsave failed: %v", err)
	}
	if f.store.Snapshot().Prompts[0].IsSaved {
		t.Fatalf("expected save removed")
	}
}

func TestForkBuildsDerivedPrompt(t *testing.T) {
	f := newEngageFixture(t)

	fork, err := f.uc.Fork(context.Background(), "p1")
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}
	if fork.AuthorID != "u1" {
		t.Fatalf("fork author must be the current user")
	}
	if fork.ParentID == nil || *fork.ParentID != "p1" {
		t.Fatalf("fork must link its original")
	}
	if fork.HeartCount != 0 || fork.ViewCount != 0 || fork.ForkCount != 0 {
		t.Fatalf("fork counters must start at zero")
	}
	if fork.Slug == "" || fork.Slug == "hello-world" {
		t.Fatalf("fork slug must carry a unique suffix, got %q", fork.Slug)
	}

	snap := f.store.Snapshot()
	if snap.Prompts[0].ID != fork.ID {
		t.Fatalf("expected fork prepended to the collection")
	}
	if len(f.prompts.created) != 1 {
		t.Fatalf("expected fork persisted")
	}
}

func TestForkQuota(t *testing.T) {
	f := newEngageFixture(t)
	f.counter.counts[domain.ActionForks] = 3

	_, err := f.uc.Fork(context.Background(), "p1")
	if !errors.Is(err, domain.ErrActionBlocked) {
		t.Fatalf("expected blocked, got %v", err)
	}
}

func TestForkUnknownPrompt(t *testing.T) {
	f := newEngageFixture(t)

	_, err := f.uc.Fork(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPublishRemovesDraftExplicitly(t *testing.T) {
	f := newEngageFixture(t)
	draft := domain.Draft{ID: "d1", Title: "New Prompt", Body: "text"}
	f.store.Dispatch(store.UpsertDraft{Draft: draft})

	prompt, err := f.uc.Publish(context.Background(), draft)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if prompt.Visibility != domain.VisibilityPublic {
		t.Fatalf("expected default public visibility")
	}
	if prompt.Slug != "new-prompt" {
		t.Fatalf("unexpected slug %q", prompt.Slug)
	}

	snap := f.store.Snapshot()
	if len(snap.Drafts) != 0 {
		t.Fatalf("expected draft removed after publish")
	}
	if len(f.drafts.deleted) != 1 || f.drafts.deleted[0] != "d1" {
		t.Fatalf("expected backend draft delete")
	}
}

func TestPublishPrivateBlockedOnFreeTier(t *testing.T) {
	f := newEngageFixture(t)

	_, err := f.uc.Publish(context.Background(), domain.Draft{Title: "secret", Visibility: domain.VisibilityPrivate})
	if !errors.Is(err, domain.ErrActionBlocked) {
		t.Fatalf("expected private prompt blocked on free tier, got %v", err)
	}
}

func TestPublishTemplateQuota(t *testing.T) {
	f := newEngageFixture(t)
	f.counter.counts[domain.ActionTemplates] = 2

	_, err := f.uc.Publish(context.Background(), domain.Draft{Title: "tpl", Type: "template"})
	if !errors.Is(err, domain.ErrActionBlocked) {
		t.Fatalf("expected template quota hit, got %v", err)
	}
}

func TestSaveDraftSkipsUnchanged(t *testing.T) {
	f := newEngageFixture(t)
	draft := domain.Draft{ID: "d1", Title: "WIP", Body: "text"}

	if err := f.uc.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := f.uc.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(f.drafts.upserts) != 1 {
		t.Fatalf("expected unchanged autosave skipped, got %d writes", len(f.drafts.upserts))
	}

	draft.Body = "text v2"
	if err := f.uc.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(f.drafts.upserts) != 2 {
		t.Fatalf("expected changed snapshot written")
	}
}

func TestSaveDraftFailedWriteStaysDirty(t *testing.T) {
	f := newEngageFixture(t)
	draft := domain.Draft{ID: "d1", Title: "WIP", Body: "text"}

	f.drafts.upsertErr = fmt.Errorf("connection reset")
	if err := f.uc.SaveDraft(context.Background(), draft); err == nil {
		t.Fatalf("expected upsert failure to surface")
	}

	// A failed write must not mark the draft clean: the next autosave of the
	// same content retries instead of being skipped as unchanged.
	f.drafts.upsertErr = nil
	if err := f.uc.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(f.drafts.upserts) != 1 {
		t.Fatalf("expected retry to persist the draft, got %d writes", len(f.drafts.upserts))
	}

	// Once persisted, the dedup kicks back in.
	if err := f.uc.SaveDraft(context.Background(), draft); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(f.drafts.upserts) != 1 {
		t.Fatalf("expected persisted snapshot deduped, got %d writes", len(f.drafts.upserts))
	}
}

func TestFollowSelfRejected(t *testing.T) {
	f := newEngageFixture(t)

	if err := f.uc.Follow(context.Background(), "u1"); err == nil {
		t.Fatalf("expected self-follow rejected")
	}

	if err := f.uc.Follow(context.Background(), "owner"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if !f.engagements.follows["u1/owner"] {
		t.Fatalf("expected follow persisted")
	}

	if err := f.uc.Unfollow(context.Background(), "owner"); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	if f.engagements.follows["u1/owner"] {
		t.Fatalf("expected follow removed")
	}
}

func TestAddComment(t *testing.T) {
	f := newEngageFixture(t)

	comment, err := f.uc.AddComment(context.Background(), "p1", "nice")
	if err != nil {
		t.Fatalf("comment failed: %v", err)
	}
	if comment.AuthorID != "u1" || comment.PromptID != "p1" {
		t.Fatalf("unexpected comment %+v", comment)
	}
	if f.store.Snapshot().Prompts[0].CommentCount != 1 {
		t.Fatalf("expected comment count bumped")
	}
	if len(f.comments.created) != 1 {
		t.Fatalf("expected comment persisted")
	}
}

func TestEngageRequiresUser(t *testing.T) {
	f := newEngageFixture(t)
	f.store.Dispatch(store.ClearUser{})

	if err := f.uc.ToggleHeart(context.Background(), "p1"); err == nil {
		t.Fatalf("expected error without a user")
	}
	if _, err := f.uc.Fork(context.Background(), "p1"); err == nil {
		t.Fatalf("expected error without a user")
	}
}
