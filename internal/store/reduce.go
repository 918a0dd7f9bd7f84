package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/promptdeck/syncengine/internal/domain"
)

// Reduce applies one action to the state and returns the next state. It is
// total and synchronous: it never returns an error, never performs I/O, and
// treats unknown action types as a no-op. Side effects that belong to a
// transition (owner notifications, counter bumps, viewer flags) are computed
// inside the same transition so one action yields one atomic update.
//
// Every action except SetUser requires a current user; without one the input
// state is returned unchanged. That rule is what makes stray reconciliation
// events after sign-out harmless.
func Reduce(s State, a Action) State {
	if set, ok := a.(SetUser); ok {
		next := s.Clone()
		u := set.User
		next.CurrentUser = &u
		refreshViewerFlags(&next)
		return next
	}

	if s.CurrentUser == nil {
		return s
	}

	next := s.Clone()
	switch act := a.(type) {
	case PatchUserRole:
		next.CurrentUser.Role = act.Role
		next.CurrentUser.SubscriptionStatus = act.SubscriptionStatus
		next.CurrentUser.InvitesRemaining = act.InvitesRemaining

	case ClearUser:
		next.CurrentUser = nil
		next.Reactions = nil
		next.Saves = nil
		next.Follows = nil
		next.Notifications = nil
		next.Drafts = nil
		next.Collections = nil
		for i := range next.Prompts {
			next.Prompts[i].IsHearted = false
			next.Prompts[i].IsSaved = false
			next.Prompts[i].IsForked = false
		}

	case SetPrompts:
		next.Prompts = make([]domain.Prompt, len(act.Prompts))
		for i, p := range act.Prompts {
			next.Prompts[i] = clonePrompt(p)
		}
		refreshViewerFlags(&next)

	case UpsertPrompt:
		applyUpsertPrompt(&next, act.Prompt)

	case RemovePrompt:
		applyRemovePrompt(&next, act.ID)

	case RecordView:
		if i := next.promptIndex(act.ID); i >= 0 {
			next.Prompts[i].ViewCount++
		}

	case AddReaction:
		applyAddReaction(&next, act.Reaction)

	case RemoveReaction:
		applyRemoveReaction(&next, act.UserID, act.PromptID)

	case AddSave:
		applyAddSave(&next, act.Save)

	case RemoveSave:
		applyRemoveSave(&next, act.UserID, act.PromptID)

	case ForkPrompt:
		applyFork(&next, act.OriginalID, act.Prompt)

	case UpsertComment:
		applyUpsertComment(&next, act.Comment)

	case RemoveComment:
		applyRemoveComment(&next, act.ID)

	case UpsertDraft:
		applyUpsertDraft(&next, act.Draft)

	case RemoveDraft:
		next.Drafts = removeDraft(next.Drafts, act.ID)

	case MarkNotificationRead:
		for i := range next.Notifications {
			if next.Notifications[i].ID == act.ID {
				next.Notifications[i].Read = true
			}
		}

	case MarkAllNotificationsRead:
		for i := range next.Notifications {
			next.Notifications[i].Read = true
		}

	case PatchFilters:
		applyPatchFilters(&next, act.Patch)

	case AddFollow:
		if act.Follow.FollowerID != act.Follow.FollowingID &&
			!next.hasFollow(act.Follow.FollowerID, act.Follow.FollowingID) {
			next.Follows = append(next.Follows, act.Follow)
		}

	case RemoveFollow:
		out := next.Follows[:0]
		for _, f := range next.Follows {
			if f.FollowerID == act.FollowerID && f.FollowingID == act.FollowingID {
				continue
			}
			out = append(out, f)
		}
		next.Follows = out

	default:
		// Unknown actions are a defined no-op.
		return s
	}
	return next
}

// refreshViewerFlags recomputes the per-viewer prompt flags from the current
// user's reaction/save rows and fork lineage.
func refreshViewerFlags(s *State) {
	if s.CurrentUser == nil {
		return
	}
	uid := s.CurrentUser.ID
	for i := range s.Prompts {
		p := &s.Prompts[i]
		p.IsHearted = s.hasReaction(uid, p.ID)
		p.IsSaved = s.hasSave(uid, p.ID)
		p.IsForked = hasForkBy(s.Prompts, p.ID, uid)
	}
}

func hasForkBy(prompts []domain.Prompt, originalID, userID string) bool {
	for i := range prompts {
		if prompts[i].AuthorID == userID && prompts[i].ParentID != nil && *prompts[i].ParentID == originalID {
			return true
		}
	}
	return false
}

func applyUpsertPrompt(s *State, p domain.Prompt) {
	p = clonePrompt(p)
	uid := s.CurrentUser.ID
	p.IsHearted = s.hasReaction(uid, p.ID)
	p.IsSaved = s.hasSave(uid, p.ID)
	if i := s.promptIndex(p.ID); i >= 0 {
		s.Prompts[i] = p
		return
	}
	s.Prompts = append([]domain.Prompt{p}, s.Prompts...)
}

func applyRemovePrompt(s *State, id string) {
	prompts := s.Prompts[:0]
	for _, p := range s.Prompts {
		if p.ID != id {
			prompts = append(prompts, p)
		}
	}
	s.Prompts = prompts

	comments := s.Comments[:0]
	for _, c := range s.Comments {
		if c.PromptID != id {
			comments = append(comments, c)
		}
	}
	s.Comments = comments

	reactions := s.Reactions[:0]
	for _, r := range s.Reactions {
		if r.PromptID != id {
			reactions = append(reactions, r)
		}
	}
	s.Reactions = reactions

	saves := s.Saves[:0]
	for _, sv := range s.Saves {
		if sv.PromptID != id {
			saves = append(saves, sv)
		}
	}
	s.Saves = saves
}

func applyAddReaction(s *State, r domain.Reaction) {
	if s.hasReaction(r.UserID, r.PromptID) {
		return
	}
	s.Reactions = append(s.Reactions, r)
	if i := s.promptIndex(r.PromptID); i >= 0 {
		s.Prompts[i].HeartCount++
		if r.UserID == s.CurrentUser.ID {
			s.Prompts[i].IsHearted = true
		}
	}
}

func applyRemoveReaction(s *State, userID, promptID string) {
	if !s.hasReaction(userID, promptID) {
		return
	}
	out := s.Reactions[:0]
	for _, r := range s.Reactions {
		if r.UserID == userID && r.PromptID == promptID {
			continue
		}
		out = append(out, r)
	}
	s.Reactions = out
	if i := s.promptIndex(promptID); i >= 0 {
		if s.Prompts[i].HeartCount > 0 {
			s.Prompts[i].HeartCount--
		}
		if userID == s.CurrentUser.ID {
			s.Prompts[i].IsHearted = false
		}
	}
}

func applyAddSave(s *State, sv domain.Save) {
	if s.hasSave(sv.UserID, sv.PromptID) {
		return
	}
	s.Saves = append(s.Saves, sv)
	i := s.promptIndex(sv.PromptID)
	if i < 0 {
		return
	}
	s.Prompts[i].SaveCount++
	if sv.UserID == s.CurrentUser.ID {
		s.Prompts[i].IsSaved = true
	}
	// Owner notifications accompany locally-initiated saves only; reconciled
	// saves from other clients arrive bare.
	if owner := s.Prompts[i].AuthorID; sv.UserID == s.CurrentUser.ID && owner != "" && owner != sv.UserID {
		s.Notifications = append(s.Notifications, domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: owner,
			Type:        domain.NotificationSave,
			Message:     fmt.Sprintf("Your prompt %q was saved", s.Prompts[i].Title),
			Data: map[string]string{
				"promptId": sv.PromptID,
				"actorId":  sv.UserID,
			},
			CreatedAt: sv.CreatedAt,
		})
	}
}

func applyRemoveSave(s *State, userID, promptID string) {
	if !s.hasSave(userID, promptID) {
		return
	}
	out := s.Saves[:0]
	for _, sv := range s.Saves {
		if sv.UserID == userID && sv.PromptID == promptID {
			continue
		}
		out = append(out, sv)
	}
	s.Saves = out
	if i := s.promptIndex(promptID); i >= 0 {
		if s.Prompts[i].SaveCount > 0 {
			s.Prompts[i].SaveCount--
		}
		if userID == s.CurrentUser.ID {
			s.Prompts[i].IsSaved = false
		}
	}
}

func applyFork(s *State, originalID string, fork domain.Prompt) {
	i := s.promptIndex(originalID)
	if i >= 0 {
		s.Prompts[i].ForkCount++
		if fork.AuthorID == s.CurrentUser.ID {
			s.Prompts[i].IsForked = true
		}
		if owner := s.Prompts[i].AuthorID; fork.AuthorID == s.CurrentUser.ID && owner != "" && owner != fork.AuthorID {
			s.Notifications = append(s.Notifications, domain.Notification{
				ID:          uuid.NewString(),
				RecipientID: owner,
				Type:        domain.NotificationFork,
				Message:     fmt.Sprintf("Your prompt %q was forked", s.Prompts[i].Title),
				Data: map[string]string{
					"promptId": originalID,
					"forkId":   fork.ID,
					"actorId":  fork.AuthorID,
				},
				CreatedAt: fork.CreatedAt,
			})
		}
	}
	s.Prompts = append([]domain.Prompt{clonePrompt(fork)}, s.Prompts...)
}

func applyUpsertComment(s *State, c domain.Comment) {
	for i := range s.Comments {
		if s.Comments[i].ID == c.ID {
			s.Comments[i] = c
			return
		}
	}
	s.Comments = append(s.Comments, c)
	if i := s.promptIndex(c.PromptID); i >= 0 {
		s.Prompts[i].CommentCount++
	}
}

func applyRemoveComment(s *State, id string) {
	for i := range s.Comments {
		if s.Comments[i].ID != id {
			continue
		}
		promptID := s.Comments[i].PromptID
		s.Comments = append(s.Comments[:i], s.Comments[i+1:]...)
		if j := s.promptIndex(promptID); j >= 0 && s.Prompts[j].CommentCount > 0 {
			s.Prompts[j].CommentCount--
		}
		return
	}
}

func applyUpsertDraft(s *State, d domain.Draft) {
	d = cloneDraft(d)
	for i := range s.Drafts {
		if s.Drafts[i].ID == d.ID {
			s.Drafts[i] = d
			return
		}
	}
	s.Drafts = append([]domain.Draft{d}, s.Drafts...)
}

func removeDraft(drafts []domain.Draft, id string) []domain.Draft {
	out := drafts[:0]
	for _, d := range drafts {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

func applyPatchFilters(s *State, p domain.FiltersPatch) {
	if p.Query != nil {
		s.Filters.Query = domain.CoerceQuery(p.Query)
	}
	if p.Category != nil {
		s.Filters.Category = *p.Category
	}
	if p.Type != nil {
		s.Filters.Type = *p.Type
	}
	if p.Tags != nil {
		s.Filters.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Sort != nil {
		s.Filters.Sort = *p.Sort
	}
}
