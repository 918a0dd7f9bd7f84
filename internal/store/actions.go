package store

import (
	"fmt"

	"github.com/promptdeck/syncengine/internal/domain"
)

// Action is one typed state-transition request. Every mutation, optimistic or
// reconciled, is expressed as an Action and funneled through Reduce.
type Action interface {
	isAction()
}

type SetUser struct {
	User domain.User
}

// PatchUserRole updates only the derived role fields, leaving the rest of the
// user untouched. Issued when the subscription-status feed emits.
type PatchUserRole struct {
	Role               domain.Role
	SubscriptionStatus domain.SubscriptionStatus
	InvitesRemaining   int
}

// ClearUser removes the current user and every per-user row.
type ClearUser struct{}

// SetPrompts replaces the prompt collection wholesale (full list refresh).
type SetPrompts struct {
	Prompts []domain.Prompt
}

type UpsertPrompt struct {
	Prompt domain.Prompt
}

type RemovePrompt struct {
	ID string
}

// RecordView bumps a prompt's view counter.
type RecordView struct {
	ID string
}

type AddReaction struct {
	Reaction domain.Reaction
}

type RemoveReaction struct {
	UserID   string
	PromptID string
}

type AddSave struct {
	Save domain.Save
}

type RemoveSave struct {
	UserID   string
	PromptID string
}

// ForkPrompt inserts the fork and bumps the original's fork counter in one
// transition.
type ForkPrompt struct {
	OriginalID string
	Prompt     domain.Prompt
}

type UpsertComment struct {
	Comment domain.Comment
}

type RemoveComment struct {
	ID string
}

type UpsertDraft struct {
	Draft domain.Draft
}

type RemoveDraft struct {
	ID string
}

type MarkNotificationRead struct {
	ID string
}

type MarkAllNotificationsRead struct{}

type PatchFilters struct {
	Patch domain.FiltersPatch
}

type AddFollow struct {
	Follow domain.Follow
}

type RemoveFollow struct {
	FollowerID  string
	FollowingID string
}

func (SetUser) isAction()                  {}
func (PatchUserRole) isAction()            {}
func (ClearUser) isAction()                {}
func (SetPrompts) isAction()               {}
func (UpsertPrompt) isAction()             {}
func (RemovePrompt) isAction()             {}
func (RecordView) isAction()               {}
func (AddReaction) isAction()              {}
func (RemoveReaction) isAction()           {}
func (AddSave) isAction()                  {}
func (RemoveSave) isAction()               {}
func (ForkPrompt) isAction()               {}
func (UpsertComment) isAction()            {}
func (RemoveComment) isAction()            {}
func (UpsertDraft) isAction()              {}
func (RemoveDraft) isAction()              {}
func (MarkNotificationRead) isAction()     {}
func (MarkAllNotificationsRead) isAction() {}
func (PatchFilters) isAction()             {}
func (AddFollow) isAction()                {}
func (RemoveFollow) isAction()             {}

// Name returns a stable label for an action, used for logging and change
// notices.
func Name(a Action) string {
	switch a.(type) {
	case SetUser:
		return "setUser"
	case PatchUserRole:
		return "patchUserRole"
	case ClearUser:
		return "clearUser"
	case SetPrompts:
		return "setPrompts"
	case UpsertPrompt:
		return "upsertPrompt"
	case RemovePrompt:
		return "removePrompt"
	case RecordView:
		return "recordView"
	case AddReaction:
		return "addReaction"
	case RemoveReaction:
		return "removeReaction"
	case AddSave:
		return "addSave"
	case RemoveSave:
		return "removeSave"
	case ForkPrompt:
		return "forkPrompt"
	case UpsertComment:
		return "upsertComment"
	case RemoveComment:
		return "removeComment"
	case UpsertDraft:
		return "upsertDraft"
	case RemoveDraft:
		return "removeDraft"
	case MarkNotificationRead:
		return "markNotificationRead"
	case MarkAllNotificationsRead:
		return "markAllNotificationsRead"
	case PatchFilters:
		return "patchFilters"
	case AddFollow:
		return "addFollow"
	case RemoveFollow:
		return "removeFollow"
	default:
		return fmt.Sprintf("unknown(%T)", a)
	}
}
