package store

import (
	"github.com/promptdeck/syncengine/internal/domain"
)

// State is the normalized in-memory mirror of server-authoritative entities
// plus the transient search filters. It is owned exclusively by the Store;
// consumers only ever see clones.
type State struct {
	CurrentUser *domain.User `json:"currentUser,omitempty"`

	Prompts       []domain.Prompt       `json:"prompts"`
	Comments      []domain.Comment      `json:"comments"`
	Reactions     []domain.Reaction     `json:"reactions"`
	Saves         []domain.Save         `json:"saves"`
	Follows       []domain.Follow       `json:"follows"`
	Notifications []domain.Notification `json:"notifications"`
	Drafts        []domain.Draft        `json:"drafts"`
	Collections   []domain.Collection   `json:"collections"`

	Filters domain.SearchFilters `json:"searchFilters"`
}

// Clone deep-copies the state. Reduce works on a clone so the input state is
// never mutated.
func (s State) Clone() State {
	out := s
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		u.Links = append([]string(nil), s.CurrentUser.Links...)
		out.CurrentUser = &u
	}
	out.Prompts = make([]domain.Prompt, len(s.Prompts))
	for i, p := range s.Prompts {
		out.Prompts[i] = clonePrompt(p)
	}
	out.Comments = append([]domain.Comment(nil), s.Comments...)
	out.Reactions = append([]domain.Reaction(nil), s.Reactions...)
	out.Saves = append([]domain.Save(nil), s.Saves...)
	out.Follows = append([]domain.Follow(nil), s.Follows...)
	out.Notifications = make([]domain.Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		out.Notifications[i] = cloneNotification(n)
	}
	out.Drafts = make([]domain.Draft, len(s.Drafts))
	for i, d := range s.Drafts {
		out.Drafts[i] = cloneDraft(d)
	}
	out.Collections = append([]domain.Collection(nil), s.Collections...)
	out.Filters.Tags = append([]string(nil), s.Filters.Tags...)
	return out
}

func clonePrompt(p domain.Prompt) domain.Prompt {
	p.Compatibility = append([]string(nil), p.Compatibility...)
	p.Tags = append([]string(nil), p.Tags...)
	if p.ParentID != nil {
		id := *p.ParentID
		p.ParentID = &id
	}
	return p
}

func cloneNotification(n domain.Notification) domain.Notification {
	if n.Data != nil {
		data := make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	return n
}

func cloneDraft(d domain.Draft) domain.Draft {
	d.Tags = append([]string(nil), d.Tags...)
	if d.Metadata != nil {
		meta := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
		d.Metadata = meta
	}
	return d
}

func (s *State) promptIndex(id string) int {
	for i := range s.Prompts {
		if s.Prompts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) hasReaction(userID, promptID string) bool {
	for i := range s.Reactions {
		if s.Reactions[i].UserID == userID && s.Reactions[i].PromptID == promptID {
			return true
		}
	}
	return false
}

func (s *State) hasSave(userID, promptID string) bool {
	for i := range s.Saves {
		if s.Saves[i].UserID == userID && s.Saves[i].PromptID == promptID {
			return true
		}
	}
	return false
}

func (s *State) hasFollow(followerID, followingID string) bool {
	for i := range s.Follows {
		if s.Follows[i].FollowerID == followerID && s.Follows[i].FollowingID == followingID {
			return true
		}
	}
	return false
}
