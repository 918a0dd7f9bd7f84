package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// BlockedError is returned when a gated action has exhausted its free-tier
// quota.
type BlockedError struct {
	Action GatedAction
}

func (e BlockedError) Error() string {
	if e.Action == "" {
		return "action blocked"
	}
	return fmt.Sprintf("%s blocked: free tier quota exhausted", e.Action)
}

// Is enables errors.Is matching on BlockedError.
func (e BlockedError) Is(target error) bool {
	_, ok := target.(BlockedError)
	if ok {
		return true
	}
	_, ok = target.(*BlockedError)
	return ok
}

// ErrActionBlocked is the sentinel error for quota-blocked actions.
var ErrActionBlocked = BlockedError{}
