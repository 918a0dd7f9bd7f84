package domain

import "time"

// Draft is a denormalized snapshot of an in-progress prompt. Publishing does
// not delete the draft implicitly; the caller removes it after a successful
// create.
type Draft struct {
	ID          string            `json:"id"`
	AuthorID    string            `json:"authorId"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Body        string            `json:"body"`
	Type        string            `json:"type"`
	Visibility  Visibility        `json:"visibility"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	LastSaved   time.Time         `json:"lastSaved"`
}
