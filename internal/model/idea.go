package model

import "time"

// IdeaStatus is the lifecycle state of an idea.
type IdeaStatus string

const (
	IdeaDraft    IdeaStatus = "draft"
	IdeaActive   IdeaStatus = "active"
	IdeaArchived IdeaStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s IdeaStatus) Valid() bool {
	switch s {
	case IdeaDraft, IdeaActive, IdeaArchived:
		return true
	}
	return false
}

// Idea is a proposal posted by a user.
//
// AuthorUsername is not a column of the ideas table; repositories fill it
// from a join so listings can show who posted without a second lookup.
type Idea struct {
	ID             string     `json:"id"             db:"id"`
	Title          string     `json:"title"          db:"title"`
	Description    string     `json:"description"    db:"description"`
	Status         IdeaStatus `json:"status"         db:"status"`
	AuthorID       string     `json:"authorId"       db:"author_id"`
	AuthorUsername string     `json:"author"         db:"author_username"`
	CreatedAt      time.Time  `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt"      db:"updated_at"`
}
