package model

import "time"

// ImplementationType classifies what an implementation links to.
type ImplementationType string

const (
	TypeGitHubRepo ImplementationType = "github_repo"
	TypeLiveDemo   ImplementationType = "live_demo"
	TypeArticle    ImplementationType = "article"
	TypePrototype  ImplementationType = "prototype"
	TypeOther      ImplementationType = "other"
)

// ImplementationStatus is the moderation state of an implementation.
//
// MODERATION WORKFLOW:
//
//	pending ⇄ verified   (admin toggle)
//	hidden               (stored value only; nothing transitions into it)
type ImplementationStatus string

const (
	ImplementationPending  ImplementationStatus = "pending"
	ImplementationVerified ImplementationStatus = "verified"
	ImplementationHidden   ImplementationStatus = "hidden"
)

// Toggled returns the status an admin verification toggle moves s to.
// ok is false for statuses the toggle does not apply to.
func (s ImplementationStatus) Toggled() (next ImplementationStatus, ok bool) {
	switch s {
	case ImplementationPending:
		return ImplementationVerified, true
	case ImplementationVerified:
		return ImplementationPending, true
	}
	return s, false
}

// Implementation is a submitted realization of an idea.
type Implementation struct {
	ID             string               `json:"id"             db:"id"`
	Title          string               `json:"title"          db:"title"`
	Description    string               `json:"description"    db:"description"`
	ExternalURL    string               `json:"externalUrl"    db:"external_url"`
	Type           ImplementationType   `json:"type"           db:"type"`
	Status         ImplementationStatus `json:"status"         db:"status"`
	IdeaID         string               `json:"ideaId"         db:"idea_id"`
	IdeaTitle      string               `json:"ideaTitle"      db:"idea_title"`
	AuthorID       string               `json:"authorId"       db:"author_id"`
	AuthorUsername string               `json:"author"         db:"author_username"`
	CreatedAt      time.Time            `json:"createdAt"      db:"created_at"`
}
