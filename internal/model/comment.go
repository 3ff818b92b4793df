package model

import "time"

// ParentKind discriminates what a comment is attached to.
type ParentKind string

const (
	ParentIdea           ParentKind = "idea"
	ParentImplementation ParentKind = "implementation"
)

// CommentParent is the tagged reference from a comment to its parent.
//
// A comment belongs to exactly one parent. The storage layer derives the
// concrete idea_id / implementation_id column from Kind.
type CommentParent struct {
	Kind ParentKind `json:"kind"`
	ID   string     `json:"id"`
}

// IdeaParent references an idea.
func IdeaParent(id string) CommentParent {
	return CommentParent{Kind: ParentIdea, ID: id}
}

// ImplementationParent references an implementation.
func ImplementationParent(id string) CommentParent {
	return CommentParent{Kind: ParentImplementation, ID: id}
}

// Valid reports whether the parent has a known kind and a non-empty id.
func (p CommentParent) Valid() bool {
	return (p.Kind == ParentIdea || p.Kind == ParentImplementation) && p.ID != ""
}

// Comment is a remark on an idea or an implementation.
type Comment struct {
	ID             string        `json:"id"`
	Content        string        `json:"content"`
	Parent         CommentParent `json:"parent"`
	AuthorID       string        `json:"authorId"`
	AuthorUsername string        `json:"author"`
	CreatedAt      time.Time     `json:"createdAt"`
}
