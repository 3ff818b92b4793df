// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. They play the role classes
// play in other languages, but without inheritance.
package model

import "time"

// User represents a registered account.
//
// Optional profile fields (Bio, WebsiteURL, GitHubUsername) use the empty
// string as "unset" rather than a nullable pointer.
//
// PasswordHash is a bcrypt hash. It is tagged json:"-" so it can never leak
// through an API response.
type User struct {
	ID             string    `json:"id"             db:"id"`
	Email          string    `json:"email"          db:"email"`
	Username       string    `json:"username"       db:"username"`
	DisplayName    string    `json:"displayName"    db:"display_name"`
	PasswordHash   string    `json:"-"              db:"password_hash"`
	IsAdmin        bool      `json:"isAdmin"        db:"is_admin"`
	Bio            string    `json:"bio"            db:"bio"`
	WebsiteURL     string    `json:"websiteUrl"     db:"website_url"`
	GitHubUsername string    `json:"githubUsername" db:"github_username"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}

// Principal returns the acting identity for this user.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

// Principal is the identity performing an operation. Every service method
// that reads or mutates owned data takes one explicitly; the zero value is
// the anonymous visitor.
type Principal struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// Anonymous is the principal for requests without a valid session.
var Anonymous = Principal{}

// IsAnonymous reports whether p carries no identity.
func (p Principal) IsAnonymous() bool {
	return p.UserID == ""
}

// Owns reports whether p is the user identified by authorID.
func (p Principal) Owns(authorID string) bool {
	return !p.IsAnonymous() && p.UserID == authorID
}
