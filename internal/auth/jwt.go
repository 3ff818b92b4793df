// Package auth provides credential primitives: bcrypt password hashing,
// signed JWTs for sessions and the API, request middleware that resolves a
// token into a principal, and the GitHub OAuth flow used to link accounts.
//
// TWO KINDS OF TOKEN, ONE FORMAT:
// Both the browser session and the API token are HS256 JWTs signed with
// SECRET_KEY. They differ only in lifetime and transport:
//   - session: 7 days by default, stored in the HttpOnly "session" cookie
//   - API token: 1 hour, sent as "Authorization: Bearer <token>"
//
// The subject claim is the user id; the user itself is re-read on every
// request, so tokens carry no roles.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer is written into and required on every token.
	Issuer = "reqimple"

	// APITokenTTL is the lifetime of tokens issued by the JSON login endpoint.
	APITokenTTL = time.Hour
)

// TokenService signs and verifies tokens with one HMAC key.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Example: SECRET_KEY=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret key must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// claims is the JWT payload. "sub" (Subject) carries the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for userID that expires after ttl.
func (s *TokenService) Generate(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot sign a token without a subject")
	}
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate returns the user id of a token that is HS256-signed with this
// key, issued by Issuer and not yet expired.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}

	return c.Subject, nil
}
