package models

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

const roleAuthenticated = "authenticated"

var (
	errMissingSubject = errors.New("token has no subject")
	errNotSignedIn    = errors.New("token does not belong to a signed-in user")
)

// SupabaseClaims are the claims Supabase Auth puts in its access tokens.
// Study sessions are owned by Subject.
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"`
	SessionID   string `json:"session_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// GetUserID returns the owning user's ID.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Validate is called by the jwt parser after the registered claims pass.
// Only signed-in, non-anonymous users may own sessions.
func (c *SupabaseClaims) Validate() error {
	if c.Subject == "" {
		return errMissingSubject
	}
	if c.Role != roleAuthenticated || c.IsAnonymous {
		return errNotSignedIn
	}
	return nil
}
