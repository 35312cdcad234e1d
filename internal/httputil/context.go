package httputil

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const claimsKey contextKey = "claims"

// WithClaims stores verified token claims on the request context
func WithClaims(r *http.Request, claims *models.SupabaseClaims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	return r.WithContext(ctx)
}

// WithUserID stores claims carrying only a subject
func WithUserID(r *http.Request, userID string) *http.Request {
	return WithClaims(r, &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	})
}

// GetClaims returns the verified claims, nil on unauthenticated routes
func GetClaims(r *http.Request) *models.SupabaseClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.SupabaseClaims)
	return claims
}

// GetUserID retrieves the owner id, empty string if not authenticated
func GetUserID(r *http.Request) string {
	if claims := GetClaims(r); claims != nil {
		return claims.GetUserID()
	}
	return ""
}
