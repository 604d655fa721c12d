package middleware

import (
	"context"
	"net/http"
	"strings"

	"codeapt/internal/common"
	"codeapt/internal/common/security"
	"codeapt/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// withIdentity reads the verified token from the request context and stores
// the user id and role. It returns a client-facing message on failure.
func withIdentity(r *http.Request) (context.Context, string) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		if strings.Contains(err.Error(), "token not found") || token == nil {
			return nil, "Authorization token required"
		}
		return nil, "Invalid token: " + err.Error()
	}
	if token == nil {
		return nil, "Invalid token"
	}

	identity, err := security.ClaimsFromMap(claims)
	if err != nil {
		return nil, "Invalid token claims: " + err.Error()
	}

	ctx := context.WithValue(r.Context(), UserIDCtxKey, identity.UserID)
	ctx = context.WithValue(ctx, UserRoleCtxKey, identity.Role)
	return ctx, ""
}

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, msg := withIdentity(r)
		if ctx == nil {
			common.RespondWithError(w, http.StatusUnauthorized, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and serves anonymous requests unchanged.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, _ := withIdentity(r); ctx != nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get user role from context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}
